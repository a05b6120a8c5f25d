package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchDaily(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fecha"); got != "30082026" {
			t.Errorf("fecha = %q, want 30082026", got)
		}
		if got := r.URL.Query().Get("ticket"); got != "test-ticket" {
			t.Errorf("ticket = %q, want test-ticket", got)
		}
		_, _ = w.Write([]byte(`{
			"Listado": [
				{"CodigoExterno": "1234-56-LP24", "Nombre": "Servicio de aseo industrial", "CodigoEstado": 5, "FechaCierre": "2026-09-15"},
				{"CodigoExterno": "1234-57-LP24", "Nombre": "Construcción de puente", "CodigoEstado": 7}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-ticket", server.Client(), nil)

	candidates, err := client.FetchDaily(context.Background(), day)
	if err != nil {
		t.Fatalf("FetchDaily: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].ExternalID != "1234-56-LP24" {
		t.Fatalf("unexpected external id: %s", candidates[0].ExternalID)
	}
	if candidates[0].StatusCode != 5 {
		t.Fatalf("unexpected status code: %d", candidates[0].StatusCode)
	}
	if candidates[0].ClosingDate != "2026-09-15" {
		t.Fatalf("unexpected closing date: %s", candidates[0].ClosingDate)
	}
}

func TestFetchDailyWithoutTicketFails(t *testing.T) {
	t.Parallel()

	client := NewClient("https://api.example.org/listing", "", nil, nil)

	if _, err := client.FetchDaily(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error for missing ticket")
	}
}

func TestFetchDailyPropagatesAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-ticket", server.Client(), nil)

	if _, err := client.FetchDaily(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
