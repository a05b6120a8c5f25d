package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"licitradar/internal/domain"
	"licitradar/internal/infrastructure/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return NewServer(repo, repo, nil, nil), repo
}

func doJSON(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestListTenders(t *testing.T) {
	t.Parallel()

	server, repo := newTestServer(t)
	ctx := context.Background()

	_, err := repo.InsertIfAbsent(ctx, domain.NewStub(domain.Candidate{
		ExternalID: "1234-56-LP24",
		Name:       "Servicio de aseo industrial",
	}))
	require.NoError(t, err)

	rec := doJSON(t, server, http.MethodGet, "/api/tenders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "1234-56-LP24")

	rec = doJSON(t, server, http.MethodGet, "/api/tenders?status=analyzed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "1234-56-LP24")

	rec = doJSON(t, server, http.MethodGet, "/api/tenders?status=bogus", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetStatusEndpoint(t *testing.T) {
	t.Parallel()

	server, repo := newTestServer(t)
	ctx := context.Background()

	_, err := repo.InsertIfAbsent(ctx, domain.NewStub(domain.Candidate{
		ExternalID: "1234-56-LP24",
		Name:       "Servicio de aseo industrial",
	}))
	require.NoError(t, err)
	require.NoError(t, repo.RecordDetail(ctx, "1234-56-LP24", "link", "corpus real", "30/08/2026"))
	require.NoError(t, repo.RecordInference(ctx, "1234-56-LP24", 8,
		domain.Verdict{Score: 8, Summary: "ok"}, ""))

	rec := doJSON(t, server, http.MethodPost, "/api/tenders/1234-56-LP24/status", `{"status":"favorited"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// favorited → archived is not in the transition graph.
	rec = doJSON(t, server, http.MethodPost, "/api/tenders/1234-56-LP24/status", `{"status":"archived"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/tenders/missing/status", `{"status":"favorited"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/tenders/1234-56-LP24/status", `{"status":"bogus"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server, http.MethodPut, "/api/profile",
		`{"positive_keywords":"aseo, limpieza","strategy":"Servicios de aseo"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "aseo, limpieza")
}

func TestRunWithoutPipelineIsUnavailable(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/run", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPaymentRisk(t *testing.T) {
	t.Parallel()

	tests := []struct {
		note string
		risk bool
	}{
		{"", false},
		{domain.PlaceholderNoPayment, false},
		{"0 reclamos registrados", false},
		{"3 reclamos de pago vigentes", true},
	}

	for _, tc := range tests {
		if got := paymentRisk(tc.note); got != tc.risk {
			t.Errorf("paymentRisk(%q) = %v, want %v", tc.note, got, tc.risk)
		}
	}
}
