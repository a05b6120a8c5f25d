package usecase

import (
	"context"
	"testing"

	"licitradar/internal/domain"
)

func TestFilterCandidates(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	known := domain.NewStub(domain.Candidate{ExternalID: "9999-01-LP24", Name: "Limpieza de oficinas"})
	if _, err := repo.InsertIfAbsent(context.Background(), known); err != nil {
		t.Fatalf("seed known tender: %v", err)
	}

	profile := domain.Profile{PositiveKeywords: "aseo, limpieza"}
	batch := []domain.Candidate{
		{ExternalID: "1234-56-LP24", Name: "Servicio de aseo industrial", StatusCode: 5},
		{ExternalID: "1234-57-LP24", Name: "Servicio de ASEO hospitalario", StatusCode: 5},
		{ExternalID: "1234-58-LP24", Name: "Servicio de aseo municipal", StatusCode: 7},
		{ExternalID: "1234-59-LP24", Name: "Construcción de puente", StatusCode: 5},
		{ExternalID: "9999-01-LP24", Name: "Limpieza de oficinas", StatusCode: 5},
	}

	relevant, err := FilterCandidates(context.Background(), repo, profile, batch)
	if err != nil {
		t.Fatalf("FilterCandidates: %v", err)
	}

	if len(relevant) != 2 {
		t.Fatalf("expected 2 relevant candidates, got %d", len(relevant))
	}
	if relevant[0].ExternalID != "1234-56-LP24" || relevant[1].ExternalID != "1234-57-LP24" {
		t.Fatalf("source order not preserved: %+v", relevant)
	}
}

func TestFilterCandidatesExcludesClosedRegardlessOfKeyword(t *testing.T) {
	t.Parallel()

	profile := domain.Profile{PositiveKeywords: "aseo"}
	batch := []domain.Candidate{
		{ExternalID: "1234-56-LP24", Name: "Servicio de aseo industrial", StatusCode: 7},
	}

	relevant, err := FilterCandidates(context.Background(), newMemRepo(), profile, batch)
	if err != nil {
		t.Fatalf("FilterCandidates: %v", err)
	}
	if len(relevant) != 0 {
		t.Fatalf("closed tender must be excluded, got %+v", relevant)
	}
}

func TestFilterCandidatesWithoutKeywordsMatchesNothing(t *testing.T) {
	t.Parallel()

	batch := []domain.Candidate{
		{ExternalID: "1234-56-LP24", Name: "Servicio de aseo industrial", StatusCode: 5},
	}

	relevant, err := FilterCandidates(context.Background(), newMemRepo(), domain.Profile{}, batch)
	if err != nil {
		t.Fatalf("FilterCandidates: %v", err)
	}
	if len(relevant) != 0 {
		t.Fatalf("empty keyword list must match nothing, got %+v", relevant)
	}
}
