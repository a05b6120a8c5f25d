package llm

import (
	"strings"
	"testing"

	"licitradar/internal/domain"
)

const sampleVerdict = `{
	"titulo_recuperado": "Servicio de Aseo Regional",
	"organismo_recuperado": "Municipalidad de X",
	"comportamiento_pago": "Sin reclamos registrados",
	"score_ia": 8,
	"veredicto": "Conveniente para el perfil.",
	"puntos_criticos": ["plazo", "garantía", "experiencia"],
	"riesgos": ["pago tardío", "multas"]
}`

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	verdict, err := parseVerdict(sampleVerdict)
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}

	if verdict.RecoveredTitle != "Servicio de Aseo Regional" {
		t.Fatalf("unexpected title: %s", verdict.RecoveredTitle)
	}
	if verdict.Score != 8 {
		t.Fatalf("unexpected score: %d", verdict.Score)
	}
	if len(verdict.CriticalPoints) != 3 || len(verdict.Risks) != 2 {
		t.Fatalf("unexpected lists: %v / %v", verdict.CriticalPoints, verdict.Risks)
	}
}

func TestParseVerdictStripsMarkdownFences(t *testing.T) {
	t.Parallel()

	fenced := "```json\n" + sampleVerdict + "\n```"
	verdict, err := parseVerdict(fenced)
	if err != nil {
		t.Fatalf("parseVerdict fenced: %v", err)
	}
	if verdict.Score != 8 {
		t.Fatalf("unexpected score: %d", verdict.Score)
	}
}

func TestParseVerdictRejectsBadOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"score_ia": `},
		{"score too high", strings.Replace(sampleVerdict, `"score_ia": 8`, `"score_ia": 15`, 1)},
		{"score missing", strings.Replace(sampleVerdict, `"score_ia": 8`, `"score_ia": 0`, 1)},
		{"summary missing", strings.Replace(sampleVerdict, `"veredicto": "Conveniente para el perfil."`, `"veredicto": ""`, 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseVerdict(tc.raw); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestBuildPromptCarriesProfileAndCorpus(t *testing.T) {
	t.Parallel()

	profile := domain.Profile{
		PositiveKeywords: "aseo, limpieza",
		NegativeKeywords: "construcción",
		Strategy:         "Empresa de servicios de aseo industrial",
	}
	tender := domain.Tender{
		ExternalID: "1234-56-LP24",
		Title:      "Servicio de aseo industrial",
		Corpus:     "Bases técnicas del servicio de aseo.",
	}

	prompt := buildPrompt(profile, tender)

	for _, fragment := range []string{
		"Empresa de servicios de aseo industrial",
		"aseo, limpieza",
		"construcción",
		"1234-56-LP24",
		"Bases técnicas del servicio de aseo.",
		"FORMATO JSON ESTRICTO",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt is missing %q", fragment)
		}
	}
}
