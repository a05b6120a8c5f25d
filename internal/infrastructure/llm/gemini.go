package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"licitradar/internal/config"
	"licitradar/internal/domain"
	"licitradar/internal/ports"
)

// GeminiAnalyst classifies the extracted corpus against the strategic
// profile and produces the structured suitability verdict.
type GeminiAnalyst struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.Analyst = (*GeminiAnalyst)(nil)

// NewGeminiAnalyst builds the inference adapter from configuration.
func NewGeminiAnalyst(ctx context.Context, cfg config.GeminiConfig, logger *slog.Logger) (*GeminiAnalyst, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required (GEMINI_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiAnalyst{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout(),
		logger:  logger,
	}, nil
}

// Analyze runs one inference call under an explicit timeout and returns the
// parsed verdict. Malformed model output or transport errors are explicit
// failures, never degraded results.
func (a *GeminiAnalyst) Analyze(ctx context.Context, profile domain.Profile, tender domain.Tender) (domain.Verdict, error) {
	if tender.Corpus == "" || tender.Corpus == domain.SentinelCorpusUnavailable {
		return domain.Verdict{}, fmt.Errorf("tender %s has no extracted corpus", tender.ExternalID)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := buildPrompt(profile, tender)
	resp, err := a.client.Models.GenerateContent(callCtx, a.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"})
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("generate content: %w", err)
	}

	verdict, err := parseVerdict(resp.Text())
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("tender %s: %w", tender.ExternalID, err)
	}

	a.debug("inference completed", "tender", tender.ExternalID, "score", verdict.Score)
	return verdict, nil
}

// buildPrompt injects the strategic profile and the tender snapshot into
// the consultant persona prompt and pins the strict JSON output contract.
func buildPrompt(profile domain.Profile, tender domain.Tender) string {
	return fmt.Sprintf(`Actúa como un Consultor experto en Licitaciones Públicas en Chile (Mercado Público).
Analiza la conveniencia de la siguiente licitación según el perfil estratégico de mi empresa.

--- PERFIL ESTRATÉGICO DE MI EMPRESA ---
- Propuesta de Valor: %s
- Objetivos de Búsqueda (Keywords+): %s
- Filtros de Exclusión (Keywords-): %s

--- DATOS TÉCNICOS DE LA LICITACIÓN ---
- ID: %s
- Título Referencial: %s
- Organismo Referencial: %s
- Corpus Extraído (Contenido Bruto):
%s

--- REQUISITOS DE SALIDA (FORMATO JSON ESTRICTO) ---
Analiza el 'Corpus Extraído' para identificar la información real y genera un JSON con:
{
    "titulo_recuperado": "Título oficial completo encontrado",
    "organismo_recuperado": "Nombre legal de la institución compradora",
    "comportamiento_pago": "Menciona reclamos de pago encontrados o historial",
    "score_ia": (Entero del 1 al 10 según idoneidad),
    "veredicto": "Resumen ejecutivo de conveniencia (máx 2 líneas)",
    "puntos_criticos": ["Lista de 3 requerimientos técnicos clave"],
    "riesgos": ["Lista de 2 riesgos potenciales encontrados"],
    "motivo_archivo": "Explicación breve de por qué se descarta (solo si score < 6)"
}`,
		profile.Strategy,
		profile.PositiveKeywords,
		profile.NegativeKeywords,
		tender.ExternalID,
		tender.Title,
		tender.Organization,
		tender.Corpus,
	)
}

// parseVerdict strips markdown fences the model occasionally emits and
// validates the required fields of the strict JSON contract.
func parseVerdict(raw string) (domain.Verdict, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var verdict domain.Verdict
	if err := json.Unmarshal([]byte(clean), &verdict); err != nil {
		return domain.Verdict{}, fmt.Errorf("malformed verdict json: %w", err)
	}

	if verdict.Score < 1 || verdict.Score > 10 {
		return domain.Verdict{}, fmt.Errorf("verdict score %d outside 1-10", verdict.Score)
	}
	if verdict.Summary == "" {
		return domain.Verdict{}, fmt.Errorf("verdict is missing its summary")
	}

	return verdict, nil
}

func (a *GeminiAnalyst) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
