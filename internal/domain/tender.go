package domain

import (
	"errors"
	"time"
)

// Sentinel values planted at discovery time until a later stage supplies
// real data. They mirror the markers used by the Mercado Publico portal UI.
const (
	PlaceholderProcessing     = "Procesando..."
	PlaceholderNoTitle        = "Sin título"
	PlaceholderNoOrg          = "No detectado"
	PlaceholderNoDate         = "Sin fecha"
	PlaceholderNoLink         = "No disponible"
	PlaceholderNoPayment      = "No informado"
	SentinelCorpusUnavailable = "No se pudo extraer el detalle técnico."
)

// StatusCodePublished is the Mercado Publico status code for tenders that
// are open for bidding. Anything else is out of its reception window.
const StatusCodePublished = 5

// DisplayDateLayout is the local format tenders are shown and stored with.
const DisplayDateLayout = "02/01/2006"

var (
	ErrNotFound          = errors.New("tender not found")
	ErrNoProfile         = errors.New("profile not configured")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Status enumerates tender lifecycle milestones.
type Status string

const (
	StatusPending   Status = "pending"
	StatusExtracted Status = "extracted"
	StatusAnalyzed  Status = "analyzed"
	StatusFavorited Status = "favorited"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is one of the known lifecycle statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusExtracted, StatusAnalyzed, StatusFavorited, StatusArchived:
		return true
	}
	return false
}

// transitionSources maps a target status to the statuses it may be set from.
// The graph is strict: pending → extracted → analyzed, with the user-driven
// side states reachable only from analyzed and reversible back to it.
var transitionSources = map[Status][]Status{
	StatusExtracted: {StatusPending, StatusExtracted},
	StatusAnalyzed:  {StatusExtracted, StatusFavorited, StatusArchived},
	StatusFavorited: {StatusAnalyzed},
	StatusArchived:  {StatusAnalyzed},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	for _, src := range transitionSources[to] {
		if src == from {
			return true
		}
	}
	return false
}

// TransitionSources returns the statuses a tender may hold before being
// moved to the target status.
func TransitionSources(to Status) []Status {
	return transitionSources[to]
}

// Candidate is one raw record returned by the discovery API for a day.
type Candidate struct {
	ExternalID   string
	Name         string
	StatusCode   int
	Organization string
	ClosingDate  string
}

// Detail is the result of one detail-page extraction. On failure every
// field holds its sentinel and Corpus equals SentinelCorpusUnavailable.
type Detail struct {
	Link          string
	Corpus        string
	OfficialTitle string
	Organization  string
	PublishedDate string
	PaymentNote   string
}

// SentinelDetail returns the "nothing extracted" result shape.
func SentinelDetail(now time.Time) Detail {
	return Detail{
		Link:          PlaceholderNoLink,
		Corpus:        SentinelCorpusUnavailable,
		OfficialTitle: PlaceholderNoTitle,
		Organization:  PlaceholderNoOrg,
		PublishedDate: now.Format("2006-01-02"),
		PaymentNote:   PlaceholderNoPayment,
	}
}

// Failed reports whether the extraction produced no usable corpus.
func (d Detail) Failed() bool {
	return d.Corpus == "" || d.Corpus == SentinelCorpusUnavailable
}

// Verdict is the structured suitability document produced by inference.
// The JSON keys are the contract with the model prompt.
type Verdict struct {
	RecoveredTitle        string   `json:"titulo_recuperado"`
	RecoveredOrganization string   `json:"organismo_recuperado"`
	PaymentBehavior       string   `json:"comportamiento_pago"`
	Score                 int      `json:"score_ia"`
	Summary               string   `json:"veredicto"`
	CriticalPoints        []string `json:"puntos_criticos"`
	Risks                 []string `json:"riesgos"`
	ArchiveReason         string   `json:"motivo_archivo,omitempty"`
}

// Tender is one procurement opportunity tracked by its external id, the
// natural key assigned once at discovery and never changed.
type Tender struct {
	ExternalID    string
	Title         string
	Organization  string
	ClosingDate   string
	PublishedDate string
	PaymentNote   string
	Link          string
	Corpus        string
	Score         int
	Verdict       *Verdict
	ArchiveReason string
	Status        Status
	CreatedAt     time.Time
}

// NewStub builds the pending record registered at discovery time, with
// placeholders on every field a later stage is expected to fill.
func NewStub(c Candidate) Tender {
	title := c.Name
	if title == "" {
		title = PlaceholderNoTitle
	}
	org := c.Organization
	if org == "" {
		org = PlaceholderProcessing
	}
	closing := c.ClosingDate
	if closing == "" {
		closing = PlaceholderNoDate
	}
	return Tender{
		ExternalID:    c.ExternalID,
		Title:         title,
		Organization:  org,
		ClosingDate:   closing,
		PublishedDate: PlaceholderProcessing,
		PaymentNote:   PlaceholderNoPayment,
		Link:          PlaceholderNoLink,
		Status:        StatusPending,
	}
}
