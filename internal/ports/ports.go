package ports

import (
	"context"
	"time"

	"licitradar/internal/domain"
)

// TenderSource pulls the raw candidate batch published on a given day.
type TenderSource interface {
	FetchDaily(ctx context.Context, day time.Time) ([]domain.Candidate, error)
}

// DetailExtractor navigates the portal and captures the technical corpus
// for one tender. Failures are reported both as an error and as the
// sentinel-populated Detail shape.
type DetailExtractor interface {
	Extract(ctx context.Context, externalID string) (domain.Detail, error)
}

// Analyst runs the extracted corpus through the language model and returns
// a structured verdict, or an explicit error — never a degraded result.
type Analyst interface {
	Analyze(ctx context.Context, profile domain.Profile, tender domain.Tender) (domain.Verdict, error)
}

// TenderRepository persists the tender lifecycle. Every mutating call
// commits immediately; there is no multi-call transaction.
type TenderRepository interface {
	Exists(ctx context.Context, externalID string) (bool, error)
	InsertIfAbsent(ctx context.Context, stub domain.Tender) (bool, error)
	Get(ctx context.Context, externalID string) (domain.Tender, error)
	RecordDetail(ctx context.Context, externalID, link, corpus, publishedDate string) error
	RecordInference(ctx context.Context, externalID string, score int, verdict domain.Verdict, archiveReason string) error
	SetStatus(ctx context.Context, externalID string, status domain.Status) error
	RepairFields(ctx context.Context, externalID string, candidates domain.RepairCandidates) error
	List(ctx context.Context, status domain.Status) ([]domain.Tender, error)
}

// ProfileStore keeps the singleton strategic profile.
type ProfileStore interface {
	SaveProfile(ctx context.Context, profile domain.Profile) error
	Profile(ctx context.Context) (domain.Profile, error)
}

// Notifier delivers the post-run digest to an outbound channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipeline cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
