package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"licitradar/internal/domain"
	"licitradar/internal/ports"
)

const defaultQuota = 5

// Summary reports what a single pipeline cycle accomplished.
type Summary struct {
	Discovered int `json:"discovered"`
	Registered int `json:"registered"`
	Analyzed   int `json:"analyzed"`
	Skipped    int `json:"skipped"`
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source    ports.TenderSource
	Repo      ports.TenderRepository
	Profiles  ports.ProfileStore
	Extractor ports.DetailExtractor
	Analyst   ports.Analyst
	Notifier  ports.Notifier
	Logger    *slog.Logger
	Quota     int
	ItemDelay time.Duration
	Now       func() time.Time
}

// Pipeline drives the tender lifecycle for one run: discover, filter,
// register stubs, then extract → infer → repair each new tender up to the
// per-run quota. Adapter failures are contained per item; only discovery
// failure is fatal to the run.
type Pipeline struct {
	source    ports.TenderSource
	repo      ports.TenderRepository
	profiles  ports.ProfileStore
	extractor ports.DetailExtractor
	analyst   ports.Analyst
	notifier  ports.Notifier
	logger    *slog.Logger
	quota     int
	itemDelay time.Duration
	now       func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	quota := deps.Quota
	if quota <= 0 {
		quota = defaultQuota
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		source:    deps.Source,
		repo:      deps.Repo,
		profiles:  deps.Profiles,
		extractor: deps.Extractor,
		analyst:   deps.Analyst,
		notifier:  deps.Notifier,
		logger:    deps.Logger,
		quota:     quota,
		itemDelay: deps.ItemDelay,
		now:       now,
	}
}

// RunCycle executes one full pipeline cycle for "today". It is idempotent
// with respect to already-registered external ids and safe to invoke
// repeatedly from a scheduler.
func (p *Pipeline) RunCycle(ctx context.Context) (Summary, error) {
	var summary Summary

	if p.source == nil || p.repo == nil || p.profiles == nil || p.extractor == nil || p.analyst == nil {
		return summary, fmt.Errorf("pipeline is missing a required adapter")
	}

	profile, err := p.profiles.Profile(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoProfile) {
			p.warn("no strategic profile configured, nothing to match against")
			return summary, nil
		}
		return summary, fmt.Errorf("load profile: %w", err)
	}

	day := p.now()
	batch, err := p.source.FetchDaily(ctx, day)
	if err != nil {
		return summary, fmt.Errorf("discover tenders: %w", err)
	}

	summary.Discovered = len(batch)
	if len(batch) == 0 {
		p.info("no tenders published today")
		return summary, nil
	}

	relevant, err := FilterCandidates(ctx, p.repo, profile, batch)
	if err != nil {
		return summary, fmt.Errorf("filter candidates: %w", err)
	}
	p.info("filtered discovery batch", "discovered", len(batch), "relevant", len(relevant))

	newIDs := make([]string, 0, len(relevant))
	for _, candidate := range relevant {
		inserted, err := p.repo.InsertIfAbsent(ctx, domain.NewStub(candidate))
		if err != nil {
			return summary, fmt.Errorf("register stub %s: %w", candidate.ExternalID, err)
		}
		if inserted {
			newIDs = append(newIDs, candidate.ExternalID)
		}
	}

	summary.Registered = len(newIDs)
	if len(newIDs) == 0 {
		p.info("every discovered tender was already registered")
		return summary, nil
	}

	var digest []digestEntry
	for _, id := range newIDs {
		if summary.Analyzed >= p.quota {
			p.info("per-run quota reached", "quota", p.quota)
			break
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		entry, ok := p.processOne(ctx, profile, id)
		if ok {
			summary.Analyzed++
			digest = append(digest, entry)
		} else {
			summary.Skipped++
		}

		p.pace(ctx)
	}

	p.publishDigest(ctx, summary, digest)

	p.info("cycle completed",
		"discovered", summary.Discovered,
		"registered", summary.Registered,
		"analyzed", summary.Analyzed,
		"skipped", summary.Skipped)
	return summary, nil
}

type digestEntry struct {
	externalID string
	title      string
	score      int
	link       string
	verdict    string
}

// processOne runs the extract → persist → infer → persist → repair sequence
// for a single tender. Any adapter failure abandons the item and reports it
// as skipped; nothing aborts the surrounding run.
func (p *Pipeline) processOne(ctx context.Context, profile domain.Profile, externalID string) (digestEntry, bool) {
	detail, err := p.extractor.Extract(ctx, externalID)
	if err != nil {
		p.warn("detail extraction failed", "tender", externalID, "error", err)
		return digestEntry{}, false
	}
	if detail.Failed() {
		p.warn("detail page yielded no usable corpus", "tender", externalID)
		return digestEntry{}, false
	}

	published := normalizePublishedDate(detail.PublishedDate, p.now())
	if err := p.repo.RecordDetail(ctx, externalID, detail.Link, detail.Corpus, published); err != nil {
		p.error("record detail", "tender", externalID, "error", err)
		return digestEntry{}, false
	}

	// Scrape-level rescue: detail-page guesses may fill fields the API left
	// as placeholders, under the same never-downgrade policy as inference.
	scrapeCandidates := domain.RepairCandidates{
		Title:        detail.OfficialTitle,
		Organization: detail.Organization,
	}
	if detail.PaymentNote != "" && detail.PaymentNote != domain.PlaceholderNoPayment {
		scrapeCandidates.PaymentNote = detail.PaymentNote
	}
	if err := p.repo.RepairFields(ctx, externalID, scrapeCandidates); err != nil {
		p.warn("scrape-level repair failed", "tender", externalID, "error", err)
	}

	tender, err := p.repo.Get(ctx, externalID)
	if err != nil {
		p.error("load tender snapshot", "tender", externalID, "error", err)
		return digestEntry{}, false
	}

	verdict, err := p.analyst.Analyze(ctx, profile, tender)
	if err != nil {
		p.warn("inference failed", "tender", externalID, "error", err)
		return digestEntry{}, false
	}

	if err := p.repo.RecordInference(ctx, externalID, verdict.Score, verdict, verdict.ArchiveReason); err != nil {
		p.error("record inference", "tender", externalID, "error", err)
		return digestEntry{}, false
	}

	if err := p.repo.RepairFields(ctx, externalID, domain.RepairCandidates{
		Title:        verdict.RecoveredTitle,
		Organization: verdict.RecoveredOrganization,
		PaymentNote:  verdict.PaymentBehavior,
	}); err != nil {
		p.warn("inference-level repair failed", "tender", externalID, "error", err)
	}

	p.info("tender analyzed", "tender", externalID, "score", verdict.Score)
	return digestEntry{
		externalID: externalID,
		title:      verdict.RecoveredTitle,
		score:      verdict.Score,
		link:       detail.Link,
		verdict:    verdict.Summary,
	}, true
}

// pace blocks between items to avoid triggering the portal's
// anti-automation defenses. Context cancellation cuts the wait short.
func (p *Pipeline) pace(ctx context.Context) {
	if p.itemDelay <= 0 {
		return
	}
	timer := time.NewTimer(p.itemDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (p *Pipeline) publishDigest(ctx context.Context, summary Summary, entries []digestEntry) {
	if p.notifier == nil || len(entries) == 0 {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildRunDigest(summary, entries)); err != nil {
		p.warn("digest delivery failed", "error", err)
	}
}

func buildRunDigest(summary Summary, entries []digestEntry) string {
	message := fmt.Sprintf("Licitaciones analizadas: %d (descubiertas %d, nuevas %d)\n\n",
		summary.Analyzed, summary.Discovered, summary.Registered)
	for _, e := range entries {
		message += fmt.Sprintf("- %s (%d/10)\n%s\n%s\n\n", e.title, e.score, e.verdict, e.link)
	}
	return message
}

// normalizePublishedDate converts the extractor's ISO date guess to the
// local display format, falling back to the current date when unparseable.
func normalizePublishedDate(raw string, now time.Time) string {
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return now.Format(domain.DisplayDateLayout)
	}
	return parsed.Format(domain.DisplayDateLayout)
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) error(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
