package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"licitradar/internal/domain"
	"licitradar/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS profile (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    positive_keywords TEXT,
    negative_keywords TEXT,
    regions TEXT,
    strategy TEXT
);

CREATE TABLE IF NOT EXISTS tenders (
    external_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    organization TEXT,
    closing_date TEXT,
    published_date TEXT,
    payment_note TEXT,
    link TEXT,
    corpus TEXT,
    score INTEGER,
    verdict_json TEXT,
    archive_reason TEXT,
    status TEXT NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteRepository persists the tender lifecycle and the singleton profile.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.TenderRepository = (*SQLiteRepository)(nil)
var _ ports.ProfileStore = (*SQLiteRepository)(nil)

// Open creates the database file (and its directory) if needed, bootstraps
// the schema, and returns a ready repository.
func Open(ctx context.Context, path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := NewSQLiteRepository(db)
	if err := repo.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return repo, nil
}

// NewSQLiteRepository wires an existing sql.DB handle.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Init creates the tables when they do not exist yet.
func (r *SQLiteRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Exists reports whether a tender with the given external id is registered.
func (r *SQLiteRepository) Exists(ctx context.Context, externalID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM tenders WHERE external_id = ?`, externalID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query existence: %w", err)
	}
	return true, nil
}

// InsertIfAbsent registers a pending stub and reports whether a new row was
// created. A duplicate insert is a silent no-op.
func (r *SQLiteRepository) InsertIfAbsent(ctx context.Context, stub domain.Tender) (bool, error) {
	query := `INSERT OR IGNORE INTO tenders
              (external_id, title, organization, closing_date, published_date, payment_note, link, status)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		stub.ExternalID,
		stub.Title,
		stub.Organization,
		stub.ClosingDate,
		stub.PublishedDate,
		stub.PaymentNote,
		stub.Link,
		string(domain.StatusPending),
	)
	if err != nil {
		return false, fmt.Errorf("insert stub: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Get loads one tender by external id.
func (r *SQLiteRepository) Get(ctx context.Context, externalID string) (domain.Tender, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT external_id, title, organization, closing_date, published_date,
               payment_note, link, corpus, score, verdict_json, archive_reason,
               status, created_at
        FROM tenders WHERE external_id = ?`, externalID)

	tender, err := scanTender(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tender{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Tender{}, fmt.Errorf("load tender: %w", err)
	}
	return tender, nil
}

// RecordDetail stores the extracted link, corpus, and normalized publication
// date, moving the tender to the extracted state. Re-extraction of an
// already-extracted tender is allowed; anything later in the lifecycle is not.
func (r *SQLiteRepository) RecordDetail(ctx context.Context, externalID, link, corpus, publishedDate string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE tenders
        SET link = ?, corpus = ?, published_date = ?, status = ?
        WHERE external_id = ? AND status IN (?, ?)`,
		link, corpus, publishedDate, string(domain.StatusExtracted),
		externalID, string(domain.StatusPending), string(domain.StatusExtracted))
	if err != nil {
		return fmt.Errorf("record detail: %w", err)
	}

	return r.checkMutated(ctx, res, externalID)
}

// RecordInference stores the score, verdict document, and optional archive
// rationale in a single statement, moving the tender to analyzed. The score
// and verdict are never visible without each other.
func (r *SQLiteRepository) RecordInference(ctx context.Context, externalID string, score int, verdict domain.Verdict, archiveReason string) error {
	raw, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("marshal verdict: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
        UPDATE tenders
        SET score = ?, verdict_json = ?, archive_reason = ?, status = ?
        WHERE external_id = ? AND status = ?`,
		score, string(raw), nullable(archiveReason), string(domain.StatusAnalyzed),
		externalID, string(domain.StatusExtracted))
	if err != nil {
		return fmt.Errorf("record inference: %w", err)
	}

	return r.checkMutated(ctx, res, externalID)
}

// SetStatus applies a user-driven transition, validated against the strict
// lifecycle graph in a single statement.
func (r *SQLiteRepository) SetStatus(ctx context.Context, externalID string, status domain.Status) error {
	sources := domain.TransitionSources(status)
	if len(sources) == 0 {
		return domain.ErrInvalidTransition
	}

	from := make([]string, len(sources))
	for i, s := range sources {
		from[i] = string(s)
	}

	query, args, err := sq.Update("tenders").
		Set("status", string(status)).
		Where(sq.Eq{"external_id": externalID, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build status update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}

	return r.checkMutated(ctx, res, externalID)
}

// RepairFields applies the repair policy: identity-like fields are filled
// only while they hold placeholders, the payment note always trusts the
// latest non-empty reading.
func (r *SQLiteRepository) RepairFields(ctx context.Context, externalID string, candidates domain.RepairCandidates) error {
	var current domain.Tender
	err := r.db.QueryRowContext(ctx,
		`SELECT title, organization, COALESCE(payment_note, '') FROM tenders WHERE external_id = ?`,
		externalID).Scan(&current.Title, &current.Organization, &current.PaymentNote)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load repair targets: %w", err)
	}

	plan := domain.ResolveRepairs(current, candidates)
	if plan.Empty() {
		return nil
	}

	update := sq.Update("tenders").Where(sq.Eq{"external_id": externalID})
	if plan.Title != nil {
		update = update.Set("title", *plan.Title)
	}
	if plan.Organization != nil {
		update = update.Set("organization", *plan.Organization)
	}
	if plan.PaymentNote != nil {
		update = update.Set("payment_note", *plan.PaymentNote)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("build repair update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("apply repairs: %w", err)
	}
	return nil
}

// List returns all tenders, optionally filtered by status, newest
// publications first, higher scores first, external id as a stable tiebreak.
func (r *SQLiteRepository) List(ctx context.Context, status domain.Status) ([]domain.Tender, error) {
	builder := sq.Select(
		"external_id", "title", "organization", "closing_date", "published_date",
		"payment_note", "link", "corpus", "score", "verdict_json", "archive_reason",
		"status", "created_at").
		From("tenders").
		OrderBy("published_date DESC", "score DESC", "external_id ASC")

	if status != "" {
		builder = builder.Where(sq.Eq{"status": string(status)})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tenders: %w", err)
	}
	defer rows.Close()

	var tenders []domain.Tender
	for rows.Next() {
		tender, err := scanTender(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tender: %w", err)
		}
		tenders = append(tenders, tender)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return tenders, nil
}

// SaveProfile creates or overwrites the singleton strategic profile.
func (r *SQLiteRepository) SaveProfile(ctx context.Context, profile domain.Profile) error {
	query := `INSERT INTO profile (id, positive_keywords, negative_keywords, regions, strategy)
              VALUES (1, ?, ?, ?, ?)
              ON CONFLICT (id) DO UPDATE
              SET positive_keywords = excluded.positive_keywords,
                  negative_keywords = excluded.negative_keywords,
                  regions = excluded.regions,
                  strategy = excluded.strategy`

	if _, err := r.db.ExecContext(ctx, query,
		profile.PositiveKeywords,
		profile.NegativeKeywords,
		profile.Regions,
		profile.Strategy,
	); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Profile loads the singleton profile, or ErrNoProfile when it was never set.
func (r *SQLiteRepository) Profile(ctx context.Context) (domain.Profile, error) {
	var profile domain.Profile
	err := r.db.QueryRowContext(ctx, `
        SELECT COALESCE(positive_keywords, ''), COALESCE(negative_keywords, ''),
               COALESCE(regions, ''), COALESCE(strategy, '')
        FROM profile WHERE id = 1`).Scan(
		&profile.PositiveKeywords,
		&profile.NegativeKeywords,
		&profile.Regions,
		&profile.Strategy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, domain.ErrNoProfile
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// checkMutated disambiguates a zero-row update: unknown id vs. a transition
// the lifecycle graph forbids.
func (r *SQLiteRepository) checkMutated(ctx context.Context, res sql.Result, externalID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	exists, err := r.Exists(ctx, externalID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInvalidTransition
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTender(row rowScanner) (domain.Tender, error) {
	var (
		tender        domain.Tender
		paymentNote   sql.NullString
		link          sql.NullString
		corpus        sql.NullString
		score         sql.NullInt64
		verdictJSON   sql.NullString
		archiveReason sql.NullString
		status        string
		createdAt     sql.NullString
	)

	err := row.Scan(
		&tender.ExternalID,
		&tender.Title,
		&tender.Organization,
		&tender.ClosingDate,
		&tender.PublishedDate,
		&paymentNote,
		&link,
		&corpus,
		&score,
		&verdictJSON,
		&archiveReason,
		&status,
		&createdAt,
	)
	if err != nil {
		return domain.Tender{}, err
	}

	tender.PaymentNote = paymentNote.String
	tender.Link = link.String
	tender.Corpus = corpus.String
	tender.Score = int(score.Int64)
	tender.ArchiveReason = archiveReason.String
	tender.Status = domain.Status(status)

	if verdictJSON.Valid && verdictJSON.String != "" {
		var verdict domain.Verdict
		if err := json.Unmarshal([]byte(verdictJSON.String), &verdict); err != nil {
			return domain.Tender{}, fmt.Errorf("decode verdict: %w", err)
		}
		tender.Verdict = &verdict
	}

	if createdAt.Valid {
		if ts, err := time.Parse("2006-01-02 15:04:05", createdAt.String); err == nil {
			tender.CreatedAt = ts
		}
	}

	return tender, nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
