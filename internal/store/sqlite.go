package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tonasket-wiki/directory-cli/internal/model"
	"github.com/tonasket-wiki/directory-cli/internal/normalize"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id          TEXT PRIMARY KEY,
	name_key    TEXT NOT NULL,
	address_key TEXT NOT NULL,
	phone       TEXT NOT NULL DEFAULT '',
	zip         TEXT NOT NULL DEFAULT '',
	doc         TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	business     TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	submitted_at DATETIME NOT NULL DEFAULT (datetime('now')),
	reviewed_at  DATETIME
);

CREATE TABLE IF NOT EXISTS enrichment_snapshots (
	param_key    TEXT PRIMARY KEY,
	snapshot     TEXT NOT NULL,
	refreshed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_businesses_name_key ON businesses(name_key);
CREATE INDEX IF NOT EXISTS idx_businesses_addr_phone ON businesses(address_key, phone);
CREATE INDEX IF NOT EXISTS idx_businesses_zip ON businesses(zip);
CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateBusiness(ctx context.Context, b *model.Business) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	doc, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal business")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO businesses (id, name_key, address_key, phone, zip, doc, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.NameKey, b.AddressKey, b.Phone, normalize.Zip(b.Address), string(doc), now, now,
	)
	return eris.Wrap(err, "sqlite: create business")
}

func (s *SQLiteStore) UpdateBusiness(ctx context.Context, b *model.Business) error {
	b.UpdatedAt = time.Now().UTC()

	doc, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal business")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE businesses SET name_key = ?, address_key = ?, phone = ?, zip = ?, doc = ?, updated_at = ?
		 WHERE id = ?`,
		b.NameKey, b.AddressKey, b.Phone, normalize.Zip(b.Address), string(doc), b.UpdatedAt, b.ID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update business")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("sqlite: business %s not found", b.ID)
	}
	return nil
}

func (s *SQLiteStore) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	return s.scanBusiness(s.db.QueryRowContext(ctx,
		`SELECT doc FROM businesses WHERE id = ?`, id))
}

func (s *SQLiteStore) FindByNameKey(ctx context.Context, nameKey string) (*model.Business, error) {
	return s.scanBusiness(s.db.QueryRowContext(ctx,
		`SELECT doc FROM businesses WHERE name_key = ? LIMIT 1`, nameKey))
}

func (s *SQLiteStore) FindByAddressAndPhone(ctx context.Context, addressKey, phone string) (*model.Business, error) {
	return s.scanBusiness(s.db.QueryRowContext(ctx,
		`SELECT doc FROM businesses WHERE address_key = ? AND phone = ? LIMIT 1`, addressKey, phone))
}

func (s *SQLiteStore) scanBusiness(row *sql.Row) (*model.Business, error) {
	var doc string
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: scan business")
	}

	var b model.Business
	if err := json.Unmarshal([]byte(doc), &b); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal business")
	}
	return &b, nil
}

func (s *SQLiteStore) ListBusinessesByZip(ctx context.Context, zip string, limit int) ([]model.Business, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM businesses WHERE zip = ? ORDER BY id LIMIT ?`, zip, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list businesses by zip")
	}
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan business row")
		}
		var b model.Business
		if err := json.Unmarshal([]byte(doc), &b); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal business row")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate businesses")
}

func (s *SQLiteStore) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	doc, err := json.Marshal(sub.Business)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal submission")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, business, status, submitted_at, reviewed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sub.ID, string(doc), sub.Status, sub.SubmittedAt, sub.ReviewedAt,
	)
	return eris.Wrap(err, "sqlite: create submission")
}

func (s *SQLiteStore) UpdateSubmission(ctx context.Context, sub *model.Submission) error {
	doc, err := json.Marshal(sub.Business)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal submission")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET business = ?, status = ?, reviewed_at = ? WHERE id = ?`,
		string(doc), sub.Status, sub.ReviewedAt, sub.ID,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: update submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return eris.Errorf("sqlite: submission %s not found", sub.ID)
	}
	return nil
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, business, status, submitted_at, reviewed_at FROM submissions WHERE id = ?`, id)

	sub, err := scanSubmission(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get submission")
	}
	return sub, nil
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.Submission, error) {
	query := `SELECT id, business, status, submitted_at, reviewed_at FROM submissions`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY submitted_at`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list submissions")
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan submission row")
		}
		out = append(out, *sub)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate submissions")
}

func scanSubmission(scan func(dest ...any) error) (*model.Submission, error) {
	var sub model.Submission
	var doc string
	var reviewedAt sql.NullTime

	if err := scan(&sub.ID, &doc, &sub.Status, &sub.SubmittedAt, &reviewedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(doc), &sub.Business); err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		sub.ReviewedAt = &reviewedAt.Time
	}
	return &sub, nil
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, paramKey string) (*model.Snapshot, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM enrichment_snapshots WHERE param_key = ?`, paramKey).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get snapshot")
	}

	var snap model.Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal snapshot")
	}
	return &snap, nil
}

func (s *SQLiteStore) SetSnapshot(ctx context.Context, paramKey string, snap *model.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal snapshot")
	}

	// Whole-snapshot replace: a refresh supersedes the previous result
	// set for the same parameters, never patches it.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enrichment_snapshots (param_key, snapshot, refreshed_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (param_key) DO UPDATE SET snapshot = excluded.snapshot, refreshed_at = excluded.refreshed_at`,
		paramKey, string(doc), snap.Timestamp,
	)
	return eris.Wrap(err, "sqlite: set snapshot")
}
