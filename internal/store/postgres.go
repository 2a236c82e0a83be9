package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tonasket-wiki/directory-cli/internal/db"
	"github.com/tonasket-wiki/directory-cli/internal/model"
	"github.com/tonasket-wiki/directory-cli/internal/normalize"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id          TEXT PRIMARY KEY,
	name_key    TEXT NOT NULL,
	address_key TEXT NOT NULL,
	phone       TEXT NOT NULL DEFAULT '',
	zip         TEXT NOT NULL DEFAULT '',
	doc         JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	business     JSONB NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	reviewed_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS enrichment_snapshots (
	param_key    TEXT PRIMARY KEY,
	snapshot     JSONB NOT NULL,
	refreshed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_businesses_name_key ON businesses(name_key);
CREATE INDEX IF NOT EXISTS idx_businesses_addr_phone ON businesses(address_key, phone);
CREATE INDEX IF NOT EXISTS idx_businesses_zip ON businesses(zip);
CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateBusiness(ctx context.Context, b *model.Business) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	doc, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal business")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO businesses (id, name_key, address_key, phone, zip, doc, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.NameKey, b.AddressKey, b.Phone, normalize.Zip(b.Address), doc, now, now,
	)
	return eris.Wrap(err, "postgres: create business")
}

// BulkImportBusinesses COPYs pre-normalized businesses into the table
// in one round trip. Used by direct imports after per-row dedup.
func (s *PostgresStore) BulkImportBusinesses(ctx context.Context, businesses []model.Business) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(businesses))
	for i := range businesses {
		b := &businesses[i]
		b.CreatedAt = now
		b.UpdatedAt = now
		doc, err := json.Marshal(b)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal business")
		}
		rows = append(rows, []any{b.ID, b.NameKey, b.AddressKey, b.Phone, normalize.Zip(b.Address), doc, now, now})
	}

	return db.BulkInsert(ctx, s.pool, "businesses",
		[]string{"id", "name_key", "address_key", "phone", "zip", "doc", "created_at", "updated_at"}, rows)
}

func (s *PostgresStore) UpdateBusiness(ctx context.Context, b *model.Business) error {
	b.UpdatedAt = time.Now().UTC()

	doc, err := json.Marshal(b)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal business")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE businesses SET name_key = $1, address_key = $2, phone = $3, zip = $4, doc = $5, updated_at = $6
		 WHERE id = $7`,
		b.NameKey, b.AddressKey, b.Phone, normalize.Zip(b.Address), doc, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update business")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: business %s not found", b.ID)
	}
	return nil
}

func (s *PostgresStore) GetBusiness(ctx context.Context, id string) (*model.Business, error) {
	return s.scanBusiness(s.pool.QueryRow(ctx,
		`SELECT doc FROM businesses WHERE id = $1`, id))
}

func (s *PostgresStore) FindByNameKey(ctx context.Context, nameKey string) (*model.Business, error) {
	return s.scanBusiness(s.pool.QueryRow(ctx,
		`SELECT doc FROM businesses WHERE name_key = $1 LIMIT 1`, nameKey))
}

func (s *PostgresStore) FindByAddressAndPhone(ctx context.Context, addressKey, phone string) (*model.Business, error) {
	return s.scanBusiness(s.pool.QueryRow(ctx,
		`SELECT doc FROM businesses WHERE address_key = $1 AND phone = $2 LIMIT 1`, addressKey, phone))
}

func (s *PostgresStore) scanBusiness(row pgx.Row) (*model.Business, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: scan business")
	}

	var b model.Business
	if err := json.Unmarshal(doc, &b); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal business")
	}
	return &b, nil
}

func (s *PostgresStore) ListBusinessesByZip(ctx context.Context, zip string, limit int) ([]model.Business, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx,
		`SELECT doc FROM businesses WHERE zip = $1 ORDER BY id LIMIT $2`, zip, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list businesses by zip")
	}
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, eris.Wrap(err, "postgres: scan business row")
		}
		var b model.Business
		if err := json.Unmarshal(doc, &b); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal business row")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate businesses")
}

func (s *PostgresStore) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	doc, err := json.Marshal(sub.Business)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal submission")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO submissions (id, business, status, submitted_at, reviewed_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, doc, sub.Status, sub.SubmittedAt, sub.ReviewedAt,
	)
	return eris.Wrap(err, "postgres: create submission")
}

func (s *PostgresStore) UpdateSubmission(ctx context.Context, sub *model.Submission) error {
	doc, err := json.Marshal(sub.Business)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal submission")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE submissions SET business = $1, status = $2, reviewed_at = $3 WHERE id = $4`,
		doc, sub.Status, sub.ReviewedAt, sub.ID,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: update submission")
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: submission %s not found", sub.ID)
	}
	return nil
}

func (s *PostgresStore) GetSubmission(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	var doc []byte
	var reviewedAt *time.Time

	err := s.pool.QueryRow(ctx,
		`SELECT id, business, status, submitted_at, reviewed_at FROM submissions WHERE id = $1`, id).
		Scan(&sub.ID, &doc, &sub.Status, &sub.SubmittedAt, &reviewedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get submission")
	}

	if err := json.Unmarshal(doc, &sub.Business); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal submission")
	}
	sub.ReviewedAt = reviewedAt
	return &sub, nil
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.Submission, error) {
	query := `SELECT id, business, status, submitted_at, reviewed_at FROM submissions`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY submitted_at`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	if filter.Status != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list submissions")
	}
	defer rows.Close()

	var out []model.Submission
	for rows.Next() {
		var sub model.Submission
		var doc []byte
		var reviewedAt *time.Time
		if err := rows.Scan(&sub.ID, &doc, &sub.Status, &sub.SubmittedAt, &reviewedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan submission row")
		}
		if err := json.Unmarshal(doc, &sub.Business); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal submission row")
		}
		sub.ReviewedAt = reviewedAt
		out = append(out, sub)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate submissions")
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, paramKey string) (*model.Snapshot, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot FROM enrichment_snapshots WHERE param_key = $1`, paramKey).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get snapshot")
	}

	var snap model.Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal snapshot")
	}
	return &snap, nil
}

func (s *PostgresStore) SetSnapshot(ctx context.Context, paramKey string, snap *model.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal snapshot")
	}

	// Whole-snapshot replace for the parameter key; last writer wins.
	_, err = s.pool.Exec(ctx,
		`INSERT INTO enrichment_snapshots (param_key, snapshot, refreshed_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (param_key) DO UPDATE SET snapshot = EXCLUDED.snapshot, refreshed_at = EXCLUDED.refreshed_at`,
		paramKey, doc, snap.Timestamp,
	)
	return eris.Wrap(err, "postgres: set snapshot")
}
