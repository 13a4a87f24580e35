package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/pdf-agent/constants"
	"github.com/joseph-ayodele/pdf-agent/internal/entity"
)

// Dialect selects placeholder syntax.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS outcomes (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL,
	original     TEXT NOT NULL,
	new_path     TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	reason       TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	method       TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL DEFAULT '',
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	processed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes (run_id);
CREATE INDEX IF NOT EXISTS idx_outcomes_hash ON outcomes (content_hash);
`

// tsLayout is fixed-width so processed_at sorts as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Store keeps the outcome history in SQLite or Postgres.
type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool
	dialect Dialect
	logger  *slog.Logger
}

// IsPostgresDSN reports whether dsn names a Postgres server rather than a
// SQLite file.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// OpenStore opens the outcome database and creates the table if needed.
func OpenStore(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("report database is not configured")
	}

	var s *Store
	var err error
	if IsPostgresDSN(dsn) {
		s, err = openPostgres(ctx, dsn, logger)
	} else {
		s, err = openSQLite(ctx, dsn, logger)
	}
	if err != nil {
		return nil, err
	}
	if err := s.initSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func openSQLite(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer; the agent is sequential anyway
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	logger.Info("report.store.opened", "driver", "sqlite", "path", path)
	return &Store{db: db, dialect: DialectSQLite, logger: logger}, nil
}

func openPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pc.MaxConns = 4
	pc.MaxConnIdleTime = 5 * time.Minute
	pc.ConnConfig.RuntimeParams["application_name"] = "pdf-agent"

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("report.store.opened", "driver", "pgx", "host", pc.ConnConfig.Host, "database", pc.ConnConfig.Database)
	return &Store{db: stdlib.OpenDBFromPool(pool), pool: pool, dialect: DialectPostgres, logger: logger}, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Insert stores one outcome, assigning an id when it has none.
func (s *Store) Insert(ctx context.Context, o *entity.Outcome) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	q := s.rebind(`INSERT INTO outcomes
		(id, run_id, original, new_path, category, status, reason, error, method, content_hash, duration_ms, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, q,
		o.ID, o.RunID, o.Original, o.New, o.Category,
		string(o.Status), string(o.Reason), o.Error, string(o.Method), o.ContentHash,
		o.Duration.Milliseconds(), o.Timestamp.UTC().Format(tsLayout),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// ListRun returns a run's outcomes in processing order.
func (s *Store) ListRun(ctx context.Context, runID string) ([]entity.Outcome, error) {
	q := s.rebind(`SELECT id, run_id, original, new_path, category, status, reason, error, method, content_hash, duration_ms, processed_at
		FROM outcomes WHERE run_id = ? ORDER BY processed_at, id`)
	rows, err := s.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []entity.Outcome
	for rows.Next() {
		var o entity.Outcome
		var status, reason, method, processedAt string
		var durationMS int64
		if err := rows.Scan(&o.ID, &o.RunID, &o.Original, &o.New, &o.Category,
			&status, &reason, &o.Error, &method, &o.ContentHash, &durationMS, &processedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Status = constants.OutcomeStatus(status)
		o.Reason = constants.SkipReason(reason)
		o.Method = constants.ExtractionMethod(method)
		o.Duration = time.Duration(durationMS) * time.Millisecond
		if ts, err := time.Parse(tsLayout, processedAt); err == nil {
			o.Timestamp = ts
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// SeenHash reports whether a file with this content was organized before.
func (s *Store) SeenHash(ctx context.Context, hash string) (string, bool, error) {
	q := s.rebind(`SELECT new_path FROM outcomes WHERE content_hash = ? AND status = ? ORDER BY processed_at DESC LIMIT 1`)
	var newPath string
	err := s.db.QueryRowContext(ctx, q, hash, string(constants.StatusOrganized)).Scan(&newPath)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup hash: %w", err)
	}
	return newPath, true, nil
}

// Close releases the database handle.
func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("report.store.close_error", "error", err)
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
