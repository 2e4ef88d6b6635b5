package capture

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Response is one archived raw RPC response body.
type Response struct {
	ID         string
	Service    string
	Method     string
	Body       string
	Size       int64
	CapturedAt string
}

// Store archives raw portal responses in SQLite so decoder changes can be
// replayed against real traffic without hitting the portal again.
type Store struct {
	conn *sql.DB
	log  zerolog.Logger
}

// Open creates the store and runs pending migrations.
func Open(path string, log zerolog.Logger) (*Store, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	goose.SetBaseFS(migrationFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{conn: conn, log: log}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Record archives one response body. It satisfies the client's capture
// sink interface.
func (s *Store) Record(ctx context.Context, service, method, body string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO responses (id, service, method, body, size, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), service, method, body, int64(len(body)),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	s.log.Debug().Str("service", service).Str("method", method).Int("bytes", len(body)).Msg("captured response")
	return nil
}

// Get retrieves one archived response by ID, or nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*Response, error) {
	r := &Response{}
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, service, method, body, size, captured_at FROM responses WHERE id = ?`, id,
	).Scan(&r.ID, &r.Service, &r.Method, &r.Body, &r.Size, &r.CapturedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get response %s: %w", id, err)
	}
	return r, nil
}

// List returns archived responses newest first, optionally filtered by
// method, without the (potentially large) bodies.
func (s *Store) List(ctx context.Context, method string, limit int) ([]Response, error) {
	query := `SELECT id, service, method, '', size, captured_at FROM responses`
	var args []any
	if method != "" {
		query += ` WHERE method = ?`
		args = append(args, method)
	}
	query += ` ORDER BY captured_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Response
	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.ID, &r.Service, &r.Method, &r.Body, &r.Size, &r.CapturedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes responses older than the retention window and reports how
// many were removed.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339)
	res, err := s.conn.ExecContext(ctx, `DELETE FROM responses WHERE captured_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune responses: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
