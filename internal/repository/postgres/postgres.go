// Package postgres implements the service repositories on PostgreSQL.
// Queries are plain SQL with positional parameters; multi-table writes
// (cascading deletes, the communication/last-interaction bump, campaign
// links) run in a single transaction.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/ignite/admissions-crm/internal/config"
)

// Open connects to PostgreSQL, applies the pool settings and pings.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Store hands out repositories sharing one connection pool.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the pool for health checks and advisory locks.
func (s *Store) DB() *sql.DB { return s.db }

// Ping checks connectivity.
func (s *Store) Ping() error { return s.db.Ping() }

func (s *Store) Users() *UserRepo                   { return &UserRepo{db: s.db} }
func (s *Store) Prospects() *ProspectRepo           { return &ProspectRepo{db: s.db} }
func (s *Store) Communications() *CommunicationRepo { return &CommunicationRepo{db: s.db} }
func (s *Store) Campaigns() *CampaignRepo           { return &CampaignRepo{db: s.db} }
func (s *Store) Admission() *AdmissionRepo          { return &AdmissionRepo{db: s.db} }
func (s *Store) Reports() *ReportRepo               { return &ReportRepo{db: s.db} }
func (s *Store) Forms() *FormRepo                   { return &FormRepo{db: s.db} }

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// withTx runs fn in a transaction, committing when it returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// filter accumulates AND-ed WHERE clauses with numbered parameters.
type filter struct {
	clauses []string
	args    []any
}

// add appends a clause; every "?" in cond becomes the next parameter and
// all of them bind the same value.
func (f *filter) add(cond string, v any) {
	f.args = append(f.args, v)
	f.clauses = append(f.clauses, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(f.args))))
}

func (f *filter) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

// page appends ORDER BY and, for a positive limit, LIMIT/OFFSET.
func (f *filter) page(q, orderBy string, limit, offset int) (string, []any) {
	q += f.where() + " ORDER BY " + orderBy
	args := append([]any{}, f.args...)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}
	return q, args
}

// setter builds the SET list of a partial update.
type setter struct {
	sets []string
	args []any
}

func (s *setter) add(col string, v any) {
	s.args = append(s.args, v)
	s.sets = append(s.sets, fmt.Sprintf("%s = $%d", col, len(s.args)))
}

func (s *setter) empty() bool { return len(s.sets) == 0 }

// update renders "UPDATE table SET ... WHERE id = $n RETURNING cols".
func (s *setter) update(table, id, returning string) (string, []any) {
	args := append(append([]any{}, s.args...), id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		table, strings.Join(s.sets, ", "), len(args), returning)
	return q, args
}

func likePattern(s string) string {
	return "%" + strings.TrimSpace(s) + "%"
}

func marshalJSON(v any) ([]byte, error) {
	if m, ok := v.(map[string]any); ok && m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

func unmarshalMap(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	n := int(ni.Int64)
	return &n
}

// prefixed qualifies every column of a column list with alias.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}
