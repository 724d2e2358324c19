// Package store persists pattern definitions for the registry
// service: a named pattern's source text, who created it, and when it last
// changed.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a pattern lookup finds no matching row.
var ErrNotFound = errors.New("pattern not found")

// Pattern is a named, stored pattern definition.
type Pattern struct {
	ID        string
	Name      string
	Source    string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists Pattern records.
type Store interface {
	Create(ctx context.Context, p *Pattern) error
	Get(ctx context.Context, id string) (*Pattern, error)
	GetByName(ctx context.Context, name string) (*Pattern, error)
	List(ctx context.Context) ([]*Pattern, error)
	Update(ctx context.Context, p *Pattern) error
	Delete(ctx context.Context, id string) error
}

// SQLStore implements Store over database/sql, compatible with both the
// pgx stdlib driver (Postgres) and mattn/go-sqlite3 (local/test use).
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an already-connected database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Create(ctx context.Context, p *Pattern) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := p.CreatedAt
	if now.IsZero() {
		now = timeNow()
	}
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO patterns (id, name, source, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.Source, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Pattern, error) {
	return s.scanOne(ctx,
		`SELECT id, name, source, created_by, created_at, updated_at FROM patterns WHERE id = $1`, id)
}

func (s *SQLStore) GetByName(ctx context.Context, name string) (*Pattern, error) {
	return s.scanOne(ctx,
		`SELECT id, name, source, created_by, created_at, updated_at FROM patterns WHERE name = $1`, name)
}

func (s *SQLStore) scanOne(ctx context.Context, query string, arg string) (*Pattern, error) {
	row := s.db.QueryRowContext(ctx, query, arg)
	p := &Pattern{}
	err := row.Scan(&p.ID, &p.Name, &p.Source, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLStore) List(ctx context.Context) ([]*Pattern, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, source, created_by, created_at, updated_at FROM patterns ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []*Pattern
	for rows.Next() {
		p := &Pattern{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Source, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

func (s *SQLStore) Update(ctx context.Context, p *Pattern) error {
	p.UpdatedAt = timeNow()
	res, err := s.db.ExecContext(ctx,
		`UPDATE patterns SET name = $1, source = $2, updated_at = $3 WHERE id = $4`,
		p.Name, p.Source, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patterns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// timeNow is a seam so tests can observe fixed timestamps without the store
// depending on a clock interface for every call site.
var timeNow = func() time.Time { return time.Now().UTC() }
