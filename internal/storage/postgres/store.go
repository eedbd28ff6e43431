package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"example.com/registration/internal/domain"
)

const columns = "id, name, email, phone, college, year, department, team_size, experience, skills, motivation, created_at, updated_at"

// Store persists registrations in the registrations table.
type Store struct {
	db  *DB
	now func() time.Time
}

func NewStore(db *DB, now func() time.Time) *Store {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{db: db, now: now}
}

// Create inserts one row and returns it as stored.
func (s *Store) Create(ctx context.Context, sub domain.Submission) (domain.Registration, error) {
	ts := s.now().Truncate(time.Microsecond)
	row := s.db.Pool.QueryRow(ctx,
		"INSERT INTO registrations ("+columns+") "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12) RETURNING "+columns,
		uuid.NewString(),
		sub.Name, sub.Email, sub.Phone, sub.College, sub.Year, sub.Department, sub.TeamSize,
		nullable(sub.Experience), nullable(sub.Skills), nullable(sub.Motivation),
		ts,
	)
	reg, err := scanRegistration(row)
	if err != nil {
		return domain.Registration{}, fmt.Errorf("%w: insert registration: %w", domain.ErrPersistence, err)
	}
	return reg, nil
}

// Recent returns up to limit registrations, newest first. limit <= 0 means all.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Registration, error) {
	sql := "SELECT " + columns + " FROM registrations ORDER BY created_at DESC, id"
	args := []any{}
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query registrations: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan registration: %w", domain.ErrPersistence, err)
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.Pool.QueryRow(ctx, "SELECT COUNT(*)::bigint FROM registrations").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count registrations: %w", domain.ErrPersistence, err)
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ready(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	s.db.Close()
	return nil
}

func scanRegistration(row pgx.Row) (domain.Registration, error) {
	var reg domain.Registration
	var experience, skills, motivation *string
	err := row.Scan(&reg.ID,
		&reg.Name, &reg.Email, &reg.Phone, &reg.College, &reg.Year, &reg.Department, &reg.TeamSize,
		&experience, &skills, &motivation,
		&reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return domain.Registration{}, err
	}
	reg.Experience = deref(experience)
	reg.Skills = deref(skills)
	reg.Motivation = deref(motivation)
	reg.CreatedAt = reg.CreatedAt.UTC()
	reg.UpdatedAt = reg.UpdatedAt.UTC()
	return reg, nil
}

// optional columns are NULL when empty
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
