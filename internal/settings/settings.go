// Package settings stores the singleton reporting configuration row:
// the taka/dollar conversion rate and the fixed monthly cost inputs.
package settings

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings is the per-deployment configuration consumed by reporting.
type Settings struct {
	DollarRate      float64
	OfficeRent      float64
	MonthlySalaries float64
	UpdatedAt       time.Time
}

// ErrInvalidRate indicates a non-positive dollar rate.
var ErrInvalidRate = errors.New("settings: dollar_rate must be > 0")

// Repository provides PostgreSQL backed persistence for the singleton row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the settings row, or zero-valued defaults when none exists yet.
func (r *Repository) Get(ctx context.Context) (*Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `SELECT dollar_rate, office_rent, monthly_salaries, updated_at FROM settings WHERE id=1`).
		Scan(&s.DollarRate, &s.OfficeRent, &s.MonthlySalaries, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Settings{}, nil
		}
		return nil, err
	}
	return &s, nil
}

// Upsert replaces the singleton row.
func (r *Repository) Upsert(ctx context.Context, s Settings) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO settings (id, dollar_rate, office_rent, monthly_salaries, updated_at)
VALUES (1, $1, $2, $3, NOW())
ON CONFLICT (id) DO UPDATE SET dollar_rate=EXCLUDED.dollar_rate, office_rent=EXCLUDED.office_rent,
  monthly_salaries=EXCLUDED.monthly_salaries, updated_at=NOW()`,
		s.DollarRate, s.OfficeRent, s.MonthlySalaries)
	return err
}

// RepositoryPort abstracts settings access for services.
type RepositoryPort interface {
	Get(ctx context.Context) (*Settings, error)
	Upsert(ctx context.Context, s Settings) error
}

// Service validates and stores the settings row.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get returns the current settings.
func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

// Update validates and replaces the settings row.
func (s *Service) Update(ctx context.Context, in Settings) (*Settings, error) {
	if in.DollarRate <= 0 {
		return nil, ErrInvalidRate
	}
	if err := s.repo.Upsert(ctx, in); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx)
}

// MonthlyFixedCost is rent plus salaries, the amortization base for
// partner-share math.
func (st *Settings) MonthlyFixedCost() float64 {
	return st.OfficeRent + st.MonthlySalaries
}
