package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Aashish23092/contribution-calculator/dto"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS cities (
  id uuid PRIMARY KEY,
  position integer NOT NULL,
  city_name text NOT NULL,
  year text NOT NULL,
  base_min double precision NOT NULL,
  base_max double precision NOT NULL,
  rate double precision NOT NULL
);
CREATE TABLE IF NOT EXISTS salaries (
  id uuid PRIMARY KEY,
  position integer NOT NULL,
  employee_id text NOT NULL,
  employee_name text NOT NULL,
  month text NOT NULL,
  salary_amount double precision NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
  id uuid PRIMARY KEY,
  position integer NOT NULL,
  employee_name text NOT NULL,
  avg_salary double precision NOT NULL,
  contribution_base double precision NOT NULL,
  company_fee double precision NOT NULL,
  created_at timestamptz NOT NULL DEFAULT now()
);
`

type pgBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PGStore is the PostgreSQL RecordStore.
type PGStore struct {
	pool   pgBeginner
	closer func()
	logger *zap.Logger
}

// OpenPGStore connects to dsn, using key as the password when the DSN
// carries none, and creates the tables if needed.
func OpenPGStore(ctx context.Context, dsn string, key string, logger *zap.Logger) (*PGStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.ConnConfig.Password == "" {
		cfg.ConnConfig.Password = key
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("Connected to postgres store", zap.String("host", cfg.ConnConfig.Host))
	s := NewPGStore(pool, logger)
	s.closer = pool.Close
	return s, nil
}

func NewPGStore(pool pgBeginner, logger *zap.Logger) *PGStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PGStore{pool: pool, logger: logger}
}

func (s *PGStore) Close() error {
	if s.closer != nil {
		s.closer()
	}
	return nil
}

// replace deletes every row of table and copies rows in, in one transaction.
func (s *PGStore) replace(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if _, err := tx.Exec(ctx, `DELETE FROM `+table); err != nil {
		return err
	}
	if len(rows) > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return err
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copied %d of %d rows", n, len(rows))
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) ReplacePolicies(ctx context.Context, policies []dto.PolicyRecord) error {
	rows := make([][]any, len(policies))
	for i, p := range policies {
		rows[i] = []any{uuid.New(), i, p.CityName, p.Year, p.BaseMin, p.BaseMax, p.Rate}
	}
	err := s.replace(ctx, CollectionCities,
		[]string{"id", "position", "city_name", "year", "base_min", "base_max", "rate"}, rows)
	if err != nil {
		return writeErr(CollectionCities, err)
	}
	return nil
}

func (s *PGStore) ListPolicies(ctx context.Context) ([]dto.PolicyRecord, error) {
	return s.FindPolicies(ctx, dto.PolicyFilter{})
}

func (s *PGStore) FindPolicies(ctx context.Context, filter dto.PolicyFilter) ([]dto.PolicyRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, readErr(CollectionCities, err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
SELECT id::text, city_name, year, base_min, base_max, rate
FROM cities
WHERE ($1 = '' OR city_name = $1)
  AND ($2 = '' OR year = $2)
ORDER BY position ASC
`, filter.CityName, filter.Year)
	if err != nil {
		return nil, readErr(CollectionCities, err)
	}
	defer rows.Close()

	out := []dto.PolicyRecord{}
	for rows.Next() {
		var p dto.PolicyRecord
		if err := rows.Scan(&p.ID, &p.CityName, &p.Year, &p.BaseMin, &p.BaseMax, &p.Rate); err != nil {
			return nil, readErr(CollectionCities, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(CollectionCities, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, readErr(CollectionCities, err)
	}
	return out, nil
}

func (s *PGStore) ReplaceSalaries(ctx context.Context, salaries []dto.SalaryRecord) error {
	rows := make([][]any, len(salaries))
	for i, r := range salaries {
		rows[i] = []any{uuid.New(), i, r.EmployeeID, r.EmployeeName, r.Month, r.SalaryAmount}
	}
	err := s.replace(ctx, CollectionSalaries,
		[]string{"id", "position", "employee_id", "employee_name", "month", "salary_amount"}, rows)
	if err != nil {
		return writeErr(CollectionSalaries, err)
	}
	return nil
}

func (s *PGStore) ListSalaries(ctx context.Context) ([]dto.SalaryRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, readErr(CollectionSalaries, err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
SELECT id::text, employee_id, employee_name, month, salary_amount
FROM salaries
ORDER BY position ASC
`)
	if err != nil {
		return nil, readErr(CollectionSalaries, err)
	}
	defer rows.Close()

	out := []dto.SalaryRecord{}
	for rows.Next() {
		var r dto.SalaryRecord
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.Month, &r.SalaryAmount); err != nil {
			return nil, readErr(CollectionSalaries, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(CollectionSalaries, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, readErr(CollectionSalaries, err)
	}
	return out, nil
}

func (s *PGStore) ReplaceResults(ctx context.Context, results []dto.ResultRecord) ([]dto.ResultRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, writeErr(CollectionResults, err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var createdAt time.Time
	if err := tx.QueryRow(ctx, `SELECT now()`).Scan(&createdAt); err != nil {
		return nil, writeErr(CollectionResults, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM results`); err != nil {
		return nil, writeErr(CollectionResults, err)
	}

	out := make([]dto.ResultRecord, len(results))
	rows := make([][]any, len(results))
	for i, r := range results {
		id := uuid.New()
		r.ID = id.String()
		r.CreatedAt = createdAt
		out[i] = r
		rows[i] = []any{id, i, r.EmployeeName, r.AvgSalary, r.ContributionBase, r.CompanyFee, createdAt}
	}
	if len(rows) > 0 {
		_, err := tx.CopyFrom(ctx, pgx.Identifier{CollectionResults},
			[]string{"id", "position", "employee_name", "avg_salary", "contribution_base", "company_fee", "created_at"},
			pgx.CopyFromRows(rows))
		if err != nil {
			return nil, writeErr(CollectionResults, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, writeErr(CollectionResults, err)
	}

	s.logger.Debug("Replaced results", zap.Int("rows", len(out)))
	return out, nil
}

func (s *PGStore) ListResults(ctx context.Context, filter dto.ResultFilter) ([]dto.ResultRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, readErr(CollectionResults, err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	rows, err := tx.Query(ctx, `
SELECT id::text, employee_name, avg_salary, contribution_base, company_fee, created_at
FROM results
WHERE ($1 = '' OR strpos(employee_name, $1) > 0)
ORDER BY position ASC
`, filter.EmployeeName)
	if err != nil {
		return nil, readErr(CollectionResults, err)
	}
	defer rows.Close()

	out := []dto.ResultRecord{}
	for rows.Next() {
		var r dto.ResultRecord
		if err := rows.Scan(&r.ID, &r.EmployeeName, &r.AvgSalary, &r.ContributionBase, &r.CompanyFee, &r.CreatedAt); err != nil {
			return nil, readErr(CollectionResults, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(CollectionResults, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, readErr(CollectionResults, err)
	}
	return out, nil
}
