package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Aashish23092/contribution-calculator/dto"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cities (
  id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  city_name TEXT NOT NULL,
  year TEXT NOT NULL,
  base_min REAL NOT NULL,
  base_max REAL NOT NULL,
  rate REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS salaries (
  id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  employee_id TEXT NOT NULL,
  employee_name TEXT NOT NULL,
  month TEXT NOT NULL,
  salary_amount REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
  id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  employee_name TEXT NOT NULL,
  avg_salary REAL NOT NULL,
  contribution_base REAL NOT NULL,
  company_fee REAL NOT NULL,
  created_at TEXT NOT NULL
);
`

// SQLiteStore is a single-file embedded RecordStore.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenSQLiteStore opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info("Opened sqlite store", zap.String("path", path))
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) replace(ctx context.Context, table string, insert string, rows [][]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return err
	}
	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ReplacePolicies(ctx context.Context, policies []dto.PolicyRecord) error {
	rows := make([][]any, len(policies))
	for i, p := range policies {
		rows[i] = []any{uuid.NewString(), i, p.CityName, p.Year, p.BaseMin, p.BaseMax, p.Rate}
	}
	err := s.replace(ctx, CollectionCities, `
INSERT INTO cities (id, position, city_name, year, base_min, base_max, rate)
VALUES (?, ?, ?, ?, ?, ?, ?)`, rows)
	if err != nil {
		return writeErr(CollectionCities, err)
	}
	return nil
}

func (s *SQLiteStore) ListPolicies(ctx context.Context) ([]dto.PolicyRecord, error) {
	return s.FindPolicies(ctx, dto.PolicyFilter{})
}

func (s *SQLiteStore) FindPolicies(ctx context.Context, filter dto.PolicyFilter) ([]dto.PolicyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, city_name, year, base_min, base_max, rate
FROM cities
WHERE (?1 = '' OR city_name = ?1)
  AND (?2 = '' OR year = ?2)
ORDER BY position ASC`, filter.CityName, filter.Year)
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
	return out, nil
}

func (s *SQLiteStore) ReplaceSalaries(ctx context.Context, salaries []dto.SalaryRecord) error {
	rows := make([][]any, len(salaries))
	for i, r := range salaries {
		rows[i] = []any{uuid.NewString(), i, r.EmployeeID, r.EmployeeName, r.Month, r.SalaryAmount}
	}
	err := s.replace(ctx, CollectionSalaries, `
INSERT INTO salaries (id, position, employee_id, employee_name, month, salary_amount)
VALUES (?, ?, ?, ?, ?, ?)`, rows)
	if err != nil {
		return writeErr(CollectionSalaries, err)
	}
	return nil
}

func (s *SQLiteStore) ListSalaries(ctx context.Context) ([]dto.SalaryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, employee_id, employee_name, month, salary_amount
FROM salaries
ORDER BY position ASC`)
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
	return out, nil
}

func (s *SQLiteStore) ReplaceResults(ctx context.Context, results []dto.ResultRecord) ([]dto.ResultRecord, error) {
	createdAt := s.now().UTC().Truncate(time.Millisecond)

	out := make([]dto.ResultRecord, len(results))
	rows := make([][]any, len(results))
	for i, r := range results {
		r.ID = uuid.NewString()
		r.CreatedAt = createdAt
		out[i] = r
		rows[i] = []any{r.ID, i, r.EmployeeName, r.AvgSalary, r.ContributionBase, r.CompanyFee,
			createdAt.Format(time.RFC3339Nano)}
	}

	err := s.replace(ctx, CollectionResults, `
INSERT INTO results (id, position, employee_name, avg_salary, contribution_base, company_fee, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`, rows)
	if err != nil {
		return nil, writeErr(CollectionResults, err)
	}
	return out, nil
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter dto.ResultFilter) ([]dto.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, employee_name, avg_salary, contribution_base, company_fee, created_at
FROM results
WHERE (?1 = '' OR instr(employee_name, ?1) > 0)
ORDER BY position ASC`, filter.EmployeeName)
	if err != nil {
		return nil, readErr(CollectionResults, err)
	}
	defer rows.Close()

	out := []dto.ResultRecord{}
	for rows.Next() {
		var (
			r         dto.ResultRecord
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.EmployeeName, &r.AvgSalary, &r.ContributionBase, &r.CompanyFee, &createdAt); err != nil {
			return nil, readErr(CollectionResults, err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, readErr(CollectionResults, fmt.Errorf("created_at %q: %w", createdAt, err))
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(CollectionResults, err)
	}
	return out, nil
}
