package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aashish23092/contribution-calculator/dto"
)

type beginnerFunc func(ctx context.Context) (pgx.Tx, error)

func (f beginnerFunc) Begin(ctx context.Context) (pgx.Tx, error) { return f(ctx) }

type copyCall struct {
	table   string
	columns []string
	rows    [][]any
}

type fakeTx struct {
	pgx.Tx

	execs      []string
	copies     []copyCall
	queryArgs  []any
	rows       [][]any
	now        time.Time
	copyErr    error
	execErr    error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return pgconn.CommandTag{}, t.execErr
}

func (t *fakeTx) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if t.copyErr != nil {
		return 0, t.copyErr
	}
	call := copyCall{table: table.Sanitize(), columns: columns}
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return 0, err
		}
		call.rows = append(call.rows, vals)
	}
	t.copies = append(t.copies, call)
	return int64(len(call.rows)), nil
}

func (t *fakeTx) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	t.queryArgs = args
	return &fakeRows{rows: t.rows, idx: -1}, nil
}

func (t *fakeTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return fakeRow{now: t.now}
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeRow struct{ now time.Time }

func (r fakeRow) Scan(dest ...any) error {
	*(dest[0].(*time.Time)) = r.now
	return nil
}

type fakeRows struct {
	pgx.Rows
	rows [][]any
	idx  int
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx]
	if len(row) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *float64:
			*p = row[i].(float64)
		case *time.Time:
			*p = row[i].(time.Time)
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

func newFakePGStore(tx *fakeTx) *PGStore {
	return NewPGStore(beginnerFunc(func(context.Context) (pgx.Tx, error) { return tx, nil }), nil)
}

func TestPGStoreReplacePolicies(t *testing.T) {
	tx := &fakeTx{}
	s := newFakePGStore(tx)

	err := s.ReplacePolicies(context.Background(), []dto.PolicyRecord{
		{ID: "1", CityName: "佛山", Year: "2024", BaseMin: 3000, BaseMax: 28000, Rate: 0.32},
		{ID: "2", CityName: "广州", Year: "2024", BaseMin: 4588, BaseMax: 26421, Rate: 0.14},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"DELETE FROM cities"}, tx.execs)
	require.Len(t, tx.copies, 1)
	c := tx.copies[0]
	assert.Equal(t, `"cities"`, c.table)
	assert.Equal(t, []string{"id", "position", "city_name", "year", "base_min", "base_max", "rate"}, c.columns)
	require.Len(t, c.rows, 2)
	assert.Equal(t, 0, c.rows[0][1])
	assert.Equal(t, "佛山", c.rows[0][2])
	assert.Equal(t, 1, c.rows[1][1])
	assert.True(t, tx.committed)
}

func TestPGStoreReplaceEmptySkipsCopy(t *testing.T) {
	tx := &fakeTx{}
	s := newFakePGStore(tx)

	require.NoError(t, s.ReplaceSalaries(context.Background(), nil))
	assert.Equal(t, []string{"DELETE FROM salaries"}, tx.execs)
	assert.Empty(t, tx.copies)
	assert.True(t, tx.committed)
}

func TestPGStoreReplaceRollsBackOnCopyError(t *testing.T) {
	tx := &fakeTx{copyErr: errors.New("disk full")}
	s := newFakePGStore(tx)

	err := s.ReplaceSalaries(context.Background(), []dto.SalaryRecord{{EmployeeName: "张三", SalaryAmount: 1}})
	require.Error(t, err)

	var serr *dto.StoreError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, CollectionSalaries, serr.Collection)
	assert.Equal(t, "replace", serr.Op)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestPGStoreFindPolicies(t *testing.T) {
	tx := &fakeTx{rows: [][]any{
		{"a", "佛山", "2024", 3000.0, 28000.0, 0.32},
	}}
	s := newFakePGStore(tx)

	got, err := s.FindPolicies(context.Background(), dto.PolicyFilter{CityName: "佛山"})
	require.NoError(t, err)

	assert.Equal(t, []any{"佛山", ""}, tx.queryArgs)
	assert.Equal(t, []dto.PolicyRecord{
		{ID: "a", CityName: "佛山", Year: "2024", BaseMin: 3000, BaseMax: 28000, Rate: 0.32},
	}, got)
}

func TestPGStoreListSalaries(t *testing.T) {
	tx := &fakeTx{rows: [][]any{
		{"a", "E001", "张三", "2024-01", 5000.0},
		{"b", "E001", "张三", "2024-02", 7000.0},
	}}
	s := newFakePGStore(tx)

	got, err := s.ListSalaries(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 7000.0, got[1].SalaryAmount)
}

func TestPGStoreReplaceResultsStampsCreatedAt(t *testing.T) {
	now := time.Date(2024, 3, 5, 6, 7, 9, 0, time.UTC)
	tx := &fakeTx{now: now}
	s := newFakePGStore(tx)

	out, err := s.ReplaceResults(context.Background(), []dto.ResultRecord{
		{EmployeeName: "张三", AvgSalary: 5666.67, ContributionBase: 5666.67, CompanyFee: 1813.33},
	})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, now, out[0].CreatedAt)
	assert.NotEmpty(t, out[0].ID)
	assert.Equal(t, []string{"DELETE FROM results"}, tx.execs)
	require.Len(t, tx.copies, 1)
	assert.Equal(t, now, tx.copies[0].rows[0][6])
	assert.True(t, tx.committed)
}

func TestPGStoreListResultsFilter(t *testing.T) {
	now := time.Date(2024, 3, 5, 6, 7, 9, 0, time.UTC)
	tx := &fakeTx{rows: [][]any{
		{"a", "张三", 5666.67, 5666.67, 1813.33, now},
	}}
	s := newFakePGStore(tx)

	got, err := s.ListResults(context.Background(), dto.ResultFilter{EmployeeName: "张"})
	require.NoError(t, err)
	assert.Equal(t, []any{"张"}, tx.queryArgs)
	require.Len(t, got, 1)
	assert.Equal(t, now, got[0].CreatedAt)
}

func TestPGStoreBeginError(t *testing.T) {
	s := NewPGStore(beginnerFunc(func(context.Context) (pgx.Tx, error) {
		return nil, errors.New("connection refused")
	}), nil)

	_, err := s.ListResults(context.Background(), dto.ResultFilter{})

	var serr *dto.StoreError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "read", serr.Op)
	assert.Equal(t, CollectionResults, serr.Collection)
}
