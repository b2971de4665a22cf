package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aashish23092/contribution-calculator/dto"
)

// MemoryStore keeps the collections in process. Used by tests and by
// STORE_URL=memory:// for local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	policies []dto.PolicyRecord
	salaries []dto.SalaryRecord
	results  []dto.ResultRecord
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) ReplacePolicies(ctx context.Context, policies []dto.PolicyRecord) error {
	if err := ctx.Err(); err != nil {
		return writeErr(CollectionCities, err)
	}
	rows := make([]dto.PolicyRecord, len(policies))
	for i, p := range policies {
		p.ID = uuid.NewString()
		rows[i] = p
	}

	s.mu.Lock()
	s.policies = rows
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListPolicies(ctx context.Context) ([]dto.PolicyRecord, error) {
	return s.FindPolicies(ctx, dto.PolicyFilter{})
}

func (s *MemoryStore) FindPolicies(ctx context.Context, filter dto.PolicyFilter) ([]dto.PolicyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, readErr(CollectionCities, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dto.PolicyRecord, 0, len(s.policies))
	for _, p := range s.policies {
		if filter.CityName != "" && p.CityName != filter.CityName {
			continue
		}
		if filter.Year != "" && p.Year != filter.Year {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) ReplaceSalaries(ctx context.Context, salaries []dto.SalaryRecord) error {
	if err := ctx.Err(); err != nil {
		return writeErr(CollectionSalaries, err)
	}
	rows := make([]dto.SalaryRecord, len(salaries))
	for i, r := range salaries {
		r.ID = uuid.NewString()
		rows[i] = r
	}

	s.mu.Lock()
	s.salaries = rows
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListSalaries(ctx context.Context) ([]dto.SalaryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, readErr(CollectionSalaries, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dto.SalaryRecord, len(s.salaries))
	copy(out, s.salaries)
	return out, nil
}

func (s *MemoryStore) ReplaceResults(ctx context.Context, results []dto.ResultRecord) ([]dto.ResultRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, writeErr(CollectionResults, err)
	}
	createdAt := s.now()
	rows := make([]dto.ResultRecord, len(results))
	for i, r := range results {
		r.ID = uuid.NewString()
		r.CreatedAt = createdAt
		rows[i] = r
	}

	s.mu.Lock()
	s.results = rows
	s.mu.Unlock()

	out := make([]dto.ResultRecord, len(rows))
	copy(out, rows)
	return out, nil
}

func (s *MemoryStore) ListResults(ctx context.Context, filter dto.ResultFilter) ([]dto.ResultRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, readErr(CollectionResults, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dto.ResultRecord, 0, len(s.results))
	for _, r := range s.results {
		if filter.EmployeeName != "" && !strings.Contains(r.EmployeeName, filter.EmployeeName) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
