package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Aashish23092/contribution-calculator/config"
	"github.com/Aashish23092/contribution-calculator/dto"
)

const (
	CollectionCities   = "cities"
	CollectionSalaries = "salaries"
	CollectionResults  = "results"
)

// RecordStore persists the three collections. Every Replace call swaps the
// whole collection in one transaction: readers see either the old rows or
// the new ones, never an empty collection in between. List calls return rows
// in insertion order.
type RecordStore interface {
	ReplacePolicies(ctx context.Context, policies []dto.PolicyRecord) error
	ListPolicies(ctx context.Context) ([]dto.PolicyRecord, error)
	FindPolicies(ctx context.Context, filter dto.PolicyFilter) ([]dto.PolicyRecord, error)

	ReplaceSalaries(ctx context.Context, salaries []dto.SalaryRecord) error
	ListSalaries(ctx context.Context) ([]dto.SalaryRecord, error)

	// ReplaceResults stamps every row with the same store-assigned creation
	// time and returns the rows as stored.
	ReplaceResults(ctx context.Context, results []dto.ResultRecord) ([]dto.ResultRecord, error)
	ListResults(ctx context.Context, filter dto.ResultFilter) ([]dto.ResultRecord, error)

	Close() error
}

// Open builds the store named by the URL scheme: postgres:// or
// postgresql:// (pgx), sqlite:// (embedded file) or memory://.
func Open(ctx context.Context, settings config.StoreSettings, logger *zap.Logger) (RecordStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	u, err := url.Parse(settings.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return OpenPGStore(ctx, settings.URL, settings.Key, logger)
	case "sqlite":
		path := strings.TrimPrefix(settings.URL, u.Scheme+"://")
		return OpenSQLiteStore(ctx, path, logger)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported STORE_URL scheme %q", u.Scheme)
	}
}

func readErr(collection string, err error) error {
	return &dto.StoreError{Op: "read", Collection: collection, Err: err}
}

func writeErr(collection string, err error) error {
	return &dto.StoreError{Op: "replace", Collection: collection, Err: err}
}
