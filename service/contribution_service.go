package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Aashish23092/contribution-calculator/dto"
	"github.com/Aashish23092/contribution-calculator/store"
	"github.com/Aashish23092/contribution-calculator/utils"
)

// Options selects the policy used by Calculate and the export time zone.
type Options struct {
	TargetCity string
	TargetYear string // empty: any year
	Location   *time.Location
}

// ContributionService ties the sheet parser, calculator and store together.
type ContributionService struct {
	store  store.RecordStore
	parser *utils.SheetParser
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	// writeMu serializes every read-modify-write against the store;
	// calcGroup folds concurrent Calculate calls into one run.
	writeMu   sync.Mutex
	calcGroup singleflight.Group
}

func NewContributionService(recordStore store.RecordStore, opts Options, logger *zap.Logger) *ContributionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &ContributionService{
		store:  recordStore,
		parser: utils.NewSheetParser(logger),
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// ImportPolicies parses a policy sheet and replaces the cities collection.
func (s *ContributionService) ImportPolicies(ctx context.Context, data []byte, mode utils.DecodeMode) (int, error) {
	policies, err := s.parser.ParsePolicies(data, mode)
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.ReplacePolicies(ctx, policies); err != nil {
		return 0, err
	}
	s.logger.Info("Imported policies", zap.Int("count", len(policies)))
	return len(policies), nil
}

// ImportSalaries parses a salary sheet and replaces the salaries collection.
func (s *ContributionService) ImportSalaries(ctx context.Context, data []byte, mode utils.DecodeMode) (int, error) {
	salaries, err := s.parser.ParseSalaries(data, mode)
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.ReplaceSalaries(ctx, salaries); err != nil {
		return 0, err
	}
	s.logger.Info("Imported salaries", zap.Int("count", len(salaries)))
	return len(salaries), nil
}

func (s *ContributionService) ListPolicies(ctx context.Context) ([]dto.PolicyRecord, error) {
	return s.store.ListPolicies(ctx)
}

func (s *ContributionService) ListSalaries(ctx context.Context) ([]dto.SalaryRecord, error) {
	return s.store.ListSalaries(ctx)
}

// Calculate recomputes every employee's contribution from the stored policy
// and salaries and replaces the results collection. Callers arriving while a
// run is in flight get that run's outcome. The shared run is detached from
// any single caller's cancellation; a canceled caller stops waiting but the
// run completes for the others.
func (s *ContributionService) Calculate(ctx context.Context) ([]dto.ResultRecord, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := s.calcGroup.DoChan("calculate", func() (interface{}, error) {
		return s.calculate(runCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("Joined in-flight calculation")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		results := res.Val.([]dto.ResultRecord)
		return append([]dto.ResultRecord(nil), results...), nil
	}
}

func (s *ContributionService) calculate(ctx context.Context) ([]dto.ResultRecord, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	city, year := s.opts.TargetCity, s.opts.TargetYear

	policies, err := s.store.FindPolicies(ctx, dto.PolicyFilter{CityName: city, Year: year})
	if err != nil {
		s.logger.Error("Failed to load city policy", zap.Error(err))
		return nil, &dto.CalcError{Kind: dto.CalcStoreRead, City: city, Year: year, Err: err}
	}
	policy, err := SelectPolicy(policies, city, year)
	if err != nil {
		s.logger.Error("Failed to select city policy", zap.Error(err))
		return nil, err
	}

	salaries, err := s.store.ListSalaries(ctx)
	if err != nil {
		s.logger.Error("Failed to load salaries", zap.Error(err))
		return nil, &dto.CalcError{Kind: dto.CalcStoreRead, City: city, Year: year, Err: err}
	}

	results := Calculate(policy, salaries)

	stored, err := s.store.ReplaceResults(ctx, results)
	if err != nil {
		s.logger.Error("Failed to store results", zap.Error(err))
		return nil, &dto.CalcError{Kind: dto.CalcStoreWrite, City: city, Year: year, Err: err}
	}

	s.logger.Info("Calculated contributions",
		zap.String("city", city),
		zap.Int("salaries", len(salaries)),
		zap.Int("employees", len(stored)))
	return stored, nil
}

// ListResults returns stored results whose employee name contains name.
func (s *ContributionService) ListResults(ctx context.Context, name string) ([]dto.ResultRecord, error) {
	return s.store.ListResults(ctx, dto.ResultFilter{EmployeeName: name})
}

// ExportResults renders every stored result as an xlsx workbook and
// returns it with its download file name.
func (s *ContributionService) ExportResults(ctx context.Context) ([]byte, string, error) {
	results, err := s.store.ListResults(ctx, dto.ResultFilter{})
	if err != nil {
		return nil, "", err
	}

	data, err := utils.WriteResults(results, s.opts.Location)
	if err != nil {
		return nil, "", err
	}
	return data, utils.ExportFileName(s.now().In(s.opts.Location)), nil
}

// IsCalcError reports whether err is a CalcError of the given kind.
func IsCalcError(err error, kind dto.CalcErrorKind) bool {
	var cerr *dto.CalcError
	return errors.As(err, &cerr) && cerr.Kind == kind
}
