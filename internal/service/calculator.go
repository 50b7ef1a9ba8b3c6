package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deppfellow/calculator-api/internal/calculator"
	"github.com/deppfellow/calculator-api/internal/errs"
	"github.com/deppfellow/calculator-api/internal/model"
	"github.com/deppfellow/calculator-api/internal/repository"
	"github.com/deppfellow/calculator-api/internal/server"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// CalculationStore is the persistence collaborator.
type CalculationStore interface {
	Append(ctx context.Context, c *model.Calculation) (*model.Calculation, error)
	QueryByOwner(ctx context.Context, owner string, limit int) ([]model.Calculation, error)
	DeleteByID(ctx context.Context, owner string, id uuid.UUID) error
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
	StatsByOwner(ctx context.Context, owner string) (*model.CalculationStats, error)
}

// CalculationResult is the envelope of one calculation and its status class.
type CalculationResult struct {
	Envelope calculator.Envelope
	Class    errs.StatusClass
	Outcome  calculator.Outcome
}

type CalculatorService struct {
	logger *zerolog.Logger
	store  CalculationStore
	stats  *repository.StatsCache
	now    func() time.Time
}

func NewCalculatorService(s *server.Server, repos *repository.Repositories) *CalculatorService {
	// Pass a nil interface, not a nil *CalculationRepository.
	var store CalculationStore
	if repos.Calculations != nil {
		store = repos.Calculations
	}
	return NewCalculatorServiceWithStore(s.Logger, store, repos.Stats)
}

// NewCalculatorServiceWithStore builds the service over any store. store may
// be nil (persistence disabled); a nil stats cache disables caching.
func NewCalculatorServiceWithStore(logger *zerolog.Logger, store CalculationStore, stats *repository.StatsCache) *CalculatorService {
	if stats == nil {
		stats = repository.NewStatsCache(nil, repository.DefaultStatsTTL, logger)
	}
	return &CalculatorService{
		logger: logger,
		store:  store,
		stats:  stats,
		now:    time.Now,
	}
}

// HasStore reports whether a persistence collaborator is configured.
func (s *CalculatorService) HasStore() bool {
	return s.store != nil
}

// Calculate runs validate -> dispatch -> envelope and, on success, stores
// the record for owner. A failed write is logged and the envelope goes out
// without an id.
func (s *CalculatorService) Calculate(ctx context.Context, in calculator.Input, loc calculator.Locale, owner string) *CalculationResult {
	outcome := calculator.Evaluate(in, loc)
	envelope, class := calculator.BuildEnvelope(outcome, s.now())

	result := &CalculationResult{Envelope: envelope, Class: class, Outcome: outcome}
	if !outcome.OK() || s.store == nil {
		return result
	}

	success := outcome.Success
	stored, err := s.store.Append(ctx, &model.Calculation{
		Num1:            success.Request.First,
		Num2:            success.Request.Second,
		Operation:       string(success.Request.Kind),
		OperationSymbol: success.Symbol,
		Result:          success.Result,
		Calculation:     success.Calculation(),
		UserID:          owner,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("owner", owner).Msg("failed to save calculation, responding without id")
		return result
	}

	s.stats.Invalidate(ctx, owner)
	result.Envelope = envelope.WithID(stored.ID)
	return result
}

// History lists the owner's newest calculations. limit is clamped to
// [1, MaxHistoryLimit]; zero or negative means DefaultHistoryLimit.
func (s *CalculatorService) History(ctx context.Context, owner string, limit int) ([]model.Calculation, error) {
	if s.store == nil {
		return nil, errDatabaseUnavailable
	}
	return s.store.QueryByOwner(ctx, owner, ClampHistoryLimit(limit))
}

func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

// DeleteCalculation removes one of the owner's records.
func (s *CalculatorService) DeleteCalculation(ctx context.Context, owner string, id uuid.UUID) error {
	if s.store == nil {
		return errDatabaseUnavailable
	}
	if err := s.store.DeleteByID(ctx, owner, id); err != nil {
		return err
	}
	s.stats.Invalidate(ctx, owner)
	return nil
}

// Stats returns the owner's totals, through the cache when available.
func (s *CalculatorService) Stats(ctx context.Context, owner string) (*model.CalculationStats, error) {
	if s.store == nil {
		return nil, errDatabaseUnavailable
	}
	return s.stats.Get(ctx, owner, s.store.StatsByOwner)
}

// PurgeOwner deletes the owner's whole history. Without a store there is
// nothing to purge.
func (s *CalculatorService) PurgeOwner(ctx context.Context, owner string) (int64, error) {
	if s.store == nil {
		return 0, nil
	}
	removed, err := s.store.DeleteByOwner(ctx, owner)
	if err != nil {
		return 0, err
	}
	s.stats.Invalidate(ctx, owner)
	return removed, nil
}
