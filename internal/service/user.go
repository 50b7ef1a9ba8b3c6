package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/deppfellow/calculator-api/internal/identity"
	"github.com/deppfellow/calculator-api/internal/lib/job"
	"github.com/deppfellow/calculator-api/internal/model"
	"github.com/deppfellow/calculator-api/internal/server"
)

type UserService struct {
	logger     *zerolog.Logger
	identity   identity.Provider
	jobs       *job.JobService
	calculator *CalculatorService
}

func NewUserService(s *server.Server, calculator *CalculatorService) *UserService {
	return &UserService{
		logger:     s.Logger,
		identity:   s.Identity,
		jobs:       s.Job,
		calculator: calculator,
	}
}

func (s *UserService) Profile(ctx context.Context, uid string) (*model.User, error) {
	if s.identity == nil {
		return nil, errIdentityUnavailable
	}
	user, err := s.identity.GetAccount(ctx, uid)
	if err != nil {
		return nil, identityError(err)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, uid string, update identity.AccountUpdate) (*model.User, error) {
	if s.identity == nil {
		return nil, errIdentityUnavailable
	}
	user, err := s.identity.UpdateAccount(ctx, uid, update)
	if err != nil {
		return nil, identityError(err)
	}
	return user, nil
}

// DeleteAccount removes the account, then its calculation history. The
// purge runs as a job when workers are available and inline otherwise; a
// failed purge does not fail the deletion.
func (s *UserService) DeleteAccount(ctx context.Context, uid string) error {
	if s.identity == nil {
		return errIdentityUnavailable
	}

	// Read the profile first for the goodbye email; it is gone afterwards.
	var email, displayName string
	if user, err := s.identity.GetAccount(ctx, uid); err == nil {
		email, displayName = user.Email, user.DisplayName
	}

	if err := s.identity.DeleteAccount(ctx, uid); err != nil {
		return identityError(err)
	}

	if s.jobs != nil {
		err := s.jobs.EnqueuePurgeHistory(ctx, uid, email, displayName)
		if err == nil {
			return nil
		}
		s.logger.Warn().Err(err).Str("user_id", uid).Msg("failed to enqueue history purge, purging inline")
	}

	removed, err := s.calculator.PurgeOwner(ctx, uid)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", uid).Msg("failed to purge calculation history")
		return nil
	}

	s.logger.Info().Str("user_id", uid).Int64("removed", removed).Msg("purged calculation history")
	return nil
}
