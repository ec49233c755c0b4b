package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/coursehub/content/internal/cache"
	"github.com/coursehub/content/internal/metrics"
	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/repository"
)

// UserStore is the persistence UserService needs.
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error)
}

// ProfileCache caches profiles by user id.
type ProfileCache interface {
	GetProfile(ctx context.Context, id int64) (*model.User, error)
	SetProfile(ctx context.Context, u *model.User) error
	InvalidateProfile(ctx context.Context, id int64) error
}

// UserService handles profile reads and updates.
type UserService struct {
	store   UserStore
	cache   ProfileCache
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, profiles ProfileCache, recorder metrics.Recorder, logger *slog.Logger) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		store:   store,
		cache:   profiles,
		metrics: recorder,
		logger:  logger,
	}
}

// UpdateUserInput defines input for updating a profile. Nil fields are
// left unchanged; ID selects the row and is never taken from the body.
type UpdateUserInput struct {
	ID           int64   `json:"id" validate:"gt=0"`
	Nickname     *string `json:"nickname" validate:"omitnil,min=1,max=50"`
	Username     *string `json:"username" validate:"omitnil,username"`
	Headline     *string `json:"headline" validate:"omitnil,max=120"`
	Introduction *string `json:"introduction" validate:"omitnil,max=2000"`
	Image        *string `json:"image" validate:"omitempty,url,max=2048"`
}

func (in UpdateUserInput) patch() model.UserPatch {
	return model.UserPatch{
		Nickname:     in.Nickname,
		Username:     in.Username,
		Headline:     in.Headline,
		Introduction: in.Introduction,
		Image:        in.Image,
	}
}

// Get returns the profile of user id, cache first.
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	cached, err := s.cache.GetProfile(ctx, id)
	if err == nil {
		s.metrics.IncProfileCacheHit()
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "profile cache read failed",
			slog.Int64("user_id", id),
			slog.String("error", err.Error()),
		)
	}
	s.metrics.IncProfileCacheMiss()

	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}

	if err := s.cache.SetProfile(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "profile cache fill failed",
			slog.Int64("user_id", id),
			slog.String("error", err.Error()),
		)
	}
	return user, nil
}

// Update applies the non-nil fields of in to the profile of in.ID.
func (s *UserService) Update(ctx context.Context, in UpdateUserInput) (*model.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	patch := in.patch()
	if patch.IsEmpty() {
		return s.Get(ctx, in.ID)
	}

	user, err := s.store.UpdateUserProfile(ctx, in.ID, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrUsernameTaken):
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("update user %d: %w", in.ID, err)
	}

	s.metrics.IncProfileUpdated()

	// A stale entry expires with the TTL if this fails.
	if err := s.cache.InvalidateProfile(ctx, in.ID); err != nil {
		s.logger.WarnContext(ctx, "profile cache invalidation failed",
			slog.Int64("user_id", in.ID),
			slog.String("error", err.Error()),
		)
	}

	return user, nil
}
