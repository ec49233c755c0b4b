package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursehub/content/internal/metrics"
	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/repository"
)

// ReviewStore is the persistence ReviewService needs.
type ReviewStore interface {
	GetReviewByUserAndCourse(ctx context.Context, userID, courseID int64) (*model.CourseReview, error)
}

// ReviewService reads course reviews.
type ReviewService struct {
	store   ReviewStore
	metrics metrics.Recorder
}

// NewReviewService creates a new ReviewService.
func NewReviewService(store ReviewStore, recorder metrics.Recorder) *ReviewService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ReviewService{store: store, metrics: recorder}
}

// FindByUserIDAndCourseID returns userID's review of courseID, or
// ErrReviewNotFound when the user has not reviewed it.
func (s *ReviewService) FindByUserIDAndCourseID(ctx context.Context, userID, courseID int64) (*model.CourseReview, error) {
	review, err := s.store.GetReviewByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			s.metrics.IncReviewLookup(false)
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review of user %d for course %d: %w", userID, courseID, err)
	}

	s.metrics.IncReviewLookup(true)
	return review, nil
}
