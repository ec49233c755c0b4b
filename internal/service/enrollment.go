package service

import (
	"context"
	"fmt"

	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/repository"
)

// EnrollmentStore is the persistence EnrollmentService needs.
type EnrollmentStore interface {
	CountEnrollmentsByUser(ctx context.Context, userID int64) (int64, error)
	ListEnrollmentsByUser(ctx context.Context, filter repository.ListFilter) ([]model.EnrolledCourse, int64, error)
}

// EnrollmentService reads a user's course enrollments.
type EnrollmentService struct {
	store  EnrollmentStore
	paging Paging
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(store EnrollmentStore, paging Paging) *EnrollmentService {
	return &EnrollmentService{store: store, paging: paging}
}

// CountByUser returns how many courses userID is enrolled in.
func (s *EnrollmentService) CountByUser(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.CountEnrollmentsByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count enrollments of user %d: %w", userID, err)
	}
	return n, nil
}

// FindByUserID returns one page of userID's enrollments.
func (s *EnrollmentService) FindByUserID(ctx context.Context, userID int64, q model.Query) (*model.Page[model.EnrolledCourse], error) {
	q, err := s.paging.Normalize(q)
	if err != nil {
		return nil, err
	}

	rows, total, err := s.store.ListEnrollmentsByUser(ctx, repository.ListFilter{
		UserID: userID,
		Search: q.Q,
		Limit:  q.Limit,
		Offset: q.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("list enrollments of user %d: %w", userID, err)
	}

	return model.NewPage(rows, total, q), nil
}
