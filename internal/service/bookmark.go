package service

import (
	"context"
	"fmt"

	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/repository"
)

// BookmarkStore is the persistence BookmarkService needs.
type BookmarkStore interface {
	CountBookmarksByUser(ctx context.Context, userID int64) (int64, error)
	ListBookmarksByUser(ctx context.Context, filter repository.ListFilter) ([]model.Course, int64, error)
}

// BookmarkService reads a user's bookmarked courses.
type BookmarkService struct {
	store  BookmarkStore
	paging Paging
}

// NewBookmarkService creates a new BookmarkService.
func NewBookmarkService(store BookmarkStore, paging Paging) *BookmarkService {
	return &BookmarkService{store: store, paging: paging}
}

// CountByUser returns how many courses userID has bookmarked.
func (s *BookmarkService) CountByUser(ctx context.Context, userID int64) (int64, error) {
	n, err := s.store.CountBookmarksByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count bookmarks of user %d: %w", userID, err)
	}
	return n, nil
}

// FindByUserID returns one page of userID's bookmarks, newest first.
func (s *BookmarkService) FindByUserID(ctx context.Context, userID int64, q model.Query) (*model.Page[model.Course], error) {
	q, err := s.paging.Normalize(q)
	if err != nil {
		return nil, err
	}

	rows, total, err := s.store.ListBookmarksByUser(ctx, repository.ListFilter{
		UserID: userID,
		Search: q.Q,
		Limit:  q.Limit,
		Offset: q.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("list bookmarks of user %d: %w", userID, err)
	}

	return model.NewPage(rows, total, q), nil
}
