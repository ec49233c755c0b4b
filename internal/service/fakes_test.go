package service

import (
	"context"
	"sync"

	"github.com/coursehub/content/internal/cache"
	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/repository"
)

type fakeUserStore struct {
	users     map[int64]*model.User
	updateErr error
	gets      int
	patches   []model.UserPatch
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	f.gets++
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) UpdateUserProfile(_ context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	f.patches = append(f.patches, patch)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	applyPatch(u, patch)
	cp := *u
	return &cp, nil
}

type fakeProfileCache struct {
	mu          sync.Mutex
	entries     map[int64]*model.User
	getErr      error
	invalidated []int64
}

func newFakeProfileCache() *fakeProfileCache {
	return &fakeProfileCache{entries: map[int64]*model.User{}}
}

func (f *fakeProfileCache) GetProfile(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.entries[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return u, nil
}

func (f *fakeProfileCache) SetProfile(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[u.ID] = u
	return nil
}

func (f *fakeProfileCache) InvalidateProfile(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	f.invalidated = append(f.invalidated, id)
	return nil
}

type fakeCourseStore struct {
	count       int64
	enrollments []model.EnrolledCourse
	bookmarks   []model.Course
	total       int64
	err         error
	filters     []repository.ListFilter
}

func (f *fakeCourseStore) CountEnrollmentsByUser(context.Context, int64) (int64, error) {
	return f.count, f.err
}

func (f *fakeCourseStore) ListEnrollmentsByUser(_ context.Context, filter repository.ListFilter) ([]model.EnrolledCourse, int64, error) {
	f.filters = append(f.filters, filter)
	return f.enrollments, f.total, f.err
}

func (f *fakeCourseStore) CountBookmarksByUser(context.Context, int64) (int64, error) {
	return f.count, f.err
}

func (f *fakeCourseStore) ListBookmarksByUser(_ context.Context, filter repository.ListFilter) ([]model.Course, int64, error) {
	f.filters = append(f.filters, filter)
	return f.bookmarks, f.total, f.err
}

type fakeReviewStore struct {
	reviews map[[2]int64]*model.CourseReview
	err     error
}

func (f *fakeReviewStore) GetReviewByUserAndCourse(_ context.Context, userID, courseID int64) (*model.CourseReview, error) {
	if f.err != nil {
		return nil, f.err
	}
	rv, ok := f.reviews[[2]int64{userID, courseID}]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	return rv, nil
}

type fakeAPIKeyStore struct {
	keys map[string]*model.APIKey
}

func (f *fakeAPIKeyStore) CreateAPIKey(_ context.Context, key *model.APIKey) error {
	if f.keys == nil {
		f.keys = map[string]*model.APIKey{}
	}
	f.keys[key.ID] = key
	return nil
}

func (f *fakeAPIKeyStore) ListAPIKeysByUserID(_ context.Context, userID int64) ([]*model.APIKey, error) {
	var out []*model.APIKey
	for _, k := range f.keys {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeAPIKeyStore) RevokeAPIKey(_ context.Context, userID int64, id string) (*model.APIKey, error) {
	k, ok := f.keys[id]
	if !ok || k.UserID != userID || k.IsRevoked() {
		return nil, repository.ErrAPIKeyNotFound
	}
	now := k.CreatedAt
	k.RevokedAt = &now
	return k, nil
}

type fakeRevocations struct {
	marked []string
}

func (f *fakeRevocations) MarkRevoked(_ context.Context, keyID string) error {
	f.marked = append(f.marked, keyID)
	return nil
}

func strptr(s string) *string { return &s }

func applyPatch(u *model.User, p model.UserPatch) {
	if p.Nickname != nil {
		u.Nickname = *p.Nickname
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Headline != nil {
		u.Headline = *p.Headline
	}
	if p.Introduction != nil {
		u.Introduction = *p.Introduction
	}
	if p.Image != nil {
		u.Image = *p.Image
	}
}
