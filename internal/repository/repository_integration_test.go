//go:build integration

package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/repository"
	"github.com/coursehub/content/internal/testutil"
)

func TestIntegrationMigrate_Idempotent(t *testing.T) {
	ctx, repo := testutil.NewTestRepository(t)

	applied, err := repo.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied, "second run must not reapply migrations")
}

func TestIntegrationUser_UpdateProfile(t *testing.T) {
	ctx, repo := testutil.NewTestRepository(t)

	user := testutil.NewTestUser(t, "rin")
	require.NoError(t, repo.CreateUser(ctx, user))
	require.NotZero(t, user.ID)

	nickname := "Rin S."
	updated, err := repo.UpdateUserProfile(ctx, user.ID, model.UserPatch{Nickname: &nickname})
	require.NoError(t, err)
	assert.Equal(t, "Rin S.", updated.Nickname)
	assert.Equal(t, user.Username, updated.Username)
	assert.False(t, updated.UpdatedAt.Before(user.UpdatedAt))

	_, err = repo.UpdateUserProfile(ctx, user.ID+1000, model.UserPatch{Nickname: &nickname})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestIntegrationUser_UsernameTaken(t *testing.T) {
	ctx, repo := testutil.NewTestRepository(t)

	a := testutil.NewTestUser(t, "a")
	b := testutil.NewTestUser(t, "b")
	require.NoError(t, repo.CreateUser(ctx, a))
	require.NoError(t, repo.CreateUser(ctx, b))

	_, err := repo.UpdateUserProfile(ctx, b.ID, model.UserPatch{Username: &a.Username})
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)
}

func TestIntegrationEnrollments_PaginateAndCount(t *testing.T) {
	ctx, repo := testutil.NewTestRepository(t)

	user := testutil.NewTestUser(t, "learner")
	require.NoError(t, repo.CreateUser(ctx, user))

	base := time.Now().UTC().Add(-time.Hour)
	titles := []string{"Go Basics", "Go Concurrency", "Rust Intro"}
	for i, title := range titles {
		c := testutil.NewTestCourse(t, title)
		require.NoError(t, repo.CreateCourse(ctx, c))
		require.NoError(t, repo.Enroll(ctx, user.ID, c.ID, base.Add(time.Duration(i)*time.Minute)))
	}

	n, err := repo.CountEnrollmentsByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	page, total, err := repo.ListEnrollmentsByUser(ctx, repository.ListFilter{UserID: user.ID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "Rust Intro", page[0].Title, "most recent enrollment first")

	page, total, err = repo.ListEnrollmentsByUser(ctx, repository.ListFilter{UserID: user.ID, Limit: 10, Search: "go"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, page, 2)
}

func TestIntegrationBookmarks_PaginateAndCount(t *testing.T) {
	ctx, repo := testutil.NewTestRepository(t)

	user := testutil.NewTestUser(t, "reader")
	require.NoError(t, repo.CreateUser(ctx, user))

	c := testutil.NewTestCourse(t, "SQL 101")
	require.NoError(t, repo.CreateCourse(ctx, c))
	require.NoError(t, repo.AddBookmark(ctx, user.ID, c.ID, time.Now().UTC()))
	require.NoError(t, repo.AddBookmark(ctx, user.ID, c.ID, time.Now().UTC()))

	n, err := repo.CountBookmarksByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	page, total, err := repo.ListBookmarksByUser(ctx, repository.ListFilter{UserID: user.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, page, 1)
	assert.Equal(t, c.ID, page[0].ID)
	assert.Equal(t, model.LevelBeginner, page[0].Level)
}

func TestIntegrationReview_FoundAndMissing(t *testing.T) {
	ctx, repo := testutil.NewTestRepository(t)

	user := testutil.NewTestUser(t, "critic")
	require.NoError(t, repo.CreateUser(ctx, user))
	c := testutil.NewTestCourse(t, "Review Me")
	require.NoError(t, repo.CreateCourse(ctx, c))

	_, err := repo.GetReviewByUserAndCourse(ctx, user.ID, c.ID)
	assert.ErrorIs(t, err, repository.ErrReviewNotFound)

	rv := &model.CourseReview{CourseID: c.ID, UserID: user.ID, Rating: 4, Comment: "solid"}
	require.NoError(t, repo.UpsertReview(ctx, rv))

	got, err := repo.GetReviewByUserAndCourse(ctx, user.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, "solid", got.Comment)
}

func TestIntegrationAPIKeys_Lifecycle(t *testing.T) {
	ctx, repo := testutil.NewTestRepository(t)

	user := testutil.NewTestUser(t, "keyholder")
	require.NoError(t, repo.CreateUser(ctx, user))

	key := testutil.NewTestAPIKey(t, user.ID)
	require.NoError(t, repo.CreateAPIKey(ctx, key))

	byPrefix, err := repo.GetAPIKeysByPrefix(ctx, key.KeyPrefix)
	require.NoError(t, err)
	require.Len(t, byPrefix, 1)
	assert.Equal(t, []string{model.ScopeRead, model.ScopeWrite}, byPrefix[0].Scopes)

	_, err = repo.RevokeAPIKey(ctx, user.ID+1, key.ID)
	assert.ErrorIs(t, err, repository.ErrAPIKeyNotFound, "other users cannot revoke")

	revoked, err := repo.RevokeAPIKey(ctx, user.ID, key.ID)
	require.NoError(t, err)
	assert.True(t, revoked.IsRevoked())

	byPrefix, err = repo.GetAPIKeysByPrefix(ctx, key.KeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, byPrefix)
}
