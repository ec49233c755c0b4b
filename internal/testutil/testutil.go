// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/repository"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 731001

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops every application table and reapplies the embedded
// migrations.
func ResetSchema(ctx context.Context, repo *repository.Repository) error {
	_, err := repo.Pool().Exec(ctx, `
		DROP TABLE IF EXISTS
			api_keys,
			course_reviews,
			course_bookmarks,
			course_enrollments,
			courses,
			users,
			schema_migrations
		CASCADE
	`)
	if err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}

	if _, err := repo.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// NewTestRepository connects to TEST_DATABASE_URL, takes the advisory lock
// and resets the schema. Cleanup releases everything.
func NewTestRepository(t testing.TB) (context.Context, *repository.Repository) {
	t.Helper()
	dsn := RequireEnv(t, "TEST_DATABASE_URL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	repo, err := repository.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("lock database: %v", err)
	}
	t.Cleanup(func() { _ = unlock() })

	if err := ResetSchema(ctx, repo); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	return ctx, repo
}

// NewTestRedis connects to TEST_REDIS_URL and flushes the database.
func NewTestRedis(t testing.TB) *redis.Client {
	t.Helper()
	url := RequireEnv(t, "TEST_REDIS_URL")

	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	if err := FlushRedis(context.Background(), client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return client
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// NewTestUser returns an unsaved user with unique email and username.
func NewTestUser(t testing.TB, name string) *model.User {
	t.Helper()
	suffix := UniqueID(name)
	return &model.User{
		Email:    suffix + "@example.test",
		Nickname: name,
		Username: suffix,
		Role:     model.RoleUser,
	}
}

// NewTestCourse returns an unsaved published course.
func NewTestCourse(t testing.TB, title string) *model.Course {
	t.Helper()
	published := time.Now().UTC().Add(-time.Hour)
	return &model.Course{
		Slug:        UniqueID("course"),
		Title:       title,
		Level:       model.LevelBeginner,
		Access:      model.AccessFree,
		PublishedAt: &published,
	}
}

// NewTestAPIKey returns an unsaved key for userID.
func NewTestAPIKey(t testing.TB, userID int64) *model.APIKey {
	t.Helper()
	return &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        userID,
		KeyHash:       "hash-" + UniqueID("key"),
		KeyPrefix:     "abc123",
		Scopes:        []string{model.ScopeRead, model.ScopeWrite},
		RateLimitTier: model.TierFree,
		Name:          "Test Key",
		CreatedAt:     time.Now().UTC(),
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
