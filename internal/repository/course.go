package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coursehub/content/internal/model"
)

// Common errors for course repository operations.
var (
	ErrCourseNotFound = errors.New("course not found")
	ErrReviewNotFound = errors.New("review not found")
	ErrSlugExists     = errors.New("course slug already exists")
)

// ListFilter narrows a per-user course listing.
type ListFilter struct {
	UserID int64
	Search string
	Limit  int
	Offset int
}

// searchPattern turns free text into an ILIKE pattern, or "" for no filter.
func (f ListFilter) searchPattern() string {
	s := strings.TrimSpace(f.Search)
	if s == "" {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

const courseColumns = `c.id, c.slug, c.title, c.excerpt, c.cover, c.level, c.access, c.published_at`

// CreateCourse inserts a course. A non-nil PublishedAt marks it published.
func (r *Repository) CreateCourse(ctx context.Context, course *model.Course) error {
	status := "draft"
	if course.PublishedAt != nil {
		status = "published"
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO courses (slug, title, excerpt, cover, level, access, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		course.Slug,
		course.Title,
		course.Excerpt,
		course.Cover,
		string(course.Level),
		string(course.Access),
		status,
		course.PublishedAt,
	).Scan(&course.ID)
	if err != nil {
		if uniqueViolation(err) != "" {
			return ErrSlugExists
		}
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

// Enroll records that userID joined courseID. Re-enrolling is a no-op.
func (r *Repository) Enroll(ctx context.Context, userID, courseID int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO course_enrollments (user_id, course_id, enrolled_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`, userID, courseID, at)
	if err != nil {
		return fmt.Errorf("failed to enroll: %w", err)
	}
	return nil
}

// TouchEnrollment stores progress and the last access time.
func (r *Repository) TouchEnrollment(ctx context.Context, userID, courseID int64, progress int, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE course_enrollments
		SET progress = $3, last_accessed_at = $4
		WHERE user_id = $1 AND course_id = $2
	`, userID, courseID, progress, at)
	if err != nil {
		return fmt.Errorf("failed to update enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCourseNotFound
	}
	return nil
}

// AddBookmark bookmarks courseID for userID. Bookmarking twice is a no-op.
func (r *Repository) AddBookmark(ctx context.Context, userID, courseID int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO course_bookmarks (user_id, course_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`, userID, courseID, at)
	if err != nil {
		return fmt.Errorf("failed to add bookmark: %w", err)
	}
	return nil
}

// UpsertReview creates or replaces the caller's review of a course.
func (r *Repository) UpsertReview(ctx context.Context, review *model.CourseReview) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO course_reviews (course_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (course_id, user_id)
		DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, review.CourseID, review.UserID, review.Rating, review.Comment).
		Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert review: %w", err)
	}
	return nil
}
