package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/coursehub/content/internal/model"
)

// GetReviewByUserAndCourse returns userID's review of courseID, or
// ErrReviewNotFound.
func (r *Repository) GetReviewByUserAndCourse(ctx context.Context, userID, courseID int64) (*model.CourseReview, error) {
	var rv model.CourseReview
	err := r.pool.QueryRow(ctx, `
		SELECT id, course_id, user_id, rating, comment, created_at, updated_at
		FROM course_reviews
		WHERE user_id = $1 AND course_id = $2
	`, userID, courseID).Scan(
		&rv.ID,
		&rv.CourseID,
		&rv.UserID,
		&rv.Rating,
		&rv.Comment,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &rv, nil
}
