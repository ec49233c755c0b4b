package repository

import (
	"context"
	"fmt"

	"github.com/coursehub/content/internal/model"
)

// CountEnrollmentsByUser returns how many courses userID is enrolled in.
func (r *Repository) CountEnrollmentsByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM course_enrollments WHERE user_id = $1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	return n, nil
}

// ListEnrollmentsByUser returns one page of the user's enrollments, most
// recently active first, plus the total number of matching rows.
func (r *Repository) ListEnrollmentsByUser(ctx context.Context, filter ListFilter) ([]model.EnrolledCourse, int64, error) {
	pattern := filter.searchPattern()

	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM course_enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		  AND ($2::text = '' OR c.title ILIKE $2)
	`, filter.UserID, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count enrollments: %w", err)
	}
	if total == 0 {
		return []model.EnrolledCourse{}, 0, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+courseColumns+`, e.progress, e.enrolled_at, e.last_accessed_at
		FROM course_enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE e.user_id = $1
		  AND ($2::text = '' OR c.title ILIKE $2)
		ORDER BY COALESCE(e.last_accessed_at, e.enrolled_at) DESC, c.id DESC
		LIMIT $3 OFFSET $4
	`, filter.UserID, pattern, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	out := make([]model.EnrolledCourse, 0, filter.Limit)
	for rows.Next() {
		var e model.EnrolledCourse
		var level, access string
		if err := rows.Scan(
			&e.ID,
			&e.Slug,
			&e.Title,
			&e.Excerpt,
			&e.Cover,
			&level,
			&access,
			&e.PublishedAt,
			&e.Progress,
			&e.EnrolledAt,
			&e.LastAccessedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		e.Level = model.CourseLevel(level)
		e.Access = model.CourseAccess(access)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating enrollments: %w", err)
	}

	return out, total, nil
}
