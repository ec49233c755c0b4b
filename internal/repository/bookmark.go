package repository

import (
	"context"
	"fmt"

	"github.com/coursehub/content/internal/model"
)

// CountBookmarksByUser returns how many courses userID has bookmarked.
func (r *Repository) CountBookmarksByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM course_bookmarks WHERE user_id = $1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	return n, nil
}

// ListBookmarksByUser returns one page of bookmarked courses, newest
// bookmark first, plus the total number of matching rows.
func (r *Repository) ListBookmarksByUser(ctx context.Context, filter ListFilter) ([]model.Course, int64, error) {
	pattern := filter.searchPattern()

	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM course_bookmarks b
		JOIN courses c ON c.id = b.course_id
		WHERE b.user_id = $1
		  AND ($2::text = '' OR c.title ILIKE $2)
	`, filter.UserID, pattern).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	if total == 0 {
		return []model.Course{}, 0, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+courseColumns+`
		FROM course_bookmarks b
		JOIN courses c ON c.id = b.course_id
		WHERE b.user_id = $1
		  AND ($2::text = '' OR c.title ILIKE $2)
		ORDER BY b.created_at DESC, c.id DESC
		LIMIT $3 OFFSET $4
	`, filter.UserID, pattern, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	out := make([]model.Course, 0, filter.Limit)
	for rows.Next() {
		var c model.Course
		var level, access string
		if err := rows.Scan(
			&c.ID,
			&c.Slug,
			&c.Title,
			&c.Excerpt,
			&c.Cover,
			&level,
			&access,
			&c.PublishedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		c.Level = model.CourseLevel(level)
		c.Access = model.CourseAccess(access)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating bookmarks: %w", err)
	}

	return out, total, nil
}
