package model

import "time"

// CourseLevel is the difficulty of a course.
type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

// CourseAccess controls who can enroll.
type CourseAccess string

const (
	AccessFree    CourseAccess = "free"
	AccessPremium CourseAccess = "premium"
)

// Course is the public summary of a published course.
type Course struct {
	ID          int64        `json:"id"`
	Slug        string       `json:"slug"`
	Title       string       `json:"title"`
	Excerpt     string       `json:"excerpt,omitempty"`
	Cover       string       `json:"cover,omitempty"`
	Level       CourseLevel  `json:"level"`
	Access      CourseAccess `json:"access"`
	PublishedAt *time.Time   `json:"publishedAt,omitempty"`
}

// EnrolledCourse is a course seen through one learner's enrollment.
type EnrolledCourse struct {
	Course
	Progress       int        `json:"progress"`
	EnrolledAt     time.Time  `json:"enrolledAt"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
}

// CourseReview is one learner's rating of one course.
type CourseReview struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"courseId"`
	UserID    int64     `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
