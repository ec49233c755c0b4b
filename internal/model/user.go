// Package model defines domain entities for the content API.
package model

import "time"

// Role values for a user account.
const (
	RoleUser   = "user"
	RoleAuthor = "author"
	RoleAdmin  = "admin"
)

// User is a learner account as returned to its owner.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Nickname      string    `json:"nickname"`
	Username      string    `json:"username"`
	Headline      string    `json:"headline,omitempty"`
	Introduction  string    `json:"introduction,omitempty"`
	Image         string    `json:"image,omitempty"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// UserMeta aggregates per-user counters shown on the profile page.
type UserMeta struct {
	EnrollmentCount int64 `json:"enrollmentCount"`
	BookmarkCount   int64 `json:"bookmarkCount"`
}

// UserPatch carries the mutable profile fields. Nil means unchanged.
type UserPatch struct {
	Nickname     *string
	Username     *string
	Headline     *string
	Introduction *string
	Image        *string
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Nickname == nil &&
		p.Username == nil &&
		p.Headline == nil &&
		p.Introduction == nil &&
		p.Image == nil
}
