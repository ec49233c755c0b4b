// Package service provides business logic for the application.
package service

import (
	"errors"
	"sort"
	"strings"
)

// Service errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrReviewNotFound  = errors.New("review not found")
	ErrAPIKeyNotFound  = errors.New("API key not found")
	ErrScopeEscalation = errors.New("scope exceeds caller's scopes")
)

// ValidationError reports which input fields were rejected.
// Keys are JSON field names.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
