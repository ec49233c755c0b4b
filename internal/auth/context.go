package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coursehub/content/internal/model"
)

// ErrUnauthenticated means the request carries no verified identity.
var ErrUnauthenticated = errors.New("unauthenticated")

type contextKey string

const (
	authContextKey contextKey = "auth_context"
	callerSinkKey  contextKey = "caller_sink"
)

// ContextWithAuth attaches an AuthContext to ctx. If an outer layer
// registered a sink with WithCallerSink, the caller id is written to it.
func ContextWithAuth(ctx context.Context, a *model.AuthContext) context.Context {
	if sink, ok := ctx.Value(callerSinkKey).(*int64); ok && a != nil {
		*sink = a.UserID
	}
	return context.WithValue(ctx, authContextKey, a)
}

// WithCallerSink returns a ctx through which a later ContextWithAuth
// reports the caller id to sink.
func WithCallerSink(ctx context.Context, sink *int64) context.Context {
	return context.WithValue(ctx, callerSinkKey, sink)
}

// AuthFromContext returns the AuthContext of ctx, or nil.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	a, _ := ctx.Value(authContextKey).(*model.AuthContext)
	return a
}

// UserLoader loads a profile by id.
type UserLoader interface {
	Get(ctx context.Context, id int64) (*model.User, error)
}

// SecurityContext resolves the caller of the current request.
type SecurityContext struct {
	users UserLoader
}

// NewSecurityContext creates a SecurityContext backed by users.
func NewSecurityContext(users UserLoader) *SecurityContext {
	return &SecurityContext{users: users}
}

// AuthenticatedUserID returns the caller id placed by the auth middleware.
func (s *SecurityContext) AuthenticatedUserID(ctx context.Context) (int64, error) {
	a := AuthFromContext(ctx)
	if a == nil || a.UserID == 0 {
		return 0, ErrUnauthenticated
	}
	return a.UserID, nil
}

// AuthenticatedUser returns the caller's profile.
func (s *SecurityContext) AuthenticatedUser(ctx context.Context) (*model.User, error) {
	id, err := s.AuthenticatedUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load authenticated user %d: %w", id, err)
	}
	return user, nil
}
