package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/coursehub/content/internal/auth"
	"github.com/coursehub/content/internal/handler/dto"
	"github.com/coursehub/content/internal/metrics"
	"github.com/coursehub/content/internal/model"
	"github.com/coursehub/content/internal/service"
)

// SecurityContext resolves the caller of a request.
type SecurityContext interface {
	AuthenticatedUser(ctx context.Context) (*model.User, error)
	AuthenticatedUserID(ctx context.Context) (int64, error)
}

// UserUpdater updates profiles.
type UserUpdater interface {
	Update(ctx context.Context, in service.UpdateUserInput) (*model.User, error)
}

// EnrollmentFinder reads a user's enrollments.
type EnrollmentFinder interface {
	CountByUser(ctx context.Context, userID int64) (int64, error)
	FindByUserID(ctx context.Context, userID int64, q model.Query) (*model.Page[model.EnrolledCourse], error)
}

// BookmarkFinder reads a user's bookmarks.
type BookmarkFinder interface {
	CountByUser(ctx context.Context, userID int64) (int64, error)
	FindByUserID(ctx context.Context, userID int64, q model.Query) (*model.Page[model.Course], error)
}

// ReviewFinder looks up a user's review of a course.
type ReviewFinder interface {
	FindByUserIDAndCourseID(ctx context.Context, userID, courseID int64) (*model.CourseReview, error)
}

// UserHandlerConfig holds the collaborators of UserHandler.
type UserHandlerConfig struct {
	Security    SecurityContext
	Users       UserUpdater
	Enrollments EnrollmentFinder
	Bookmarks   BookmarkFinder
	Reviews     ReviewFinder
	Metrics     metrics.Recorder
	Logger      *slog.Logger
}

// UserHandler serves the caller's own profile and course data under
// /content/user. It never accepts a user id from the client.
type UserHandler struct {
	security    SecurityContext
	users       UserUpdater
	enrollments EnrollmentFinder
	bookmarks   BookmarkFinder
	reviews     ReviewFinder
	metrics     metrics.Recorder
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(cfg UserHandlerConfig) *UserHandler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &UserHandler{
		security:    cfg.Security,
		users:       cfg.Users,
		enrollments: cfg.Enrollments,
		bookmarks:   cfg.Bookmarks,
		reviews:     cfg.Reviews,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
	}
}

// Get handles GET /content/user.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.security.AuthenticatedUser(r.Context())
	if err != nil {
		// A caller whose account is gone has no identity left.
		if errors.Is(err, service.ErrUserNotFound) {
			err = auth.ErrUnauthenticated
		}
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Update handles PUT /content/user.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := h.security.AuthenticatedUserID(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleDecodeError(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), req.ToInput(userID))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "profile updated", slog.Int64("user_id", userID))

	writeJSON(w, http.StatusOK, user)
}

// Meta handles GET /content/user/meta.
func (h *UserHandler) Meta(w http.ResponseWriter, r *http.Request) {
	userID, err := h.security.AuthenticatedUserID(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.IncMetaRequest()

	var meta model.UserMeta
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		n, err := h.enrollments.CountByUser(ctx, userID)
		meta.EnrollmentCount = n
		return err
	})
	g.Go(func() error {
		n, err := h.bookmarks.CountByUser(ctx, userID)
		meta.BookmarkCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, meta)
}

// Enrollments handles GET /content/user/enrollments.
func (h *UserHandler) Enrollments(w http.ResponseWriter, r *http.Request) {
	userID, err := h.security.AuthenticatedUserID(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	page, err := h.enrollments.FindByUserID(r.Context(), userID, q)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Bookmarks handles GET /content/user/bookmarks.
func (h *UserHandler) Bookmarks(w http.ResponseWriter, r *http.Request) {
	userID, err := h.security.AuthenticatedUserID(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}

	page, err := h.bookmarks.FindByUserID(r.Context(), userID, q)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Review handles GET /content/user/reviews/{courseId}/me. It answers 204
// with an empty body when the caller has not reviewed the course.
func (h *UserHandler) Review(w http.ResponseWriter, r *http.Request) {
	courseID, err := parseIntParam(chi.URLParam(r, "courseId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_COURSE_ID", "Course ID must be an integer")
		return
	}

	userID, err := h.security.AuthenticatedUserID(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	review, err := h.reviews.FindByUserIDAndCourseID(r.Context(), userID, courseID)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, review)
}

// parseIntParam parses an optionally negative decimal integer. A leading
// plus sign is rejected.
func parseIntParam(raw string) (int64, error) {
	if strings.HasPrefix(raw, "+") {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(raw, 10, 64)
}

// parseQuery reads page, limit and q. Values are passed on as given;
// bounds are the service's concern.
func (h *UserHandler) parseQuery(w http.ResponseWriter, r *http.Request) (model.Query, bool) {
	values := r.URL.Query()
	q := model.Query{Q: values.Get("q")}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &q.Page},
		{"limit", &q.Limit},
	} {
		raw := values.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_QUERY", p.name+" must be an integer")
			return model.Query{}, false
		}
		*p.dst = n
	}

	return q, true
}

func (h *UserHandler) handleDecodeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
	default:
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
	}
}

// handleServiceError maps collaborator errors to responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_FAILED",
			Fields: verr.Fields,
		})
	case errors.Is(err, service.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "USERNAME_TAKEN", "Username already taken")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		h.logger.DebugContext(r.Context(), "request canceled", slog.String("path", r.URL.Path))
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
