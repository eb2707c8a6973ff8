package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/peakform/coach-backend/internal/auth"
	"github.com/peakform/coach-backend/internal/logging"
	"github.com/peakform/coach-backend/internal/permissions"
)

func authenticatedUser(w http.ResponseWriter, r *http.Request) (*auth.AuthenticatedUser, bool) {
	user, ok := auth.GetAuthenticatedUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, Unauthorized("Authentication required"))
		return nil, false
	}
	return user, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			logging.Error("failed to encode response", "error", err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, builder *ErrorBuilder) {
	writeJSON(w, status, builder.Create())
}

// writeServiceError maps the permission service error taxonomy onto HTTP.
// Unknown errors become opaque 500s; the detail stays in the log.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr *permissions.ValidationError
		authzErr      *permissions.AuthorizationError
		notFoundErr   *permissions.NotFoundError
		conflictErr   *permissions.ConflictError
		toggleErr     *permissions.ToggleConflictError
		holdersErr    *permissions.MultipleHoldersError
	)

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, ValidationErr(validationErr.Msg, nil))
	case errors.As(err, &authzErr):
		writeError(w, http.StatusForbidden, PermissionDenied(authzErr.Msg))
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, NotFound(notFoundErr.Resource))
	case errors.As(err, &toggleErr):
		affected := make([]string, 0, len(toggleErr.AffectedClients))
		for _, id := range toggleErr.AffectedClients {
			affected = append(affected, id.String())
		}
		writeError(w, http.StatusBadRequest,
			NewError(CodeToggleConflict, toggleErr.Error()).WithContext(ErrorContext{
				"conflictCount":   toggleErr.ConflictCount,
				"affectedClients": affected,
			}))
	case errors.As(err, &conflictErr):
		writeError(w, http.StatusConflict, ConflictErr(conflictErr.Msg))
	case errors.As(err, &holdersErr):
		logging.Error("exclusive slug has multiple holders",
			"client_id", holdersErr.ClientID, "slug", holdersErr.Slug, "holders", len(holdersErr.Holders))
		writeError(w, http.StatusInternalServerError,
			NewError(CodeMultipleHolders, "permission state requires admin resolution"))
	default:
		logging.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, InternalError("Internal server error"))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ValidationErr("invalid request body", nil))
		return false
	}
	return true
}

func parsePagination(r *http.Request) (limit, offset int64) {
	limit = 20
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// PaginationMeta mirrors the list envelope used across endpoints.
type PaginationMeta struct {
	Total   int64 `json:"total"`
	Limit   int64 `json:"limit"`
	Offset  int64 `json:"offset"`
	HasMore bool  `json:"has_more"`
}
