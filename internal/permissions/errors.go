package permissions

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ValidationError covers malformed input, including missing or too-short
// admin reasons. Rejected before any write.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// AuthorizationError means the caller is the wrong actor for the operation.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

func authorizationf(format string, args ...any) error {
	return &AuthorizationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError identifies an unknown relationship, preset, request, or slug.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func notFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// ConflictError covers duplicate pending requests, already-granted slugs,
// and the storage-level unique-constraint race. Retryable is set only for
// the race case; the caller retries the whole grant once after a short
// backoff.
type ConflictError struct {
	Msg       string
	Retryable bool
}

func (e *ConflictError) Error() string { return e.Msg }

// ToggleConflictError blocks an exclusivity toggle while clients hold the
// slug more than once. ConflictCount counts clients with more than one
// granted holder, not extra holders.
type ToggleConflictError struct {
	Slug            string
	ConflictCount   int
	AffectedClients []uuid.UUID
}

func (e *ToggleConflictError) Error() string {
	return fmt.Sprintf("cannot make %q exclusive: %d client(s) hold it more than once", e.Slug, e.ConflictCount)
}

// MultipleHoldersError is the invariant violation surfaced when an exclusive
// slug already has more than one granted holder for a client. It is never
// auto-healed; ResolveExclusiveDuplicates is the only recovery path.
type MultipleHoldersError struct {
	ClientID uuid.UUID
	Slug     string
	Holders  []uuid.UUID
}

func (e *MultipleHoldersError) Error() string {
	return "MULTIPLE_HOLDERS_CONFLICT"
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, i.e. a concurrent writer won the race on the partial index.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// validateReason enforces the admin justification requirement.
func validateReason(reason string) error {
	if len(reason) < MinReasonLength {
		return validationf("reason must be at least %d characters", MinReasonLength)
	}
	return nil
}
