package testutil

import (
	"context"

	"github.com/peakform/coach-backend/generated/db"
	"github.com/peakform/coach-backend/internal/auth"
)

// ContextWithUser attaches a user to the context the way the auth middleware
// would, so handlers can be called directly in tests.
func ContextWithUser(ctx context.Context, user db.User) context.Context {
	ctx = context.WithValue(ctx, auth.UserIDKey, user.ID)
	return context.WithValue(ctx, auth.UserClaimsKey, &auth.AuthenticatedUser{
		ID:         user.ID,
		Email:      user.Email,
		Role:       user.Role,
		IsVerified: user.IsVerified,
	})
}
