package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/peakform/coach-backend/generated/db"
)

type contextKey string

const (
	UserIDKey     contextKey = "user_id"
	UserClaimsKey contextKey = "user_claims"
)

// Actor roles recognized by the platform.
const (
	RoleClient       = "client"
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
)

// AuthenticatedUser is the verified principal attached to every request.
type AuthenticatedUser struct {
	ID         uuid.UUID
	Email      string
	Role       string
	IsVerified bool
}

func (u *AuthenticatedUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Authenticator struct {
	jwtService *JWTService
	queries    *db.Queries
}

func NewAuthenticator(jwtService *JWTService, queries *db.Queries) *Authenticator {
	return &Authenticator{
		jwtService: jwtService,
		queries:    queries,
	}
}

// Middleware validates the bearer token and loads the principal into the
// request context. Requests without a valid token are rejected with 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "authorization header missing")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			unauthorized(w, "invalid authorization header format")
			return
		}

		token := strings.TrimPrefix(authHeader, bearerPrefix)
		claims, err := a.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			unauthorized(w, "invalid token")
			return
		}

		user, err := a.queries.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			unauthorized(w, "user not found")
			return
		}

		authenticatedUser := &AuthenticatedUser{
			ID:         user.ID,
			Email:      user.Email,
			Role:       user.Role,
			IsVerified: user.IsVerified,
		}

		ctx := context.WithValue(r.Context(), UserIDKey, user.ID)
		ctx = context.WithValue(ctx, UserClaimsKey, authenticatedUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    "AUTHENTICATION_REQUIRED",
			"message": msg,
		},
	})
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

func GetAuthenticatedUser(ctx context.Context) (*AuthenticatedUser, bool) {
	user, ok := ctx.Value(UserClaimsKey).(*AuthenticatedUser)
	return user, ok
}
