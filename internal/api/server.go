package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/peakform/coach-backend/internal/auth"
	"github.com/peakform/coach-backend/internal/config"
	"github.com/peakform/coach-backend/internal/database"
	"github.com/peakform/coach-backend/internal/middleware"
	"github.com/peakform/coach-backend/internal/notifications"
	"github.com/peakform/coach-backend/internal/permissions"
)

type Server struct {
	db            *database.Database
	registry      *permissions.Registry
	grants        *permissions.GrantService
	requests      *permissions.RequestService
	presets       *permissions.PresetService
	admin         *permissions.AdminService
	audit         *permissions.AuditLogger
	notifications *notifications.NotificationService
	authenticator *auth.Authenticator
	cors          *config.CORSConfig
}

func NewServer(
	db *database.Database,
	registry *permissions.Registry,
	grants *permissions.GrantService,
	requests *permissions.RequestService,
	presets *permissions.PresetService,
	admin *permissions.AdminService,
	audit *permissions.AuditLogger,
	notificationSvc *notifications.NotificationService,
	authenticator *auth.Authenticator,
	cors *config.CORSConfig,
) *Server {
	return &Server{
		db:            db,
		registry:      registry,
		grants:        grants,
		requests:      requests,
		presets:       presets,
		admin:         admin,
		audit:         audit,
		notifications: notificationSvc,
		authenticator: authenticator,
		cors:          cors,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestContext)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.NewCORSHandler(s.cors))

	r.Get("/health", s.HealthCheck)
	r.Get("/ready", s.ReadinessCheck)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticator.Middleware)

		r.Get("/permissions", s.ListPermissionDefinitions)

		r.Get("/relationships", s.ListMyRelationships)
		r.Route("/relationships/{relationshipID}", func(r chi.Router) {
			r.Get("/grants", s.ListGrants)
			r.Post("/grants", s.CreateGrant)
			r.Delete("/grants/{slug}", s.RevokeGrant)
			r.Get("/requests", s.ListRequests)
			r.Post("/requests", s.CreateRequest)
		})
		r.Post("/requests/{requestID}/respond", s.RespondToRequest)

		r.Post("/invitations", s.CreateInvitation)
		r.Post("/invitations/accept", s.AcceptInvitation)

		r.Route("/presets", func(r chi.Router) {
			r.Get("/", s.ListPresets)
			r.Post("/", s.CreatePreset)
			r.Get("/{presetID}", s.GetPreset)
			r.Put("/{presetID}", s.UpdatePreset)
			r.Delete("/{presetID}", s.DeletePreset)
			r.Post("/{presetID}/apply", s.ApplyPreset)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.ListNotifications)
			r.Get("/unread-count", s.UnreadNotificationCount)
			r.Post("/{notificationID}/read", s.MarkNotificationRead)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/connections", s.ForceConnect)
			r.Delete("/relationships/{relationshipID}", s.ForceDisconnect)
			r.Patch("/permissions/{slug}/enabled", s.SetPermissionEnabled)
			r.Patch("/permissions/{slug}/exclusivity", s.TogglePermissionExclusivity)
			r.Post("/permissions/{slug}/resolve-duplicates", s.ResolveExclusiveDuplicates)
			r.Get("/audit", s.ListAuditEvents)
		})
	})

	return r
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.GetAuthenticatedUser(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, Unauthorized("Authentication required"))
			return
		}
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, PermissionDenied("Admin privileges required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
