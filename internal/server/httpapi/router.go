package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
)

// NewRouter mounts the auth endpoints and the health probe. When
// corsOrigins is non-empty cross-origin requests from those origins may
// send credentials.
func NewRouter(h *Handler, health http.Handler, logger logging.Logger, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))

	if health != nil {
		r.Method(http.MethodGet, "/health", health)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/refresh", h.Refresh)

		r.Post("/password-reset/request", h.RequestPasswordReset)
		r.Get("/password-reset/check", h.CheckPasswordReset)
		r.Post("/password-reset/confirm", h.ConfirmPasswordReset)

		r.Get("/verify_email", h.VerifyEmail)
		r.Get("/verify_email_change", h.ConfirmEmailChange)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Get("/me", h.Me)
			r.Post("/change_password", h.ChangePassword)
			r.Post("/resend_verification", h.ResendVerification)
			r.Post("/change_email", h.ChangeEmail)
			r.Post("/cancel_pending_email", h.CancelPendingEmail)
			r.Post("/set_pin", h.SetPin)
			r.Post("/verify_pin", h.VerifyPin)
			r.Post("/change_pin", h.ChangePin)
		})
	})

	var out http.Handler = r
	if len(corsOrigins) > 0 {
		out = handlers.CORS(
			handlers.AllowedOrigins(corsOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
			handlers.AllowCredentials(),
		)(out)
	}

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger: logger}),
	)(out)
}
