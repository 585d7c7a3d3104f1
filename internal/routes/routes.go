package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/tourbook/tourbook/internal/auth"
	"github.com/tourbook/tourbook/internal/handlers"
	"github.com/tourbook/tourbook/internal/middleware"
	"github.com/tourbook/tourbook/internal/models"
)

// RegisterRoutes registers the /api/v1/users route tree.
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tokenManager *auth.TokenManager,
	users auth.UserLoader,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()
	credentialLimit := middleware.RateLimitByIP(rateLimitConfig)
	protect := auth.Protect(tokenManager, users)

	router.Route("/api/v1/users", func(r chi.Router) {
		// Public routes; the credential endpoints are rate limited per IP.
		r.With(credentialLimit).Post("/signup", authHandler.Signup)
		r.With(credentialLimit).Post("/login", authHandler.Login)
		r.With(credentialLimit).Post("/forgotPassword", authHandler.ForgotPassword)
		r.With(credentialLimit).Post("/resendVerification", authHandler.ResendVerification)
		r.Patch("/resetPassword/{token}", authHandler.ResetPassword)
		r.Get("/verifyEmail/{token}", authHandler.VerifyEmail)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(protect)

			r.Get("/logout", authHandler.Logout)
			r.Patch("/updateMyPassword", authHandler.UpdatePassword)
			r.Get("/me", userHandler.GetMe)
			r.Patch("/updateMe", userHandler.UpdateMe)
			r.Delete("/deleteMe", userHandler.DeleteMe)

			// Admin-only user management
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.RoleAdmin))

				r.Get("/", userHandler.ListUsers)
				r.Get("/{id}", userHandler.GetUser)
				r.Patch("/{id}/role", userHandler.UpdateUserRole)
				r.Delete("/{id}", userHandler.DeleteUser)
			})
		})
	})
}
