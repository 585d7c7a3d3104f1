package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tourbook/tourbook/internal/auth"
	"github.com/tourbook/tourbook/internal/models"
	"github.com/tourbook/tourbook/internal/services"
	pkghttp "github.com/tourbook/tourbook/pkg/http"
)

// UserServiceInterface defines the interface for user management logic
type UserServiceInterface interface {
	Get(ctx context.Context, id string) (*services.UserResponse, error)
	List(ctx context.Context, limit, offset int) ([]*services.UserResponse, error)
	UpdateProfile(ctx context.Context, id, name, email string) (*services.UserResponse, error)
	Deactivate(ctx context.Context, id string) error
	UpdateRole(ctx context.Context, id, role string) (*services.UserResponse, error)
	Delete(ctx context.Context, id string) error
}

// UserHandler handles profile self-service and admin user management
type UserHandler struct {
	service UserServiceInterface
}

func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// UpdateMeRequest represents the request body for updateMe. Password
// fields are decoded only so their presence can be rejected.
type UpdateMeRequest struct {
	Name            string `json:"name" validate:"omitempty,min=1,max=100"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// UpdateRoleRequest represents the request body for the admin role change
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user guide lead-guide admin"`
}

// GetMe returns the authenticated user's own profile.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in! Please log in to get access.")
		return
	}

	resp, err := h.service.Get(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{"user": resp})
}

// UpdateMe updates the authenticated user's name and email. Password
// changes are refused here; they go through updateMyPassword.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in! Please log in to get access.")
		return
	}

	var req UpdateMeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Password != "" || req.PasswordConfirm != "" {
		pkghttp.WriteBadRequest(w, "This route is not for password updates. Please use /updateMyPassword.")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.UpdateProfile(r.Context(), user.ID, req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmailTaken):
			pkghttp.WriteConflict(w, "Email address already in use")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{"user": resp})
}

// DeleteMe soft-deletes the authenticated user's account. The row
// survives but drops out of every default query.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := auth.CurrentUser(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in! Please log in to get access.")
		return
	}

	if err := h.service.Deactivate(r.Context(), user.ID); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Admin handlers

// ListUsers returns a page of active users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"users":   users,
		"results": len(users),
	})
}

// GetUser returns a single user by id.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{"user": resp})
}

// UpdateUserRole changes a user's role.
func (h *UserHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoleRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "User not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid role")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteSuccess(w, http.StatusOK, map[string]interface{}{"user": resp})
}

// DeleteUser removes a user row outright.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
