package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SudaisX/DB-Project/pkg/httputil"

	"github.com/SudaisX/DB-Project/internal/domain"
	"github.com/SudaisX/DB-Project/internal/service"
)

// UserHandler handles HTTP requests for accounts, sessions and profiles.
type UserHandler struct {
	service *service.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is the JSON request body for self-service edits.
// Empty strings leave the stored value unchanged.
type UpdateProfileRequest struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6,max=72"`
}

// UpdateUserRequest is the JSON request body for admin edits of a user.
type UpdateUserRequest struct {
	Name    string `json:"name" validate:"omitempty,max=100"`
	Email   string `json:"email" validate:"omitempty,email"`
	IsAdmin *bool  `json:"isAdmin"`
}

// optional maps an empty form value to "not supplied".
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// --- Handlers ---

// Register handles POST /api/users
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// GetProfile handles GET /api/users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, err := h.service.Profile(r.Context(), c)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req UpdateProfileRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.UpdateProfile(r.Context(), c, domain.UserUpdate{
		Name:     optional(req.Name),
		Email:    optional(req.Email),
		Password: optional(req.Password),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// Get handles GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "user")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "user")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req UpdateUserRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, domain.UserUpdate{
		Name:    optional(req.Name),
		Email:   optional(req.Email),
		IsAdmin: req.IsAdmin,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user.Identity())
}

// Delete handles DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseUUID(chi.URLParam(r, "id"), "user")
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "User removed"})
}
