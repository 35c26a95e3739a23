package handlers

import (
	"context"
	"net/http"

	"edis-portal/internal/middleware"
	"edis-portal/internal/models"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, token string) error
	DeleteAccount(ctx context.Context, username, token string) error
}

type AuthHandler struct {
	authService authService
}

func NewAuthHandler(authService authService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := h.authService.Register(r.Context(), req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess[any](w, "User registered successfully", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, "Login successful", resp)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.GetToken(r.Context())); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess[any](w, "Logged out successfully", nil)
}

// DeleteMe removes the calling user's account.
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.authService.DeleteAccount(ctx, middleware.GetUsername(ctx), middleware.GetToken(ctx)); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeSuccess[any](w, "Account deleted successfully", nil)
}
