package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"triadStreakAPI/internal/user"
	"triadStreakAPI/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var req user.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.authService.Register(ctx, &req)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			respondWithFieldErrors(w, verr.Fields)
		case errors.Is(err, services.ErrEmailTaken), errors.Is(err, services.ErrUsernameTaken):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	var req user.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.authService.Login(ctx, &req)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			respondWithFieldErrors(w, verr.Fields)
		case errors.Is(err, services.ErrInvalidCredentials):
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		default:
			respondWithError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}
