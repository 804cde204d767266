package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"triadStreakAPI/internal/user"
	"triadStreakAPI/services"
	"triadStreakAPI/utils"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	u, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	var req user.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.userService.UpdateProfile(ctx, userID, &req)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			respondWithFieldErrors(w, verr.Fields)
		case errors.Is(err, services.ErrUsernameTaken):
			respondWithError(w, http.StatusConflict, "Username already taken")
		case errors.Is(err, services.ErrUserNotFound):
			respondWithError(w, http.StatusNotFound, "User not found")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	today := utils.LocalDateString(r.URL.Query().Get("timezone"), time.Now())
	userStats, err := h.userService.GetUserStats(ctx, userID, today)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}

	respondWithJSON(w, http.StatusOK, userStats)
}

func (h *UserHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	st, err := h.userService.GetStreak(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load streak")
		return
	}

	respondWithJSON(w, http.StatusOK, st)
}

func (h *UserHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	lb, err := h.userService.GetLeaderboard(ctx, userID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, lb)
}
