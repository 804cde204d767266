package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"triadStreakAPI/internal/completion"
	"triadStreakAPI/internal/weekly"
	"triadStreakAPI/services"
	"triadStreakAPI/utils"
)

type TaskHandler struct {
	completionService *services.CompletionService
	catalogService    *services.CatalogService
	userService       *services.UserService
}

func NewTaskHandler(completionService *services.CompletionService, catalogService *services.CatalogService, userService *services.UserService) *TaskHandler {
	return &TaskHandler{
		completionService: completionService,
		catalogService:    catalogService,
		userService:       userService,
	}
}

type completeTaskRequest struct {
	TaskID   int    `json:"task_id"`
	Timezone string `json:"timezone"`
}

type completeWeeklyRequest struct {
	Timezone string `json:"timezone"`
}

type todayResponse struct {
	Completion *completion.DailyCompletion `json:"completion"`
	Progress   int                         `json:"progress"`
}

type weeklyChallengeResponse struct {
	Challenge *weekly.Challenge `json:"challenge"`
	Completed bool              `json:"completed"`
	Week      int               `json:"week"`
}

// GetTasks serves the static checklist catalog in display order.
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	tasks, err := h.catalogService.GetChallengeTasks(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}

	respondWithJSON(w, http.StatusOK, tasks)
}

// GetToday returns the caller's completion state for their local date. No
// row yet reads as zero progress, not an error.
func (h *TaskHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	today := utils.LocalDateString(r.URL.Query().Get("timezone"), time.Now())
	row, err := h.completionService.GetToday(ctx, userID, today)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load today's completion")
		return
	}

	respondWithJSON(w, http.StatusOK, todayResponse{Completion: row, Progress: row.Progress()})
}

// CompleteTask marks one checklist task done for the caller's local date.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	today := utils.LocalDateString(req.Timezone, time.Now())
	result, err := h.completionService.CompleteTask(ctx, userID, req.TaskID, today, req.Timezone)
	if err != nil {
		if errors.Is(err, services.ErrUnknownTask) {
			respondWithError(w, http.StatusBadRequest, "Unknown challenge task")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to complete task")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// GetWeeklyChallenge resolves the caller's week from their streak position
// and returns that week's challenge plus today's completed flag.
func (h *TaskHandler) GetWeeklyChallenge(w http.ResponseWriter, r *http.Request) {
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

	week := weekly.ComputeWeek(st.CurrentStreak)
	challenge, err := h.catalogService.GetWeeklyChallenge(ctx, week)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load weekly challenge")
		return
	}

	today := utils.LocalDateString(r.URL.Query().Get("timezone"), time.Now())
	row, err := h.completionService.GetToday(ctx, userID, today)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load today's completion")
		return
	}

	completed := row != nil && row.WeeklyChallengeCompleted
	respondWithJSON(w, http.StatusOK, weeklyChallengeResponse{
		Challenge: challenge,
		Completed: completed,
		Week:      week,
	})
}

// CompleteWeeklyChallenge sets the one-way weekly flag for today.
func (h *TaskHandler) CompleteWeeklyChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	userID, ok := authenticatedUserID(w, r)
	if !ok {
		return
	}

	var req completeWeeklyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	today := utils.LocalDateString(req.Timezone, time.Now())
	row, err := h.completionService.CompleteWeeklyChallenge(ctx, userID, today, req.Timezone)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to complete weekly challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, row)
}
