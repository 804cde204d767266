package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"triadStreakAPI/cache"
	"triadStreakAPI/internal/completion"
	"triadStreakAPI/internal/realtime"
	"triadStreakAPI/internal/streak"
	"triadStreakAPI/middleware"
	"triadStreakAPI/utils"
)

var ErrUnknownTask = errors.New("unknown challenge task")

// CompletionResult is what a completion write leaves behind: the day's row,
// and the streak row when this write advanced it.
type CompletionResult struct {
	Completion     *completion.DailyCompletion `json:"completion"`
	Streak         *streak.UserStreak          `json:"streak,omitempty"`
	StreakAdvanced bool                        `json:"streak_advanced"`
}

// completionStore abstracts the persistence the updater needs, so the
// transition rules can be exercised against an in-memory store in tests.
// pgxCompletionStore is the production implementation.
type completionStore interface {
	TaskExists(ctx context.Context, taskID int) (bool, error)
	ReadDay(ctx context.Context, userID uuid.UUID, date string) (*completion.DailyCompletion, error)
	// RunDay executes fn with exclusive access to (userID, date): no other
	// RunDay for the same key makes progress until fn's writes commit.
	RunDay(ctx context.Context, userID uuid.UUID, date string, fn func(day dayStore) error) error
}

// dayStore is the view of one (user, date) inside a RunDay critical section.
type dayStore interface {
	ReadForUpdate(ctx context.Context) (*completion.DailyCompletion, error)
	Upsert(ctx context.Context, tasks []int, weeklyDone bool, weekNumber *int, timezone string) (*completion.DailyCompletion, error)
	AdvanceStreak(ctx context.Context, today string) (*streak.UserStreak, error)
}

type CompletionService struct {
	store completionStore
	hub   *realtime.Hub
	cache *cache.Cache
}

func NewCompletionService(db *pgxpool.Pool, hub *realtime.Hub, c *cache.Cache) *CompletionService {
	return &CompletionService{store: &pgxCompletionStore{db: db}, hub: hub, cache: c}
}

// GetToday returns the authoritative completion row for (userID, today), or
// nil when the user has not completed anything yet that day. Absence is a
// valid empty state, never an error.
func (s *CompletionService) GetToday(ctx context.Context, userID uuid.UUID, today string) (*completion.DailyCompletion, error) {
	return s.store.ReadDay(ctx, userID, today)
}

// CompleteTask records taskID as done for (userID, today) and advances the
// streak when this write is the one that crosses from fewer-than-ten to all
// ten tasks. The whole read-modify-write runs inside the store's per-day
// critical section, so two sessions completing different tasks cannot lose
// each other's update and the boundary gate fires at most once per date.
func (s *CompletionService) CompleteTask(ctx context.Context, userID uuid.UUID, taskID int, today string, timezone string) (*CompletionResult, error) {
	exists, err := s.store.TaskExists(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUnknownTask
	}

	var result *CompletionResult
	err = s.store.RunDay(ctx, userID, today, func(day dayStore) error {
		existing, err := day.ReadForUpdate(ctx)
		if err != nil {
			return err
		}

		var prevTasks []int
		weeklyDone := false
		var weekNumber *int
		if existing != nil {
			prevTasks = existing.TasksCompleted
			weeklyDone = existing.WeeklyChallengeCompleted
			weekNumber = existing.WeekNumber
		}

		updatedTasks, crossed := completion.AddTask(prevTasks, taskID)

		row, err := day.Upsert(ctx, updatedTasks, weeklyDone, weekNumber, timezone)
		if err != nil {
			return err
		}

		result = &CompletionResult{Completion: row}

		if crossed {
			st, err := day.AdvanceStreak(ctx, today)
			if err != nil {
				return err
			}
			result.Streak = st
			result.StreakAdvanced = true
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.StreakAdvanced {
		utils.Logger.Info("streak_advanced",
			zap.String("user_id", userID.String()),
			zap.Int("current_streak", result.Streak.CurrentStreak),
			zap.String("date", today),
		)
		middleware.CountStreakAdvance()
		s.cache.InvalidateLeaderboard(ctx)
		if s.hub != nil {
			s.hub.BroadcastStreakUpdate(userID.String(), result.Streak.CurrentStreak)
		}
	}

	return result, nil
}

// CompleteWeeklyChallenge flips the one-way weekly flag for (userID, today).
// When the flag is already set the call is a no-op: no write happens and the
// stored row is returned as-is.
func (s *CompletionService) CompleteWeeklyChallenge(ctx context.Context, userID uuid.UUID, today string, timezone string) (*completion.DailyCompletion, error) {
	var out *completion.DailyCompletion
	err := s.store.RunDay(ctx, userID, today, func(day dayStore) error {
		existing, err := day.ReadForUpdate(ctx)
		if err != nil {
			return err
		}

		if existing != nil && existing.WeeklyChallengeCompleted {
			out = existing
			return nil
		}

		var tasks []int
		var weekNumber *int
		if existing != nil {
			tasks = existing.TasksCompleted
			weekNumber = existing.WeekNumber
		}

		out, err = day.Upsert(ctx, tasks, true, weekNumber, timezone)
		return err
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
