package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"triadStreakAPI/internal/completion"
	"triadStreakAPI/internal/streak"
	"triadStreakAPI/middleware"
	"triadStreakAPI/utils"
)

func TestMain(m *testing.M) {
	utils.Logger = zap.NewNop()
	middleware.InitPrometheus()
	os.Exit(m.Run())
}

// memCompletionStore keeps one user's rows in memory. RunDay serializes
// callers on a mutex, matching the per-day exclusivity the postgres store
// provides with its advisory lock. Upsert stores exactly what it is given,
// so any flag or task preservation the tests observe comes from the service.
type memCompletionStore struct {
	mu          sync.Mutex
	rows        map[string]*completion.DailyCompletion
	streak      streak.UserStreak
	knownTasks  map[int]bool
	upsertCalls int
	advanceErr  error
}

func newMemCompletionStore() *memCompletionStore {
	known := make(map[int]bool, 10)
	for id := 1; id <= 10; id++ {
		known[id] = true
	}
	return &memCompletionStore{
		rows:       make(map[string]*completion.DailyCompletion),
		knownTasks: known,
	}
}

func (s *memCompletionStore) TaskExists(ctx context.Context, taskID int) (bool, error) {
	return s.knownTasks[taskID], nil
}

func (s *memCompletionStore) ReadDay(ctx context.Context, userID uuid.UUID, date string) (*completion.DailyCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCompletion(s.rows[date]), nil
}

func (s *memCompletionStore) RunDay(ctx context.Context, userID uuid.UUID, date string, fn func(day dayStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memDay{store: s, userID: userID, date: date})
}

type memDay struct {
	store  *memCompletionStore
	userID uuid.UUID
	date   string
}

func (d *memDay) ReadForUpdate(ctx context.Context) (*completion.DailyCompletion, error) {
	return copyCompletion(d.store.rows[d.date]), nil
}

func (d *memDay) Upsert(ctx context.Context, tasks []int, weeklyDone bool, weekNumber *int, timezone string) (*completion.DailyCompletion, error) {
	d.store.upsertCalls++

	row := &completion.DailyCompletion{
		UserID:                   d.userID,
		CompletionDate:           d.date,
		TasksCompleted:           append([]int{}, tasks...),
		WeeklyChallengeCompleted: weeklyDone,
		WeekNumber:               weekNumber,
		Timezone:                 timezone,
	}
	if existing := d.store.rows[d.date]; existing != nil {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	} else {
		row.ID = uuid.New()
		row.CreatedAt = time.Now()
	}
	d.store.rows[d.date] = row
	return copyCompletion(row), nil
}

func (d *memDay) AdvanceStreak(ctx context.Context, today string) (*streak.UserStreak, error) {
	if d.store.advanceErr != nil {
		return nil, d.store.advanceErr
	}
	d.store.streak = streak.Advance(d.store.streak, today)
	st := d.store.streak
	return &st, nil
}

func copyCompletion(c *completion.DailyCompletion) *completion.DailyCompletion {
	if c == nil {
		return nil
	}
	out := *c
	out.TasksCompleted = append([]int{}, c.TasksCompleted...)
	return &out
}

func newTestCompletionService(store completionStore) *CompletionService {
	return &CompletionService{store: store}
}

func TestCompleteTaskRecordsProgress(t *testing.T) {
	store := newMemCompletionStore()
	svc := newTestCompletionService(store)
	ctx := context.Background()
	userID := uuid.New()

	result, err := svc.CompleteTask(ctx, userID, 3, "2026-08-29", "UTC")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, result.Completion.TasksCompleted)
	assert.False(t, result.StreakAdvanced)

	result, err = svc.CompleteTask(ctx, userID, 1, "2026-08-29", "UTC")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, result.Completion.TasksCompleted)
	assert.False(t, result.StreakAdvanced)
	assert.Equal(t, 2, store.upsertCalls)
}

func TestCompleteTaskRejectsUnknownTask(t *testing.T) {
	store := newMemCompletionStore()
	svc := newTestCompletionService(store)

	_, err := svc.CompleteTask(context.Background(), uuid.New(), 99, "2026-08-29", "UTC")
	assert.ErrorIs(t, err, ErrUnknownTask)
	assert.Zero(t, store.upsertCalls)
}

func TestCompleteTaskTenthAdvancesStreakOnce(t *testing.T) {
	store := newMemCompletionStore()
	svc := newTestCompletionService(store)
	ctx := context.Background()
	userID := uuid.New()

	for id := 1; id <= 9; id++ {
		result, err := svc.CompleteTask(ctx, userID, id, "2026-08-29", "UTC")
		require.NoError(t, err)
		assert.False(t, result.StreakAdvanced)
	}

	result, err := svc.CompleteTask(ctx, userID, 10, "2026-08-29", "UTC")
	require.NoError(t, err)
	assert.True(t, result.StreakAdvanced)
	assert.Equal(t, 1, result.Streak.CurrentStreak)

	// Re-sending the last task must not advance again on the same date.
	result, err = svc.CompleteTask(ctx, userID, 10, "2026-08-29", "UTC")
	require.NoError(t, err)
	assert.False(t, result.StreakAdvanced)
	assert.Equal(t, 1, store.streak.CurrentStreak)
}

// A task completion that lands after the weekly challenge must carry the
// already-set weekly flag through its write instead of reverting it.
func TestCompleteTaskPreservesWeeklyFlag(t *testing.T) {
	store := newMemCompletionStore()
	svc := newTestCompletionService(store)
	ctx := context.Background()
	userID := uuid.New()

	row, err := svc.CompleteWeeklyChallenge(ctx, userID, "2026-08-29", "UTC")
	require.NoError(t, err)
	require.True(t, row.WeeklyChallengeCompleted)

	result, err := svc.CompleteTask(ctx, userID, 5, "2026-08-29", "UTC")
	require.NoError(t, err)
	assert.Equal(t, []int{5}, result.Completion.TasksCompleted)
	assert.True(t, result.Completion.WeeklyChallengeCompleted)
}

func TestCompleteWeeklyChallengeSecondCallIsNoOp(t *testing.T) {
	store := newMemCompletionStore()
	svc := newTestCompletionService(store)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.CompleteWeeklyChallenge(ctx, userID, "2026-08-29", "UTC")
	require.NoError(t, err)
	assert.True(t, first.WeeklyChallengeCompleted)
	assert.Equal(t, 1, store.upsertCalls)

	second, err := svc.CompleteWeeklyChallenge(ctx, userID, "2026-08-29", "UTC")
	require.NoError(t, err)
	assert.True(t, second.WeeklyChallengeCompleted)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.upsertCalls, "second call must not write")
}

func TestCompleteWeeklyChallengeKeepsRecordedTasks(t *testing.T) {
	store := newMemCompletionStore()
	svc := newTestCompletionService(store)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.CompleteTask(ctx, userID, 2, "2026-08-29", "UTC")
	require.NoError(t, err)

	row, err := svc.CompleteWeeklyChallenge(ctx, userID, "2026-08-29", "UTC")
	require.NoError(t, err)
	assert.True(t, row.WeeklyChallengeCompleted)
	assert.Equal(t, []int{2}, row.TasksCompleted)
}

// Concurrent sessions hammering the same (user, date) must not lose writes:
// each completion runs its read-modify-write inside the store's per-day
// critical section, so every task, the weekly flag, and exactly one streak
// advance all survive.
func TestConcurrentCompletionsLoseNothing(t *testing.T) {
	store := newMemCompletionStore()
	svc := newTestCompletionService(store)
	ctx := context.Background()
	userID := uuid.New()

	var wg sync.WaitGroup
	for id := 1; id <= 10; id++ {
		wg.Add(1)
		go func(taskID int) {
			defer wg.Done()
			_, err := svc.CompleteTask(ctx, userID, taskID, "2026-08-29", "UTC")
			assert.NoError(t, err)
		}(id)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.CompleteWeeklyChallenge(ctx, userID, "2026-08-29", "UTC")
		assert.NoError(t, err)
	}()
	wg.Wait()

	row, err := svc.GetToday(ctx, userID, "2026-08-29")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, row.TasksCompleted)
	assert.True(t, row.WeeklyChallengeCompleted)
	assert.Equal(t, 1, store.streak.CurrentStreak)
}

func TestCompleteTaskPropagatesStreakWriteFailure(t *testing.T) {
	store := newMemCompletionStore()
	svc := newTestCompletionService(store)
	ctx := context.Background()
	userID := uuid.New()

	for id := 1; id <= 9; id++ {
		_, err := svc.CompleteTask(ctx, userID, id, "2026-08-29", "UTC")
		require.NoError(t, err)
	}

	store.advanceErr = assert.AnError
	_, err := svc.CompleteTask(ctx, userID, 10, "2026-08-29", "UTC")
	assert.Error(t, err)
}

func TestGetTodayEmptyDay(t *testing.T) {
	svc := newTestCompletionService(newMemCompletionStore())

	row, err := svc.GetToday(context.Background(), uuid.New(), "2026-08-29")
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestCompleteTaskCountsStreakAdvanceMetric(t *testing.T) {
	store := newMemCompletionStore()
	svc := newTestCompletionService(store)
	ctx := context.Background()
	userID := uuid.New()

	before := streakAdvanceTotal(t)
	for id := 1; id <= 10; id++ {
		_, err := svc.CompleteTask(ctx, userID, id, "2026-08-29", "UTC")
		require.NoError(t, err)
	}
	assert.Equal(t, before+1, streakAdvanceTotal(t))
}

func streakAdvanceTotal(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "streak_advances_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}
