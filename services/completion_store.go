package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"triadStreakAPI/internal/badge"
	"triadStreakAPI/internal/completion"
	"triadStreakAPI/internal/streak"
)

// queryRower lets the latest-row read run against either the pool or an
// open transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxCompletionStore is the postgres-backed completionStore.
type pgxCompletionStore struct {
	db *pgxpool.Pool
}

func (s *pgxCompletionStore) TaskExists(ctx context.Context, taskID int) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM challenge_tasks WHERE id = $1)`, taskID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check task: %w", err)
	}
	return exists, nil
}

func (s *pgxCompletionStore) ReadDay(ctx context.Context, userID uuid.UUID, date string) (*completion.DailyCompletion, error) {
	return readLatestCompletion(ctx, s.db, userID, date, false)
}

// RunDay serializes every writer for one (user, date) behind an advisory
// transaction lock. FOR UPDATE alone is not enough: while the day has no row
// yet there is nothing to lock, two transactions can both read the empty
// state, and the loser's ON CONFLICT update would overwrite the winner's
// committed row. The advisory lock covers the no-row window as well, and
// postgres releases it at commit or rollback.
func (s *pgxCompletionStore) RunDay(ctx context.Context, userID uuid.UUID, date string, fn func(day dayStore) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2::text))`, userID.String(), date)
	if err != nil {
		return fmt.Errorf("failed to lock completion day: %w", err)
	}

	if err := fn(&pgxDayStore{tx: tx, userID: userID, date: date}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}
	return nil
}

// pgxDayStore is one (user, date) inside an open, advisory-locked
// transaction.
type pgxDayStore struct {
	tx     pgx.Tx
	userID uuid.UUID
	date   string
}

func (d *pgxDayStore) ReadForUpdate(ctx context.Context) (*completion.DailyCompletion, error) {
	return readLatestCompletion(ctx, d.tx, d.userID, d.date, true)
}

func (d *pgxDayStore) Upsert(ctx context.Context, tasks []int, weeklyDone bool, weekNumber *int, timezone string) (*completion.DailyCompletion, error) {
	if tasks == nil {
		tasks = []int{}
	}

	// The weekly flag is one-way at the SQL level too: an update can set it
	// but never clear it, whatever state the writer computed from.
	query := `
	INSERT INTO daily_completions (user_id, completion_date, tasks_completed, weekly_challenge_completed, week_number, timezone)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (user_id, completion_date) DO UPDATE SET
		tasks_completed = EXCLUDED.tasks_completed,
		weekly_challenge_completed = daily_completions.weekly_challenge_completed OR EXCLUDED.weekly_challenge_completed,
		timezone = EXCLUDED.timezone
	RETURNING id, user_id, completion_date::text, tasks_completed, weekly_challenge_completed, week_number, timezone, created_at
	`

	c := &completion.DailyCompletion{}
	err := d.tx.QueryRow(ctx, query, d.userID, d.date, tasks, weeklyDone, weekNumber, timezone).Scan(
		&c.ID,
		&c.UserID,
		&c.CompletionDate,
		&c.TasksCompleted,
		&c.WeeklyChallengeCompleted,
		&c.WeekNumber,
		&c.Timezone,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert completion: %w", err)
	}
	return c, nil
}

func (d *pgxDayStore) AdvanceStreak(ctx context.Context, today string) (*streak.UserStreak, error) {
	st := streak.UserStreak{UserID: d.userID}
	var rawBadges any

	readQuery := `
	SELECT id, current_streak, longest_streak, last_completion_date::text, badges
	FROM user_streaks
	WHERE user_id = $1
	FOR UPDATE
	`
	err := d.tx.QueryRow(ctx, readQuery, d.userID).Scan(
		&st.ID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastCompletionDate,
		&rawBadges,
	)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read streak: %w", err)
	}
	st.Badges = badge.Merge(rawBadges, 0)

	advanced := streak.Advance(st, today)

	writeQuery := `
	INSERT INTO user_streaks (user_id, current_streak, longest_streak, last_completion_date, badges)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id) DO UPDATE SET
		current_streak = EXCLUDED.current_streak,
		longest_streak = EXCLUDED.longest_streak,
		last_completion_date = EXCLUDED.last_completion_date,
		badges = EXCLUDED.badges,
		updated_at = NOW()
	RETURNING id, created_at, updated_at
	`
	err = d.tx.QueryRow(ctx, writeQuery,
		d.userID,
		advanced.CurrentStreak,
		advanced.LongestStreak,
		advanced.LastCompletionDate,
		advanced.Badges,
	).Scan(&advanced.ID, &advanced.CreatedAt, &advanced.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to write streak: %w", err)
	}
	return &advanced, nil
}

func readLatestCompletion(ctx context.Context, q queryRower, userID uuid.UUID, date string, forUpdate bool) (*completion.DailyCompletion, error) {
	query := `
	SELECT id, user_id, completion_date::text, tasks_completed, weekly_challenge_completed, week_number, timezone, created_at
	FROM daily_completions
	WHERE user_id = $1 AND completion_date = $2
	ORDER BY created_at DESC
	LIMIT 1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	c := &completion.DailyCompletion{}
	err := q.QueryRow(ctx, query, userID, date).Scan(
		&c.ID,
		&c.UserID,
		&c.CompletionDate,
		&c.TasksCompleted,
		&c.WeeklyChallengeCompleted,
		&c.WeekNumber,
		&c.Timezone,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read completion: %w", err)
	}
	return c, nil
}
