package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"triadStreakAPI/cache"
	"triadStreakAPI/internal/badge"
	"triadStreakAPI/internal/leaderboard"
	"triadStreakAPI/internal/stats"
	"triadStreakAPI/internal/streak"
	"triadStreakAPI/internal/user"
	"triadStreakAPI/internal/weekly"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	db    *pgxpool.Pool
	cache *cache.Cache
}

func NewUserService(db *pgxpool.Pool, c *cache.Cache) *UserService {
	return &UserService{db: db, cache: c}
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	u := &user.User{}
	query := `
	SELECT id, email, username, created_at, updated_at
	FROM users
	WHERE id = $1
	`
	err := s.db.QueryRow(ctx, query, userID).Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *user.UpdateProfileRequest) (*user.User, error) {
	if fields := ValidateStruct(req); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	u := &user.User{}
	query := `
	UPDATE users
	SET username = $2, updated_at = NOW()
	WHERE id = $1
	RETURNING id, email, username, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query, userID, req.Username).Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if uniqueViolation(err) != "" {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}

// GetStreak returns the user's streak row. A missing row reads as the zero
// state rather than an error.
func (s *UserService) GetStreak(ctx context.Context, userID uuid.UUID) (*streak.UserStreak, error) {
	st := &streak.UserStreak{UserID: userID}
	var rawBadges any

	query := `
	SELECT id, current_streak, longest_streak, last_completion_date::text, badges, created_at, updated_at
	FROM user_streaks
	WHERE user_id = $1
	`
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&st.ID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastCompletionDate,
		&rawBadges,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	st.Badges = badge.Merge(rawBadges, 0)
	return st, nil
}

// GetUserStats assembles the dashboard aggregate: today's progress, streak
// state, week-of-cycle, and leaderboard rank. today is the caller's local
// date, the same key completion rows are written under.
func (s *UserService) GetUserStats(ctx context.Context, userID uuid.UUID, today string) (*stats.UserStats, error) {
	st, err := s.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &stats.UserStats{
		CurrentStreak:      st.CurrentStreak,
		LongestStreak:      st.LongestStreak,
		LastCompletionDate: st.LastCompletionDate,
		Badges:             st.Badges,
		WeekNumber:         weekly.ComputeWeek(st.CurrentStreak),
	}

	query := `
	SELECT tasks_completed, weekly_challenge_completed
	FROM daily_completions
	WHERE user_id = $1 AND completion_date = $2
	ORDER BY created_at DESC
	LIMIT 1
	`
	var tasks []int
	err = s.db.QueryRow(ctx, query, userID, today).Scan(&tasks, &out.TodayWeeklyDone)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get today's completion: %w", err)
	}
	seen := make(map[int]bool, len(tasks))
	for _, id := range tasks {
		seen[id] = true
	}
	out.TodayProgress = len(seen)

	rankQuery := `
	WITH ranked AS (
		SELECT user_id, RANK() OVER (ORDER BY current_streak DESC, longest_streak DESC) AS rank
		FROM user_streaks
	)
	SELECT rank FROM ranked WHERE user_id = $1
	`
	err = s.db.QueryRow(ctx, rankQuery, userID).Scan(&out.Rank)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to calculate rank: %w", err)
	}

	return out, nil
}

// GetLeaderboard returns the top 50 streaks plus the requesting user's own
// ranked position. Responses are cached briefly in redis; streak advances
// invalidate the cache so other sessions see changes promptly.
func (s *UserService) GetLeaderboard(ctx context.Context, userID uuid.UUID) (*leaderboard.Leaderboard, error) {
	var entries []*leaderboard.LeaderboardEntry

	if !s.cache.GetLeaderboard(ctx, &entries) {
		query := `
		SELECT
			u.id AS user_id,
			u.username,
			COALESCE(s.current_streak, 0) AS current_streak,
			COALESCE(s.longest_streak, 0) AS longest_streak,
			COALESCE(jsonb_array_length(s.badges), 0) AS badge_count,
			RANK() OVER (ORDER BY COALESCE(s.current_streak, 0) DESC, COALESCE(s.longest_streak, 0) DESC) AS rank
		FROM users u
		LEFT JOIN user_streaks s ON u.id = s.user_id
		ORDER BY rank
		LIMIT 50
		`

		rows, err := s.db.Query(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			entry := &leaderboard.LeaderboardEntry{}
			err := rows.Scan(
				&entry.UserID,
				&entry.Username,
				&entry.CurrentStreak,
				&entry.LongestStreak,
				&entry.BadgeCount,
				&entry.Rank,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
			}
			entries = append(entries, entry)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
		}

		s.cache.SetLeaderboard(ctx, entries)
	}

	var userPosition *leaderboard.LeaderboardEntry
	for _, entry := range entries {
		if entry.UserID == userID {
			userPosition = entry
			break
		}
	}

	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   len(entries),
	}, nil
}
