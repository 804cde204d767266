package stats

import "triadStreakAPI/internal/badge"

// UserStats is the aggregate shown on the dashboard header.
type UserStats struct {
	TodayProgress      int             `json:"today_progress"` // 0..10
	TodayWeeklyDone    bool            `json:"today_weekly_done"`
	CurrentStreak      int             `json:"current_streak"`
	LongestStreak      int             `json:"longest_streak"`
	LastCompletionDate *string         `json:"last_completion_date"`
	Badges             []badge.BadgeID `json:"badges"`
	WeekNumber         int             `json:"week_number"` // 1..4, from streak position
	Rank               int             `json:"rank"`
}
