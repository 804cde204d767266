package streak

import (
	"time"

	"github.com/google/uuid"

	"triadStreakAPI/internal/badge"
)

// UserStreak is the single per-user streak row.
type UserStreak struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	UserID             uuid.UUID       `json:"user_id" db:"user_id"`
	CurrentStreak      int             `json:"current_streak" db:"current_streak"`
	LongestStreak      int             `json:"longest_streak" db:"longest_streak"`
	LastCompletionDate *string         `json:"last_completion_date" db:"last_completion_date"`
	Badges             []badge.BadgeID `json:"badges" db:"badges"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// Advance applies one day's streak increment: current goes up by one,
// longest never shrinks, badges for the new streak are merged in, and the
// completion date is recorded. The caller is responsible for invoking this
// at most once per local calendar date (gated on the daily completion
// boundary crossing).
func Advance(s UserStreak, today string) UserStreak {
	s.CurrentStreak++
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.Badges = badge.Merge(s.Badges, s.CurrentStreak)
	s.LastCompletionDate = &today
	return s
}
