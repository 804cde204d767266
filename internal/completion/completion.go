package completion

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"triadStreakAPI/internal/task"
)

// DailyCompletion is one user's record for one local calendar date. The
// (user_id, completion_date) pair is unique; should duplicate physical rows
// ever appear, the most recently created one is authoritative.
type DailyCompletion struct {
	ID                       uuid.UUID `json:"id" db:"id"`
	UserID                   uuid.UUID `json:"user_id" db:"user_id"`
	CompletionDate           string    `json:"completion_date" db:"completion_date"`
	TasksCompleted           []int     `json:"tasks_completed" db:"tasks_completed"`
	WeeklyChallengeCompleted bool      `json:"weekly_challenge_completed" db:"weekly_challenge_completed"`
	WeekNumber               *int      `json:"week_number" db:"week_number"`
	Timezone                 string    `json:"timezone" db:"timezone"`
	CreatedAt                time.Time `json:"created_at" db:"created_at"`
}

// Progress is the number of distinct daily tasks completed, 0..10.
func (c *DailyCompletion) Progress() int {
	if c == nil {
		return 0
	}
	return len(dedupe(c.TasksCompleted))
}

// AddTask returns the task set with taskID added and whether this addition
// crossed the all-tasks-done boundary for the day. The boundary fires only
// on the transition from fewer-than-all to all: re-adding a task once every
// task is already recorded reports crossed=false, which is what keeps the
// streak from advancing twice on one date.
func AddTask(existing []int, taskID int) (updated []int, crossed bool) {
	before := dedupe(existing)
	prevCount := len(before)

	after := before
	if !contains(before, taskID) {
		after = append(append([]int{}, before...), taskID)
	}
	sort.Ints(after)

	crossed = prevCount < task.DailyTaskCount && len(after) == task.DailyTaskCount
	return after, crossed
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
