package weekly

// CycleDays is the length of the repeating challenge cycle.
const CycleDays = 28

// WeeksInCycle is the number of weekly challenges in one cycle.
const WeeksInCycle = 4

// Challenge is a static catalog entry, one per week of the cycle.
type Challenge struct {
	ID          int    `json:"id" db:"id"`
	WeekNumber  int    `json:"week_number" db:"week_number"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
}

// ComputeWeek maps a streak length to a week number in 1..4. The streak is
// treated as a 1-indexed position in a repeating 28-day cycle, so the week
// is a pure function of streak length and never of calendar dates. A streak
// of 28 lands on week 4; 29 wraps back to week 1.
func ComputeWeek(currentStreak int) int {
	if currentStreak <= 0 {
		return 1
	}
	dayOfCycle := ((currentStreak - 1) % CycleDays) + 1
	return (dayOfCycle + 6) / 7
}
