package task

// Category groups the daily tasks on the checklist.
type Category string

const (
	CategoryMind   Category = "mind"
	CategoryBody   Category = "body"
	CategorySpirit Category = "spirit"
)

// DailyTaskCount is the size of the fixed task catalog. Completing all of
// them on one local calendar day is what advances the streak.
const DailyTaskCount = 10

// ChallengeTask is a static catalog entry.
type ChallengeTask struct {
	ID          int      `json:"id" db:"id"`
	Name        string   `json:"name" db:"name"`
	Description string   `json:"description" db:"description"`
	Category    Category `json:"category" db:"category"`
	OrderIndex  int      `json:"order_index" db:"order_index"`
}
