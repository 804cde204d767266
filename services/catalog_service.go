package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"triadStreakAPI/internal/task"
	"triadStreakAPI/internal/weekly"
)

type CatalogService struct {
	db *pgxpool.Pool
}

func NewCatalogService(db *pgxpool.Pool) *CatalogService {
	return &CatalogService{db: db}
}

// GetChallengeTasks returns the full daily task catalog in display order.
func (s *CatalogService) GetChallengeTasks(ctx context.Context) ([]*task.ChallengeTask, error) {
	query := `
	SELECT id, name, description, category, order_index
	FROM challenge_tasks
	ORDER BY order_index
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenge tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*task.ChallengeTask
	for rows.Next() {
		t := &task.ChallengeTask{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.OrderIndex); err != nil {
			return nil, fmt.Errorf("failed to scan challenge task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// GetWeeklyChallenge looks up the catalog entry for a week in 1..4. Unlike
// daily completion rows, absence here is not an empty state: the catalog is
// required to have one row per week, so a miss is a configuration error.
func (s *CatalogService) GetWeeklyChallenge(ctx context.Context, weekNumber int) (*weekly.Challenge, error) {
	query := `
	SELECT id, week_number, title, description
	FROM weekly_challenges
	WHERE week_number = $1
	`

	c := &weekly.Challenge{}
	err := s.db.QueryRow(ctx, query, weekNumber).Scan(&c.ID, &c.WeekNumber, &c.Title, &c.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("weekly challenge catalog is missing week %d", weekNumber)
		}
		return nil, fmt.Errorf("failed to fetch weekly challenge: %w", err)
	}

	return c, nil
}
