package repo

import (
	"context"
	"fmt"
)

// Totals holds the aggregates behind the dashboard summary.
type Totals struct {
	Projects          int
	ActiveProjects    int
	CompletedProjects int
	Tasks             int
	PendingTasks      int
	InProgressTasks   int
	CompletedTasks    int
	Developers        int
	ActiveDevelopers  int
	TotalBudget       float64
	TotalPaid         float64
	TotalWeight       float64
	CompletedWeight   float64
}

func (r Repo) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	q := r.q()
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*),
COALESCE(SUM(CASE WHEN status='active' THEN 1 ELSE 0 END),0),
COALESCE(SUM(CASE WHEN status='completed' THEN 1 ELSE 0 END),0),
COALESCE(SUM(total_budget),0) FROM projects`).Scan(&t.Projects, &t.ActiveProjects, &t.CompletedProjects, &t.TotalBudget); err != nil {
		return t, fmt.Errorf("project totals: %w", err)
	}
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*),
COALESCE(SUM(CASE WHEN status='pending' THEN 1 ELSE 0 END),0),
COALESCE(SUM(CASE WHEN status='in_progress' THEN 1 ELSE 0 END),0),
COALESCE(SUM(CASE WHEN status='completed' THEN 1 ELSE 0 END),0),
COALESCE(SUM(calculated_weight),0),
COALESCE(SUM(CASE WHEN status='completed' THEN calculated_weight ELSE 0 END),0)
FROM tasks`).Scan(&t.Tasks, &t.PendingTasks, &t.InProgressTasks, &t.CompletedTasks, &t.TotalWeight, &t.CompletedWeight); err != nil {
		return t, fmt.Errorf("task totals: %w", err)
	}
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(is_active),0) FROM developers`).Scan(&t.Developers, &t.ActiveDevelopers); err != nil {
		return t, fmt.Errorf("developer totals: %w", err)
	}
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount),0) FROM payments WHERE is_paid=1`).Scan(&t.TotalPaid); err != nil {
		return t, fmt.Errorf("payment totals: %w", err)
	}
	return t, nil
}
