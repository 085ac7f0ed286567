package repo

import (
	"context"
	"database/sql"
	"strings"

	"feeline/internal/domain"
)

const taskSelect = `SELECT t.id, t.phase_id, t.developer_id, t.name, t.description, t.category, t.estimated_hours,
t.complexity, t.time, t.risk, t.dependency, t.skill, t.calculated_weight, t.status, t.priority,
t.start_date, t.end_date, t.created_at, t.updated_at, ph.project_id, ph.name, COALESCE(d.name,'')
FROM tasks t
JOIN phases ph ON ph.id = t.phase_id
LEFT JOIN developers d ON d.id = t.developer_id`

// taskOrder is the first-appearance order the distributor relies on.
const taskOrder = ` ORDER BY ph.sort_order ASC, ph.created_at ASC, ph.id ASC, t.created_at ASC, t.id ASC`

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	var devID, desc, start, end sql.NullString
	var hours sql.NullFloat64
	err := row.Scan(&t.ID, &t.PhaseID, &devID, &t.Name, &desc, &t.Category, &hours,
		&t.Scores.Complexity, &t.Scores.Time, &t.Scores.Risk, &t.Scores.Dependency, &t.Scores.Skill,
		&t.CalculatedWeight, &t.Status, &t.Priority, &start, &end, &t.CreatedAt, &t.UpdatedAt,
		&t.ProjectID, &t.PhaseName, &t.DeveloperName)
	if err != nil {
		return t, notFound(err)
	}
	t.DeveloperID = stringPtr(devID)
	t.Description = desc.String
	t.EstimatedHours = floatPtr[float64](hours)
	t.StartDate = stringPtr(start)
	t.EndDate = stringPtr(end)
	return t, nil
}

func (r Repo) InsertTask(ctx context.Context, t domain.Task) error {
	_, err := r.q().ExecContext(ctx, `INSERT INTO tasks(id, phase_id, developer_id, name, description, category, estimated_hours,
complexity, time, risk, dependency, skill, calculated_weight, status, priority, start_date, end_date, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.PhaseID, nullableStringPtr(t.DeveloperID), t.Name, nullable(t.Description), t.Category, nullableFloatPtr(t.EstimatedHours),
		t.Scores.Complexity, t.Scores.Time, t.Scores.Risk, t.Scores.Dependency, t.Scores.Skill, t.CalculatedWeight,
		t.Status, t.Priority, nullableStringPtr(t.StartDate), nullableStringPtr(t.EndDate), t.CreatedAt, t.UpdatedAt)
	return err
}

// UpdateTask stores the scores and the weight derived from them in one statement.
func (r Repo) UpdateTask(ctx context.Context, t domain.Task) error {
	return affected(r.q().ExecContext(ctx, `UPDATE tasks SET phase_id=?, developer_id=?, name=?, description=?, category=?,
estimated_hours=?, complexity=?, time=?, risk=?, dependency=?, skill=?, calculated_weight=?, status=?, priority=?,
start_date=?, end_date=?, updated_at=? WHERE id=?`,
		t.PhaseID, nullableStringPtr(t.DeveloperID), t.Name, nullable(t.Description), t.Category, nullableFloatPtr(t.EstimatedHours),
		t.Scores.Complexity, t.Scores.Time, t.Scores.Risk, t.Scores.Dependency, t.Scores.Skill, t.CalculatedWeight,
		t.Status, t.Priority, nullableStringPtr(t.StartDate), nullableStringPtr(t.EndDate), t.UpdatedAt, t.ID))
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return scanTask(r.q().QueryRowContext(ctx, taskSelect+` WHERE t.id=?`, id))
}

type TaskFilters struct {
	ProjectID   string
	PhaseID     string
	DeveloperID string
	Status      string
}

func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	var clauses []string
	var args []any
	if f.ProjectID != "" {
		clauses = append(clauses, "ph.project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.PhaseID != "" {
		clauses = append(clauses, "t.phase_id=?")
		args = append(args, f.PhaseID)
	}
	if f.DeveloperID != "" {
		clauses = append(clauses, "t.developer_id=?")
		args = append(args, f.DeveloperID)
	}
	if f.Status != "" {
		clauses = append(clauses, "t.status=?")
		args = append(args, f.Status)
	}
	query := taskSelect
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	rows, err := r.q().QueryContext(ctx, query+taskOrder, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) DeleteTask(ctx context.Context, id string) error {
	return affected(r.q().ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id))
}
