package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"feeline/internal/domain"
	"feeline/internal/fee"
)

const projectColumns = `id,name,description,status,total_budget,safety_net_percent,management_fee_percent,deployment_fee,dp_percent,completion_percent,buffer_percent,estimated_total_weight,days_duration,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	var desc sql.NullString
	var dp, completion, buffer, estimate sql.NullFloat64
	err := row.Scan(&p.ID, &p.Name, &desc, &p.Status, &p.TotalBudget, &p.SafetyNetPercent, &p.ManagementFeePercent,
		&p.DeploymentFee, &dp, &completion, &buffer, &estimate, &p.DaysDuration, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, notFound(err)
	}
	p.Description = desc.String
	p.DPPercent = floatPtr[fee.Percent](dp)
	p.CompletionPercent = floatPtr[fee.Percent](completion)
	p.BufferPercent = floatPtr[fee.Percent](buffer)
	p.EstimatedTotalWeight = floatPtr[float64](estimate)
	return p, nil
}

func (r Repo) InsertProject(ctx context.Context, p domain.Project) error {
	_, err := r.q().ExecContext(ctx, `INSERT INTO projects(`+projectColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, nullable(p.Description), p.Status, float64(p.TotalBudget), float64(p.SafetyNetPercent),
		float64(p.ManagementFeePercent), float64(p.DeploymentFee), nullableFloatPtr(p.DPPercent),
		nullableFloatPtr(p.CompletionPercent), nullableFloatPtr(p.BufferPercent), nullableFloatPtr(p.EstimatedTotalWeight),
		p.DaysDuration, p.CreatedAt, p.UpdatedAt)
	return err
}

// UpdateProject rewrites every mutable column of p.
func (r Repo) UpdateProject(ctx context.Context, p domain.Project) error {
	return affected(r.q().ExecContext(ctx, `UPDATE projects SET name=?, description=?, status=?, total_budget=?, safety_net_percent=?,
management_fee_percent=?, deployment_fee=?, dp_percent=?, completion_percent=?, buffer_percent=?, estimated_total_weight=?,
days_duration=?, updated_at=? WHERE id=?`,
		p.Name, nullable(p.Description), p.Status, float64(p.TotalBudget), float64(p.SafetyNetPercent),
		float64(p.ManagementFeePercent), float64(p.DeploymentFee), nullableFloatPtr(p.DPPercent),
		nullableFloatPtr(p.CompletionPercent), nullableFloatPtr(p.BufferPercent), nullableFloatPtr(p.EstimatedTotalWeight),
		p.DaysDuration, p.UpdatedAt, p.ID))
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return scanProject(r.q().QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
}

type ProjectFilters struct {
	Status string
	Limit  int
}

func (r Repo) ListProjects(ctx context.Context, f ProjectFilters) ([]domain.Project, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := fmt.Sprintf(`SELECT %s FROM projects %s ORDER BY created_at DESC, id DESC`, projectColumns, where)
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) DeleteProject(ctx context.Context, id string) error {
	return affected(r.q().ExecContext(ctx, `DELETE FROM projects WHERE id=?`, id))
}
