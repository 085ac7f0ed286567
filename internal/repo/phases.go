package repo

import (
	"context"
	"database/sql"

	"feeline/internal/domain"
)

const phaseColumns = `id,project_id,name,description,day_start,day_end,sort_order,created_at,updated_at`

func scanPhase(row rowScanner) (domain.Phase, error) {
	var ph domain.Phase
	var desc sql.NullString
	if err := row.Scan(&ph.ID, &ph.ProjectID, &ph.Name, &desc, &ph.DayStart, &ph.DayEnd, &ph.SortOrder, &ph.CreatedAt, &ph.UpdatedAt); err != nil {
		return ph, notFound(err)
	}
	ph.Description = desc.String
	return ph, nil
}

func (r Repo) InsertPhase(ctx context.Context, ph domain.Phase) error {
	_, err := r.q().ExecContext(ctx, `INSERT INTO phases(`+phaseColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		ph.ID, ph.ProjectID, ph.Name, nullable(ph.Description), ph.DayStart, ph.DayEnd, ph.SortOrder, ph.CreatedAt, ph.UpdatedAt)
	return err
}

func (r Repo) UpdatePhase(ctx context.Context, ph domain.Phase) error {
	return affected(r.q().ExecContext(ctx, `UPDATE phases SET name=?, description=?, day_start=?, day_end=?, sort_order=?, updated_at=? WHERE id=?`,
		ph.Name, nullable(ph.Description), ph.DayStart, ph.DayEnd, ph.SortOrder, ph.UpdatedAt, ph.ID))
}

func (r Repo) GetPhase(ctx context.Context, id string) (domain.Phase, error) {
	return scanPhase(r.q().QueryRowContext(ctx, `SELECT `+phaseColumns+` FROM phases WHERE id=?`, id))
}

// ListPhases returns a project's phases in schedule order.
func (r Repo) ListPhases(ctx context.Context, projectID string) ([]domain.Phase, error) {
	query := `SELECT ` + phaseColumns + ` FROM phases`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id=?`
		args = append(args, projectID)
	}
	query += ` ORDER BY sort_order ASC, day_start ASC, created_at ASC, id ASC`
	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Phase
	for rows.Next() {
		ph, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, ph)
	}
	return res, rows.Err()
}

func (r Repo) DeletePhase(ctx context.Context, id string) error {
	return affected(r.q().ExecContext(ctx, `DELETE FROM phases WHERE id=?`, id))
}
