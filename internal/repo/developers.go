package repo

import (
	"context"
	"database/sql"

	"feeline/internal/domain"
)

const developerColumns = `id,name,email,role,skill_focus,is_active,created_at,updated_at`

func scanDeveloper(row rowScanner) (domain.Developer, error) {
	var d domain.Developer
	var email, role, skill sql.NullString
	if err := row.Scan(&d.ID, &d.Name, &email, &role, &skill, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return d, notFound(err)
	}
	d.Email, d.Role, d.SkillFocus = email.String, role.String, skill.String
	return d, nil
}

func (r Repo) InsertDeveloper(ctx context.Context, d domain.Developer) error {
	_, err := r.q().ExecContext(ctx, `INSERT INTO developers(`+developerColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		d.ID, d.Name, nullable(d.Email), nullable(d.Role), nullable(d.SkillFocus), boolInt(d.IsActive), d.CreatedAt, d.UpdatedAt)
	return err
}

func (r Repo) UpdateDeveloper(ctx context.Context, d domain.Developer) error {
	return affected(r.q().ExecContext(ctx, `UPDATE developers SET name=?, email=?, role=?, skill_focus=?, is_active=?, updated_at=? WHERE id=?`,
		d.Name, nullable(d.Email), nullable(d.Role), nullable(d.SkillFocus), boolInt(d.IsActive), d.UpdatedAt, d.ID))
}

func (r Repo) GetDeveloper(ctx context.Context, id string) (domain.Developer, error) {
	return scanDeveloper(r.q().QueryRowContext(ctx, `SELECT `+developerColumns+` FROM developers WHERE id=?`, id))
}

func (r Repo) ListDevelopers(ctx context.Context, activeOnly bool) ([]domain.Developer, error) {
	query := `SELECT ` + developerColumns + ` FROM developers`
	if activeOnly {
		query += ` WHERE is_active=1`
	}
	query += ` ORDER BY name ASC, id ASC`
	rows, err := r.q().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Developer
	for rows.Next() {
		d, err := scanDeveloper(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r Repo) DeleteDeveloper(ctx context.Context, id string) error {
	return affected(r.q().ExecContext(ctx, `DELETE FROM developers WHERE id=?`, id))
}
