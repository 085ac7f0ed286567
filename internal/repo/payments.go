package repo

import (
	"context"
	"database/sql"
	"strings"

	"feeline/internal/domain"
	"feeline/internal/fee"
)

const paymentColumns = `id,project_id,developer_id,type,amount,percentage,description,is_paid,paid_at,created_at,updated_at`

func scanPayment(row rowScanner) (domain.Payment, error) {
	var p domain.Payment
	var devID, desc, paidAt sql.NullString
	var pct sql.NullFloat64
	err := row.Scan(&p.ID, &p.ProjectID, &devID, &p.Type, &p.Amount, &pct, &desc, &p.IsPaid, &paidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, notFound(err)
	}
	p.DeveloperID = stringPtr(devID)
	p.Percentage = floatPtr[fee.Percent](pct)
	p.Description = desc.String
	p.PaidAt = stringPtr(paidAt)
	return p, nil
}

func (r Repo) InsertPayment(ctx context.Context, p domain.Payment) error {
	_, err := r.q().ExecContext(ctx, `INSERT INTO payments(`+paymentColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.ProjectID, nullableStringPtr(p.DeveloperID), p.Type, float64(p.Amount), nullableFloatPtr(p.Percentage),
		nullable(p.Description), boolInt(p.IsPaid), nullableStringPtr(p.PaidAt), p.CreatedAt, p.UpdatedAt)
	return err
}

func (r Repo) UpdatePayment(ctx context.Context, p domain.Payment) error {
	return affected(r.q().ExecContext(ctx, `UPDATE payments SET developer_id=?, type=?, amount=?, percentage=?, description=?,
is_paid=?, paid_at=?, updated_at=? WHERE id=?`,
		nullableStringPtr(p.DeveloperID), p.Type, float64(p.Amount), nullableFloatPtr(p.Percentage), nullable(p.Description),
		boolInt(p.IsPaid), nullableStringPtr(p.PaidAt), p.UpdatedAt, p.ID))
}

func (r Repo) GetPayment(ctx context.Context, id string) (domain.Payment, error) {
	return scanPayment(r.q().QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=?`, id))
}

type PaymentFilters struct {
	ProjectID   string
	DeveloperID string
	Type        string
	Paid        *bool
}

func (r Repo) ListPayments(ctx context.Context, f PaymentFilters) ([]domain.Payment, error) {
	var clauses []string
	var args []any
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.DeveloperID != "" {
		clauses = append(clauses, "developer_id=?")
		args = append(args, f.DeveloperID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.Paid != nil {
		clauses = append(clauses, "is_paid=?")
		args = append(args, boolInt(*f.Paid))
	}
	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.q().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) DeletePayment(ctx context.Context, id string) error {
	return affected(r.q().ExecContext(ctx, `DELETE FROM payments WHERE id=?`, id))
}
