package engine

import (
	"context"
	"database/sql"

	"feeline/internal/domain"
	"feeline/internal/events"
	"feeline/internal/fee"
	"feeline/internal/repo"
)

type PaymentInput struct {
	ProjectID   string
	DeveloperID *string
	Type        *string
	Amount      *fee.Money
	Percentage  *fee.Percent
	Description *string
	IsPaid      *bool
	ActorID     string
}

// apply merges the input into p. paidAt follows isPaid: it is stamped when the
// payment becomes paid and cleared when it stops being paid.
func (in PaymentInput) apply(p *domain.Payment, now string) {
	if in.DeveloperID != nil {
		p.DeveloperID = optional(*in.DeveloperID)
	}
	if in.Type != nil {
		p.Type = *in.Type
	}
	if in.Amount != nil {
		p.Amount = *in.Amount
	}
	if in.Percentage != nil {
		p.Percentage = in.Percentage
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.IsPaid != nil {
		markPaid(p, *in.IsPaid, now)
	}
}

func markPaid(p *domain.Payment, paid bool, now string) {
	switch {
	case paid && !p.IsPaid:
		p.PaidAt = &now
	case !paid:
		p.PaidAt = nil
	}
	p.IsPaid = paid
}

func validatePayment(p domain.Payment) error {
	if !oneOf(p.Type, domain.PaymentTypes...) {
		return InvalidArgument("payment type %q is not one of %v", p.Type, domain.PaymentTypes)
	}
	if !p.Amount.Valid() {
		return InvalidArgument("amount must be a non-negative number")
	}
	if p.Percentage != nil && !p.Percentage.Valid() {
		return InvalidArgument("percentage must be between 0 and 100")
	}
	return nil
}

func (e Engine) CreatePayment(ctx context.Context, in PaymentInput) (domain.Payment, error) {
	if blank(in.ProjectID) {
		return domain.Payment{}, InvalidArgument("projectId is required")
	}
	now := e.timestamp()
	p := domain.Payment{ID: newID(), ProjectID: in.ProjectID, CreatedAt: now, UpdatedAt: now}
	in.apply(&p, now)
	if err := validatePayment(p); err != nil {
		return domain.Payment{}, err
	}
	err := e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		if _, err := r.GetProject(ctx, p.ProjectID); err != nil {
			return lookup(err, "project", p.ProjectID)
		}
		if p.DeveloperID != nil {
			if _, err := r.GetDeveloper(ctx, *p.DeveloperID); err != nil {
				return lookup(err, "developer", *p.DeveloperID)
			}
		}
		if err := r.InsertPayment(ctx, p); err != nil {
			return Internal(err, "insert payment")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.PaymentCreated, ProjectID: p.ProjectID, EntityKind: "payment", EntityID: p.ID, ActorID: in.ActorID,
			Payload: events.Payload{"type": p.Type, "amount": p.Amount, "isPaid": p.IsPaid},
		})
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}

func (e Engine) UpdatePayment(ctx context.Context, id string, in PaymentInput) (domain.Payment, error) {
	var p domain.Payment
	err := e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		var err error
		if p, err = r.GetPayment(ctx, id); err != nil {
			return lookup(err, "payment", id)
		}
		now := e.timestamp()
		in.apply(&p, now)
		if err := validatePayment(p); err != nil {
			return err
		}
		if p.DeveloperID != nil {
			if _, err := r.GetDeveloper(ctx, *p.DeveloperID); err != nil {
				return lookup(err, "developer", *p.DeveloperID)
			}
		}
		p.UpdatedAt = now
		if err := r.UpdatePayment(ctx, p); err != nil {
			return Internal(err, "update payment")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.PaymentUpdated, ProjectID: p.ProjectID, EntityKind: "payment", EntityID: p.ID, ActorID: in.ActorID,
			Payload: events.Payload{"amount": p.Amount, "isPaid": p.IsPaid},
		})
	})
	return p, err
}

func (e Engine) DeletePayment(ctx context.Context, id, actorID string) error {
	return e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		p, err := r.GetPayment(ctx, id)
		if err != nil {
			return lookup(err, "payment", id)
		}
		if err := r.DeletePayment(ctx, id); err != nil {
			return Internal(err, "delete payment")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.PaymentDeleted, ProjectID: p.ProjectID, EntityKind: "payment", EntityID: id, ActorID: actorID,
		})
	})
}

func (e Engine) ListPayments(ctx context.Context, f repo.PaymentFilters) ([]domain.Payment, error) {
	if f.Type != "" && !oneOf(f.Type, domain.PaymentTypes...) {
		return nil, InvalidArgument("payment type %q is not one of %v", f.Type, domain.PaymentTypes)
	}
	res, err := e.Repo.ListPayments(ctx, f)
	if err != nil {
		return nil, Internal(err, "list payments")
	}
	return res, nil
}
