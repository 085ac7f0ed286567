package engine

import (
	"context"
	"database/sql"

	"feeline/internal/domain"
	"feeline/internal/events"
	"feeline/internal/repo"
)

type DeveloperInput struct {
	Name       *string
	Email      *string
	Role       *string
	SkillFocus *string
	IsActive   *bool
	ActorID    string
}

func (in DeveloperInput) apply(d *domain.Developer) {
	if in.Name != nil {
		d.Name = *in.Name
	}
	if in.Email != nil {
		d.Email = *in.Email
	}
	if in.Role != nil {
		d.Role = *in.Role
	}
	if in.SkillFocus != nil {
		d.SkillFocus = *in.SkillFocus
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}
}

func (e Engine) CreateDeveloper(ctx context.Context, in DeveloperInput) (domain.Developer, error) {
	now := e.timestamp()
	d := domain.Developer{ID: newID(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	in.apply(&d)
	if blank(d.Name) {
		return domain.Developer{}, InvalidArgument("developer name is required")
	}
	err := e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		if err := r.InsertDeveloper(ctx, d); err != nil {
			return Internal(err, "insert developer")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.DeveloperCreated, EntityKind: "developer", EntityID: d.ID, ActorID: in.ActorID,
			Payload: events.Payload{"name": d.Name},
		})
	})
	if err != nil {
		return domain.Developer{}, err
	}
	return d, nil
}

func (e Engine) UpdateDeveloper(ctx context.Context, id string, in DeveloperInput) (domain.Developer, error) {
	var d domain.Developer
	err := e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		var err error
		if d, err = r.GetDeveloper(ctx, id); err != nil {
			return lookup(err, "developer", id)
		}
		in.apply(&d)
		if blank(d.Name) {
			return InvalidArgument("developer name is required")
		}
		d.UpdatedAt = e.timestamp()
		if err := r.UpdateDeveloper(ctx, d); err != nil {
			return Internal(err, "update developer")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.DeveloperUpdated, EntityKind: "developer", EntityID: d.ID, ActorID: in.ActorID,
			Payload: events.Payload{"isActive": d.IsActive},
		})
	})
	return d, err
}

// DeleteDeveloper removes a developer; their tasks and payments become unassigned.
func (e Engine) DeleteDeveloper(ctx context.Context, id, actorID string) error {
	return e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		if err := r.DeleteDeveloper(ctx, id); err != nil {
			return lookup(err, "developer", id)
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.DeveloperDeleted, EntityKind: "developer", EntityID: id, ActorID: actorID,
		})
	})
}

func (e Engine) GetDeveloper(ctx context.Context, id string) (domain.Developer, error) {
	d, err := e.Repo.GetDeveloper(ctx, id)
	if err != nil {
		return domain.Developer{}, lookup(err, "developer", id)
	}
	return d, nil
}

func (e Engine) ListDevelopers(ctx context.Context, activeOnly bool) ([]domain.Developer, error) {
	res, err := e.Repo.ListDevelopers(ctx, activeOnly)
	if err != nil {
		return nil, Internal(err, "list developers")
	}
	return res, nil
}
