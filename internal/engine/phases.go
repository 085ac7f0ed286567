package engine

import (
	"context"
	"database/sql"

	"feeline/internal/domain"
	"feeline/internal/events"
	"feeline/internal/repo"
)

type PhaseInput struct {
	ProjectID   string
	Name        *string
	Description *string
	DayStart    *int
	DayEnd      *int
	SortOrder   *int
	ActorID     string
}

func (in PhaseInput) apply(ph *domain.Phase) {
	if in.Name != nil {
		ph.Name = *in.Name
	}
	if in.Description != nil {
		ph.Description = *in.Description
	}
	if in.DayStart != nil {
		ph.DayStart = *in.DayStart
	}
	if in.DayEnd != nil {
		ph.DayEnd = *in.DayEnd
	}
	if in.SortOrder != nil {
		ph.SortOrder = *in.SortOrder
	}
}

func validatePhase(ph domain.Phase) error {
	if blank(ph.Name) {
		return InvalidArgument("phase name is required")
	}
	if ph.DayStart < 1 {
		return InvalidArgument("dayStart must be at least 1")
	}
	if ph.DayEnd < ph.DayStart {
		return InvalidArgument("dayEnd must not be before dayStart")
	}
	return nil
}

func (e Engine) CreatePhase(ctx context.Context, in PhaseInput) (domain.Phase, error) {
	if blank(in.ProjectID) {
		return domain.Phase{}, InvalidArgument("projectId is required")
	}
	now := e.timestamp()
	ph := domain.Phase{ID: newID(), ProjectID: in.ProjectID, DayStart: 1, CreatedAt: now, UpdatedAt: now}
	in.apply(&ph)
	if in.DayEnd == nil {
		ph.DayEnd = ph.DayStart
	}
	if err := validatePhase(ph); err != nil {
		return domain.Phase{}, err
	}
	err := e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		if _, err := r.GetProject(ctx, ph.ProjectID); err != nil {
			return lookup(err, "project", ph.ProjectID)
		}
		if err := r.InsertPhase(ctx, ph); err != nil {
			return Internal(err, "insert phase")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.PhaseCreated, ProjectID: ph.ProjectID, EntityKind: "phase", EntityID: ph.ID, ActorID: in.ActorID,
			Payload: events.Payload{"name": ph.Name},
		})
	})
	if err != nil {
		return domain.Phase{}, err
	}
	return ph, nil
}

func (e Engine) UpdatePhase(ctx context.Context, id string, in PhaseInput) (domain.Phase, error) {
	var ph domain.Phase
	err := e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		var err error
		if ph, err = r.GetPhase(ctx, id); err != nil {
			return lookup(err, "phase", id)
		}
		in.apply(&ph)
		if err := validatePhase(ph); err != nil {
			return err
		}
		ph.UpdatedAt = e.timestamp()
		if err := r.UpdatePhase(ctx, ph); err != nil {
			return Internal(err, "update phase")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.PhaseUpdated, ProjectID: ph.ProjectID, EntityKind: "phase", EntityID: ph.ID, ActorID: in.ActorID,
		})
	})
	return ph, err
}

func (e Engine) DeletePhase(ctx context.Context, id, actorID string) error {
	return e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		ph, err := r.GetPhase(ctx, id)
		if err != nil {
			return lookup(err, "phase", id)
		}
		if err := r.DeletePhase(ctx, id); err != nil {
			return Internal(err, "delete phase")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.PhaseDeleted, ProjectID: ph.ProjectID, EntityKind: "phase", EntityID: id, ActorID: actorID,
		})
	})
}

func (e Engine) ListPhases(ctx context.Context, projectID string) ([]domain.Phase, error) {
	res, err := e.Repo.ListPhases(ctx, projectID)
	if err != nil {
		return nil, Internal(err, "list phases")
	}
	return res, nil
}
