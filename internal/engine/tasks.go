package engine

import (
	"context"
	"database/sql"
	"math"

	"feeline/internal/domain"
	"feeline/internal/events"
	"feeline/internal/fee"
	"feeline/internal/repo"
)

var (
	taskStatuses   = []string{"pending", "in_progress", "completed"}
	taskPriorities = []string{"low", "medium", "high"}
)

// TaskInput carries task fields. Nil scores keep their stored value on update
// and default to the minimum score on create. An empty DeveloperID unassigns.
type TaskInput struct {
	PhaseID        *string
	DeveloperID    *string
	Name           *string
	Description    *string
	Category       *string
	EstimatedHours *float64
	Complexity     *int
	Time           *int
	Risk           *int
	Dependency     *int
	Skill          *int
	Status         *string
	Priority       *string
	StartDate      *string
	EndDate        *string
	ActorID        string
}

func (in TaskInput) apply(t *domain.Task) {
	if in.PhaseID != nil {
		t.PhaseID = *in.PhaseID
	}
	if in.DeveloperID != nil {
		t.DeveloperID = optional(*in.DeveloperID)
	}
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Category != nil {
		t.Category = *in.Category
	}
	if in.EstimatedHours != nil {
		t.EstimatedHours = in.EstimatedHours
	}
	setScore := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setScore(&t.Scores.Complexity, in.Complexity)
	setScore(&t.Scores.Time, in.Time)
	setScore(&t.Scores.Risk, in.Risk)
	setScore(&t.Scores.Dependency, in.Dependency)
	setScore(&t.Scores.Skill, in.Skill)
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.StartDate != nil {
		t.StartDate = optional(*in.StartDate)
	}
	if in.EndDate != nil {
		t.EndDate = optional(*in.EndDate)
	}
}

// scoresChanged reports whether the input touches any scoring dimension.
func (in TaskInput) scoresChanged() bool {
	return in.Complexity != nil || in.Time != nil || in.Risk != nil || in.Dependency != nil || in.Skill != nil
}

func validateTask(t domain.Task) error {
	if blank(t.Name) {
		return InvalidArgument("task name is required")
	}
	if blank(t.PhaseID) {
		return InvalidArgument("phaseId is required")
	}
	if dim := t.Scores.Invalid(); dim != "" {
		return InvalidArgument("%s must be between %d and %d", dim, fee.MinScore, fee.MaxScore)
	}
	if !oneOf(t.Status, taskStatuses...) {
		return InvalidArgument("task status %q is not one of %v", t.Status, taskStatuses)
	}
	if !oneOf(t.Priority, taskPriorities...) {
		return InvalidArgument("task priority %q is not one of %v", t.Priority, taskPriorities)
	}
	if h := t.EstimatedHours; h != nil && (*h < 0 || math.IsNaN(*h) || math.IsInf(*h, 0)) {
		return InvalidArgument("estimatedHours must be a non-negative number")
	}
	return nil
}

// checkRefs verifies the task's phase and developer exist.
func checkRefs(ctx context.Context, r repo.Repo, t domain.Task) error {
	if _, err := r.GetPhase(ctx, t.PhaseID); err != nil {
		return lookup(err, "phase", t.PhaseID)
	}
	if t.DeveloperID != nil {
		if _, err := r.GetDeveloper(ctx, *t.DeveloperID); err != nil {
			return lookup(err, "developer", *t.DeveloperID)
		}
	}
	return nil
}

// CreateTask stores a task together with the weight computed from its scores.
func (e Engine) CreateTask(ctx context.Context, in TaskInput) (domain.Task, error) {
	now := e.timestamp()
	t := domain.Task{
		ID:        newID(),
		Category:  "backend",
		Scores:    fee.DefaultScores(),
		Status:    "pending",
		Priority:  "medium",
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.apply(&t)
	if err := validateTask(t); err != nil {
		return domain.Task{}, err
	}
	t.CalculatedWeight = t.Scores.Weight()
	var out domain.Task
	err := e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		if err := checkRefs(ctx, r, t); err != nil {
			return err
		}
		if err := r.InsertTask(ctx, t); err != nil {
			return Internal(err, "insert task")
		}
		var err error
		if out, err = r.GetTask(ctx, t.ID); err != nil {
			return Internal(err, "reload task")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.TaskCreated, ProjectID: out.ProjectID, EntityKind: "task", EntityID: t.ID, ActorID: in.ActorID,
			Payload: events.Payload{"scores": t.Scores, "calculatedWeight": t.CalculatedWeight},
		})
	})
	return out, err
}

// UpdateTask merges the input into the stored task and recomputes its weight
// in the same transaction.
func (e Engine) UpdateTask(ctx context.Context, id string, in TaskInput) (domain.Task, error) {
	var out domain.Task
	err := e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		t, err := r.GetTask(ctx, id)
		if err != nil {
			return lookup(err, "task", id)
		}
		before := t.CalculatedWeight
		in.apply(&t)
		if err := validateTask(t); err != nil {
			return err
		}
		if err := checkRefs(ctx, r, t); err != nil {
			return err
		}
		t.CalculatedWeight = t.Scores.Weight()
		t.UpdatedAt = e.timestamp()
		if err := r.UpdateTask(ctx, t); err != nil {
			return Internal(err, "update task")
		}
		if out, err = r.GetTask(ctx, id); err != nil {
			return Internal(err, "reload task")
		}
		payload := events.Payload{"status": out.Status}
		if in.scoresChanged() || before != out.CalculatedWeight {
			payload["scores"] = out.Scores
			payload["calculatedWeight"] = out.CalculatedWeight
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.TaskUpdated, ProjectID: out.ProjectID, EntityKind: "task", EntityID: id, ActorID: in.ActorID,
			Payload: payload,
		})
	})
	return out, err
}

func (e Engine) DeleteTask(ctx context.Context, id, actorID string) error {
	return e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		t, err := r.GetTask(ctx, id)
		if err != nil {
			return lookup(err, "task", id)
		}
		if err := r.DeleteTask(ctx, id); err != nil {
			return Internal(err, "delete task")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.TaskDeleted, ProjectID: t.ProjectID, EntityKind: "task", EntityID: id, ActorID: actorID,
		})
	})
}

func (e Engine) GetTask(ctx context.Context, id string) (domain.Task, error) {
	t, err := e.Repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, lookup(err, "task", id)
	}
	return t, nil
}

func (e Engine) ListTasks(ctx context.Context, f repo.TaskFilters) ([]domain.Task, error) {
	if f.Status != "" && !oneOf(f.Status, taskStatuses...) {
		return nil, InvalidArgument("task status %q is not one of %v", f.Status, taskStatuses)
	}
	res, err := e.Repo.ListTasks(ctx, f)
	if err != nil {
		return nil, Internal(err, "list tasks")
	}
	return res, nil
}
