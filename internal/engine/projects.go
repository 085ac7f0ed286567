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

var projectStatuses = []string{"active", "completed", "cancelled"}

// ProjectInput carries project fields. Nil fields are left unchanged on
// update and take workspace defaults on create.
type ProjectInput struct {
	Name                 *string
	Description          *string
	Status               *string
	TotalBudget          *fee.Money
	SafetyNetPercent     *fee.Percent
	ManagementFeePercent *fee.Percent
	DeploymentFee        *fee.Money
	DPPercent            *fee.Percent
	CompletionPercent    *fee.Percent
	BufferPercent        *fee.Percent
	EstimatedTotalWeight *float64
	DaysDuration         *int
	ActorID              string
}

// ProjectDetail is a project with its phases and payments.
type ProjectDetail struct {
	domain.Project
	Phases   []domain.Phase   `json:"phases"`
	Payments []domain.Payment `json:"payments"`
}

func (in ProjectInput) apply(p *domain.Project) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.TotalBudget != nil {
		p.TotalBudget = *in.TotalBudget
	}
	if in.SafetyNetPercent != nil {
		p.SafetyNetPercent = *in.SafetyNetPercent
	}
	if in.ManagementFeePercent != nil {
		p.ManagementFeePercent = *in.ManagementFeePercent
	}
	if in.DeploymentFee != nil {
		p.DeploymentFee = *in.DeploymentFee
	}
	if in.DPPercent != nil {
		p.DPPercent = in.DPPercent
	}
	if in.CompletionPercent != nil {
		p.CompletionPercent = in.CompletionPercent
	}
	if in.BufferPercent != nil {
		p.BufferPercent = in.BufferPercent
	}
	if in.EstimatedTotalWeight != nil {
		p.EstimatedTotalWeight = in.EstimatedTotalWeight
	}
	if in.DaysDuration != nil {
		p.DaysDuration = *in.DaysDuration
	}
}

func validateProject(p domain.Project) error {
	if blank(p.Name) {
		return InvalidArgument("project name is required")
	}
	if !oneOf(p.Status, projectStatuses...) {
		return InvalidArgument("project status %q is not one of %v", p.Status, projectStatuses)
	}
	if !p.TotalBudget.Valid() {
		return InvalidArgument("totalBudget must be a non-negative number")
	}
	if !p.DeploymentFee.Valid() {
		return InvalidArgument("deploymentFee must be a non-negative number")
	}
	for _, c := range []struct {
		name string
		pct  *fee.Percent
	}{
		{"safetyNetPercent", &p.SafetyNetPercent},
		{"managementFeePercent", &p.ManagementFeePercent},
		{"dpPercent", p.DPPercent},
		{"completionPercent", p.CompletionPercent},
		{"bufferPercent", p.BufferPercent},
	} {
		if c.pct != nil && !c.pct.Valid() {
			return InvalidArgument("%s must be between 0 and 100", c.name)
		}
	}
	if w := p.EstimatedTotalWeight; w != nil && (math.IsNaN(*w) || math.IsInf(*w, 0)) {
		return InvalidArgument("estimatedTotalWeight must be a finite number")
	}
	if p.DaysDuration < 1 {
		return InvalidArgument("daysDuration must be at least 1")
	}
	return nil
}

func (e Engine) CreateProject(ctx context.Context, in ProjectInput) (domain.Project, error) {
	d := e.Config.ProjectDefaults
	now := e.timestamp()
	dp, completion, buffer := d.DPPercent, d.CompletionPercent, d.BufferPercent
	p := domain.Project{
		ID:                   newID(),
		Status:               "active",
		SafetyNetPercent:     d.SafetyNetPercent,
		ManagementFeePercent: d.ManagementFeePercent,
		DeploymentFee:        d.DeploymentFee,
		DPPercent:            &dp,
		CompletionPercent:    &completion,
		BufferPercent:        &buffer,
		DaysDuration:         d.DaysDuration,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if d.EstimatedTotalWeight > 0 {
		w := d.EstimatedTotalWeight
		p.EstimatedTotalWeight = &w
	}
	in.apply(&p)
	if err := validateProject(p); err != nil {
		return domain.Project{}, err
	}
	err := e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		if err := r.InsertProject(ctx, p); err != nil {
			return Internal(err, "insert project")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.ProjectCreated, ProjectID: p.ID, EntityKind: "project", EntityID: p.ID, ActorID: in.ActorID,
			Payload: events.Payload{"name": p.Name, "totalBudget": p.TotalBudget},
		})
	})
	if err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

func (e Engine) UpdateProject(ctx context.Context, id string, in ProjectInput) (domain.Project, error) {
	var p domain.Project
	err := e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		var err error
		if p, err = r.GetProject(ctx, id); err != nil {
			return lookup(err, "project", id)
		}
		in.apply(&p)
		if err := validateProject(p); err != nil {
			return err
		}
		p.UpdatedAt = e.timestamp()
		if err := r.UpdateProject(ctx, p); err != nil {
			return Internal(err, "update project")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.ProjectUpdated, ProjectID: p.ID, EntityKind: "project", EntityID: p.ID, ActorID: in.ActorID,
			Payload: events.Payload{"status": p.Status, "totalBudget": p.TotalBudget},
		})
	})
	return p, err
}

// DeleteProject removes a project together with its phases, tasks and payments.
func (e Engine) DeleteProject(ctx context.Context, id, actorID string) error {
	return e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		p, err := r.GetProject(ctx, id)
		if err != nil {
			return lookup(err, "project", id)
		}
		if err := r.DeleteProject(ctx, id); err != nil {
			return Internal(err, "delete project")
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.ProjectDeleted, ProjectID: id, EntityKind: "project", EntityID: id, ActorID: actorID,
			Payload: events.Payload{"name": p.Name},
		})
	})
}

func (e Engine) GetProject(ctx context.Context, id string) (ProjectDetail, error) {
	if blank(id) {
		return ProjectDetail{}, InvalidArgument("projectId is required")
	}
	var d ProjectDetail
	err := e.read(ctx, func(r repo.Repo) error {
		p, err := r.GetProject(ctx, id)
		if err != nil {
			return lookup(err, "project", id)
		}
		d.Project = p
		if d.Phases, err = r.ListPhases(ctx, id); err != nil {
			return Internal(err, "list phases")
		}
		if d.Payments, err = r.ListPayments(ctx, repo.PaymentFilters{ProjectID: id}); err != nil {
			return Internal(err, "list payments")
		}
		return nil
	})
	return d, err
}

func (e Engine) ListProjects(ctx context.Context, status string) ([]domain.Project, error) {
	if status != "" && !oneOf(status, projectStatuses...) {
		return nil, InvalidArgument("project status %q is not one of %v", status, projectStatuses)
	}
	res, err := e.Repo.ListProjects(ctx, repo.ProjectFilters{Status: status})
	if err != nil {
		return nil, Internal(err, "list projects")
	}
	return res, nil
}
