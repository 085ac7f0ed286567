package server

import (
	"feeline/internal/engine"
	"feeline/internal/fee"
)

// Request payloads. Omitted fields keep their stored value on PATCH and take
// defaults on POST.

type ProjectRequest struct {
	Name                 *string      `json:"name,omitempty"`
	Description          *string      `json:"description,omitempty"`
	Status               *string      `json:"status,omitempty" enum:"active,completed,cancelled"`
	TotalBudget          *fee.Money   `json:"totalBudget,omitempty" minimum:"0"`
	SafetyNetPercent     *fee.Percent `json:"safetyNetPercent,omitempty" minimum:"0" maximum:"100"`
	ManagementFeePercent *fee.Percent `json:"managementFeePercent,omitempty" minimum:"0" maximum:"100"`
	DeploymentFee        *fee.Money   `json:"deploymentFee,omitempty" minimum:"0"`
	DPPercent            *fee.Percent `json:"dpPercent,omitempty" minimum:"0" maximum:"100"`
	CompletionPercent    *fee.Percent `json:"completionPercent,omitempty" minimum:"0" maximum:"100"`
	BufferPercent        *fee.Percent `json:"bufferPercent,omitempty" minimum:"0" maximum:"100"`
	EstimatedTotalWeight *float64     `json:"estimatedTotalWeight,omitempty"`
	DaysDuration         *int         `json:"daysDuration,omitempty" minimum:"1"`
}

func (r ProjectRequest) input(actorID string) engine.ProjectInput {
	return engine.ProjectInput{
		Name:                 r.Name,
		Description:          r.Description,
		Status:               r.Status,
		TotalBudget:          r.TotalBudget,
		SafetyNetPercent:     r.SafetyNetPercent,
		ManagementFeePercent: r.ManagementFeePercent,
		DeploymentFee:        r.DeploymentFee,
		DPPercent:            r.DPPercent,
		CompletionPercent:    r.CompletionPercent,
		BufferPercent:        r.BufferPercent,
		EstimatedTotalWeight: r.EstimatedTotalWeight,
		DaysDuration:         r.DaysDuration,
		ActorID:              actorID,
	}
}

type PhaseRequest struct {
	ProjectID   string  `json:"projectId,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	DayStart    *int    `json:"dayStart,omitempty" minimum:"1"`
	DayEnd      *int    `json:"dayEnd,omitempty" minimum:"1"`
	SortOrder   *int    `json:"sortOrder,omitempty"`
}

func (r PhaseRequest) input(actorID string) engine.PhaseInput {
	return engine.PhaseInput{
		ProjectID:   r.ProjectID,
		Name:        r.Name,
		Description: r.Description,
		DayStart:    r.DayStart,
		DayEnd:      r.DayEnd,
		SortOrder:   r.SortOrder,
		ActorID:     actorID,
	}
}

type DeveloperRequest struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Role       *string `json:"role,omitempty"`
	SkillFocus *string `json:"skillFocus,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}

func (r DeveloperRequest) input(actorID string) engine.DeveloperInput {
	return engine.DeveloperInput{
		Name:       r.Name,
		Email:      r.Email,
		Role:       r.Role,
		SkillFocus: r.SkillFocus,
		IsActive:   r.IsActive,
		ActorID:    actorID,
	}
}

// TaskRequest carries the five scoring inputs; calculatedWeight is derived and
// cannot be written.
type TaskRequest struct {
	PhaseID        *string  `json:"phaseId,omitempty"`
	DeveloperID    *string  `json:"developerId,omitempty" doc:"Empty string unassigns the task"`
	Name           *string  `json:"name,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Category       *string  `json:"category,omitempty"`
	EstimatedHours *float64 `json:"estimatedHours,omitempty" minimum:"0"`
	Complexity     *int     `json:"complexity,omitempty" minimum:"1" maximum:"5"`
	Time           *int     `json:"time,omitempty" minimum:"1" maximum:"5"`
	Risk           *int     `json:"risk,omitempty" minimum:"1" maximum:"5"`
	Dependency     *int     `json:"dependency,omitempty" minimum:"1" maximum:"5"`
	Skill          *int     `json:"skill,omitempty" minimum:"1" maximum:"5"`
	Status         *string  `json:"status,omitempty" enum:"pending,in_progress,completed"`
	Priority       *string  `json:"priority,omitempty" enum:"low,medium,high"`
	StartDate      *string  `json:"startDate,omitempty"`
	EndDate        *string  `json:"endDate,omitempty"`
}

func (r TaskRequest) input(actorID string) engine.TaskInput {
	return engine.TaskInput{
		PhaseID:        r.PhaseID,
		DeveloperID:    r.DeveloperID,
		Name:           r.Name,
		Description:    r.Description,
		Category:       r.Category,
		EstimatedHours: r.EstimatedHours,
		Complexity:     r.Complexity,
		Time:           r.Time,
		Risk:           r.Risk,
		Dependency:     r.Dependency,
		Skill:          r.Skill,
		Status:         r.Status,
		Priority:       r.Priority,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		ActorID:        actorID,
	}
}

type PaymentRequest struct {
	ProjectID   string       `json:"projectId,omitempty"`
	DeveloperID *string      `json:"developerId,omitempty"`
	Type        *string      `json:"type,omitempty" enum:"DP,COMPLETION,BUFFER,MANAGEMENT,DEPLOYMENT"`
	Amount      *fee.Money   `json:"amount,omitempty" minimum:"0"`
	Percentage  *fee.Percent `json:"percentage,omitempty" minimum:"0" maximum:"100"`
	Description *string      `json:"description,omitempty"`
	IsPaid      *bool        `json:"isPaid,omitempty"`
}

func (r PaymentRequest) input(actorID string) engine.PaymentInput {
	return engine.PaymentInput{
		ProjectID:   r.ProjectID,
		DeveloperID: r.DeveloperID,
		Type:        r.Type,
		Amount:      r.Amount,
		Percentage:  r.Percentage,
		Description: r.Description,
		IsPaid:      r.IsPaid,
		ActorID:     actorID,
	}
}

type IssuePaymentsRequest struct {
	Types          []string `json:"types,omitempty" doc:"Payment types to issue; all when empty"`
	ManagementBase string   `json:"managementBase,omitempty" enum:"net,gross"`
	Denominator    string   `json:"denominator,omitempty" enum:"realized,estimated"`
}

// Response payloads

type ListResponse[T any] struct {
	Items []T `json:"items"`
}

func listOf[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items}
}
