package domain

import "feeline/internal/fee"

type Project struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	Description          string       `json:"description,omitempty"`
	Status               string       `json:"status" enum:"active,completed,cancelled"`
	TotalBudget          fee.Money    `json:"totalBudget"`
	SafetyNetPercent     fee.Percent  `json:"safetyNetPercent"`
	ManagementFeePercent fee.Percent  `json:"managementFeePercent"`
	DeploymentFee        fee.Money    `json:"deploymentFee"`
	DPPercent            *fee.Percent `json:"dpPercent,omitempty"`
	CompletionPercent    *fee.Percent `json:"completionPercent,omitempty"`
	BufferPercent        *fee.Percent `json:"bufferPercent,omitempty"`
	EstimatedTotalWeight *float64     `json:"estimatedTotalWeight,omitempty"`
	DaysDuration         int          `json:"daysDuration"`
	CreatedAt            string       `json:"createdAt" format:"date-time"`
	UpdatedAt            string       `json:"updatedAt" format:"date-time"`
}

// Terms extracts the financial configuration used by the fee distributor.
func (p Project) Terms() fee.Terms {
	return fee.Terms{
		TotalBudget:          p.TotalBudget,
		SafetyNetPercent:     p.SafetyNetPercent,
		ManagementFeePercent: p.ManagementFeePercent,
		DeploymentFee:        p.DeploymentFee,
		DPPercent:            p.DPPercent,
		CompletionPercent:    p.CompletionPercent,
		BufferPercent:        p.BufferPercent,
		EstimatedTotalWeight: p.EstimatedTotalWeight,
	}
}

type Phase struct {
	ID          string `json:"id"`
	ProjectID   string `json:"projectId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DayStart    int    `json:"dayStart"`
	DayEnd      int    `json:"dayEnd"`
	SortOrder   int    `json:"sortOrder"`
	CreatedAt   string `json:"createdAt" format:"date-time"`
	UpdatedAt   string `json:"updatedAt" format:"date-time"`
}

type Developer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	SkillFocus string `json:"skillFocus,omitempty"`
	IsActive   bool   `json:"isActive"`
	CreatedAt  string `json:"createdAt" format:"date-time"`
	UpdatedAt  string `json:"updatedAt" format:"date-time"`
}

type Task struct {
	ID               string     `json:"id"`
	PhaseID          string     `json:"phaseId"`
	DeveloperID      *string    `json:"developerId,omitempty"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	Category         string     `json:"category"`
	EstimatedHours   *float64   `json:"estimatedHours,omitempty"`
	Scores           fee.Scores `json:"scores"`
	CalculatedWeight float64    `json:"calculatedWeight"`
	Status           string     `json:"status" enum:"pending,in_progress,completed"`
	Priority         string     `json:"priority" enum:"low,medium,high"`
	StartDate        *string    `json:"startDate,omitempty"`
	EndDate          *string    `json:"endDate,omitempty"`
	CreatedAt        string     `json:"createdAt" format:"date-time"`
	UpdatedAt        string     `json:"updatedAt" format:"date-time"`

	// Joined for listings; not stored on the task row.
	ProjectID     string `json:"projectId,omitempty"`
	PhaseName     string `json:"phaseName,omitempty"`
	DeveloperName string `json:"developerName,omitempty"`
}

// Payment tranche types.
const (
	PaymentDP         = "DP"
	PaymentCompletion = "COMPLETION"
	PaymentBuffer     = "BUFFER"
	PaymentManagement = "MANAGEMENT"
	PaymentDeployment = "DEPLOYMENT"
)

// PaymentTypes lists every accepted payment type.
var PaymentTypes = []string{PaymentDP, PaymentCompletion, PaymentBuffer, PaymentManagement, PaymentDeployment}

type Payment struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"projectId"`
	DeveloperID *string      `json:"developerId,omitempty"`
	Type        string       `json:"type" enum:"DP,COMPLETION,BUFFER,MANAGEMENT,DEPLOYMENT"`
	Amount      fee.Money    `json:"amount"`
	Percentage  *fee.Percent `json:"percentage,omitempty"`
	Description string       `json:"description,omitempty"`
	IsPaid      bool         `json:"isPaid"`
	PaidAt      *string      `json:"paidAt,omitempty" format:"date-time"`
	CreatedAt   string       `json:"createdAt" format:"date-time"`
	UpdatedAt   string       `json:"updatedAt" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"projectId,omitempty"`
	EntityKind string `json:"entityKind"`
	EntityID   string `json:"entityId,omitempty"`
	ActorID    string `json:"actorId"`
	Payload    string `json:"payloadJson"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actorId"`
	Role      string `json:"role"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"keyHash"`
	CreatedAt string `json:"createdAt" format:"date-time"`
}
