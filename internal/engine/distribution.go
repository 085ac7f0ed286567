package engine

import (
	"context"
	"database/sql"
	"fmt"

	"feeline/internal/domain"
	"feeline/internal/events"
	"feeline/internal/fee"
	"feeline/internal/repo"
)

// ProjectTerms is the project summary echoed in a fee report, with tranche
// and baseline defaults resolved.
type ProjectTerms struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	TotalBudget          fee.Money   `json:"totalBudget"`
	DPPercent            fee.Percent `json:"dpPercent"`
	CompletionPercent    fee.Percent `json:"completionPercent"`
	BufferPercent        fee.Percent `json:"bufferPercent"`
	SafetyNetPercent     fee.Percent `json:"safetyNetPercent"`
	ManagementFeePercent fee.Percent `json:"managementFeePercent"`
	DeploymentFee        fee.Money   `json:"deploymentFee"`
	EstimatedTotalWeight float64     `json:"estimatedTotalWeight"`
}

// FeeReport is the fee distribution of one project.
type FeeReport struct {
	Project ProjectTerms `json:"project"`
	fee.Distribution
}

func projectTerms(p domain.Project) ProjectTerms {
	t := p.Terms()
	tr := t.Tranches()
	return ProjectTerms{
		ID:                   p.ID,
		Name:                 p.Name,
		TotalBudget:          p.TotalBudget,
		DPPercent:            tr.DP,
		CompletionPercent:    tr.Completion,
		BufferPercent:        tr.Buffer,
		SafetyNetPercent:     p.SafetyNetPercent,
		ManagementFeePercent: p.ManagementFeePercent,
		DeploymentFee:        p.DeploymentFee,
		EstimatedTotalWeight: t.Estimate(),
	}
}

func contributions(tasks []domain.Task) []fee.Contribution {
	out := make([]fee.Contribution, 0, len(tasks))
	for _, t := range tasks {
		c := fee.Contribution{Weight: t.CalculatedWeight}
		if t.DeveloperID != nil {
			c.DeveloperID = *t.DeveloperID
			c.DeveloperName = t.DeveloperName
		}
		out = append(out, c)
	}
	return out
}

// policy resolves the distribution policy from workspace defaults and the
// per-call overrides.
func (e Engine) policy(managementBase, denominator string) (fee.Policy, error) {
	p, err := e.Config.Distribution.Override(managementBase, denominator)
	if err != nil {
		return fee.Policy{}, InvalidArgument("%v", err)
	}
	return p, nil
}

func (e Engine) report(ctx context.Context, r repo.Repo, projectID string, p fee.Policy) (FeeReport, error) {
	project, err := r.GetProject(ctx, projectID)
	if err != nil {
		return FeeReport{}, lookup(err, "project", projectID)
	}
	tasks, err := r.ListTasks(ctx, repo.TaskFilters{ProjectID: projectID})
	if err != nil {
		return FeeReport{}, Internal(err, "list tasks")
	}
	return FeeReport{
		Project:      projectTerms(project),
		Distribution: fee.Distribute(project.Terms(), p, contributions(tasks)),
	}, nil
}

// FeeDistribution computes a project's fee distribution. Empty policy
// arguments take the workspace defaults. It never writes.
func (e Engine) FeeDistribution(ctx context.Context, projectID, managementBase, denominator string) (FeeReport, error) {
	if blank(projectID) {
		return FeeReport{}, InvalidArgument("projectId is required")
	}
	p, err := e.policy(managementBase, denominator)
	if err != nil {
		return FeeReport{}, err
	}
	var out FeeReport
	err = e.read(ctx, func(r repo.Repo) error {
		out, err = e.report(ctx, r, projectID, p)
		return err
	})
	return out, err
}

// PlanPayments lists the payments a report implies: three tranches per
// developer followed by the management and deployment fees.
func PlanPayments(rep FeeReport) []domain.Payment {
	var plan []domain.Payment
	add := func(devID, typ string, amount fee.Money, pct *fee.Percent, desc string) {
		p := domain.Payment{ProjectID: rep.Project.ID, Type: typ, Amount: amount, Percentage: pct, Description: desc}
		if devID != "" {
			id := devID
			p.DeveloperID = &id
		}
		plan = append(plan, p)
	}
	tr := rep.Tranches
	for _, a := range rep.Developers {
		dp, completion, buffer := tr.DP, tr.Completion, tr.Buffer
		add(a.DeveloperID, domain.PaymentDP, a.DPAmount, &dp, fmt.Sprintf("DP for %s", a.DeveloperName))
		add(a.DeveloperID, domain.PaymentCompletion, a.CompletionAmount, &completion, fmt.Sprintf("Completion for %s", a.DeveloperName))
		add(a.DeveloperID, domain.PaymentBuffer, a.BufferAmount, &buffer, fmt.Sprintf("Buffer for %s", a.DeveloperName))
	}
	mgmt := rep.Project.ManagementFeePercent
	add("", domain.PaymentManagement, rep.Breakdown.ManagementFeeAmount, &mgmt, "Management fee")
	add("", domain.PaymentDeployment, rep.Breakdown.DeploymentFeeAmount, nil, "Deployment fee")
	return plan
}

type IssueInput struct {
	ProjectID      string
	Types          []string
	ManagementBase string
	Denominator    string
	ActorID        string
}

// IssuePayments records the planned payments of the requested types. Zero
// amounts are skipped, as are (type, developer) pairs the project already has
// a payment for, so issuing twice records nothing new.
func (e Engine) IssuePayments(ctx context.Context, in IssueInput) ([]domain.Payment, error) {
	if blank(in.ProjectID) {
		return nil, InvalidArgument("projectId is required")
	}
	types := in.Types
	if len(types) == 0 {
		types = domain.PaymentTypes
	}
	for _, t := range types {
		if !oneOf(t, domain.PaymentTypes...) {
			return nil, InvalidArgument("payment type %q is not one of %v", t, domain.PaymentTypes)
		}
	}
	p, err := e.policy(in.ManagementBase, in.Denominator)
	if err != nil {
		return nil, err
	}
	issued := []domain.Payment{}
	err = e.write(ctx, func(tx *sql.Tx, r repo.Repo) error {
		rep, err := e.report(ctx, r, in.ProjectID, p)
		if err != nil {
			return err
		}
		existing, err := r.ListPayments(ctx, repo.PaymentFilters{ProjectID: in.ProjectID})
		if err != nil {
			return Internal(err, "list payments")
		}
		seen := map[string]bool{}
		for _, ex := range existing {
			seen[paymentKey(ex)] = true
		}
		now := e.timestamp()
		for _, pay := range PlanPayments(rep) {
			if !oneOf(pay.Type, types...) || pay.Amount <= 0 || seen[paymentKey(pay)] {
				continue
			}
			pay.ID = newID()
			pay.CreatedAt, pay.UpdatedAt = now, now
			if err := r.InsertPayment(ctx, pay); err != nil {
				return Internal(err, "insert payment")
			}
			issued = append(issued, pay)
		}
		if len(issued) == 0 {
			return nil
		}
		return e.append(ctx, tx, events.Entry{
			Type: events.PaymentsIssued, ProjectID: in.ProjectID, EntityKind: "project", EntityID: in.ProjectID, ActorID: in.ActorID,
			Payload: events.Payload{"types": types, "count": len(issued), "policy": p},
		})
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

func paymentKey(p domain.Payment) string {
	dev := ""
	if p.DeveloperID != nil {
		dev = *p.DeveloperID
	}
	return p.Type + "|" + dev
}
