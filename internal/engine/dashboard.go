package engine

import (
	"context"

	"feeline/internal/domain"
	"feeline/internal/fee"
	"feeline/internal/repo"
)

type Summary struct {
	TotalProjects      int              `json:"totalProjects"`
	ActiveProjects     int              `json:"activeProjects"`
	CompletedProjects  int              `json:"completedProjects"`
	TotalBudget        fee.Money        `json:"totalBudget"`
	TotalPaid          fee.Money        `json:"totalPaid"`
	OutstandingPayment fee.Money        `json:"outstandingPayments"`
	TotalDevelopers    int              `json:"totalDevelopers"`
	ActiveDevelopers   int              `json:"activeDevelopers"`
	TotalTasks         int              `json:"totalTasks"`
	CompletedTasks     int              `json:"completedTasks"`
	InProgressTasks    int              `json:"inProgressTasks"`
	PendingTasks       int              `json:"pendingTasks"`
	CompletionRate     fee.Percent      `json:"taskCompletionRate"`
	TotalWeight        float64          `json:"totalWeight"`
	CompletedWeight    float64          `json:"completedWeight"`
	RecentProjects     []domain.Project `json:"recentProjects"`
}

func completionRate(done, total int) fee.Percent {
	if total == 0 {
		return 0
	}
	return fee.RoundPercent(fee.Percent(float64(done) / float64(total) * 100))
}

// DashboardSummary aggregates counts and money across the workspace.
func (e Engine) DashboardSummary(ctx context.Context) (Summary, error) {
	var s Summary
	err := e.read(ctx, func(r repo.Repo) error {
		t, err := r.Totals(ctx)
		if err != nil {
			return Internal(err, "totals")
		}
		recent, err := r.ListProjects(ctx, repo.ProjectFilters{Limit: 5})
		if err != nil {
			return Internal(err, "recent projects")
		}
		s = Summary{
			TotalProjects:      t.Projects,
			ActiveProjects:     t.ActiveProjects,
			CompletedProjects:  t.CompletedProjects,
			TotalBudget:        fee.RoundMoney(fee.Money(t.TotalBudget)),
			TotalPaid:          fee.RoundMoney(fee.Money(t.TotalPaid)),
			OutstandingPayment: fee.RoundMoney(fee.Money(t.TotalBudget - t.TotalPaid)),
			TotalDevelopers:    t.Developers,
			ActiveDevelopers:   t.ActiveDevelopers,
			TotalTasks:         t.Tasks,
			CompletedTasks:     t.CompletedTasks,
			InProgressTasks:    t.InProgressTasks,
			PendingTasks:       t.PendingTasks,
			CompletionRate:     completionRate(t.CompletedTasks, t.Tasks),
			TotalWeight:        fee.RoundWeight(t.TotalWeight),
			CompletedWeight:    fee.RoundWeight(t.CompletedWeight),
			RecentProjects:     recent,
		}
		if s.RecentProjects == nil {
			s.RecentProjects = []domain.Project{}
		}
		return nil
	})
	return s, err
}

// ProjectEarning is one developer's expected and earned fee on one project.
type ProjectEarning struct {
	ProjectID       string    `json:"projectId"`
	ProjectName     string    `json:"projectName"`
	TaskCount       int       `json:"taskCount"`
	CompletedCount  int       `json:"completedCount"`
	TotalWeight     float64   `json:"totalWeight"`
	CompletedWeight float64   `json:"completedWeight"`
	FeePerPoint     fee.Money `json:"feePerPoint"`
	EstimatedFee    fee.Money `json:"estimatedFee"`
	CompletedFee    fee.Money `json:"completedFee"`
}

type Earnings struct {
	Developer       domain.Developer `json:"developer"`
	TotalTasks      int              `json:"totalTasks"`
	CompletedTasks  int              `json:"completedTasks"`
	InProgressTasks int              `json:"inProgressTasks"`
	PendingTasks    int              `json:"pendingTasks"`
	TotalWeight     float64          `json:"totalWeight"`
	CompletedWeight float64          `json:"completedWeight"`
	CompletionRate  fee.Percent      `json:"completionRate"`
	Projects        []ProjectEarning `json:"projects"`
}

// DeveloperEarnings reports a developer's work and fees per project. Fees come
// from the same distribution as FeeDistribution under the workspace policy.
func (e Engine) DeveloperEarnings(ctx context.Context, developerID string) (Earnings, error) {
	if blank(developerID) {
		return Earnings{}, InvalidArgument("developerId is required")
	}
	p := e.Config.Distribution
	out := Earnings{Projects: []ProjectEarning{}}
	err := e.read(ctx, func(r repo.Repo) error {
		dev, err := r.GetDeveloper(ctx, developerID)
		if err != nil {
			return lookup(err, "developer", developerID)
		}
		out.Developer = dev
		tasks, err := r.ListTasks(ctx, repo.TaskFilters{DeveloperID: developerID})
		if err != nil {
			return Internal(err, "list tasks")
		}
		index := map[string]int{}
		for _, t := range tasks {
			out.TotalTasks++
			out.TotalWeight += t.CalculatedWeight
			switch t.Status {
			case "completed":
				out.CompletedTasks++
				out.CompletedWeight += t.CalculatedWeight
			case "in_progress":
				out.InProgressTasks++
			default:
				out.PendingTasks++
			}
			i, ok := index[t.ProjectID]
			if !ok {
				i = len(out.Projects)
				index[t.ProjectID] = i
				out.Projects = append(out.Projects, ProjectEarning{ProjectID: t.ProjectID})
			}
			pe := &out.Projects[i]
			pe.TaskCount++
			pe.TotalWeight += t.CalculatedWeight
			if t.Status == "completed" {
				pe.CompletedCount++
				pe.CompletedWeight += t.CalculatedWeight
			}
		}
		for i := range out.Projects {
			pe := &out.Projects[i]
			rep, err := e.report(ctx, r, pe.ProjectID, p)
			if err != nil {
				return err
			}
			pe.ProjectName = rep.Project.Name
			pe.FeePerPoint = rep.Breakdown.FeePerPoint
			for _, a := range rep.Developers {
				if a.DeveloperID == developerID {
					pe.EstimatedFee = a.BaseFee
				}
			}
			pe.CompletedFee = rep.FeeFor(pe.CompletedWeight)
			pe.TotalWeight = fee.RoundWeight(pe.TotalWeight)
			pe.CompletedWeight = fee.RoundWeight(pe.CompletedWeight)
		}
		return nil
	})
	if err != nil {
		return Earnings{}, err
	}
	out.CompletionRate = completionRate(out.CompletedTasks, out.TotalTasks)
	out.TotalWeight = fee.RoundWeight(out.TotalWeight)
	out.CompletedWeight = fee.RoundWeight(out.CompletedWeight)
	return out, nil
}

// RecentEvents returns the newest audit events, optionally for one project.
func (e Engine) RecentEvents(ctx context.Context, projectID string, limit int) ([]domain.Event, error) {
	res, err := e.Repo.LatestEvents(ctx, projectID, limit)
	if err != nil {
		return nil, Internal(err, "list events")
	}
	if res == nil {
		res = []domain.Event{}
	}
	return res, nil
}
