package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"feeline/internal/app"
	"feeline/internal/engine"
	"feeline/internal/fee"
	"feeline/internal/repo"
)

func paymentCmd() *cobra.Command {
	pay := &cobra.Command{Use: "payment", Short: "Manage payments"}
	pay.AddCommand(paymentAddCmd())
	pay.AddCommand(paymentListCmd())
	pay.AddCommand(paymentPayCmd(true))
	pay.AddCommand(paymentPayCmd(false))
	pay.AddCommand(paymentDeleteCmd())
	pay.AddCommand(paymentIssueCmd())
	return pay
}

func paymentAddCmd() *cobra.Command {
	var project, developer, typ, description string
	var amount, pct float64
	var paid bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			typ = strings.ToUpper(strings.TrimSpace(typ))
			in := engine.PaymentInput{
				ProjectID:   project,
				DeveloperID: ifChanged(cmd, "developer", developer),
				Type:        &typ,
				Amount:      ifChanged(cmd, "amount", fee.Money(amount)),
				Percentage:  ifChanged(cmd, "percentage", fee.Percent(pct)),
				Description: ifChanged(cmd, "description", description),
				IsPaid:      ifChanged(cmd, "paid", paid),
				ActorID:     actorID(),
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				p, err := ws.Engine.CreatePayment(ctx, in)
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project id")
	cmd.Flags().StringVar(&developer, "developer", "", "developer id")
	cmd.Flags().StringVar(&typ, "type", "", "payment type (DP, COMPLETION, BUFFER, MANAGEMENT, DEPLOYMENT)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount")
	cmd.Flags().Float64Var(&pct, "percentage", 0, "tranche percentage")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().BoolVar(&paid, "paid", false, "already paid")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func paymentListCmd() *cobra.Command {
	var f repo.PaymentFilters
	var paid, unpaid bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case paid && unpaid:
				return fmt.Errorf("--paid and --unpaid are exclusive")
			case paid:
				f.Paid = &paid
			case unpaid:
				f.Paid = new(bool)
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				items, err := ws.Engine.ListPayments(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(os.Stdout, "ID", "Type", "Developer", "Amount", "Paid", "Paid At")
				for _, p := range items {
					tw.AppendRow([]any{p.ID, p.Type, deref(p.DeveloperID), money(p.Amount), p.IsPaid, deref(p.PaidAt)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project filter")
	cmd.Flags().StringVar(&f.DeveloperID, "developer", "", "developer filter")
	cmd.Flags().StringVar(&f.Type, "type", "", "type filter")
	cmd.Flags().BoolVar(&paid, "paid", false, "only paid")
	cmd.Flags().BoolVar(&unpaid, "unpaid", false, "only unpaid")
	return cmd
}

func paymentPayCmd(paid bool) *cobra.Command {
	use, short := "pay <id>", "Mark a payment paid"
	if !paid {
		use, short = "unpay <id>", "Mark a payment unpaid"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				p, err := ws.Engine.UpdatePayment(ctx, args[0], engine.PaymentInput{IsPaid: &paid, ActorID: actorID()})
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
}

func paymentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				return ws.Engine.DeletePayment(ctx, args[0], actorID())
			})
		},
	}
}

func paymentIssueCmd() *cobra.Command {
	var in engine.IssueInput
	cmd := &cobra.Command{
		Use:   "issue <project-id>",
		Short: "Record the payments implied by the fee distribution",
		Long:  "Creates DP, COMPLETION and BUFFER payments per developer plus MANAGEMENT and DEPLOYMENT payments. Tranches the project already has are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ProjectID = args[0]
			in.Types = upper(in.Types)
			in.ActorID = actorID()
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				issued, err := ws.Engine.IssuePayments(ctx, in)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(issued)
				}
				fmt.Printf("issued %d payments\n", len(issued))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&in.Types, "type", nil, "payment types to issue (repeatable; all when omitted)")
	cmd.Flags().StringVar(&in.ManagementBase, "management-base", "", "net or gross")
	cmd.Flags().StringVar(&in.Denominator, "denominator", "", "realized or estimated")
	return cmd
}

func feeCmd() *cobra.Command {
	f := &cobra.Command{Use: "fee", Short: "Fee distribution reports"}
	f.AddCommand(feeShowCmd())
	return f
}

func feeShowCmd() *cobra.Command {
	var managementBase, denominator string
	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project's fee distribution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				rep, err := ws.Engine.FeeDistribution(ctx, args[0], managementBase, denominator)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(rep)
				}
				printFeeReport(rep)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&managementBase, "management-base", "", "net or gross (defaults to config)")
	cmd.Flags().StringVar(&denominator, "denominator", "", "realized or estimated (defaults to config)")
	return cmd
}

func printFeeReport(rep engine.FeeReport) {
	b := rep.Breakdown
	fmt.Printf("%s  (management base %s, denominator %s)\n", rep.Project.Name, rep.Policy.ManagementBase, rep.Policy.Denominator)
	bt := newTable(os.Stdout, "Budget", "Safety net", "Management", "Deployment", "Team pool", "Fee/point")
	bt.AppendRow([]any{money(b.TotalBudget), money(b.SafetyNetAmount), money(b.ManagementFeeAmount), money(b.DeploymentFeeAmount), money(b.TeamFeePool), money(b.FeePerPoint)})
	bt.Render()

	dt := newTable(os.Stdout, "Developer", "Tasks", "Weight", "Share", "Fee", "DP", "Completion", "Buffer")
	for _, a := range rep.Developers {
		dt.AppendRow([]any{a.DeveloperName, a.TaskCount, a.TotalWeight, percent(a.Percentage), money(a.BaseFee), money(a.DPAmount), money(a.CompletionAmount), money(a.BufferAmount)})
	}
	if rep.Unassigned.TaskCount > 0 {
		dt.AppendRow([]any{"(unassigned)", rep.Unassigned.TaskCount, rep.Unassigned.TotalWeight, percent(rep.Unassigned.Percentage), "", "", "", ""})
	}
	dt.AppendFooter([]any{"total", "", rep.TotalWeight, "", money(rep.AllocatedTotal), "", "", ""})
	dt.Render()
	if rep.UnallocatedAmount != 0 {
		fmt.Printf("unallocated: %s\n", money(rep.UnallocatedAmount))
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show workspace totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				s, err := ws.Engine.DashboardSummary(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				tw := newTable(os.Stdout, "Metric", "Value")
				tw.AppendRows([]table.Row{
					{"projects", fmt.Sprintf("%d (%d active, %d completed)", s.TotalProjects, s.ActiveProjects, s.CompletedProjects)},
					{"developers", fmt.Sprintf("%d (%d active)", s.TotalDevelopers, s.ActiveDevelopers)},
					{"tasks", fmt.Sprintf("%d (%d pending, %d in progress, %d completed)", s.TotalTasks, s.PendingTasks, s.InProgressTasks, s.CompletedTasks)},
					{"completion", percent(s.CompletionRate)},
					{"weight", fmt.Sprintf("%g of %g", s.CompletedWeight, s.TotalWeight)},
					{"budget", money(s.TotalBudget)},
					{"paid", money(s.TotalPaid)},
					{"outstanding", money(s.OutstandingPayment)},
				})
				tw.Render()
				return nil
			})
		},
	}
}

func earningsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "earnings <developer-id>",
		Short: "Show a developer's work and fees per project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				earn, err := ws.Engine.DeveloperEarnings(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(earn)
				}
				fmt.Printf("%s: %d tasks, %s complete\n", earn.Developer.Name, earn.TotalTasks, percent(earn.CompletionRate))
				tw := newTable(os.Stdout, "Project", "Tasks", "Weight", "Fee/point", "Estimated", "Earned")
				for _, p := range earn.Projects {
					tw.AppendRow([]any{p.ProjectName, fmt.Sprintf("%d/%d", p.CompletedCount, p.TaskCount), fmt.Sprintf("%g/%g", p.CompletedWeight, p.TotalWeight), money(p.FeePerPoint), money(p.EstimatedFee), money(p.CompletedFee)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func upper(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		out = append(out, strings.ToUpper(strings.TrimSpace(s)))
	}
	return out
}
