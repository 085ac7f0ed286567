package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"feeline/internal/app"
	"feeline/internal/engine"
	"feeline/internal/fee"
)

func projectCmd() *cobra.Command {
	prj := &cobra.Command{Use: "project", Short: "Manage projects"}
	prj.AddCommand(projectCreateCmd())
	prj.AddCommand(projectListCmd())
	prj.AddCommand(projectShowCmd())
	prj.AddCommand(projectUpdateCmd())
	prj.AddCommand(projectDeleteCmd())
	return prj
}

type projectFlags struct {
	name, description, status         string
	budget, deployment                float64
	safetyNet, management             float64
	dp, completion, buffer, estimated float64
	days                              int
}

func (f *projectFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "project name")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.status, "status", "", "status (active, completed, cancelled)")
	cmd.Flags().Float64Var(&f.budget, "budget", 0, "total budget")
	cmd.Flags().Float64Var(&f.safetyNet, "safety-net", 0, "safety net percent")
	cmd.Flags().Float64Var(&f.management, "management-fee", 0, "management fee percent")
	cmd.Flags().Float64Var(&f.deployment, "deployment-fee", 0, "fixed deployment fee")
	cmd.Flags().Float64Var(&f.dp, "dp", 0, "down payment tranche percent")
	cmd.Flags().Float64Var(&f.completion, "completion", 0, "completion tranche percent")
	cmd.Flags().Float64Var(&f.buffer, "buffer", 0, "buffer tranche percent")
	cmd.Flags().Float64Var(&f.estimated, "estimated-weight", 0, "estimated total weight baseline")
	cmd.Flags().IntVar(&f.days, "days", 0, "duration in days")
}

func (f *projectFlags) input(cmd *cobra.Command) engine.ProjectInput {
	return engine.ProjectInput{
		Name:                 ifChanged(cmd, "name", f.name),
		Description:          ifChanged(cmd, "description", f.description),
		Status:               ifChanged(cmd, "status", f.status),
		TotalBudget:          ifChanged(cmd, "budget", fee.Money(f.budget)),
		SafetyNetPercent:     ifChanged(cmd, "safety-net", fee.Percent(f.safetyNet)),
		ManagementFeePercent: ifChanged(cmd, "management-fee", fee.Percent(f.management)),
		DeploymentFee:        ifChanged(cmd, "deployment-fee", fee.Money(f.deployment)),
		DPPercent:            ifChanged(cmd, "dp", fee.Percent(f.dp)),
		CompletionPercent:    ifChanged(cmd, "completion", fee.Percent(f.completion)),
		BufferPercent:        ifChanged(cmd, "buffer", fee.Percent(f.buffer)),
		EstimatedTotalWeight: ifChanged(cmd, "estimated-weight", f.estimated),
		DaysDuration:         ifChanged(cmd, "days", f.days),
		ActorID:              actorID(),
	}
}

func projectCreateCmd() *cobra.Command {
	var f projectFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				p, err := ws.Engine.CreateProject(ctx, f.input(cmd))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	f.bind(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func projectListCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				items, err := ws.Engine.ListProjects(ctx, status)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(os.Stdout, "ID", "Name", "Status", "Budget", "Days")
				for _, p := range items {
					tw.AppendRow([]any{p.ID, p.Name, p.Status, money(p.TotalBudget), p.DaysDuration})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	return cmd
}

func projectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project with its phases and payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				d, err := ws.Engine.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
}

func projectUpdateCmd() *cobra.Command {
	var f projectFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				p, err := ws.Engine.UpdateProject(ctx, args[0], f.input(cmd))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project with its phases, tasks and payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				if err := ws.Engine.DeleteProject(ctx, args[0], actorID()); err != nil {
					return err
				}
				fmt.Printf("deleted project %s\n", args[0])
				return nil
			})
		},
	}
}
