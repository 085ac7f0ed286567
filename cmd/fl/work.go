package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"feeline/internal/app"
	"feeline/internal/engine"
	"feeline/internal/repo"
)

func phaseCmd() *cobra.Command {
	ph := &cobra.Command{Use: "phase", Short: "Manage project phases"}
	ph.AddCommand(phaseAddCmd())
	ph.AddCommand(phaseListCmd())
	ph.AddCommand(phaseUpdateCmd())
	ph.AddCommand(phaseDeleteCmd())
	return ph
}

type phaseFlags struct {
	project, name, description string
	start, end, order          int
}

func (f *phaseFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "phase name")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().IntVar(&f.start, "day-start", 1, "first day")
	cmd.Flags().IntVar(&f.end, "day-end", 1, "last day")
	cmd.Flags().IntVar(&f.order, "order", 0, "sort order")
}

func (f *phaseFlags) input(cmd *cobra.Command) engine.PhaseInput {
	return engine.PhaseInput{
		ProjectID:   f.project,
		Name:        ifChanged(cmd, "name", f.name),
		Description: ifChanged(cmd, "description", f.description),
		DayStart:    ifChanged(cmd, "day-start", f.start),
		DayEnd:      ifChanged(cmd, "day-end", f.end),
		SortOrder:   ifChanged(cmd, "order", f.order),
		ActorID:     actorID(),
	}
}

func phaseAddCmd() *cobra.Command {
	var f phaseFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a phase to a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				ph, err := ws.Engine.CreatePhase(ctx, f.input(cmd))
				if err != nil {
					return err
				}
				return printJSONOrTable(ph)
			})
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&f.project, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func phaseListCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List phases in schedule order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				items, err := ws.Engine.ListPhases(ctx, project)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(os.Stdout, "ID", "Name", "Days", "Order")
				for _, ph := range items {
					tw.AppendRow([]any{ph.ID, ph.Name, fmt.Sprintf("%d-%d", ph.DayStart, ph.DayEnd), ph.SortOrder})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func phaseUpdateCmd() *cobra.Command {
	var f phaseFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				ph, err := ws.Engine.UpdatePhase(ctx, args[0], f.input(cmd))
				if err != nil {
					return err
				}
				return printJSONOrTable(ph)
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func phaseDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a phase and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				return ws.Engine.DeletePhase(ctx, args[0], actorID())
			})
		},
	}
}

func developerCmd() *cobra.Command {
	dev := &cobra.Command{Use: "dev", Aliases: []string{"developer"}, Short: "Manage developers"}
	dev.AddCommand(developerAddCmd())
	dev.AddCommand(developerListCmd())
	dev.AddCommand(developerUpdateCmd())
	dev.AddCommand(developerDeleteCmd())
	return dev
}

type developerFlags struct {
	name, email, role, skill string
	active                   bool
}

func (f *developerFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "developer name")
	cmd.Flags().StringVar(&f.email, "email", "", "email")
	cmd.Flags().StringVar(&f.role, "role", "", "role")
	cmd.Flags().StringVar(&f.skill, "skill", "", "skill focus")
	cmd.Flags().BoolVar(&f.active, "active", true, "active flag")
}

func (f *developerFlags) input(cmd *cobra.Command) engine.DeveloperInput {
	return engine.DeveloperInput{
		Name:       ifChanged(cmd, "name", f.name),
		Email:      ifChanged(cmd, "email", f.email),
		Role:       ifChanged(cmd, "role", f.role),
		SkillFocus: ifChanged(cmd, "skill", f.skill),
		IsActive:   ifChanged(cmd, "active", f.active),
		ActorID:    actorID(),
	}
}

func developerAddCmd() *cobra.Command {
	var f developerFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a developer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				d, err := ws.Engine.CreateDeveloper(ctx, f.input(cmd))
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	f.bind(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func developerListCmd() *cobra.Command {
	var activeOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List developers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				items, err := ws.Engine.ListDevelopers(ctx, activeOnly)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable(os.Stdout, "ID", "Name", "Role", "Skill", "Active")
				for _, d := range items {
					tw.AppendRow([]any{d.ID, d.Name, d.Role, d.SkillFocus, d.IsActive})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only active developers")
	return cmd
}

func developerUpdateCmd() *cobra.Command {
	var f developerFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a developer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				d, err := ws.Engine.UpdateDeveloper(ctx, args[0], f.input(cmd))
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func developerDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a developer; their tasks become unassigned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				return ws.Engine.DeleteDeveloper(ctx, args[0], actorID())
			})
		},
	}
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
		Long:  "Tasks belong to a phase and may be owned by a developer. Each task is scored 1-5 on complexity, time, risk, dependency and skill; its weight drives the developer's share of the fee pool.",
	}
	task.AddCommand(taskAddCmd())
	task.AddCommand(taskUpdateCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskShowCmd())
	task.AddCommand(taskDeleteCmd())
	return task
}

type taskFlags struct {
	phase, developer, name, description, category string
	status, priority, start, end                  string
	hours                                         float64
	complexity, time, risk, dependency, skill     int
}

func (f *taskFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.phase, "phase", "", "phase id")
	cmd.Flags().StringVar(&f.developer, "developer", "", "developer id (empty unassigns)")
	cmd.Flags().StringVar(&f.name, "name", "", "task name")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().StringVar(&f.status, "status", "", "status (pending, in_progress, completed)")
	cmd.Flags().StringVar(&f.priority, "priority", "", "priority (low, medium, high)")
	cmd.Flags().StringVar(&f.start, "start", "", "start date")
	cmd.Flags().StringVar(&f.end, "end", "", "end date")
	cmd.Flags().Float64Var(&f.hours, "hours", 0, "estimated hours")
	cmd.Flags().IntVar(&f.complexity, "complexity", 1, "complexity score 1-5")
	cmd.Flags().IntVar(&f.time, "time", 1, "time score 1-5")
	cmd.Flags().IntVar(&f.risk, "risk", 1, "risk score 1-5")
	cmd.Flags().IntVar(&f.dependency, "dependency", 1, "dependency score 1-5")
	cmd.Flags().IntVar(&f.skill, "skill", 1, "skill score 1-5")
}

func (f *taskFlags) input(cmd *cobra.Command) engine.TaskInput {
	return engine.TaskInput{
		PhaseID:        ifChanged(cmd, "phase", f.phase),
		DeveloperID:    ifChanged(cmd, "developer", f.developer),
		Name:           ifChanged(cmd, "name", f.name),
		Description:    ifChanged(cmd, "description", f.description),
		Category:       ifChanged(cmd, "category", f.category),
		EstimatedHours: ifChanged(cmd, "hours", f.hours),
		Complexity:     ifChanged(cmd, "complexity", f.complexity),
		Time:           ifChanged(cmd, "time", f.time),
		Risk:           ifChanged(cmd, "risk", f.risk),
		Dependency:     ifChanged(cmd, "dependency", f.dependency),
		Skill:          ifChanged(cmd, "skill", f.skill),
		Status:         ifChanged(cmd, "status", f.status),
		Priority:       ifChanged(cmd, "priority", f.priority),
		StartDate:      ifChanged(cmd, "start", f.start),
		EndDate:        ifChanged(cmd, "end", f.end),
		ActorID:        actorID(),
	}
}

func taskAddCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				t, err := ws.Engine.CreateTask(ctx, f.input(cmd))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	f.bind(cmd)
	_ = cmd.MarkFlagRequired("phase")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func taskUpdateCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a task; omitted scores keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				t, err := ws.Engine.UpdateTask(ctx, args[0], f.input(cmd))
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func taskListCmd() *cobra.Command {
	var f repo.TaskFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				tasks, err := ws.Engine.ListTasks(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := newTable(os.Stdout, "ID", "Name", "Phase", "Developer", "Status", "Weight")
				for _, t := range tasks {
					tw.AppendRow([]any{t.ID, t.Name, t.PhaseName, t.DeveloperName, t.Status, t.CalculatedWeight})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project filter")
	cmd.Flags().StringVar(&f.PhaseID, "phase", "", "phase filter")
	cmd.Flags().StringVar(&f.DeveloperID, "developer", "", "developer filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	return cmd
}

func taskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				t, err := ws.Engine.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
}

func taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				return ws.Engine.DeleteTask(ctx, args[0], actorID())
			})
		},
	}
}
