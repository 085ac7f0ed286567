package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"feeline/internal/domain"
	"feeline/internal/engine"
	"feeline/internal/engine/auth"
	"feeline/internal/repo"
)

type out[T any] struct {
	Body T `json:"body"`
}

func reply[T any](v T) *out[T] {
	return &out[T]{Body: v}
}

type idPath struct {
	ID string `path:"id"`
}

var (
	readErrors  = []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError}
	writeErrors = readErrors
)

func registerFeeDistribution(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "fee-distribution",
		Method:      http.MethodGet,
		Path:        "/calculations/fee-distribution",
		Summary:     "Compute a project's fee distribution",
		Description: "Read-only. managementBase and denominator override the workspace distribution policy for this call.",
		Tags:        []string{"calculations"},
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID      string `query:"projectId" doc:"Project to compute"`
		ManagementBase string `query:"managementBase" doc:"net or gross"`
		Denominator    string `query:"denominator" doc:"realized or estimated"`
	}) (*out[engine.FeeReport], error) {
		if _, err := h.guard(ctx, auth.FeeRead); err != nil {
			return nil, err
		}
		rep, err := h.e.FeeDistribution(ctx, input.ProjectID, input.ManagementBase, input.Denominator)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(rep), nil
	})
}

func registerProjects(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-project",
		Method:        http.MethodPost,
		Path:          "/projects",
		Summary:       "Create project",
		Tags:          []string{"projects"},
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body ProjectRequest `json:"body"`
	}) (*out[domain.Project], error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		actorID, err := h.guard(ctx, auth.ProjectWrite)
		if err != nil {
			return nil, err
		}
		p, err := h.e.CreateProject(ctx, input.Body.input(actorID))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(p), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
		Tags:        []string{"projects"},
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" doc:"Filter by status"`
	}) (*out[ListResponse[domain.Project]], error) {
		if _, err := h.guard(ctx, auth.ProjectRead); err != nil {
			return nil, err
		}
		items, err := h.e.ListProjects(ctx, input.Status)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(listOf(items)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{id}",
		Summary:     "Get project with phases and payments",
		Tags:        []string{"projects"},
		Errors:      readErrors,
	}, func(ctx context.Context, input *idPath) (*out[engine.ProjectDetail], error) {
		if _, err := h.guard(ctx, auth.ProjectRead); err != nil {
			return nil, err
		}
		d, err := h.e.GetProject(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(d), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{id}",
		Summary:     "Update project",
		Tags:        []string{"projects"},
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   string         `path:"id"`
		Body ProjectRequest `json:"body"`
	}) (*out[domain.Project], error) {
		actorID, err := h.guard(ctx, auth.ProjectWrite)
		if err != nil {
			return nil, err
		}
		p, err := h.e.UpdateProject(ctx, input.ID, input.Body.input(actorID))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(p), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-project",
		Method:        http.MethodDelete,
		Path:          "/projects/{id}",
		Summary:       "Delete project with its phases, tasks and payments",
		Tags:          []string{"projects"},
		DefaultStatus: http.StatusNoContent,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		actorID, err := h.guard(ctx, auth.ProjectWrite)
		if err != nil {
			return nil, err
		}
		if err := h.e.DeleteProject(ctx, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "issue-payments",
		Method:        http.MethodPost,
		Path:          "/projects/{id}/payments/issue",
		Summary:       "Record the payments implied by the fee distribution",
		Description:   "Skips zero amounts and tranches the project already has a payment for.",
		Tags:          []string{"payments"},
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body IssuePaymentsRequest `json:"body"`
	}) (*out[ListResponse[domain.Payment]], error) {
		actorID, err := h.guard(ctx, auth.PaymentWrite)
		if err != nil {
			return nil, err
		}
		issued, err := h.e.IssuePayments(ctx, engine.IssueInput{
			ProjectID:      input.ID,
			Types:          input.Body.Types,
			ManagementBase: input.Body.ManagementBase,
			Denominator:    input.Body.Denominator,
			ActorID:        actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return reply(listOf(issued)), nil
	})
}

func registerPhases(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-phase",
		Method:        http.MethodPost,
		Path:          "/phases",
		Summary:       "Create phase",
		Tags:          []string{"phases"},
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body PhaseRequest `json:"body"`
	}) (*out[domain.Phase], error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		actorID, err := h.guard(ctx, auth.PhaseWrite)
		if err != nil {
			return nil, err
		}
		ph, err := h.e.CreatePhase(ctx, input.Body.input(actorID))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(ph), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-phases",
		Method:      http.MethodGet,
		Path:        "/phases",
		Summary:     "List phases in schedule order",
		Tags:        []string{"phases"},
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string `query:"projectId"`
	}) (*out[ListResponse[domain.Phase]], error) {
		if _, err := h.guard(ctx, auth.PhaseRead); err != nil {
			return nil, err
		}
		items, err := h.e.ListPhases(ctx, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(listOf(items)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-phase",
		Method:      http.MethodPatch,
		Path:        "/phases/{id}",
		Summary:     "Update phase",
		Tags:        []string{"phases"},
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   string       `path:"id"`
		Body PhaseRequest `json:"body"`
	}) (*out[domain.Phase], error) {
		actorID, err := h.guard(ctx, auth.PhaseWrite)
		if err != nil {
			return nil, err
		}
		ph, err := h.e.UpdatePhase(ctx, input.ID, input.Body.input(actorID))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(ph), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-phase",
		Method:        http.MethodDelete,
		Path:          "/phases/{id}",
		Summary:       "Delete phase and its tasks",
		Tags:          []string{"phases"},
		DefaultStatus: http.StatusNoContent,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		actorID, err := h.guard(ctx, auth.PhaseWrite)
		if err != nil {
			return nil, err
		}
		if err := h.e.DeletePhase(ctx, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		return nil, nil
	})
}

func registerDevelopers(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-developer",
		Method:        http.MethodPost,
		Path:          "/developers",
		Summary:       "Create developer",
		Tags:          []string{"developers"},
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body DeveloperRequest `json:"body"`
	}) (*out[domain.Developer], error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		actorID, err := h.guard(ctx, auth.DeveloperWrite)
		if err != nil {
			return nil, err
		}
		d, err := h.e.CreateDeveloper(ctx, input.Body.input(actorID))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(d), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-developers",
		Method:      http.MethodGet,
		Path:        "/developers",
		Summary:     "List developers",
		Tags:        []string{"developers"},
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		Active bool `query:"active" doc:"Only active developers"`
	}) (*out[ListResponse[domain.Developer]], error) {
		if _, err := h.guard(ctx, auth.DeveloperRead); err != nil {
			return nil, err
		}
		items, err := h.e.ListDevelopers(ctx, input.Active)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(listOf(items)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-developer",
		Method:      http.MethodPatch,
		Path:        "/developers/{id}",
		Summary:     "Update developer",
		Tags:        []string{"developers"},
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   string           `path:"id"`
		Body DeveloperRequest `json:"body"`
	}) (*out[domain.Developer], error) {
		actorID, err := h.guard(ctx, auth.DeveloperWrite)
		if err != nil {
			return nil, err
		}
		d, err := h.e.UpdateDeveloper(ctx, input.ID, input.Body.input(actorID))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(d), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-developer",
		Method:        http.MethodDelete,
		Path:          "/developers/{id}",
		Summary:       "Delete developer; their tasks become unassigned",
		Tags:          []string{"developers"},
		DefaultStatus: http.StatusNoContent,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		actorID, err := h.guard(ctx, auth.DeveloperWrite)
		if err != nil {
			return nil, err
		}
		if err := h.e.DeleteDeveloper(ctx, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "developer-earnings",
		Method:      http.MethodGet,
		Path:        "/developers/{id}/earnings",
		Summary:     "Developer work and fees per project",
		Tags:        []string{"developers"},
		Errors:      readErrors,
	}, func(ctx context.Context, input *idPath) (*out[engine.Earnings], error) {
		if _, err := h.guard(ctx, auth.FeeRead); err != nil {
			return nil, err
		}
		earn, err := h.e.DeveloperEarnings(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(earn), nil
	})
}

func registerTasks(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		Description:   "Scores default to 1; calculatedWeight is computed from them.",
		Tags:          []string{"tasks"},
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body TaskRequest `json:"body"`
	}) (*out[domain.Task], error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		actorID, err := h.guard(ctx, auth.TaskWrite)
		if err != nil {
			return nil, err
		}
		t, err := h.e.CreateTask(ctx, input.Body.input(actorID))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
		Tags:        []string{"tasks"},
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID   string `query:"projectId"`
		PhaseID     string `query:"phaseId"`
		DeveloperID string `query:"developerId"`
		Status      string `query:"status"`
	}) (*out[ListResponse[domain.Task]], error) {
		if _, err := h.guard(ctx, auth.TaskRead); err != nil {
			return nil, err
		}
		items, err := h.e.ListTasks(ctx, repo.TaskFilters{
			ProjectID:   input.ProjectID,
			PhaseID:     input.PhaseID,
			DeveloperID: input.DeveloperID,
			Status:      input.Status,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return reply(listOf(items)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get task",
		Tags:        []string{"tasks"},
		Errors:      readErrors,
	}, func(ctx context.Context, input *idPath) (*out[domain.Task], error) {
		if _, err := h.guard(ctx, auth.TaskRead); err != nil {
			return nil, err
		}
		t, err := h.e.GetTask(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}",
		Summary:     "Update task",
		Description: "Omitted scores keep their stored value; calculatedWeight is recomputed in the same transaction.",
		Tags:        []string{"tasks"},
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   string      `path:"id"`
		Body TaskRequest `json:"body"`
	}) (*out[domain.Task], error) {
		actorID, err := h.guard(ctx, auth.TaskWrite)
		if err != nil {
			return nil, err
		}
		t, err := h.e.UpdateTask(ctx, input.ID, input.Body.input(actorID))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(t), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{id}",
		Summary:       "Delete task",
		Tags:          []string{"tasks"},
		DefaultStatus: http.StatusNoContent,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		actorID, err := h.guard(ctx, auth.TaskWrite)
		if err != nil {
			return nil, err
		}
		if err := h.e.DeleteTask(ctx, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		return nil, nil
	})
}

func registerPayments(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-payment",
		Method:        http.MethodPost,
		Path:          "/payments",
		Summary:       "Record payment",
		Tags:          []string{"payments"},
		DefaultStatus: http.StatusCreated,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *struct {
		Body PaymentRequest `json:"body"`
	}) (*out[domain.Payment], error) {
		if err := requireBody(ctx); err != nil {
			return nil, err
		}
		actorID, err := h.guard(ctx, auth.PaymentWrite)
		if err != nil {
			return nil, err
		}
		p, err := h.e.CreatePayment(ctx, input.Body.input(actorID))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(p), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-payments",
		Method:      http.MethodGet,
		Path:        "/payments",
		Summary:     "List payments",
		Tags:        []string{"payments"},
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID   string `query:"projectId"`
		DeveloperID string `query:"developerId"`
		Type        string `query:"type"`
	}) (*out[ListResponse[domain.Payment]], error) {
		if _, err := h.guard(ctx, auth.PaymentRead); err != nil {
			return nil, err
		}
		items, err := h.e.ListPayments(ctx, repo.PaymentFilters{
			ProjectID:   input.ProjectID,
			DeveloperID: input.DeveloperID,
			Type:        input.Type,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return reply(listOf(items)), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-payment",
		Method:      http.MethodPatch,
		Path:        "/payments/{id}",
		Summary:     "Update payment",
		Description: "Setting isPaid stamps paidAt; clearing it removes paidAt.",
		Tags:        []string{"payments"},
		Errors:      writeErrors,
	}, func(ctx context.Context, input *struct {
		ID   string         `path:"id"`
		Body PaymentRequest `json:"body"`
	}) (*out[domain.Payment], error) {
		actorID, err := h.guard(ctx, auth.PaymentWrite)
		if err != nil {
			return nil, err
		}
		p, err := h.e.UpdatePayment(ctx, input.ID, input.Body.input(actorID))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(p), nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-payment",
		Method:        http.MethodDelete,
		Path:          "/payments/{id}",
		Summary:       "Delete payment",
		Tags:          []string{"payments"},
		DefaultStatus: http.StatusNoContent,
		Errors:        writeErrors,
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		actorID, err := h.guard(ctx, auth.PaymentWrite)
		if err != nil {
			return nil, err
		}
		if err := h.e.DeletePayment(ctx, input.ID, actorID); err != nil {
			return nil, handleError(err)
		}
		return nil, nil
	})
}

func registerReports(api huma.API, h handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard-summary",
		Method:      http.MethodGet,
		Path:        "/dashboard/summary",
		Summary:     "Workspace totals",
		Tags:        []string{"reports"},
		Errors:      readErrors,
	}, func(ctx context.Context, _ *struct{}) (*out[engine.Summary], error) {
		if _, err := h.guard(ctx, auth.DashboardRead); err != nil {
			return nil, err
		}
		s, err := h.e.DashboardSummary(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return reply(s), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Recent audit events, newest first",
		Tags:        []string{"reports"},
		Errors:      readErrors,
	}, func(ctx context.Context, input *struct {
		ProjectID string `query:"projectId"`
		Limit     int    `query:"limit" default:"50"`
	}) (*out[ListResponse[domain.Event]], error) {
		if _, err := h.guard(ctx, auth.EventRead); err != nil {
			return nil, err
		}
		items, err := h.e.RecentEvents(ctx, input.ProjectID, normalizeLimit(input.Limit))
		if err != nil {
			return nil, handleError(err)
		}
		return reply(listOf(items)), nil
	})
}
