package repo_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feeline/internal/db"
	"feeline/internal/domain"
	"feeline/internal/fee"
	"feeline/internal/migrate"
	"feeline/internal/repo"
)

const ts = "2024-01-01T00:00:00Z"

func openRepo(t *testing.T) (repo.Repo, *sql.DB) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn))
	return repo.Repo{DB: conn}, conn
}

func seedProject(t *testing.T, r repo.Repo) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, r.InsertProject(ctx, domain.Project{ID: "p1", Name: "P", Status: "active", TotalBudget: 1000, DaysDuration: 12, CreatedAt: ts, UpdatedAt: ts}))
	require.NoError(t, r.InsertPhase(ctx, domain.Phase{ID: "ph2", ProjectID: "p1", Name: "Second", DayStart: 1, DayEnd: 2, SortOrder: 2, CreatedAt: ts, UpdatedAt: ts}))
	require.NoError(t, r.InsertPhase(ctx, domain.Phase{ID: "ph1", ProjectID: "p1", Name: "First", DayStart: 1, DayEnd: 2, SortOrder: 1, CreatedAt: ts, UpdatedAt: ts}))
	require.NoError(t, r.InsertDeveloper(ctx, domain.Developer{ID: "d1", Name: "Dana", IsActive: true, CreatedAt: ts, UpdatedAt: ts}))
}

func task(id, phase string, dev *string, created string) domain.Task {
	return domain.Task{ID: id, PhaseID: phase, DeveloperID: dev, Name: id, Category: "backend", Scores: fee.DefaultScores(),
		CalculatedWeight: 7, Status: "pending", Priority: "medium", CreatedAt: created, UpdatedAt: created}
}

func TestProjectRoundTripKeepsOptionalTerms(t *testing.T) {
	r, _ := openRepo(t)
	ctx := context.Background()
	dp := fee.Percent(60)
	require.NoError(t, r.InsertProject(ctx, domain.Project{ID: "p1", Name: "P", Status: "active", DPPercent: &dp, DaysDuration: 3, CreatedAt: ts, UpdatedAt: ts}))

	p, err := r.GetProject(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p.DPPercent)
	assert.Equal(t, fee.Percent(60), *p.DPPercent)
	assert.Nil(t, p.CompletionPercent)
	assert.Nil(t, p.EstimatedTotalWeight)

	_, err = r.GetProject(ctx, "nope")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, r.DeleteProject(ctx, "nope"), repo.ErrNotFound)
}

func TestListTasksOrdersByPhaseThenCreation(t *testing.T) {
	r, _ := openRepo(t)
	seedProject(t, r)
	ctx := context.Background()
	dev := "d1"
	require.NoError(t, r.InsertTask(ctx, task("t3", "ph2", nil, "2024-01-01T00:00:01Z")))
	require.NoError(t, r.InsertTask(ctx, task("t2", "ph1", &dev, "2024-01-01T00:00:03Z")))
	require.NoError(t, r.InsertTask(ctx, task("t1", "ph1", nil, "2024-01-01T00:00:02Z")))

	tasks, err := r.ListTasks(ctx, repo.TaskFilters{ProjectID: "p1"})
	require.NoError(t, err)
	var ids []string
	for _, tk := range tasks {
		ids = append(ids, tk.ID)
	}
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids)
	assert.Equal(t, "Dana", tasks[1].DeveloperName)
	assert.Equal(t, "First", tasks[1].PhaseName)
	assert.Equal(t, "p1", tasks[1].ProjectID)

	mine, err := r.ListTasks(ctx, repo.TaskFilters{DeveloperID: "d1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "t2", mine[0].ID)
}

func TestWithTxSeesUncommittedRows(t *testing.T) {
	r, conn := openRepo(t)
	seedProject(t, r)
	ctx := context.Background()

	tx, err := conn.BeginTx(ctx, nil)
	require.NoError(t, err)
	txr := r.WithTx(tx)
	require.NoError(t, txr.InsertTask(ctx, task("t1", "ph1", nil, ts)))
	_, err = txr.GetTask(ctx, "t1")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	_, err = r.GetTask(ctx, "t1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestPaymentFiltersAndTotals(t *testing.T) {
	r, _ := openRepo(t)
	seedProject(t, r)
	ctx := context.Background()
	dev := "d1"
	paidAt := ts
	require.NoError(t, r.InsertPayment(ctx, domain.Payment{ID: "pay1", ProjectID: "p1", DeveloperID: &dev, Type: domain.PaymentDP, Amount: 300, IsPaid: true, PaidAt: &paidAt, CreatedAt: ts, UpdatedAt: ts}))
	require.NoError(t, r.InsertPayment(ctx, domain.Payment{ID: "pay2", ProjectID: "p1", Type: domain.PaymentManagement, Amount: 100, CreatedAt: ts, UpdatedAt: ts}))

	paid := true
	list, err := r.ListPayments(ctx, repo.PaymentFilters{ProjectID: "p1", Paid: &paid})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pay1", list[0].ID)
	require.NotNil(t, list[0].PaidAt)

	totals, err := r.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Projects)
	assert.Equal(t, 1000.0, totals.TotalBudget)
	assert.Equal(t, 300.0, totals.TotalPaid)
	assert.Equal(t, 1, totals.ActiveDevelopers)
}

func TestAPIKeyLookup(t *testing.T) {
	r, _ := openRepo(t)
	ctx := context.Background()
	hash := repo.HashAPIKey(" secret ")
	require.NoError(t, r.InsertAPIKey(ctx, domain.APIKey{ID: "k1", ActorID: "ci", KeyHash: hash, CreatedAt: ts}))

	key, err := r.GetAPIKeyByHash(ctx, repo.HashAPIKey("secret"))
	require.NoError(t, err)
	assert.Equal(t, "ci", key.ActorID)
	assert.Equal(t, "developer", key.Role)

	_, err = r.GetAPIKeyByHash(ctx, repo.HashAPIKey("other"))
	assert.ErrorIs(t, err, repo.ErrNotFound)
}
