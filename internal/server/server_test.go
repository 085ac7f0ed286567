package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feeline/internal/config"
	"feeline/internal/db"
	"feeline/internal/domain"
	"feeline/internal/engine"
	"feeline/internal/engine/auth"
	"feeline/internal/fee"
	"feeline/internal/migrate"
	"feeline/internal/repo"
)

const testSecret = "test-secret"

type testServer struct {
	URL    string
	Engine engine.Engine
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	workspace := t.TempDir()
	_, err := db.EnsureWorkspace(workspace)
	require.NoError(t, err)
	conn, err := db.Open(db.Config{Workspace: workspace})
	require.NoError(t, err)
	require.NoError(t, migrate.Migrate(conn))

	cfg := config.Default()
	e := engine.New(conn, cfg)
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth:     AuthConfig{JWTSecret: testSecret, Authorizer: auth.New(cfg)},
	})
	require.NoError(t, err)
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		ln.Close()
		conn.Close()
	})
	return &testServer{URL: "http://" + ln.Addr().String() + "/v0", Engine: e, client: &http.Client{}}
}

func bearer(t *testing.T, roles ...string) map[string]string {
	t.Helper()
	token, err := MintToken(testSecret, "tester", roles, time.Hour)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func doJSON(t *testing.T, s *testServer, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader = bytes.NewReader(nil)
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := s.client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, data []byte) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(data, &env), string(data))
	return env
}

// seedProject creates a project where alice owns three default tasks and bob one.
func seedProject(t *testing.T, s *testServer) (projectID, aliceID, bobID string) {
	t.Helper()
	admin := bearer(t, "admin")

	res, data := doJSON(t, s, http.MethodPost, "/projects", map[string]any{
		"name":                 "Website",
		"totalBudget":          100000,
		"safetyNetPercent":     10,
		"managementFeePercent": 10,
		"deploymentFee":        5000,
	}, admin)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var project domain.Project
	require.NoError(t, json.Unmarshal(data, &project))

	res, data = doJSON(t, s, http.MethodPost, "/phases", map[string]any{"projectId": project.ID, "name": "Build"}, admin)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var phase domain.Phase
	require.NoError(t, json.Unmarshal(data, &phase))

	devs := map[string]string{}
	for _, name := range []string{"Alice", "Bob"} {
		res, data = doJSON(t, s, http.MethodPost, "/developers", map[string]any{"name": name}, admin)
		require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
		var d domain.Developer
		require.NoError(t, json.Unmarshal(data, &d))
		devs[name] = d.ID
	}
	for _, owner := range []string{"Alice", "Alice", "Alice", "Bob"} {
		res, data = doJSON(t, s, http.MethodPost, "/tasks", map[string]any{
			"phaseId":     phase.ID,
			"developerId": devs[owner],
			"name":        "work",
		}, admin)
		require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	}
	return project.ID, devs["Alice"], devs["Bob"]
}

func TestRequiresAuthentication(t *testing.T) {
	s := newTestServer(t)

	res, data := doJSON(t, s, http.MethodGet, "/projects", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "unauthorized", decodeError(t, data).Error.Code)

	res, data = doJSON(t, s, http.MethodGet, "/projects", nil, map[string]string{"Authorization": "Bearer nope"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "invalid_credentials", decodeError(t, data).Error.Code)

	res, _ = doJSON(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestFeeDistributionEndpoint(t *testing.T) {
	s := newTestServer(t)
	projectID, aliceID, bobID := seedProject(t, s)
	admin := bearer(t, "admin")

	res, data := doJSON(t, s, http.MethodGet, "/calculations/fee-distribution?projectId="+projectID, nil, admin)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var rep engine.FeeReport
	require.NoError(t, json.Unmarshal(data, &rep))

	assert.Equal(t, fee.DefaultPolicy(), rep.Policy)
	assert.Equal(t, fee.Money(10000), rep.Breakdown.SafetyNetAmount)
	assert.Equal(t, fee.Money(9000), rep.Breakdown.ManagementFeeAmount)
	assert.Equal(t, fee.Money(76000), rep.Breakdown.TeamFeePool)
	assert.Equal(t, fee.Money(2714.29), rep.Breakdown.FeePerPoint)
	assert.Equal(t, 28.0, rep.TotalWeight)
	require.Len(t, rep.Developers, 2)
	byID := map[string]fee.Allocation{}
	for _, a := range rep.Developers {
		byID[a.DeveloperID] = a
	}
	assert.Equal(t, fee.Money(57000), byID[aliceID].BaseFee)
	assert.Equal(t, fee.Money(28500), byID[aliceID].DPAmount)
	assert.Equal(t, fee.Money(19000), byID[bobID].BaseFee)

	res, data = doJSON(t, s, http.MethodGet, "/calculations/fee-distribution?projectId="+projectID+"&managementBase=gross", nil, admin)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	rep = engine.FeeReport{}
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, fee.Money(10000), rep.Breakdown.ManagementFeeAmount)
	assert.Equal(t, fee.Money(75000), rep.Breakdown.TeamFeePool)
}

func TestFeeDistributionErrors(t *testing.T) {
	s := newTestServer(t)
	admin := bearer(t, "admin")

	res, data := doJSON(t, s, http.MethodGet, "/calculations/fee-distribution", nil, admin)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, string(data))

	res, data = doJSON(t, s, http.MethodGet, "/calculations/fee-distribution?projectId=missing", nil, admin)
	assert.Equal(t, http.StatusNotFound, res.StatusCode, string(data))
	assert.Equal(t, "not_found", decodeError(t, data).Error.Code)

	projectID, _, _ := seedProject(t, s)
	res, data = doJSON(t, s, http.MethodGet, "/calculations/fee-distribution?projectId="+projectID+"&denominator=bogus", nil, admin)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, string(data))
}

func TestTaskUpdateRecomputesWeight(t *testing.T) {
	s := newTestServer(t)
	projectID, _, _ := seedProject(t, s)
	admin := bearer(t, "admin")

	res, data := doJSON(t, s, http.MethodGet, "/tasks?projectId="+projectID, nil, admin)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var list ListResponse[domain.Task]
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list.Items, 4)
	task := list.Items[0]
	assert.Equal(t, 7.0, task.CalculatedWeight)

	res, data = doJSON(t, s, http.MethodPatch, "/tasks/"+task.ID, map[string]any{"complexity": 3, "risk": 5}, admin)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var updated domain.Task
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.Equal(t, 3, updated.Scores.Complexity)
	assert.Equal(t, 1, updated.Scores.Time)
	assert.Equal(t, 5, updated.Scores.Risk)
	assert.Equal(t, 17.0, updated.CalculatedWeight)

	res, data = doJSON(t, s, http.MethodPatch, "/tasks/"+task.ID, map[string]any{"skill": 6}, admin)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, string(data))
}

func TestCreateRequiresBody(t *testing.T) {
	s := newTestServer(t)
	res, data := doJSON(t, s, http.MethodPost, "/developers", nil, bearer(t, "admin"))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, string(data))
}

func TestDeveloperRoleIsReadOnly(t *testing.T) {
	s := newTestServer(t)
	projectID, _, _ := seedProject(t, s)
	dev := bearer(t, "developer")

	res, data := doJSON(t, s, http.MethodGet, "/calculations/fee-distribution?projectId="+projectID, nil, dev)
	assert.Equal(t, http.StatusOK, res.StatusCode, string(data))

	res, data = doJSON(t, s, http.MethodPost, "/developers", map[string]any{"name": "Eve"}, dev)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, string(data))
	assert.Equal(t, "forbidden", decodeError(t, data).Error.Code)

	res, data = doJSON(t, s, http.MethodGet, "/events", nil, dev)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, string(data))
}

func TestAPIKeyAuthentication(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.Engine.Repo.InsertAPIKey(ctx, domain.APIKey{
		ID:        "key-1",
		ActorID:   "ci",
		Role:      "admin",
		KeyHash:   repo.HashAPIKey("secret-key"),
		CreatedAt: "2024-01-01T00:00:00Z",
	}))

	res, data := doJSON(t, s, http.MethodPost, "/developers", map[string]any{"name": "Carol"}, map[string]string{"X-Api-Key": "secret-key"})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))

	events, err := s.Engine.RecentEvents(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ci", events[0].ActorID)

	res, _ = doJSON(t, s, http.MethodGet, "/developers", nil, map[string]string{"X-Api-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestIssueAndPayPayments(t *testing.T) {
	s := newTestServer(t)
	projectID, _, _ := seedProject(t, s)
	admin := bearer(t, "admin")

	res, data := doJSON(t, s, http.MethodPost, "/projects/"+projectID+"/payments/issue", map[string]any{"types": []string{"DP"}}, admin)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var issued ListResponse[domain.Payment]
	require.NoError(t, json.Unmarshal(data, &issued))
	require.Len(t, issued.Items, 2)

	res, data = doJSON(t, s, http.MethodPatch, "/payments/"+issued.Items[0].ID, map[string]any{"isPaid": true}, admin)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var paid domain.Payment
	require.NoError(t, json.Unmarshal(data, &paid))
	assert.True(t, paid.IsPaid)
	assert.NotNil(t, paid.PaidAt)

	res, data = doJSON(t, s, http.MethodGet, "/dashboard/summary", nil, admin)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var summary engine.Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, paid.Amount, summary.TotalPaid)
	assert.Equal(t, 1, summary.TotalProjects)
	assert.Equal(t, 4, summary.TotalTasks)
}

func TestDeleteProject(t *testing.T) {
	s := newTestServer(t)
	projectID, _, _ := seedProject(t, s)
	admin := bearer(t, "admin")

	res, data := doJSON(t, s, http.MethodDelete, "/projects/"+projectID, nil, admin)
	require.Equal(t, http.StatusNoContent, res.StatusCode, string(data))

	res, _ = doJSON(t, s, http.MethodGet, "/projects/"+projectID, nil, admin)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, data = doJSON(t, s, http.MethodGet, "/tasks?projectId="+projectID, nil, admin)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list ListResponse[domain.Task]
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Empty(t, list.Items)
}

func TestWebhookDispatcherDeliversMatchingEvents(t *testing.T) {
	type delivery struct {
		Event  string
		Secret string
		Body   webhookEvent
	}
	received := make(chan delivery, 10)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body webhookEvent
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- delivery{Event: r.Header.Get("X-Feeline-Event"), Secret: r.Header.Get("X-Feeline-Secret"), Body: body}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, migrate.Migrate(conn))
	cfg := config.Default()
	cfg.Webhooks = []config.WebhookConfig{{URL: hook.URL, Secret: "shh", Events: []string{"project.*"}}}
	e := engine.New(conn, cfg)
	ctx := context.Background()

	_, err = e.CreateDeveloper(ctx, engine.DeveloperInput{Name: stringPtr("before")})
	require.NoError(t, err)

	d := NewWebhookDispatcher(e)
	require.NotNil(t, d)
	d.DispatchOnce(ctx)
	assert.Empty(t, received)

	_, err = e.CreateDeveloper(ctx, engine.DeveloperInput{Name: stringPtr("after")})
	require.NoError(t, err)
	p, err := e.CreateProject(ctx, engine.ProjectInput{Name: stringPtr("Hooked"), TotalBudget: moneyPtr(1000)})
	require.NoError(t, err)
	d.DispatchOnce(ctx)

	require.Len(t, received, 1)
	got := <-received
	assert.Equal(t, "project.created", got.Event)
	assert.Equal(t, "shh", got.Secret)
	assert.Equal(t, p.ID, got.Body.EntityID)

	d.DispatchOnce(ctx)
	assert.Empty(t, received)
}

func TestEventFilter(t *testing.T) {
	assert.True(t, newEventFilter(nil).match("task.created"))
	assert.True(t, newEventFilter([]string{"*"}).match("payment.updated"))
	f := newEventFilter([]string{"task.*", "payments.issued"})
	assert.True(t, f.match("task.updated"))
	assert.True(t, f.match("payments.issued"))
	assert.False(t, f.match("payment.created"))
	assert.False(t, f.match("project.created"))
}

func stringPtr(s string) *string       { return &s }
func moneyPtr(m fee.Money) *fee.Money { return &m }

func TestOpenAPIDocumentConcurrentRequests(t *testing.T) {
	s := newTestServer(t)
	const n = 8
	bodies := make([][]byte, n)
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.client.Get(s.URL + "/openapi.json")
			if err != nil {
				return
			}
			defer res.Body.Close()
			codes[i] = res.StatusCode
			bodies[i], _ = io.ReadAll(res.Body)
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		assert.Equal(t, http.StatusOK, codes[i])
		assert.Equal(t, bodies[0], bodies[i])
	}
	var doc map[string]any
	require.NoError(t, json.Unmarshal(bodies[0], &doc))
	assert.Contains(t, doc, "paths")
}
