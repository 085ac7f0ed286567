package feelinesdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeeDistributionRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/calculations/fee-distribution", r.URL.Path)
		assert.Equal(t, "p1", r.URL.Query().Get("projectId"))
		assert.Equal(t, "gross", r.URL.Query().Get("managementBase"))
		assert.Empty(t, r.URL.Query().Get("denominator"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"policy":{"managementBase":"gross","denominator":"realized"},"breakdown":{"teamFeePool":75000,"feePerPoint":2678.57},"developers":[{"developerId":"d1","baseFee":56250}],"totalWeight":28}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.BearerToken = "tok"
	rep, err := c.FeeDistribution(context.Background(), "p1", "gross", "")
	require.NoError(t, err)
	assert.Equal(t, "gross", rep.Policy.ManagementBase)
	assert.Equal(t, 75000.0, rep.Breakdown.TeamFeePool)
	require.Len(t, rep.Developers, 1)
	assert.Equal(t, 56250.0, rep.Developers[0].BaseFee)
}

func TestUpdateTaskSendsOnlySetFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v0/tasks/t1", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"risk": float64(5)}, body)
		_, _ = w.Write([]byte(`{"id":"t1","scores":{"complexity":1,"time":1,"risk":5,"dependency":1,"skill":1},"calculatedWeight":13}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.APIKey = "key"
	risk := 5
	task, err := c.UpdateTask(context.Background(), "t1", TaskFields{Risk: &risk})
	require.NoError(t, err)
	assert.Equal(t, 13.0, task.CalculatedWeight)
	assert.Equal(t, 5, task.Scores.Risk)
}

func TestAPIErrorDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"not_found","message":"project p9 not found"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListPayments(context.Background(), "p9")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Equal(t, "project p9 not found", apiErr.Message)
}
