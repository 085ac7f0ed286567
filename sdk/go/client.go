package feelinesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Feeline HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

// Project represents the API project model (partial).
type Project struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Status               string  `json:"status"`
	TotalBudget          float64 `json:"totalBudget"`
	SafetyNetPercent     float64 `json:"safetyNetPercent"`
	ManagementFeePercent float64 `json:"managementFeePercent"`
	DeploymentFee        float64 `json:"deploymentFee"`
	DaysDuration         int     `json:"daysDuration"`
}

type Phase struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	DayStart  int    `json:"dayStart"`
	DayEnd    int    `json:"dayEnd"`
}

type Developer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

type Scores struct {
	Complexity int `json:"complexity"`
	Time       int `json:"time"`
	Risk       int `json:"risk"`
	Dependency int `json:"dependency"`
	Skill      int `json:"skill"`
}

// Task represents the API task model (partial).
type Task struct {
	ID               string  `json:"id"`
	PhaseID          string  `json:"phaseId"`
	DeveloperID      *string `json:"developerId,omitempty"`
	Name             string  `json:"name"`
	Status           string  `json:"status"`
	Scores           Scores  `json:"scores"`
	CalculatedWeight float64 `json:"calculatedWeight"`
}

// TaskFields are the writable task fields; nil values are omitted.
type TaskFields struct {
	PhaseID     *string `json:"phaseId,omitempty"`
	DeveloperID *string `json:"developerId,omitempty"`
	Name        *string `json:"name,omitempty"`
	Status      *string `json:"status,omitempty"`
	Complexity  *int    `json:"complexity,omitempty"`
	Time        *int    `json:"time,omitempty"`
	Risk        *int    `json:"risk,omitempty"`
	Dependency  *int    `json:"dependency,omitempty"`
	Skill       *int    `json:"skill,omitempty"`
}

type Payment struct {
	ID          string  `json:"id"`
	ProjectID   string  `json:"projectId"`
	DeveloperID *string `json:"developerId,omitempty"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	IsPaid      bool    `json:"isPaid"`
	PaidAt      *string `json:"paidAt,omitempty"`
}

type Allocation struct {
	DeveloperID      string  `json:"developerId"`
	DeveloperName    string  `json:"developerName"`
	TotalWeight      float64 `json:"totalWeight"`
	TaskCount        int     `json:"taskCount"`
	Percentage       float64 `json:"percentage"`
	BaseFee          float64 `json:"baseFee"`
	DPAmount         float64 `json:"dpAmount"`
	CompletionAmount float64 `json:"completionAmount"`
	BufferAmount     float64 `json:"bufferAmount"`
}

// FeeReport is a project's fee distribution.
type FeeReport struct {
	Policy struct {
		ManagementBase string `json:"managementBase"`
		Denominator    string `json:"denominator"`
	} `json:"policy"`
	Breakdown struct {
		TotalBudget         float64 `json:"totalBudget"`
		SafetyNetAmount     float64 `json:"safetyNetAmount"`
		ManagementFeeAmount float64 `json:"managementFeeAmount"`
		DeploymentFeeAmount float64 `json:"deploymentFeeAmount"`
		TeamFeePool         float64 `json:"teamFeePool"`
		FeePerPoint         float64 `json:"feePerPoint"`
	} `json:"breakdown"`
	Developers []Allocation `json:"developers"`
	Unassigned struct {
		TotalWeight float64 `json:"totalWeight"`
		TaskCount   int     `json:"taskCount"`
		Percentage  float64 `json:"percentage"`
	} `json:"unassigned"`
	TotalWeight       float64 `json:"totalWeight"`
	AllocatedTotal    float64 `json:"allocatedTotal"`
	UnallocatedAmount float64 `json:"unallocatedAmount"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	ProjectID  string `json:"projectId"`
	EntityID   string `json:"entityId"`
	EntityKind string `json:"entityKind"`
	ActorID    string `json:"actorId"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

type list[T any] struct {
	Items []T `json:"items"`
}

// CreateProject creates a project; unset terms take the server defaults.
func (c *Client) CreateProject(ctx context.Context, p Project) (Project, error) {
	body := map[string]any{"name": p.Name}
	if p.TotalBudget != 0 {
		body["totalBudget"] = p.TotalBudget
	}
	if p.SafetyNetPercent != 0 {
		body["safetyNetPercent"] = p.SafetyNetPercent
	}
	if p.ManagementFeePercent != 0 {
		body["managementFeePercent"] = p.ManagementFeePercent
	}
	if p.DeploymentFee != 0 {
		body["deploymentFee"] = p.DeploymentFee
	}
	var resp Project
	err := c.do(ctx, http.MethodPost, "projects", body, &resp)
	return resp, err
}

func (c *Client) CreatePhase(ctx context.Context, projectID, name string, dayStart, dayEnd int) (Phase, error) {
	body := map[string]any{"projectId": projectID, "name": name, "dayStart": dayStart, "dayEnd": dayEnd}
	var resp Phase
	err := c.do(ctx, http.MethodPost, "phases", body, &resp)
	return resp, err
}

func (c *Client) CreateDeveloper(ctx context.Context, name string) (Developer, error) {
	var resp Developer
	err := c.do(ctx, http.MethodPost, "developers", map[string]any{"name": name}, &resp)
	return resp, err
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, f TaskFields) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPost, "tasks", f, &resp)
	return resp, err
}

// UpdateTask patches a task; the server recomputes its weight.
func (c *Client) UpdateTask(ctx context.Context, id string, f TaskFields) (Task, error) {
	var resp Task
	err := c.do(ctx, http.MethodPatch, "tasks/"+url.PathEscape(id), f, &resp)
	return resp, err
}

// FeeDistribution computes a project's fee distribution. Empty policy
// arguments use the server's configured policy.
func (c *Client) FeeDistribution(ctx context.Context, projectID, managementBase, denominator string) (FeeReport, error) {
	q := url.Values{}
	q.Set("projectId", projectID)
	if managementBase != "" {
		q.Set("managementBase", managementBase)
	}
	if denominator != "" {
		q.Set("denominator", denominator)
	}
	var resp FeeReport
	err := c.do(ctx, http.MethodGet, "calculations/fee-distribution?"+q.Encode(), nil, &resp)
	return resp, err
}

// ListPayments lists a project's payments.
func (c *Client) ListPayments(ctx context.Context, projectID string) ([]Payment, error) {
	var resp list[Payment]
	err := c.do(ctx, http.MethodGet, "payments?projectId="+url.QueryEscape(projectID), nil, &resp)
	return resp.Items, err
}

// IssuePayments records the payments of the given types (all when empty).
func (c *Client) IssuePayments(ctx context.Context, projectID string, types ...string) ([]Payment, error) {
	var resp list[Payment]
	endpoint := fmt.Sprintf("projects/%s/payments/issue", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"types": types}, &resp)
	return resp.Items, err
}

// MarkPaid sets a payment's paid flag.
func (c *Client) MarkPaid(ctx context.Context, paymentID string, paid bool) (Payment, error) {
	var resp Payment
	err := c.do(ctx, http.MethodPatch, "payments/"+url.PathEscape(paymentID), map[string]any{"isPaid": paid}, &resp)
	return resp, err
}

// Events returns recent events, newest first.
func (c *Client) Events(ctx context.Context, projectID string, limit int) ([]Event, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("projectId", projectID)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	endpoint := "events"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp list[Event]
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) url(endpoint string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if p := strings.Trim(c.BasePath, "/"); p != "" {
		base += "/" + p
	}
	return base + "/" + strings.TrimLeft(endpoint, "/")
}
