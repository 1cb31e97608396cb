package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentia/backend/internal/auth"
	"agentia/backend/internal/configuration"
	"agentia/backend/internal/execution"
	"agentia/backend/internal/marketplace"
	"agentia/backend/internal/repository"
	"agentia/backend/internal/workflow"
	"agentia/backend/pkg/models"
)

// memRepo is an in-memory Repository for handler tests.
type memRepo struct {
	agents     map[string]*models.Agent
	services   map[string]*models.Service
	configs    map[string]*models.ServiceConfiguration
	executions map[string]*models.Execution
	logs       []*models.LogEntry

	configVersions []*models.ServiceConfigVersion
}

func newMemRepo() *memRepo {
	return &memRepo{
		agents:     make(map[string]*models.Agent),
		services:   make(map[string]*models.Service),
		configs:    make(map[string]*models.ServiceConfiguration),
		executions: make(map[string]*models.Execution),
	}
}

func (m *memRepo) CreateAgent(ctx context.Context, a *models.Agent) error {
	m.agents[a.ID] = a
	return nil
}
func (m *memRepo) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	a, ok := m.agents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}
func (m *memRepo) ListAgents(ctx context.Context, owner string) ([]*models.Agent, error) {
	out := []*models.Agent{}
	for _, a := range m.agents {
		if a.Owner == owner {
			out = append(out, a)
		}
	}
	return out, nil
}
func (m *memRepo) UpdateAgent(ctx context.Context, a *models.Agent) error {
	m.agents[a.ID] = a
	return nil
}
func (m *memRepo) DeleteAgent(ctx context.Context, id string) error {
	delete(m.agents, id)
	return nil
}

func (m *memRepo) CreateService(ctx context.Context, s *models.Service) error {
	m.services[s.ID] = s
	return nil
}
func (m *memRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}
func (m *memRepo) ListServices(ctx context.Context, owner string) ([]*models.Service, error) {
	out := []*models.Service{}
	for _, s := range m.services {
		if s.Owner == owner {
			out = append(out, s)
		}
	}
	return out, nil
}
func (m *memRepo) UpdateService(ctx context.Context, s *models.Service) error {
	m.services[s.ID] = s
	return nil
}
func (m *memRepo) DeleteService(ctx context.Context, id string) error {
	delete(m.services, id)
	return nil
}

func (m *memRepo) CreateConfiguration(ctx context.Context, cfg *models.ServiceConfiguration) error {
	m.configs[cfg.ServiceID] = cfg
	return nil
}
func (m *memRepo) GetConfigurationByServiceID(ctx context.Context, serviceID string) (*models.ServiceConfiguration, error) {
	cfg, ok := m.configs[serviceID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cfg, nil
}
func (m *memRepo) UpdateConfiguration(ctx context.Context, cfg *models.ServiceConfiguration) error {
	m.configs[cfg.ServiceID] = cfg
	return nil
}
func (m *memRepo) CreateConfigVersion(ctx context.Context, v *models.ServiceConfigVersion) error {
	m.configVersions = append(m.configVersions, v)
	return nil
}
func (m *memRepo) LatestConfigVersion(ctx context.Context, serviceID string) (int, error) {
	latest := 0
	for _, v := range m.configVersions {
		if v.ServiceID == serviceID && v.Version > latest {
			latest = v.Version
		}
	}
	return latest, nil
}

func (m *memRepo) CreateExecution(ctx context.Context, e *models.Execution) error {
	m.executions[e.ID] = e
	return nil
}
func (m *memRepo) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	e, ok := m.executions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}
func (m *memRepo) UpdateExecution(ctx context.Context, e *models.Execution) error {
	m.executions[e.ID] = e
	return nil
}
func (m *memRepo) AppendLog(ctx context.Context, entry *models.LogEntry) error {
	m.logs = append(m.logs, entry)
	return nil
}
func (m *memRepo) Ping(ctx context.Context) error { return nil }

type stubRunner struct {
	resp *workflow.Response
}

func (s *stubRunner) Execute(ctx context.Context, req workflow.ExecuteRequest) (*workflow.Response, error) {
	return s.resp, nil
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

func newTestServer(repo *memRepo, runner execution.WorkflowRunner) *echo.Echo {
	configs := configuration.NewService(repo, nopLogger{})
	mkt := marketplace.NewService(repo, configs, nopLogger{})
	recorder := execution.NewRecorder(repo, nopLogger{})
	executions := execution.NewService(repo, repo, configs, runner, nil, recorder, nopLogger{})

	e := echo.New()
	g := e.Group("/api/v1")
	// stand-in for the auth middleware
	g.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithOwner(c.Request().Context(), "alice@example.com")
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	srv := NewServer(mkt, executions, configs, nopLogger{})
	srv.Register(g)
	e.GET("/health", srv.HandleHealth)
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newTestServer(newMemRepo(), &stubRunner{})

	rec := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var status models.HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
}

func TestAgentEndpoints(t *testing.T) {
	e := newTestServer(newMemRepo(), &stubRunner{})

	rec := do(e, http.MethodPost, "/api/v1/agents", `{"name":"demo","api_url":"http://llm.test"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var agent models.Agent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agent))
	assert.Equal(t, "demo", agent.Name)
	assert.Equal(t, "alice@example.com", agent.Owner)
	// the API key never appears in responses
	assert.NotContains(t, rec.Body.String(), "api_key")

	rec = do(e, http.MethodGet, "/api/v1/agents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var agents []models.Agent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agents))
	assert.Len(t, agents, 1)

	rec = do(e, http.MethodDelete, "/api/v1/agents/"+agent.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestNotFoundIsProblemJSON(t *testing.T) {
	e := newTestServer(newMemRepo(), &stubRunner{})

	rec := do(e, http.MethodGet, "/api/v1/agents/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/problem+json")

	var prob models.ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prob))
	assert.Equal(t, "Not Found", prob.Title)
	assert.Equal(t, http.StatusNotFound, prob.Status)
}

func TestForbiddenMapping(t *testing.T) {
	repo := newMemRepo()
	repo.agents["other"] = &models.Agent{ID: "other", Owner: "bob@example.com"}
	e := newTestServer(repo, &stubRunner{})

	rec := do(e, http.MethodGet, "/api/v1/agents/other", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWorkflowEndpoint(t *testing.T) {
	repo := newMemRepo()
	repo.services["svc-1"] = &models.Service{ID: "svc-1", Name: "Demo", Owner: "alice@example.com"}
	repo.configs["svc-1"] = &models.ServiceConfiguration{ServiceID: "svc-1"}

	runner := &stubRunner{resp: &workflow.Response{
		Success:  true,
		Workflow: &workflow.Execution{ID: "workflow_1", Status: workflow.StatusWaitingForInput},
		Data:     &workflow.Data{RequiresMoreInput: true, MissingInfo: []string{"topic"}},
	}}
	e := newTestServer(repo, runner)

	rec := do(e, http.MethodPost, "/api/v1/services/svc-1/workflow", `{"input":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp workflow.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.True(t, resp.Data.RequiresMoreInput)
	assert.Equal(t, []string{"topic"}, resp.Data.MissingInfo)

	t.Run("unknown service", func(t *testing.T) {
		rec := do(e, http.MethodPost, "/api/v1/services/missing/workflow", `{"input":{}}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestValidateEndpoint(t *testing.T) {
	repo := newMemRepo()
	repo.services["svc-1"] = &models.Service{ID: "svc-1", Owner: "alice@example.com"}
	repo.configs["svc-1"] = &models.ServiceConfiguration{
		ServiceID: "svc-1",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"topic": map[string]any{"type": "string"}},
			"required":   []any{"topic"},
		},
	}
	e := newTestServer(repo, &stubRunner{})

	rec := do(e, http.MethodPost, "/api/v1/services/svc-1/validate", `{"input":{"topic":"go"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/v1/services/svc-1/validate", `{"input":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.False(t, out.Valid)
	assert.NotEmpty(t, out.Error)

	rec = do(e, http.MethodPost, "/api/v1/services/missing/validate", `{"input":{}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
