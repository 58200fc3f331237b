package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reasoning_backend/config"
	"reasoning_backend/models"
	"reasoning_backend/platform/cache"
	"reasoning_backend/reasoning"
	"reasoning_backend/repository"
	"reasoning_backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReasoningService struct {
	lastReq models.SolveReq
	err     error
}

func (f *fakeReasoningService) Solve(_ context.Context, req models.SolveReq) (*models.SolveRes, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.SolveRes{
		RunID:      "run-1",
		Status:     models.RunSolved,
		Solved:     true,
		Attempts:   1,
		Transcript: []reasoning.Message{{Role: reasoning.RoleUser, Content: req.Question}},
	}, nil
}

func (f *fakeReasoningService) Enqueue(_ context.Context, req models.SolveReq) (*models.EnqueueRes, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.EnqueueRes{RunID: "run-2", Status: models.RunQueued}, nil
}

func (f *fakeReasoningService) GetRun(_ context.Context, runID string) (*models.RunRes, error) {
	if runID != "run-1" {
		return nil, repository.ErrRunNotFound
	}
	return &models.RunRes{Run: &models.ReasoningRun{ID: runID, Status: models.RunSolved}}, nil
}

func (f *fakeReasoningService) ListRuns(_ context.Context, userID string, limit int) ([]*models.ReasoningRun, error) {
	if userID == "" {
		return nil, services.ErrEmptyUserID
	}
	return []*models.ReasoningRun{{ID: "run-1", UserID: userID, MaxDepth: limit}}, nil
}

func newTestApp(svc ReasoningService, store LLMConfigStore) *fiber.App {
	app := fiber.New()
	rh := NewReasoningHandler(svc)
	app.Post("/api/reasoning/solve", rh.Solve)
	app.Post("/api/reasoning/jobs", rh.Enqueue)
	app.Get("/api/reasoning/runs/:run_id", rh.GetRun)
	app.Get("/api/reasoning/users/:user_id/runs", rh.ListRuns)
	if store != nil {
		lh := NewLLMConfigHandler(store)
		app.Get("/api/llm/config/:user_id", lh.Get)
		app.Put("/api/llm/config/:user_id", lh.Put)
		app.Delete("/api/llm/config/:user_id", lh.Delete)
	}
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func TestSolveHandler(t *testing.T) {
	svc := &fakeReasoningService{}
	app := newTestApp(svc, nil)

	resp, body := doJSON(t, app, "POST", "/api/reasoning/solve",
		`{"user_id":"u1","question":"2+2?","max_breadth":2,"max_retries":0}`)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, true, body["solved"])
	assert.Equal(t, 2, svc.lastReq.MaxBreadth)
	require.NotNil(t, svc.lastReq.MaxRetries)
	assert.Equal(t, 0, *svc.lastReq.MaxRetries)
}

func TestSolveHandler_Validation(t *testing.T) {
	app := newTestApp(&fakeReasoningService{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing question", `{"user_id":"u1"}`},
		{"unknown provider", `{"question":"q","provider":"claude-ish"}`},
		{"breadth too wide", `{"question":"q","max_breadth":100}`},
		{"too many retries", `{"question":"q","max_retries":9}`},
		{"not json", `question=q`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, app, "POST", "/api/reasoning/solve", tt.body)
			assert.Equal(t, 400, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSolveHandler_ServiceErrors(t *testing.T) {
	svc := &fakeReasoningService{err: services.ErrEmptyQuestion}
	app := newTestApp(svc, nil)

	resp, _ := doJSON(t, app, "POST", "/api/reasoning/solve", `{"question":"q"}`)
	assert.Equal(t, 400, resp.StatusCode)

	svc.err = errors.New("database is down")
	resp, body := doJSON(t, app, "POST", "/api/reasoning/solve", `{"question":"q"}`)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "internal error", body["error"])
}

func TestEnqueueHandler(t *testing.T) {
	svc := &fakeReasoningService{}
	app := newTestApp(svc, nil)

	resp, body := doJSON(t, app, "POST", "/api/reasoning/jobs", `{"user_id":"u1","question":"q"}`)
	assert.Equal(t, 202, resp.StatusCode)
	assert.Equal(t, "run-2", body["run_id"])
	assert.Equal(t, "queued", body["status"])

	svc.err = services.ErrQueueKeyWithoutUser
	resp, _ = doJSON(t, app, "POST", "/api/reasoning/jobs", `{"question":"q","api_key":"k"}`)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestGetRunHandler(t *testing.T) {
	app := newTestApp(&fakeReasoningService{}, nil)

	resp, body := doJSON(t, app, "GET", "/api/reasoning/runs/run-1", "")
	assert.Equal(t, 200, resp.StatusCode)
	run := body["run"].(map[string]interface{})
	assert.Equal(t, "solved", run["status"])

	resp, _ = doJSON(t, app, "GET", "/api/reasoning/runs/nope", "")
	assert.Equal(t, 404, resp.StatusCode)
}

func TestListRunsHandler(t *testing.T) {
	app := newTestApp(&fakeReasoningService{}, nil)

	resp, body := doJSON(t, app, "GET", "/api/reasoning/users/u1/runs?limit=5", "")
	assert.Equal(t, 200, resp.StatusCode)
	runs := body["runs"].([]interface{})
	require.Len(t, runs, 1)
	assert.Equal(t, 5.0, runs[0].(map[string]interface{})["max_depth"])
}

func TestLLMConfigHandler_RoundTrip(t *testing.T) {
	store := services.NewLLMConfigService(cache.NewCacheService(cache.InitL1Cache(), nil), &config.Config{LLMProvider: "openai", LLMModel: "gpt-4o-mini"})
	app := newTestApp(&fakeReasoningService{}, store)

	resp, _ := doJSON(t, app, "GET", "/api/llm/config/u1", "")
	assert.Equal(t, 404, resp.StatusCode)

	resp, body := doJSON(t, app, "PUT", "/api/llm/config/u1",
		`{"provider":"gemini","model":"gemini-2.0-flash","api_key":"AIzaSyExampleKey"}`)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "AIza***eKey", body["api_key"])

	resp, body = doJSON(t, app, "GET", "/api/llm/config/u1", "")
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "gemini", body["provider"])
	assert.Equal(t, "u1", body["user_id"])
	assert.NotContains(t, body["api_key"], "Example")

	resp, _ = doJSON(t, app, "PUT", "/api/llm/config/u1", `{"provider":"other","model":"m","api_key":"12345678"}`)
	assert.Equal(t, 400, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/api/llm/config/u1", "")
	assert.Equal(t, 204, resp.StatusCode)
	resp, _ = doJSON(t, app, "GET", "/api/llm/config/u1", "")
	assert.Equal(t, 404, resp.StatusCode)
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	app := fiber.New()
	app.Get("/healthz", NewHealthHandler(map[string]Pinger{"postgres": ok, "redis": ok}).Healthz)
	resp, body := doJSON(t, app, "GET", "/healthz", "")
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	app = fiber.New()
	app.Get("/healthz", NewHealthHandler(map[string]Pinger{"postgres": ok, "redis": down}).Healthz)
	resp, body = doJSON(t, app, "GET", "/healthz", "")
	assert.Equal(t, 503, resp.StatusCode)
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "connection refused", checks["redis"])
}

type runLookupFunc func(ctx context.Context, runID string) (*models.RunRes, error)

func (f runLookupFunc) GetRun(ctx context.Context, runID string) (*models.RunRes, error) {
	return f(ctx, runID)
}

func TestWSHandler_FinishedEvent(t *testing.T) {
	ctx := context.Background()

	h := NewWSHandler(nil, &fakeReasoningService{})
	done := h.finishedEvent(ctx, "run-1")
	require.NotNil(t, done)
	assert.Equal(t, "run-1", done.RunID)
	assert.Equal(t, models.RunSolved, done.Status)

	assert.Nil(t, h.finishedEvent(ctx, "missing"))

	failed := NewWSHandler(nil, runLookupFunc(func(_ context.Context, runID string) (*models.RunRes, error) {
		return &models.RunRes{Run: &models.ReasoningRun{ID: runID, Status: models.RunFailed, Error: "no candidates"}}, nil
	}))
	done = failed.finishedEvent(ctx, "run-2")
	require.NotNil(t, done)
	assert.Equal(t, models.RunFailed, done.Status)
	assert.Equal(t, "no candidates", done.Event.Reason)

	running := NewWSHandler(nil, runLookupFunc(func(_ context.Context, runID string) (*models.RunRes, error) {
		return &models.RunRes{Run: &models.ReasoningRun{ID: runID, Status: models.RunRunning}}, nil
	}))
	assert.Nil(t, running.finishedEvent(ctx, "run-3"))

	assert.Nil(t, NewWSHandler(nil, nil).finishedEvent(ctx, "run-1"))
}
