package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"reasoning_backend/config"
	"reasoning_backend/models"
	"reasoning_backend/platform/cache"
	"reasoning_backend/platform/database"
	"reasoning_backend/platform/llm"
	"reasoning_backend/reasoning"
	"reasoning_backend/repository"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		LLMProvider:        "openai",
		LLMModel:           "test-model",
		OpenAIAPIKey:       "server-openai-key",
		GeminiAPIKey:       "server-gemini-key",
		SystemPrompt:       "be logical",
		BeamWidth:          1,
		MaxDepth:           3,
		MaxRetries:         0,
		RootValue:          1,
		SlotAttempts:       3,
		JudgeCacheTTL:      time.Minute,
		TranscriptCacheTTL: time.Minute,
		ArchiveURLTTL:      time.Minute,
	}
}

func newTestRuns(t *testing.T) repository.RunRepository {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Wrap(gdb).AutoMigrate())
	return repository.NewRunRepository(gdb)
}

// mathOracle proposes a solution right away and verifies it one level down.
type mathOracle struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (o *mathOracle) Baseline() []reasoning.Message {
	return []reasoning.Message{{Role: reasoning.RoleSystem, Content: "be logical"}}
}

func (o *mathOracle) Generate(_ context.Context, conv []reasoning.Message, params reasoning.GenerateParams) (*reasoning.Completion, error) {
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()
	if o.fail {
		return nil, errors.New("oracle down")
	}
	last := conv[len(conv)-1].Content
	avoid := strings.Contains(last, "DIFFERENT")
	switch {
	case strings.Contains(last, "strict logic grader"):
		return &reasoning.Completion{Content: "0.9"}, nil
	case params.RepeatPenalty != nil && *params.RepeatPenalty == reasoning.RepeatPenaltyNone:
		if avoid {
			return &reasoning.Completion{Content: "refute: no"}, nil
		}
		return &reasoning.Completion{Content: "SOLVED"}, nil
	case avoid:
		return &reasoning.Completion{Content: "idea: another way"}, nil
	default:
		return &reasoning.Completion{Content: "solution: 42"}, nil
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.RunEvent
}

func (p *recordingPublisher) PublishRunEvent(_ context.Context, event *models.RunEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

func (p *recordingPublisher) statuses() []models.RunStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.RunStatus
	for _, ev := range p.events {
		if ev.Status != "" {
			out = append(out, ev.Status)
		}
	}
	return out
}

type memoryArchive struct {
	objects map[string][]byte
	putErr  error
}

func (a *memoryArchive) PutTranscript(_ context.Context, runID, userID string, data []byte) (string, error) {
	if a.putErr != nil {
		return "", a.putErr
	}
	key := "transcripts/" + userID + "/" + runID + ".json"
	a.objects[key] = data
	return key, nil
}

func (a *memoryArchive) PresignedTranscriptURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://archive.local/" + key, nil
}

type memoryQueue struct {
	mu   sync.Mutex
	jobs []models.SolveJob
}

func (q *memoryQueue) PushJob(_ context.Context, job models.SolveJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Request.APIKey = ""
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *memoryQueue) PopJob(ctx context.Context, timeout time.Duration) (*models.SolveJob, error) {
	q.mu.Lock()
	if len(q.jobs) > 0 {
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()
		return &job, nil
	}
	q.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, nil
	}
}

type fixture struct {
	svc       *ReasoningService
	runs      repository.RunRepository
	profiles  *LLMConfigService
	oracle    *mathOracle
	configs   []llm.ProviderConfig
	publisher *recordingPublisher
	archive   *memoryArchive
	queue     *memoryQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testConfig()
	f := &fixture{
		runs:      newTestRuns(t),
		oracle:    &mathOracle{},
		publisher: &recordingPublisher{},
		archive:   &memoryArchive{objects: map[string][]byte{}},
		queue:     &memoryQueue{},
	}
	cs := cache.NewCacheService(cache.InitL1Cache(), nil)
	f.profiles = NewLLMConfigService(cs, cfg)
	factory := func(ctx context.Context, pc llm.ProviderConfig) (reasoning.Oracle, error) {
		f.configs = append(f.configs, pc)
		if pc.Provider == "gemini" && pc.APIKey == "" {
			return nil, errors.New("gemini oracle needs an API key")
		}
		return f.oracle, nil
	}
	f.svc = NewReasoningService(cfg, f.runs, f.profiles, cs, factory, f.queue, f.publisher, f.archive)
	return f
}

func TestSolve_PersistsSolvedRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Solve(ctx, models.SolveReq{UserID: "u1", Question: "  what is 6 x 7?  "})
	require.NoError(t, err)

	assert.True(t, res.Solved)
	assert.False(t, res.Cached)
	assert.Equal(t, models.RunSolved, res.Status)
	assert.Equal(t, []reasoning.Message{
		{Role: reasoning.RoleUser, Content: "what is 6 x 7?"},
		{Role: reasoning.RoleAssistant, Content: "solution: 42"},
	}, res.Transcript)

	require.Len(t, f.configs, 1)
	assert.Equal(t, "server-openai-key", f.configs[0].APIKey)
	assert.Equal(t, "test-model", f.configs[0].Model)
	assert.Equal(t, "be logical", f.configs[0].SystemPrompt)

	got, err := f.svc.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunSolved, got.Run.Status)
	assert.Equal(t, 1, got.Run.Attempts)
	require.Len(t, got.Run.Steps, 2)
	assert.Equal(t, "solution: 42", got.Run.Steps[1].Content)
	require.NotEmpty(t, got.Run.ArchiveKey)
	assert.Equal(t, "https://archive.local/"+got.Run.ArchiveKey, got.ArchiveURL)
	assert.Contains(t, string(f.archive.objects[got.Run.ArchiveKey]), "solution: 42")

	assert.Equal(t, []models.RunStatus{models.RunSolved}, f.publisher.statuses())
	assert.Greater(t, len(f.publisher.events), 1)
}

func TestSolve_ServesRepeatsFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := models.SolveReq{UserID: "u1", Question: "what is 6 x 7?"}

	first, err := f.svc.Solve(ctx, req)
	require.NoError(t, err)
	calls := f.oracle.calls
	hits := testutil.ToFloat64(runsFinished.WithLabelValues("solved", "true"))

	second, err := f.svc.Solve(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, hits+1, testutil.ToFloat64(runsFinished.WithLabelValues("solved", "true")))

	assert.True(t, second.Cached)
	assert.True(t, second.Solved)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Transcript, second.Transcript)
	assert.Equal(t, calls, f.oracle.calls)

	// different search parameters are a different question
	wider := req
	wider.MaxBreadth = 2
	third, err := f.svc.Solve(ctx, wider)
	require.NoError(t, err)
	assert.False(t, third.Cached)

	runs, err := f.svc.ListRuns(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestSolve_FailedSearch(t *testing.T) {
	f := newFixture(t)
	f.oracle.fail = true
	ctx := context.Background()

	res, err := f.svc.Solve(ctx, models.SolveReq{UserID: "u1", Question: "q"})
	require.NoError(t, err)

	assert.False(t, res.Solved)
	assert.Equal(t, models.RunFailed, res.Status)
	assert.NotNil(t, res.Transcript)
	assert.Empty(t, res.Transcript)

	got, err := f.svc.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.NotEmpty(t, got.Run.Error)
	assert.Empty(t, got.Run.ArchiveKey)
	assert.Empty(t, got.ArchiveURL)
	assert.Empty(t, f.archive.objects)
}

func TestSolve_OracleFactoryFailureMarksRunFailed(t *testing.T) {
	f := newFixture(t)
	f.svc.cfg.GeminiAPIKey = ""
	ctx := context.Background()

	_, err := f.svc.Solve(ctx, models.SolveReq{UserID: "u1", Question: "q", Provider: "gemini"})
	require.Error(t, err)

	runs, err := f.svc.ListRuns(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunFailed, runs[0].Status)
	assert.Equal(t, "gemini", runs[0].Provider)
	assert.Contains(t, runs[0].Error, "API key")
}

func TestSolve_ArchiveFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.archive.putErr = errors.New("bucket gone")

	res, err := f.svc.Solve(context.Background(), models.SolveReq{UserID: "u1", Question: "q"})
	require.NoError(t, err)
	assert.True(t, res.Solved)

	got, err := f.svc.GetRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Empty(t, got.Run.ArchiveKey)
}

func TestSolve_RejectsEmptyQuestion(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Solve(context.Background(), models.SolveReq{Question: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestEnqueue_ThenRunJob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Enqueue(ctx, models.SolveReq{
		UserID:   "u1",
		Question: "what is 6 x 7?",
		Provider: "openai",
		Model:    "user-model",
		APIKey:   "user-secret-key",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RunQueued, res.Status)

	require.Len(t, f.queue.jobs, 1)
	job := f.queue.jobs[0]
	assert.Equal(t, res.RunID, job.RunID)
	assert.Empty(t, job.Request.APIKey)

	queued, err := f.svc.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunQueued, queued.Run.Status)

	out, err := f.svc.RunJob(ctx, &job)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, out.Solved)

	// the worker found the user's key through the stored profile
	require.Len(t, f.configs, 1)
	assert.Equal(t, "user-secret-key", f.configs[0].APIKey)
	assert.Equal(t, "user-model", f.configs[0].Model)

	assert.Equal(t, []models.RunStatus{models.RunQueued, models.RunRunning, models.RunSolved}, f.publisher.statuses())

	// a run that already left the queue is not executed twice
	again, err := f.svc.RunJob(ctx, &job)
	require.NoError(t, err)
	assert.Nil(t, again)
	assert.Len(t, f.configs, 1)
}

func TestEnqueue_PartialProfileKeepsUserKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Enqueue(ctx, models.SolveReq{
		UserID:   "u1",
		Question: "what is 6 x 7?",
		APIKey:   "user-secret-key",
	})
	require.NoError(t, err)
	require.Len(t, f.queue.jobs, 1)
	job := f.queue.jobs[0]
	assert.Empty(t, job.Request.APIKey)

	stored, err := f.profiles.GetUserLLMConfig(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "user-secret-key", stored.APIKey)
	assert.Equal(t, "openai", stored.Provider)
	assert.Equal(t, "test-model", stored.Model)

	out, err := f.svc.RunJob(ctx, &job)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, res.RunID, out.RunID)

	require.Len(t, f.configs, 1)
	assert.Equal(t, "user-secret-key", f.configs[0].APIKey)
	assert.Equal(t, "test-model", f.configs[0].Model)
}

// statusFailingRuns refuses every status transition.
type statusFailingRuns struct {
	repository.RunRepository
}

func (statusFailingRuns) UpdateStatus(context.Context, string, models.RunStatus) error {
	return errors.New("database is read-only")
}

func TestRunJob_StatusUpdateFailureFinishesRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cs := cache.NewCacheService(cache.InitL1Cache(), nil)
	factory := func(ctx context.Context, pc llm.ProviderConfig) (reasoning.Oracle, error) {
		f.configs = append(f.configs, pc)
		return f.oracle, nil
	}
	f.svc = NewReasoningService(testConfig(), statusFailingRuns{f.runs}, f.profiles, cs, factory, f.queue, f.publisher, f.archive)

	res, err := f.svc.Enqueue(ctx, models.SolveReq{Question: "q"})
	require.NoError(t, err)
	require.Len(t, f.queue.jobs, 1)

	_, err = f.svc.RunJob(ctx, &f.queue.jobs[0])
	require.Error(t, err)
	assert.Empty(t, f.configs)

	run, err := f.runs.GetByID(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunFailed, run.Status)
	assert.Contains(t, run.Error, "read-only")
	assert.Equal(t, []models.RunStatus{models.RunQueued, models.RunFailed}, f.publisher.statuses())
}

func TestEnqueue_KeyWithoutUserIsRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Enqueue(context.Background(), models.SolveReq{Question: "q", APIKey: "k"})
	assert.ErrorIs(t, err, ErrQueueKeyWithoutUser)
	assert.Empty(t, f.queue.jobs)
}

func TestRunJob_UnknownRun(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RunJob(context.Background(), &models.SolveJob{RunID: "missing"})
	assert.ErrorIs(t, err, repository.ErrRunNotFound)
}

func TestGetRun_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrRunNotFound)
}

func TestWorker_RunsQueuedJobsUntilCanceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ids []string
	for _, q := range []string{"first", "second"} {
		res, err := f.svc.Enqueue(ctx, models.SolveReq{UserID: "u1", Question: q})
		require.NoError(t, err)
		ids = append(ids, res.RunID)
	}

	w := NewWorker(f.svc, f.queue, 10*time.Millisecond, 1)
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		for _, id := range ids {
			got, err := f.runs.GetByID(context.Background(), id)
			if err != nil || got.Status != models.RunSolved {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
