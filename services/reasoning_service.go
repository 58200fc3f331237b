package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reasoning_backend/config"
	"reasoning_backend/models"
	"reasoning_backend/pkg/logging"
	"reasoning_backend/platform/cache"
	"reasoning_backend/platform/llm"
	"reasoning_backend/reasoning"
	"reasoning_backend/repository"

	"github.com/google/uuid"
)

var (
	ErrEmptyQuestion = errors.New("question cannot be empty")
	// ErrQueueKeyWithoutUser rejects queued requests whose API key could not be
	// looked up again by the worker.
	ErrQueueKeyWithoutUser = errors.New("user_id is required to queue a request with its own api_key")
)

// cachedTranscript is what a solved question leaves in the transcript cache.
type cachedTranscript struct {
	Attempts   int                 `json:"attempts"`
	Transcript []reasoning.Message `json:"transcript"`
}

type ReasoningService struct {
	cfg         *config.Config
	runs        repository.RunRepository
	profiles    *LLMConfigService
	cache       cache.CacheService
	transcripts *cache.TypedCache[cachedTranscript]
	newOracle   OracleFactory
	queue       JobQueue
	publisher   RunEventPublisher
	archive     TranscriptArchive
}

// NewReasoningService wires the search engine to persistence. queue, publisher and
// archive may be nil; the matching features are then skipped.
func NewReasoningService(
	cfg *config.Config,
	runs repository.RunRepository,
	profiles *LLMConfigService,
	cacheService cache.CacheService,
	newOracle OracleFactory,
	queue JobQueue,
	publisher RunEventPublisher,
	archive TranscriptArchive,
) *ReasoningService {
	if newOracle == nil {
		newOracle = llm.NewOracle
	}
	return &ReasoningService{
		cfg:         cfg,
		runs:        runs,
		profiles:    profiles,
		cache:       cacheService,
		transcripts: cache.NewTypedCache[cachedTranscript](cacheService),
		newOracle:   newOracle,
		queue:       queue,
		publisher:   publisher,
		archive:     archive,
	}
}

// Solve runs a search to completion inside the request.
func (s *ReasoningService) Solve(ctx context.Context, req models.SolveReq) (*models.SolveRes, error) {
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return nil, ErrEmptyQuestion
	}
	profile, err := s.profiles.GetOrUseDefault(ctx, req.UserID, req.APIKey, req.Model, req.Provider)
	if err != nil {
		logging.Logger.Error("fail Solve profile", "userID", req.UserID, "error", err)
		return nil, err
	}
	logging.Logger.Info("Solve with LLM config",
		"userID", req.UserID,
		"provider", profile.Provider,
		"model", profile.Model,
		"apiKey", MaskAPIKey(profile.APIKey),
	)

	opts := s.searchOptions(req)
	run := s.newRun(req, profile, opts, models.RunRunning)

	key := transcriptCacheKey(profile, req.Question, opts)
	if hit, ok, err := s.transcripts.Get(key); err == nil && ok {
		logging.Logger.Info("Solve transcript cache hit", "runID", run.ID)
		runsFinished.WithLabelValues(string(models.RunSolved), "true").Inc()
		run.Status = models.RunSolved
		run.Attempts = hit.Attempts
		if err := s.runs.Create(ctx, run); err != nil {
			logging.Logger.Error("fail Solve create", "error", err)
			return nil, err
		}
		if err := s.runs.Finish(ctx, run, hit.Transcript); err != nil {
			logging.Logger.Error("fail Solve finish", "runID", run.ID, "error", err)
			return nil, err
		}
		return &models.SolveRes{
			RunID:      run.ID,
			Status:     run.Status,
			Solved:     true,
			Attempts:   hit.Attempts,
			Cached:     true,
			Transcript: hit.Transcript,
		}, nil
	}

	if err := s.runs.Create(ctx, run); err != nil {
		logging.Logger.Error("fail Solve create", "error", err)
		return nil, err
	}
	return s.execute(ctx, run, profile, opts, key)
}

// Enqueue records a queued run and hands it to the worker.
func (s *ReasoningService) Enqueue(ctx context.Context, req models.SolveReq) (*models.EnqueueRes, error) {
	if s.queue == nil {
		return nil, fmt.Errorf("job queue is not configured")
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return nil, ErrEmptyQuestion
	}
	if req.APIKey != "" && req.UserID == "" {
		return nil, ErrQueueKeyWithoutUser
	}
	profile, err := s.profiles.GetOrUseDefault(ctx, req.UserID, req.APIKey, req.Model, req.Provider)
	if err != nil {
		logging.Logger.Error("fail Enqueue profile", "userID", req.UserID, "error", err)
		return nil, err
	}
	// jobs never carry keys, so the worker finds this one through the stored profile
	if req.APIKey != "" {
		if err := s.profiles.SetUserLLMConfig(ctx, req.UserID, profile); err != nil {
			logging.Logger.Error("fail Enqueue store profile", "userID", req.UserID, "error", err)
			return nil, err
		}
	}
	opts := s.searchOptions(req)
	run := s.newRun(req, profile, opts, models.RunQueued)
	if err := s.runs.Create(ctx, run); err != nil {
		logging.Logger.Error("fail Enqueue create", "error", err)
		return nil, err
	}

	if err := s.queue.PushJob(ctx, models.SolveJob{RunID: run.ID, Request: req}); err != nil {
		logging.Logger.Error("fail Enqueue push", "runID", run.ID, "error", err)
		run.Status = models.RunFailed
		run.Error = err.Error()
		if ferr := s.runs.Finish(context.WithoutCancel(ctx), run, nil); ferr != nil {
			logging.Logger.Error("fail Enqueue finish", "runID", run.ID, "error", ferr)
		}
		return nil, err
	}
	s.publish(ctx, run.ID, reasoning.Event{}, models.RunQueued)
	return &models.EnqueueRes{RunID: run.ID, Status: models.RunQueued}, nil
}

// RunJob executes a queued run. It is what the worker calls for every job.
func (s *ReasoningService) RunJob(ctx context.Context, job *models.SolveJob) (*models.SolveRes, error) {
	run, err := s.runs.GetByID(ctx, job.RunID)
	if err != nil {
		logging.Logger.Error("fail RunJob load", "runID", job.RunID, "error", err)
		return nil, err
	}
	if run.Status != models.RunQueued {
		logging.Logger.Warn("RunJob skipping run that is not queued", "runID", run.ID, "status", run.Status)
		return nil, nil
	}

	req := job.Request
	profile, err := s.profiles.GetOrUseDefault(ctx, req.UserID, "", req.Model, req.Provider)
	if err != nil {
		logging.Logger.Error("fail RunJob profile", "runID", run.ID, "error", err)
		s.fail(context.WithoutCancel(ctx), run, err)
		return nil, err
	}
	// the job is already off the queue, so a run that cannot start is finished here
	if err := s.runs.UpdateStatus(ctx, run.ID, models.RunRunning); err != nil {
		logging.Logger.Error("fail RunJob status", "runID", run.ID, "error", err)
		s.fail(context.WithoutCancel(ctx), run, err)
		return nil, err
	}
	run.Status = models.RunRunning
	s.publish(ctx, run.ID, reasoning.Event{}, models.RunRunning)

	opts := s.searchOptions(req)
	return s.execute(ctx, run, profile, opts, transcriptCacheKey(profile, run.Question, opts))
}

func (s *ReasoningService) GetRun(ctx context.Context, runID string) (*models.RunRes, error) {
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	res := &models.RunRes{Run: run}
	if run.ArchiveKey != "" && s.archive != nil {
		url, err := s.archive.PresignedTranscriptURL(ctx, run.ArchiveKey, s.cfg.ArchiveURLTTL)
		if err != nil {
			logging.Logger.Warn("fail GetRun presign", "runID", runID, "error", err)
		} else {
			res.ArchiveURL = url
		}
	}
	return res, nil
}

func (s *ReasoningService) ListRuns(ctx context.Context, userID string, limit int) ([]*models.ReasoningRun, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runs.ListByUser(ctx, userID, limit)
}

// execute runs the search for a persisted run and records the outcome.
func (s *ReasoningService) execute(ctx context.Context, run *models.ReasoningRun, profile *LLMConfig, opts reasoning.Options, cacheKey string) (*models.SolveRes, error) {
	// the outcome is stored even when the caller has gone away
	persistCtx := context.WithoutCancel(ctx)

	oracle, err := s.newOracle(ctx, s.providerConfig(profile))
	if err != nil {
		logging.Logger.Error("fail execute oracle", "runID", run.ID, "provider", profile.Provider, "error", err)
		s.fail(persistCtx, run, err)
		return nil, err
	}
	oracle = llm.NewCachedOracle(oracle, s.cache, profile.Provider+"/"+profile.Model, s.cfg.JudgeCacheTTL)

	opts.Logger = logging.Logger.With("runID", run.ID)
	opts.Observer = reasoning.ObserverFunc(func(ev reasoning.Event) {
		s.publish(ctx, run.ID, ev, "")
	})
	engine, err := reasoning.NewEngine(oracle, opts)
	if err != nil {
		s.fail(persistCtx, run, err)
		return nil, err
	}

	result := engine.Search(ctx, run.Question)

	run.Attempts = result.Attempts
	run.FinalDepth = result.Depth
	run.FinalBreadth = result.Breadth
	run.Nodes = result.Nodes
	run.Status = models.RunSolved
	if !result.Solved {
		run.Status = models.RunFailed
		if result.Err != nil {
			run.Error = result.Err.Error()
		}
	}
	if err := s.runs.Finish(persistCtx, run, result.Transcript); err != nil {
		logging.Logger.Error("fail execute finish", "runID", run.ID, "error", err)
		return nil, err
	}
	s.publish(persistCtx, run.ID, reasoning.Event{Attempt: result.Attempts, Reason: run.Error}, run.Status)
	runsFinished.WithLabelValues(string(run.Status), "false").Inc()
	searchAttempts.Observe(float64(result.Attempts))
	searchNodes.Observe(float64(result.Nodes))

	if result.Solved {
		entry := cachedTranscript{Attempts: result.Attempts, Transcript: result.Transcript}
		if err := s.transcripts.Set(cacheKey, entry, s.cfg.TranscriptCacheTTL); err != nil {
			logging.Logger.Warn("fail execute cache", "runID", run.ID, "error", err)
		}
		s.archiveTranscript(persistCtx, run, result.Transcript)
	}

	logging.Logger.Info("Run finished",
		"runID", run.ID,
		"status", run.Status,
		"attempts", result.Attempts,
		"nodes", result.Nodes,
	)
	return &models.SolveRes{
		RunID:      run.ID,
		Status:     run.Status,
		Solved:     result.Solved,
		Attempts:   result.Attempts,
		Transcript: result.Transcript,
	}, nil
}

func (s *ReasoningService) fail(ctx context.Context, run *models.ReasoningRun, cause error) {
	run.Status = models.RunFailed
	run.Error = cause.Error()
	runsFinished.WithLabelValues(string(models.RunFailed), "false").Inc()
	if err := s.runs.Finish(ctx, run, nil); err != nil {
		logging.Logger.Error("fail Finish", "runID", run.ID, "error", err)
	}
	s.publish(ctx, run.ID, reasoning.Event{Reason: run.Error}, models.RunFailed)
}

func (s *ReasoningService) archiveTranscript(ctx context.Context, run *models.ReasoningRun, transcript []reasoning.Message) {
	if s.archive == nil {
		return
	}
	data, err := json.Marshal(struct {
		RunID      string              `json:"run_id"`
		Question   string              `json:"question"`
		Provider   string              `json:"provider"`
		Model      string              `json:"model"`
		Attempts   int                 `json:"attempts"`
		Transcript []reasoning.Message `json:"transcript"`
	}{run.ID, run.Question, run.Provider, run.Model, run.Attempts, transcript})
	if err != nil {
		logging.Logger.Error("fail archiveTranscript marshal", "runID", run.ID, "error", err)
		return
	}
	key, err := s.archive.PutTranscript(ctx, run.ID, run.UserID, data)
	if err != nil {
		logging.Logger.Warn("fail archiveTranscript put", "runID", run.ID, "error", err)
		return
	}
	if err := s.runs.SetArchiveKey(ctx, run.ID, key); err != nil {
		logging.Logger.Warn("fail archiveTranscript key", "runID", run.ID, "error", err)
		return
	}
	run.ArchiveKey = key
}

func (s *ReasoningService) publish(ctx context.Context, runID string, ev reasoning.Event, status models.RunStatus) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishRunEvent(ctx, &models.RunEvent{RunID: runID, Event: ev, Status: status})
	if err != nil {
		logging.Logger.Warn("fail publish", "runID", runID, "error", err)
	}
}

func (s *ReasoningService) searchOptions(req models.SolveReq) reasoning.Options {
	opts := reasoning.DefaultOptions()
	opts.MaxBreadth = s.cfg.BeamWidth
	opts.MaxDepth = s.cfg.MaxDepth
	opts.MaxRetries = s.cfg.MaxRetries
	opts.RootValue = s.cfg.RootValue
	opts.SlotAttempts = s.cfg.SlotAttempts
	opts.MaxTokens = s.cfg.AnswerTokens
	if req.MaxBreadth > 0 {
		opts.MaxBreadth = req.MaxBreadth
	}
	if req.MaxDepth > 0 {
		opts.MaxDepth = req.MaxDepth
	}
	if req.MaxRetries != nil {
		opts.MaxRetries = *req.MaxRetries
	}
	return opts
}

func (s *ReasoningService) providerConfig(profile *LLMConfig) llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:      profile.Provider,
		Model:         profile.Model,
		APIKey:        profile.APIKey,
		BaseURL:       s.cfg.LLMBaseURL,
		SystemPrompt:  s.cfg.SystemPrompt,
		ContextTokens: s.cfg.ContextTokens,
		AnswerTokens:  s.cfg.AnswerTokens,
		Timeout:       s.cfg.LLMTimeout,
	}
}

func (s *ReasoningService) newRun(req models.SolveReq, profile *LLMConfig, opts reasoning.Options, status models.RunStatus) *models.ReasoningRun {
	return &models.ReasoningRun{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Question:   req.Question,
		Status:     status,
		Provider:   profile.Provider,
		Model:      profile.Model,
		MaxBreadth: opts.MaxBreadth,
		MaxDepth:   opts.MaxDepth,
		MaxRetries: opts.MaxRetries,
		CreatedAt:  time.Now(),
	}
}

func transcriptCacheKey(profile *LLMConfig, question string, opts reasoning.Options) string {
	raw := fmt.Sprintf("%s|%s|%d|%d|%d|%s", profile.Provider, profile.Model, opts.MaxBreadth, opts.MaxDepth, opts.MaxRetries, question)
	sum := sha256.Sum256([]byte(raw))
	return "transcript:" + hex.EncodeToString(sum[:])
}
