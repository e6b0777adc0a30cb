package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/deep-research/pkg/config"
	"github.com/mikeboe/deep-research/pkg/research"
)

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Synthesis modes.
const (
	ModeReport = "report"
	ModeAnswer = "answer"
)

// Defaults applied when a request leaves breadth or depth unset.
const (
	DefaultBreadth = 4
	DefaultDepth   = 2
)

// ErrJobNotFound reports an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// Job is one research run tracked by the API. Jobs live in memory only and
// disappear on restart.
type Job struct {
	ID          uuid.UUID         `json:"id"`
	Topic       string            `json:"topic"`
	Breadth     int               `json:"breadth"`
	Depth       int               `json:"depth"`
	Mode        string            `json:"mode"`
	Status      string            `json:"status"`
	Progress    research.Progress `json:"progress"`
	Report      *string           `json:"report,omitempty"`
	Learnings   []string          `json:"learnings,omitempty"`
	VisitedURLs []string          `json:"visited_urls,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type CreateJobRequest struct {
	Query   string `json:"query"`
	Breadth int    `json:"breadth"`
	Depth   int    `json:"depth"`
	Mode    string `json:"mode"`
}

// RunResearch executes one job's traversal and synthesis, logging through
// logger and reporting progress through onProgress.
type RunResearch func(ctx context.Context, job Job, logger *slog.Logger, onProgress func(research.Progress)) (string, *research.Result, error)

// Service owns the in-memory job registry and the workers processing jobs.
type Service struct {
	Cfg      *config.Config
	LLM      llms.Model
	Searcher research.Searcher
	Archiver research.Archiver // optional
	Run      RunResearch

	mu      sync.RWMutex
	jobs    map[uuid.UUID]*Job
	logs    map[uuid.UUID]*MemoryLogHandler
	workers sync.WaitGroup
}

func NewService(cfg *config.Config, llm llms.Model, searcher research.Searcher) *Service {
	s := &Service{
		Cfg:      cfg,
		LLM:      llm,
		Searcher: searcher,
		jobs:     make(map[uuid.UUID]*Job),
		logs:     make(map[uuid.UUID]*MemoryLogHandler),
	}
	s.Run = s.runEngine
	return s
}

// CreateJob registers a job and starts a worker for it. Breadth, depth and
// mode fall back to their defaults when unset.
func (s *Service) CreateJob(req CreateJobRequest) (*Job, error) {
	topic := strings.TrimSpace(req.Query)
	if topic == "" {
		return nil, errors.New("query must not be empty")
	}
	if req.Breadth <= 0 {
		req.Breadth = DefaultBreadth
	}
	if req.Depth <= 0 {
		req.Depth = DefaultDepth
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeReport
	}
	if mode != ModeReport && mode != ModeAnswer {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	now := time.Now()
	job := &Job{
		ID:        uuid.New(),
		Topic:     topic,
		Breadth:   req.Breadth,
		Depth:     req.Depth,
		Mode:      mode,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.logs[job.ID] = NewMemoryLogHandler()
	s.mu.Unlock()

	s.workers.Add(1)
	go s.runJob(job.ID)

	snapshot := cloneJob(job)
	return &snapshot, nil
}

func (s *Service) GetJob(id uuid.UUID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	snapshot := cloneJob(job)
	return &snapshot, nil
}

// ListJobs returns all known jobs, newest first.
func (s *Service) ListJobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, cloneJob(job))
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// JobLogs returns the log trail captured for a job so far.
func (s *Service) JobLogs(id uuid.UUID) ([]LogEntry, error) {
	s.mu.RLock()
	handler, ok := s.logs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrJobNotFound
	}
	return handler.Entries(), nil
}

func (s *Service) runJob(id uuid.UUID) {
	defer s.workers.Done()
	ctx := context.Background()

	s.mu.RLock()
	job := cloneJob(s.jobs[id])
	handler := s.logs[id]
	s.mu.RUnlock()

	logger := slog.New(handler)
	s.updateJob(id, func(j *Job) { j.Status = StatusRunning })

	report, result, err := s.Run(ctx, job, logger, func(p research.Progress) {
		s.updateJob(id, func(j *Job) { j.Progress = p })
	})
	if err != nil {
		logger.Error("Research failed", "error", err)
		s.updateJob(id, func(j *Job) {
			j.Status = StatusFailed
			j.Error = err.Error()
		})
		return
	}

	s.updateJob(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Report = &report
		j.Learnings = result.Learnings
		j.VisitedURLs = result.VisitedURLs
	})
}

func (s *Service) updateJob(id uuid.UUID, mutate func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return
	}
	mutate(job)
	job.UpdatedAt = time.Now()
}

// runEngine is the default RunResearch: a full engine built from the
// service's collaborators.
func (s *Service) runEngine(ctx context.Context, job Job, logger *slog.Logger, onProgress func(research.Progress)) (string, *research.Result, error) {
	engine := research.NewEngine(research.Config{
		SearchLimit:  s.Cfg.SearchLimit,
		MaxLearnings: s.Cfg.MaxLearnings,
		ContentLimit: s.Cfg.ContentLimit,
	}, s.LLM, s.Searcher)
	engine.Logger = logger
	engine.Archiver = s.Archiver
	engine.OnProgress = onProgress

	result, err := engine.Research(ctx, job.Topic, job.Breadth, job.Depth)
	if err != nil {
		return "", nil, err
	}

	var output string
	if job.Mode == ModeAnswer {
		output, err = engine.WriteFinalAnswer(ctx, job.Topic, result)
	} else {
		output, err = engine.WriteFinalReport(ctx, job.Topic, result)
	}
	if err != nil {
		return "", nil, err
	}
	return output, result, nil
}

func cloneJob(job *Job) Job {
	clone := *job
	if job.Report != nil {
		report := *job.Report
		clone.Report = &report
	}
	clone.Learnings = append([]string(nil), job.Learnings...)
	clone.VisitedURLs = append([]string(nil), job.VisitedURLs...)
	return clone
}
