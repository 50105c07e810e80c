package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"codementor/internal/logging/types"
	"codementor/internal/platform"
	"codementor/pkg/models"
	"codementor/pkg/utils"
)

// Task manager configuration constants
const (
	DefaultMaxWorkers   = 4
	DefaultMaxQueueSize = 100
	DefaultRetention    = 24 * time.Hour

	MaxWorkers   = 64
	MaxQueueSize = 10000
)

// Scraper is what a job runs
type Scraper interface {
	ScrapeURL(ctx context.Context, rawURL string) (*models.ProblemData, error)
	ScrapeHTML(rawURL, html string) (*models.ProblemData, error)
	Engine() string
}

// Options configures a TaskManager
type Options struct {
	Workers   int
	QueueSize int
	// Retention is how long finished records are kept
	Retention       time.Duration
	CleanupInterval time.Duration
	Store           TaskStore
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultMaxWorkers
	}
	o.Workers = min(o.Workers, MaxWorkers)
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultMaxQueueSize
	}
	o.QueueSize = min(o.QueueSize, MaxQueueSize)
	if o.Retention <= 0 {
		o.Retention = DefaultRetention
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = time.Hour
	}
	if o.Store == nil {
		o.Store = NewInMemoryTaskStore()
	}
	return o
}

// TaskManager runs scrape jobs on a bounded worker pool. Callers get a
// process id back immediately and poll for the result.
type TaskManager struct {
	scraper Scraper
	opts    Options
	store   TaskStore
	logger  types.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex
	running  bool
	taskChan chan *taskExecution
}

type taskExecution struct {
	processID string
	request   models.ScrapeRequest
}

// NewTaskManager creates a new task manager
func NewTaskManager(scraper Scraper, opts Options, logger types.Logger) *TaskManager {
	opts = opts.withDefaults()
	return &TaskManager{
		scraper:  scraper,
		opts:     opts,
		store:    opts.Store,
		logger:   logger.WithField("component", "task_manager"),
		taskChan: make(chan *taskExecution, opts.QueueSize),
	}
}

// Start starts the workers and the cleanup loop
func (tm *TaskManager) Start(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.running {
		return fmt.Errorf("task manager already running")
	}

	tm.ctx, tm.cancel = context.WithCancel(ctx)
	tm.running = true

	for i := 0; i < tm.opts.Workers; i++ {
		tm.wg.Add(1)
		go tm.worker(i)
	}

	tm.wg.Add(1)
	go tm.cleanupRoutine()

	tm.logger.Info("Task manager started", map[string]interface{}{
		"max_workers":    tm.opts.Workers,
		"max_queue_size": tm.opts.QueueSize,
	})
	return nil
}

// Stop cancels running jobs and waits for the workers, or for ctx
func (tm *TaskManager) Stop(ctx context.Context) error {
	tm.mu.Lock()
	if !tm.running {
		tm.mu.Unlock()
		return nil
	}
	tm.running = false
	tm.cancel()
	tm.mu.Unlock()

	tm.logger.Info("Stopping task manager...")

	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		tm.logger.Info("Task manager stopped gracefully")
		return nil
	case <-ctx.Done():
		tm.logger.Warn("Task manager shutdown timed out")
		return ctx.Err()
	}
}

// Submit queues a scrape job and returns its accepted record
func (tm *TaskManager) Submit(ctx context.Context, request models.ScrapeRequest) (*TaskResult, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if !tm.running {
		return nil, ErrNotRunning
	}

	engine := "snapshot"
	if request.HTML == "" {
		engine = tm.scraper.Engine()
	}
	result := &TaskResult{
		ProcessID: utils.GenerateRequestID(),
		URL:       request.URL,
		Status:    TaskStatusAccepted,
		Engine:    engine,
		CreatedAt: time.Now(),
	}
	if err := tm.store.Store(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to store task result: %w", err)
	}

	select {
	case tm.taskChan <- &taskExecution{processID: result.ProcessID, request: request}:
	default:
		_ = tm.store.Delete(ctx, result.ProcessID)
		return nil, ErrQueueFull
	}

	tm.logger.Info("Scrape job accepted", map[string]interface{}{
		"process_id": result.ProcessID,
		"url":        request.URL,
		"engine":     engine,
	})
	return result, nil
}

// Get returns the record of one job
func (tm *TaskManager) Get(ctx context.Context, processID string) (*TaskResult, error) {
	return tm.store.Get(ctx, processID)
}

// List returns every retained job record, newest first
func (tm *TaskManager) List(ctx context.Context) ([]*TaskResult, error) {
	return tm.store.List(ctx)
}

// IsHealthy reports whether jobs are accepted
func (tm *TaskManager) IsHealthy() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.running && tm.ctx.Err() == nil
}

// Check is IsHealthy as a dependency probe
func (tm *TaskManager) Check(context.Context) error {
	if !tm.IsHealthy() {
		return ErrNotRunning
	}
	return nil
}

func (tm *TaskManager) worker(workerID int) {
	defer tm.wg.Done()

	for {
		select {
		case <-tm.ctx.Done():
			return
		case task := <-tm.taskChan:
			tm.processTask(workerID, task)
		}
	}
}

func (tm *TaskManager) processTask(workerID int, task *taskExecution) {
	startTime := time.Now()
	ctx := tm.ctx

	result, err := tm.store.Get(ctx, task.processID)
	if err != nil {
		tm.logger.Error("Scrape job record missing", map[string]interface{}{
			"process_id": task.processID,
			"error":      err.Error(),
		})
		return
	}
	result.Status = TaskStatusProcessing
	if err := tm.store.Update(ctx, result); err != nil {
		tm.logger.Warn("Failed to mark scrape job processing", map[string]interface{}{"error": err.Error()})
	}

	var problem *models.ProblemData
	if task.request.HTML != "" {
		problem, err = tm.scraper.ScrapeHTML(task.request.URL, task.request.HTML)
	} else {
		problem, err = tm.scraper.ScrapeURL(ctx, task.request.URL)
	}

	processingTime := time.Since(startTime)
	completedAt := time.Now()
	result.ProcessingTime = &processingTime
	result.CompletedAt = &completedAt

	fields := map[string]interface{}{
		"worker_id":       workerID,
		"process_id":      task.processID,
		"url":             task.request.URL,
		"processing_time": utils.FormatDuration(processingTime),
	}
	if err != nil {
		result.Status = TaskStatusFailure
		result.Error = err.Error()
		fields["error"] = err.Error()
		tm.logger.Error("Scrape job failed", fields)
	} else {
		result.Status = TaskStatusSuccess
		result.Problem = problem
		result.IsProblemPage = platform.IsProblemPage(problem.Platform, task.request.URL)
		fields["platform"] = string(problem.Platform)
		tm.logger.Info("Scrape job completed", fields)
	}

	// the record outlives a cancelled manager context
	if err := tm.store.Update(context.Background(), result); err != nil {
		tm.logger.Error("Failed to store scrape job result", map[string]interface{}{"error": err.Error()})
	}
}

func (tm *TaskManager) cleanupRoutine() {
	defer tm.wg.Done()

	ticker := time.NewTicker(tm.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-tm.ctx.Done():
			return
		case <-ticker.C:
			if err := tm.store.Cleanup(tm.ctx, tm.opts.Retention); err != nil {
				tm.logger.Error("Failed to cleanup old task results", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}
