package background

import (
	"context"
	"slices"
	"sync"
	"time"

	"codementor/pkg/models"
)

// TaskStatus represents the status of a background scrape job
type TaskStatus string

const (
	TaskStatusAccepted   TaskStatus = "ACCEPTED"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusSuccess    TaskStatus = "SUCCESS"
	TaskStatusFailure    TaskStatus = "FAILURE"
)

// TaskResult is the record of one scrape job
type TaskResult struct {
	ProcessID      string              `json:"processId"`
	URL            string              `json:"url"`
	Status         TaskStatus          `json:"status"`
	Problem        *models.ProblemData `json:"problem,omitempty"`
	IsProblemPage  bool                `json:"isProblemPage"`
	Engine         string              `json:"engine,omitempty"`
	Error          string              `json:"error,omitempty"`
	CreatedAt      time.Time           `json:"createdAt"`
	CompletedAt    *time.Time          `json:"completedAt,omitempty"`
	ProcessingTime *time.Duration      `json:"processingTime,omitempty"`
}

func (r *TaskResult) clone() *TaskResult {
	c := *r
	return &c
}

// TaskStore keeps job records
type TaskStore interface {
	Store(ctx context.Context, result *TaskResult) error
	Get(ctx context.Context, processID string) (*TaskResult, error)
	Update(ctx context.Context, result *TaskResult) error
	Delete(ctx context.Context, processID string) error
	// Cleanup removes records created before now-maxAge
	Cleanup(ctx context.Context, maxAge time.Duration) error
	// List returns every record, newest first
	List(ctx context.Context) ([]*TaskResult, error)
}

// InMemoryTaskStore implements TaskStore in process memory. Records are
// copied in and out.
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*TaskResult
	now   func() time.Time
}

// NewInMemoryTaskStore creates a new in-memory task store
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{
		tasks: make(map[string]*TaskResult),
		now:   time.Now,
	}
}

func (s *InMemoryTaskStore) Store(_ context.Context, result *TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[result.ProcessID] = result.clone()
	return nil
}

func (s *InMemoryTaskStore) Get(_ context.Context, processID string) (*TaskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, exists := s.tasks[processID]
	if !exists {
		return nil, ErrTaskNotFound
	}
	return result.clone(), nil
}

func (s *InMemoryTaskStore) Update(_ context.Context, result *TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[result.ProcessID]; !exists {
		return ErrTaskNotFound
	}
	s.tasks[result.ProcessID] = result.clone()
	return nil
}

func (s *InMemoryTaskStore) Delete(_ context.Context, processID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[processID]; !exists {
		return ErrTaskNotFound
	}
	delete(s.tasks, processID)
	return nil
}

func (s *InMemoryTaskStore) Cleanup(_ context.Context, maxAge time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	for processID, result := range s.tasks {
		if result.CreatedAt.Before(cutoff) {
			delete(s.tasks, processID)
		}
	}
	return nil
}

func (s *InMemoryTaskStore) List(_ context.Context) ([]*TaskResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*TaskResult, 0, len(s.tasks))
	for _, result := range s.tasks {
		results = append(results, result.clone())
	}
	slices.SortFunc(results, func(a, b *TaskResult) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return results, nil
}

// Common errors
var (
	ErrTaskNotFound = NewTaskError("TASK_NOT_FOUND", "task not found")
	ErrQueueFull    = NewTaskError("QUEUE_FULL", "task queue is full")
	ErrNotRunning   = NewTaskError("NOT_RUNNING", "task manager is not running")
)

// TaskError represents a background task error
type TaskError struct {
	Message string
	Code    string
}

func NewTaskError(code, message string) *TaskError {
	return &TaskError{
		Message: message,
		Code:    code,
	}
}

func (e *TaskError) Error() string {
	return e.Message
}
