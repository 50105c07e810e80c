package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"codementor/internal/logging/types"
	"codementor/internal/mentor"
	"codementor/pkg/models"
)

// Storage keys
const (
	KeySettings = "settings"
	KeyConsent  = "consent"
	KeyAPIKey   = "apiKey"

	sessionPrefix    = "session_"
	progressPrefix   = "progress_"
	approachesPrefix = "approaches_"

	// lockStripes bounds the number of session mutexes regardless of how
	// many sessions a process sees
	lockStripes = 64
)

// ErrNotFound is returned when a typed record is absent
var ErrNotFound = errors.New("not found")

// StorageError wraps a failure of the underlying store
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ProgressKey is the key of the per-problem progress record
func ProgressKey(url string) string { return progressPrefix + url }

// ApproachesKey is the key of the saved approaches of a problem
func ApproachesKey(url string) string { return approachesPrefix + url }

// Repository gives typed access to a Store
type Repository struct {
	store  Store
	now    func() time.Time
	logger types.Logger
	locks  [lockStripes]sync.Mutex
}

// NewRepository wraps store
func NewRepository(store Store, logger types.Logger) *Repository {
	return &Repository{
		store:  store,
		now:    time.Now,
		logger: logger.WithField("component", "session_repository"),
	}
}

// Store returns the underlying store
func (r *Repository) Store() Store {
	return r.store
}

func (r *Repository) load(ctx context.Context, key string, v interface{}) error {
	values, err := r.store.Get(ctx, key)
	if err != nil {
		return &StorageError{Op: "get", Err: err}
	}
	raw, ok := values[key]
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &StorageError{Op: "decode " + key, Err: err}
	}
	return nil
}

func (r *Repository) save(ctx context.Context, entries map[string]interface{}) error {
	data := make(map[string]json.RawMessage, len(entries))
	for k, v := range entries {
		raw, err := json.Marshal(v)
		if err != nil {
			return &StorageError{Op: "encode " + k, Err: err}
		}
		data[k] = raw
	}
	if err := r.store.Set(ctx, data); err != nil {
		return &StorageError{Op: "set", Err: err}
	}
	return nil
}

// Session loads the session with id, creating a fresh one when absent or
// when id is empty. New sessions also count towards Settings.TotalSessions.
func (r *Repository) Session(ctx context.Context, id string) (*Session, error) {
	if id != "" {
		var s Session
		err := r.load(ctx, sessionPrefix+id, &s)
		if err == nil {
			return &s, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	s := New(id, r.now())
	settings, err := r.Settings(ctx)
	if err != nil {
		return nil, err
	}
	settings.TotalSessions++
	if err := r.save(ctx, map[string]interface{}{KeySettings: settings}); err != nil {
		return nil, err
	}
	r.logger.Debug("Session created", map[string]interface{}{"session_id": s.ID})
	return s, nil
}

// Lock serialises read-modify-write cycles on session id. Every writer of a
// stored session (router, stuck monitor) must hold it between load and save.
func (r *Repository) Lock(id string) (unlock func()) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &r.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// LoadSession loads an existing session without creating one
func (r *Repository) LoadSession(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := r.load(ctx, sessionPrefix+id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSession persists s together with the progress of its current problem
func (r *Repository) SaveSession(ctx context.Context, s *Session) error {
	now := r.now()
	s.Touch(now)

	entries := map[string]interface{}{sessionPrefix + s.ID: s}
	if s.ProblemURL != "" {
		entries[ProgressKey(s.ProblemURL)] = s.Progress(now)
		if len(s.Approaches) > 0 {
			entries[ApproachesKey(s.ProblemURL)] = s.Approaches
		}
	}
	return r.save(ctx, entries)
}

// Sessions lists every stored session
func (r *Repository) Sessions(ctx context.Context) ([]*Session, error) {
	keys, err := r.store.Keys(ctx, sessionPrefix)
	if err != nil {
		return nil, &StorageError{Op: "keys", Err: err}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := r.store.Get(ctx, keys...)
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}

	sessions := make([]*Session, 0, len(values))
	for _, k := range keys {
		raw, ok := values[k]
		if !ok {
			continue
		}
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			r.logger.Warn("Skipping unreadable session", map[string]interface{}{
				"key":   k,
				"error": err.Error(),
			})
			continue
		}
		sessions = append(sessions, &s)
	}
	return sessions, nil
}

// Progress loads the saved progress of a problem URL
func (r *Repository) Progress(ctx context.Context, url string) (*Progress, error) {
	var p Progress
	if err := r.load(ctx, ProgressKey(url), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Approaches loads the approaches saved for a problem URL
func (r *Repository) Approaches(ctx context.Context, url string) ([]models.Approach, error) {
	var a []models.Approach
	if err := r.load(ctx, ApproachesKey(url), &a); err != nil {
		return nil, err
	}
	return a, nil
}

// Observe moves s to problem. On a problem change the saved progress of the
// new problem, if any, is restored.
func (r *Repository) Observe(ctx context.Context, s *Session, problem *models.ProblemData) (bool, error) {
	now := r.now()
	if !s.Observe(problem, now) {
		return false, nil
	}

	p, err := r.Progress(ctx, problem.URL)
	switch {
	case errors.Is(err, ErrNotFound):
		return true, nil
	case err != nil:
		return true, err
	}
	s.Restore(p, now)
	return true, nil
}

// Settings loads the global settings, writing defaults on first use
func (r *Repository) Settings(ctx context.Context) (*Settings, error) {
	s := DefaultSettings()
	err := r.load(ctx, KeySettings, s)
	if errors.Is(err, ErrNotFound) {
		if err := r.save(ctx, map[string]interface{}{KeySettings: s}); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SetConsent records the user's data-use consent
func (r *Repository) SetConsent(ctx context.Context, consent bool) error {
	return r.save(ctx, map[string]interface{}{KeyConsent: consent})
}

// Consent reports the recorded consent; false when never set
func (r *Repository) Consent(ctx context.Context) (bool, error) {
	var c bool
	err := r.load(ctx, KeyConsent, &c)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return c, err
}

// SetAPIKey stores the LLM API key
func (r *Repository) SetAPIKey(ctx context.Context, key string) error {
	return r.save(ctx, map[string]interface{}{KeyAPIKey: strings.TrimSpace(key)})
}

// APIKey returns the stored LLM API key, empty when unset
func (r *Repository) APIKey(ctx context.Context) (string, error) {
	var key string
	err := r.load(ctx, KeyAPIKey, &key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return key, err
}

// Get returns raw values for keys. The API key is never exposed; with no
// keys every other stored value is returned.
func (r *Repository) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	if len(keys) == 0 {
		all, err := r.store.Keys(ctx, "")
		if err != nil {
			return nil, &StorageError{Op: "keys", Err: err}
		}
		keys = all
	}

	visible := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != KeyAPIKey {
			visible = append(visible, k)
		}
	}
	if len(visible) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	values, err := r.store.Get(ctx, visible...)
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	return values, nil
}

// Put stores raw client data. Every value must be valid JSON and the API
// key can only be written through SetAPIKey.
func (r *Repository) Put(ctx context.Context, data map[string]json.RawMessage) error {
	for k, v := range data {
		if k == "" {
			return &mentor.ValidationError{Field: "data", Reason: "empty storage key"}
		}
		if k == KeyAPIKey {
			return &mentor.ValidationError{Field: k, Reason: "can only be set with SET_API_KEY"}
		}
		if !json.Valid(v) {
			return &mentor.ValidationError{Field: k, Reason: "value is not valid JSON"}
		}
	}
	if err := r.store.Set(ctx, data); err != nil {
		return &StorageError{Op: "set", Err: err}
	}
	return nil
}

// Clear removes all stored data
func (r *Repository) Clear(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// KeySource adapts the stored API key for the LLM client
func (r *Repository) KeySource() *StoredKey {
	return &StoredKey{repo: r}
}

// StoredKey reads the API key from the repository on every call
type StoredKey struct {
	repo *Repository
}

// APIKey implements llm.KeySource
func (k *StoredKey) APIKey(ctx context.Context) (string, error) {
	return k.repo.APIKey(ctx)
}
