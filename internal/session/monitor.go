package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"codementor/internal/logging/types"
	"codementor/internal/mentor"
)

// NudgeFunc produces the nudge text for a stuck session
type NudgeFunc func(ctx context.Context, s *Session) string

// MonitorOptions configures a StuckMonitor
type MonitorOptions struct {
	Schedule  string
	Threshold time.Duration
	MaxHints  int
	Nudge     NudgeFunc
	// Notify is called after a nudge was recorded
	Notify func(s *Session)
}

// StuckMonitor periodically flags sessions that have been on one problem past
// the threshold with hints still hidden. A session is nudged once per problem.
type StuckMonitor struct {
	repo    *Repository
	opts    MonitorOptions
	cron    *cron.Cron
	logger  types.Logger
	mu      sync.Mutex
	running bool
}

// NewStuckMonitor creates a monitor over repo
func NewStuckMonitor(repo *Repository, opts MonitorOptions, logger types.Logger) *StuckMonitor {
	if opts.Schedule == "" {
		opts.Schedule = "@every 1m"
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 30 * time.Minute
	}
	if opts.MaxHints <= 0 {
		opts.MaxHints = mentor.MaxHintLevel
	}
	if opts.Nudge == nil {
		opts.Nudge = func(_ context.Context, s *Session) string {
			return mentor.DefaultNudge(s.SecondsElapsed)
		}
	}
	return &StuckMonitor{
		repo:   repo,
		opts:   opts,
		cron:   cron.New(),
		logger: logger.WithField("component", "stuck_monitor"),
	}
}

// Start schedules the check
func (m *StuckMonitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}
	_, err := m.cron.AddFunc(m.opts.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := m.Check(ctx); err != nil {
			m.logger.Error("Stuck check failed", map[string]interface{}{"error": err.Error()})
		}
	})
	if err != nil {
		return fmt.Errorf("invalid stuck check schedule %q: %w", m.opts.Schedule, err)
	}
	m.cron.Start()
	m.running = true

	m.logger.Info("Stuck monitor started", map[string]interface{}{
		"schedule":  m.opts.Schedule,
		"threshold": m.opts.Threshold.String(),
	})
	return nil
}

// Stop waits for a running check to finish, at most until ctx is done
func (m *StuckMonitor) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false
	select {
	case <-m.cron.Stop().Done():
	case <-ctx.Done():
	}
	m.logger.Info("Stuck monitor stopped")
}

// Check runs one pass and returns the ids of newly nudged sessions. The
// nudge text is produced without holding the session lock; the session is
// then reloaded under the lock so concurrent messages are not overwritten.
func (m *StuckMonitor) Check(ctx context.Context) ([]string, error) {
	sessions, err := m.repo.Sessions(ctx)
	if err != nil {
		return nil, err
	}

	now := m.repo.now()
	var nudged []string
	for _, snapshot := range sessions {
		if !m.isStuck(snapshot, now) {
			continue
		}

		msg := m.opts.Nudge(ctx, snapshot)
		s, err := m.record(ctx, snapshot, msg)
		if err != nil {
			m.logger.Error("Failed to record nudge", map[string]interface{}{
				"session_id": snapshot.ID,
				"error":      err.Error(),
			})
			continue
		}
		if s == nil {
			continue
		}

		nudged = append(nudged, s.ID)
		m.logger.Info("Session nudged", map[string]interface{}{
			"session_id": s.ID,
			"problem":    s.ProblemURL,
			"elapsed":    s.SecondsElapsed,
		})
		if m.opts.Notify != nil {
			m.opts.Notify(s)
		}
	}
	return nudged, nil
}

// record stores msg on the current version of the session. It returns nil
// when the session was cleared, moved to another problem or stopped being
// stuck while the nudge was produced.
func (m *StuckMonitor) record(ctx context.Context, snapshot *Session, msg string) (*Session, error) {
	unlock := m.repo.Lock(snapshot.ID)
	defer unlock()

	s, err := m.repo.LoadSession(ctx, snapshot.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	now := m.repo.now()
	if s.ProblemURL != snapshot.ProblemURL || !m.isStuck(s, now) {
		m.logger.Debug("Session changed while nudging, skipped", map[string]interface{}{"session_id": s.ID})
		return nil, nil
	}

	s.PendingNudge = msg
	s.NudgedAt = &now
	if err := m.repo.SaveSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *StuckMonitor) isStuck(s *Session, now time.Time) bool {
	if s.ProblemURL == "" || s.NudgedAt != nil {
		return false
	}
	if s.HintsRemaining(m.opts.MaxHints) == 0 {
		return false
	}
	return time.Duration(s.Elapsed(now))*time.Second >= m.opts.Threshold
}

// TakeNudge returns and clears the pending nudge of s
func TakeNudge(s *Session) string {
	msg := s.PendingNudge
	s.PendingNudge = ""
	return msg
}
