package router

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"codementor/internal/api/validation"
	"codementor/internal/logging/types"
	"codementor/internal/mentor"
	"codementor/internal/session"
	"codementor/pkg/models"
)

var validate = validator.New()

func init() {
	validation.RegisterMessageValidators(validate)
}

// Completer turns a prompt into completion text
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options tunes the mentoring features
type Options struct {
	MaxHints        int
	HistoryTurns    int
	MaxExplainLines int
}

func (o Options) withDefaults() Options {
	if o.MaxHints <= 0 || o.MaxHints > mentor.MaxHintLevel {
		o.MaxHints = mentor.MaxHintLevel
	}
	if o.HistoryTurns <= 0 {
		o.HistoryTurns = mentor.HistoryTurns
	}
	if o.MaxExplainLines <= 0 {
		o.MaxExplainLines = mentor.MaxExplainLines
	}
	return o
}

type serveFunc func(ctx context.Context, s *session.Session, raw json.RawMessage) (interface{}, error)

type route struct {
	// stateful routes load the caller's session and save it on success
	stateful bool
	serve    serveFunc
}

// Router dispatches typed messages to their handlers
type Router struct {
	llm    Completer
	repo   *session.Repository
	opts   Options
	routes map[models.MessageType]route
	now    func() time.Time
	logger types.Logger
}

// New creates a router with every message type registered
func New(completer Completer, repo *session.Repository, opts Options, logger types.Logger) *Router {
	r := &Router{
		llm:    completer,
		repo:   repo,
		opts:   opts.withDefaults(),
		now:    time.Now,
		logger: logger.WithField("component", "router"),
	}

	r.routes = map[models.MessageType]route{
		models.MessageUserQuery:          stateful(r.userQuery),
		models.MessageHintLadder:         stateful(r.hintLadder),
		models.MessageApproachComparator: stateful(r.approachComparator),
		models.MessageMistakeRadar:       stateful(r.mistakeRadar),
		models.MessageExplainLines:       stateful(r.explainLines),
		models.MessageSessionSummary:     stateful(r.sessionSummary),
		models.MessageStuckNudge:         stateful(r.stuckNudge),
		models.MessageProblemData:        stateful(r.problemData),
		models.MessageGetStorage:         stateless(r.getStorage),
		models.MessageSaveData:           stateless(r.saveData),
		models.MessageSetAPIKey:          stateless(r.setAPIKey),
		models.MessageSetConsent:         stateless(r.setConsent),
		models.MessageClearData:          stateless(r.clearData),
	}
	return r
}

// Types lists the registered message types, sorted
func (r *Router) Types() []models.MessageType {
	out := make([]models.MessageType, 0, len(r.routes))
	for t := range r.routes {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Dispatch decodes a raw message and routes it. It always returns a
// response value; failures carry success false and an error code.
func (r *Router) Dispatch(ctx context.Context, body []byte) interface{} {
	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return failed(&mentor.ValidationError{Field: "message", Reason: "malformed JSON: " + err.Error()})
	}
	return r.Handle(ctx, &env)
}

// Handle routes an already decoded envelope
func (r *Router) Handle(ctx context.Context, env *models.Envelope) interface{} {
	start := r.now()
	rt, ok := r.routes[env.Type]
	if !ok {
		r.logger.Warn("Unknown message type", map[string]interface{}{"type": string(env.Type)})
		res := models.Failed(models.CodeUnknownMessage, fmt.Sprintf("unknown message type %q", env.Type))
		return &models.AckResponse{Result: res}
	}

	logger := r.logger.WithFields(map[string]interface{}{
		"type":       string(env.Type),
		"session_id": env.SessionID,
	})

	resp, err := r.serve(ctx, rt, env)
	if err != nil {
		f := failed(err)
		logger.Warn("Message failed", map[string]interface{}{
			"code":  f.Code,
			"error": err.Error(),
		})
		return f
	}

	logger.Debug("Message handled", map[string]interface{}{
		"duration": r.now().Sub(start).String(),
	})
	return resp
}

func (r *Router) serve(ctx context.Context, rt route, env *models.Envelope) (interface{}, error) {
	if !rt.stateful {
		return rt.serve(ctx, nil, env.Raw)
	}

	if env.SessionID != "" {
		unlock := r.repo.Lock(env.SessionID)
		defer unlock()
	}

	s, err := r.repo.Session(ctx, env.SessionID)
	if err != nil {
		return nil, err
	}

	resp, err := rt.serve(ctx, s, env.Raw)
	if err != nil {
		return nil, err
	}
	if err := r.repo.SaveSession(ctx, s); err != nil {
		return nil, err
	}
	if stamped, ok := resp.(interface{ SetSessionID(string) }); ok {
		stamped.SetSessionID(s.ID)
	}
	return resp, nil
}

func stateful[Req any](fn func(ctx context.Context, s *session.Session, req *Req) (interface{}, error)) route {
	return route{stateful: true, serve: decode(fn)}
}

func stateless[Req any](fn func(ctx context.Context, req *Req) (interface{}, error)) route {
	return route{serve: decode(func(ctx context.Context, _ *session.Session, req *Req) (interface{}, error) {
		return fn(ctx, req)
	})}
}

// decode unmarshals and validates the payload before calling fn
func decode[Req any](fn func(ctx context.Context, s *session.Session, req *Req) (interface{}, error)) serveFunc {
	return func(ctx context.Context, s *session.Session, raw json.RawMessage) (interface{}, error) {
		var req Req
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &req); err != nil {
				return nil, &mentor.ValidationError{Field: "payload", Reason: err.Error()}
			}
		}
		if err := validate.Struct(&req); err != nil {
			return nil, err
		}
		return fn(ctx, s, &req)
	}
}
