package router

import (
	"context"
	"fmt"

	"codementor/internal/mentor"
	"codementor/internal/session"
	"codementor/pkg/models"
)

// observe switches the session to the request's problem when one is given
// and returns the problem to prompt with
func (r *Router) observe(ctx context.Context, s *session.Session, problem *models.ProblemData) (*models.ProblemData, error) {
	if problem != nil {
		if _, err := r.repo.Observe(ctx, s, problem); err != nil {
			return nil, err
		}
	}
	return s.Problem, nil
}

func (r *Router) complete(ctx context.Context, prompt string) (string, error) {
	return r.llm.Complete(ctx, prompt)
}

func (r *Router) userQuery(ctx context.Context, s *session.Session, req *models.UserQueryRequest) (interface{}, error) {
	problem, err := r.observe(ctx, s, req.ProblemData)
	if err != nil {
		return nil, err
	}

	history := req.ChatHistory
	if history == nil {
		history = s.History(r.opts.HistoryTurns)
	}
	force := mentor.WantsApproach(req.Query)
	if req.ForceApproach != nil {
		force = *req.ForceApproach
	}

	query := req.Query
	if problem != nil {
		query = mentor.AugmentQuery(req.Query, problem.FullProblemText, problem.ScrapedSolutions)
	}

	text, err := r.complete(ctx, mentor.QueryPrompt(problem, history, query, force))
	if err != nil {
		return nil, err
	}
	result := mentor.ParseQuery(text)

	s.AddTurn(models.RoleUser, req.Query)
	s.AddTurn(models.RoleAssistant, result.Reply)
	if len(result.Approaches) > 0 {
		s.Approaches = result.Approaches
	}

	return &models.UserQueryResponse{
		Result:     models.OK,
		Reply:      result.Reply,
		Approaches: result.Approaches,
	}, nil
}

func (r *Router) hintLadder(ctx context.Context, s *session.Session, req *models.HintLadderRequest) (interface{}, error) {
	problem, err := r.observe(ctx, s, req.ProblemData)
	if err != nil {
		return nil, err
	}

	level := req.Level
	if level == 0 {
		if level, err = s.NextHintLevel(r.opts.MaxHints); err != nil {
			return nil, err
		}
	}
	if level > r.opts.MaxHints {
		return nil, &mentor.ValidationError{Field: "level", Reason: "above the configured hint limit"}
	}

	// a rung already on screen is served again as it was first shown
	if text, ok := s.RevealedHint(level); ok {
		return &models.HintResponse{
			Result:    models.OK,
			Level:     level,
			Hint:      text,
			HintsUsed: s.HintsUsed,
		}, nil
	}
	if level != s.HintsUsed+1 {
		return nil, &mentor.ValidationError{
			Field:  "level",
			Reason: fmt.Sprintf("hints are revealed in order, next is level %d", s.HintsUsed+1),
		}
	}

	prompt, err := mentor.HintPrompt(problem, level, s.RevealedHints)
	if err != nil {
		return nil, err
	}
	text, err := r.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	hint := mentor.ParseHint(level, text)
	if err := s.RevealHint(hint.Level, hint.Hint); err != nil {
		return nil, err
	}

	return &models.HintResponse{
		Result:    models.OK,
		Level:     hint.Level,
		Hint:      hint.Hint,
		HintsUsed: s.HintsUsed,
	}, nil
}

func (r *Router) approachComparator(ctx context.Context, s *session.Session, req *models.ApproachComparatorRequest) (interface{}, error) {
	problem, err := r.observe(ctx, s, req.ProblemData)
	if err != nil {
		return nil, err
	}

	approaches := req.Approaches
	if len(approaches) == 0 {
		approaches = s.Approaches
	}
	prompt, err := mentor.ComparatorPrompt(problem, approaches)
	if err != nil {
		return nil, err
	}
	text, err := r.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &models.ComparatorResponse{
		Result:     models.OK,
		Comparison: mentor.ParseComparison(text),
	}, nil
}

func (r *Router) mistakeRadar(ctx context.Context, s *session.Session, req *models.MistakeRadarRequest) (interface{}, error) {
	problem, err := r.observe(ctx, s, req.ProblemData)
	if err != nil {
		return nil, err
	}

	prompt, err := mentor.MistakeRadarPrompt(problem, req.Text)
	if err != nil {
		return nil, err
	}
	text, err := r.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &models.MistakeRadarResponse{
		Result:   models.OK,
		Mistakes: mentor.ParseMistakes(text, req.Text).Categories,
	}, nil
}

func (r *Router) explainLines(ctx context.Context, s *session.Session, req *models.ExplainLinesRequest) (interface{}, error) {
	problem, err := r.observe(ctx, s, req.ProblemData)
	if err != nil {
		return nil, err
	}

	prompt, err := mentor.ExplainLinesPrompt(problem, req.Code, r.opts.MaxExplainLines)
	if err != nil {
		return nil, err
	}
	text, err := r.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &models.ExplainLinesResponse{
		Result:       models.OK,
		Explanations: mentor.ParseLineExplanations(text, req.Code),
	}, nil
}

func (r *Router) sessionSummary(ctx context.Context, s *session.Session, req *models.SessionSummaryRequest) (interface{}, error) {
	problem, err := r.observe(ctx, s, req.ProblemData)
	if err != nil {
		return nil, err
	}

	elapsed := s.Elapsed(r.now())
	text, err := r.complete(ctx, mentor.SessionSummaryPrompt(problem, s.ChatHistory, s.HintsUsed, elapsed))
	if err != nil {
		return nil, err
	}

	return &models.SessionSummaryResponse{
		Result:  models.OK,
		Summary: mentor.ParseSessionSummary(text, s.HintsUsed, elapsed),
	}, nil
}

// stuckNudge hands out a nudge the monitor already recorded, otherwise asks
// the model. A failed completion degrades to the fixed nudge text.
func (r *Router) stuckNudge(ctx context.Context, s *session.Session, req *models.StuckNudgeRequest) (interface{}, error) {
	problem, err := r.observe(ctx, s, req.ProblemData)
	if err != nil {
		return nil, err
	}

	if pending := session.TakeNudge(s); pending != "" {
		return &models.StuckNudgeResponse{Result: models.OK, Nudge: pending}, nil
	}

	elapsed := req.ElapsedSeconds
	if elapsed == 0 {
		elapsed = s.Elapsed(r.now())
	}

	text, err := r.complete(ctx, mentor.StuckNudgePrompt(problem, elapsed, s.HintsUsed))
	if err != nil {
		r.logger.Warn("Nudge completion failed, using default text", map[string]interface{}{
			"session_id": s.ID,
			"error":      err.Error(),
		})
		text = ""
	}
	now := r.now()
	s.NudgedAt = &now

	return &models.StuckNudgeResponse{
		Result: models.OK,
		Nudge:  mentor.ParseNudge(text, elapsed).Message,
	}, nil
}

func (r *Router) problemData(ctx context.Context, s *session.Session, req *models.ProblemDataRequest) (interface{}, error) {
	reset, err := r.repo.Observe(ctx, s, req.Data)
	if err != nil {
		return nil, err
	}

	now := r.now()
	return &models.ProblemDataResponse{
		Result:         models.OK,
		Reset:          reset,
		HintsUsed:      s.HintsUsed,
		ElapsedSeconds: s.Elapsed(now),
		UnlockProgress: s.UnlockProgress(now),
	}, nil
}

func (r *Router) getStorage(ctx context.Context, req *models.GetStorageRequest) (interface{}, error) {
	data, err := r.repo.Get(ctx, req.Keys...)
	if err != nil {
		return nil, err
	}
	return &models.StorageResponse{Result: models.OK, Data: data}, nil
}

func (r *Router) saveData(ctx context.Context, req *models.SaveDataRequest) (interface{}, error) {
	if err := r.repo.Put(ctx, req.Data); err != nil {
		return nil, err
	}
	return &models.AckResponse{Result: models.OK}, nil
}

func (r *Router) setAPIKey(ctx context.Context, req *models.SetAPIKeyRequest) (interface{}, error) {
	if err := r.repo.SetAPIKey(ctx, req.APIKey); err != nil {
		return nil, err
	}
	r.logger.Info("API key updated")
	return &models.AckResponse{Result: models.OK}, nil
}

func (r *Router) setConsent(ctx context.Context, req *models.SetConsentRequest) (interface{}, error) {
	if err := r.repo.SetConsent(ctx, req.Consent); err != nil {
		return nil, err
	}
	return &models.AckResponse{Result: models.OK}, nil
}

func (r *Router) clearData(ctx context.Context, _ *models.ClearDataRequest) (interface{}, error) {
	if err := r.repo.Clear(ctx); err != nil {
		return nil, err
	}
	r.logger.Info("All stored data cleared")
	return &models.AckResponse{Result: models.OK}, nil
}
