package models

import "encoding/json"

// MessageType names a routable request
type MessageType string

const (
	MessageUserQuery          MessageType = "USER_QUERY"
	MessageHintLadder         MessageType = "HINT_LADDER"
	MessageApproachComparator MessageType = "APPROACH_COMPARATOR"
	MessageMistakeRadar       MessageType = "MISTAKE_RADAR"
	MessageExplainLines       MessageType = "EXPLAIN_LINES"
	MessageSessionSummary     MessageType = "SESSION_SUMMARY"
	MessageStuckNudge         MessageType = "STUCK_NUDGE"
	MessageProblemData        MessageType = "PROBLEM_DATA"
	MessageGetStorage         MessageType = "GET_STORAGE"
	MessageSaveData           MessageType = "SAVE_DATA"
	MessageSetAPIKey          MessageType = "SET_API_KEY"
	MessageSetConsent         MessageType = "SET_CONSENT"
	MessageClearData          MessageType = "CLEAR_DATA"
)

// Error codes returned in Result.Code
const (
	CodeNoAPIKey         = "NO_API_KEY"
	CodeAPIError         = "API_ERROR"
	CodeRetriesExhausted = "RETRIES_EXHAUSTED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnknownMessage   = "UNKNOWN_MESSAGE"
	CodeStorage          = "STORAGE_ERROR"
	CodeInternal         = "INTERNAL"
)

// Envelope is the outer shape of every inbound message: {type, sessionId, ...payload}
type Envelope struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps the full body so the router can decode the typed payload
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var head struct {
		Type      MessageType `json:"type"`
		SessionID string      `json:"sessionId"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	e.Type = head.Type
	e.SessionID = head.SessionID
	e.Raw = append(e.Raw[:0], data...)
	return nil
}

// Result is embedded in every response
type Result struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Failed builds a failure result
func Failed(code, message string) Result {
	return Result{Success: false, Error: message, Code: code}
}

// SetSessionID stamps the session a response belongs to
func (r *Result) SetSessionID(id string) {
	r.SessionID = id
}

// OK is the success result
var OK = Result{Success: true}

// Requests

type UserQueryRequest struct {
	Query         string       `json:"query" validate:"required"`
	ProblemData   *ProblemData `json:"problemData,omitempty"`
	ChatHistory   []ChatTurn   `json:"chatHistory,omitempty" validate:"omitempty,dive"`
	ForceApproach *bool        `json:"forceApproach,omitempty"`
}

// HintLadderRequest reveals one rung; level 0 means the next hidden one
type HintLadderRequest struct {
	Level       int          `json:"level,omitempty" validate:"omitempty,min=1,max=4"`
	ProblemData *ProblemData `json:"problemData,omitempty"`
}

type ApproachComparatorRequest struct {
	ProblemData *ProblemData `json:"problemData,omitempty"`
	Approaches  []Approach   `json:"approaches,omitempty"`
}

type MistakeRadarRequest struct {
	Text        string       `json:"text" validate:"required"`
	ProblemData *ProblemData `json:"problemData,omitempty"`
}

type ExplainLinesRequest struct {
	Code        string       `json:"code" validate:"required,max_lines=30"`
	ProblemData *ProblemData `json:"problemData,omitempty"`
}

type SessionSummaryRequest struct {
	ProblemData *ProblemData `json:"problemData,omitempty"`
}

type StuckNudgeRequest struct {
	ElapsedSeconds int          `json:"elapsedSeconds" validate:"min=0"`
	ProblemData    *ProblemData `json:"problemData,omitempty"`
}

type ProblemDataRequest struct {
	Data *ProblemData `json:"data" validate:"required"`
}

type GetStorageRequest struct {
	Keys []string `json:"keys"`
}

type SaveDataRequest struct {
	Data map[string]json.RawMessage `json:"data" validate:"required"`
}

type SetAPIKeyRequest struct {
	APIKey string `json:"apiKey" validate:"required"`
}

type SetConsentRequest struct {
	Consent bool `json:"consent"`
}

type ClearDataRequest struct{}

// Responses

type UserQueryResponse struct {
	Result
	Reply      string     `json:"reply,omitempty"`
	Approaches []Approach `json:"approaches"`
}

type HintResponse struct {
	Result
	Level     int    `json:"level,omitempty"`
	Hint      string `json:"hint,omitempty"`
	HintsUsed int    `json:"hintsUsed"`
}

type ComparatorResponse struct {
	Result
	Comparison *Comparison `json:"comparison,omitempty"`
}

type MistakeRadarResponse struct {
	Result
	Mistakes []Mistake `json:"mistakes"`
}

type ExplainLinesResponse struct {
	Result
	Explanations []LineExplanation `json:"explanations"`
}

type SessionSummaryResponse struct {
	Result
	Summary *SessionSummary `json:"summary,omitempty"`
}

type StuckNudgeResponse struct {
	Result
	Nudge string `json:"nudge,omitempty"`
}

type ProblemDataResponse struct {
	Result
	Reset          bool `json:"reset"`
	HintsUsed      int  `json:"hintsUsed"`
	ElapsedSeconds int  `json:"elapsedSeconds"`
	UnlockProgress int  `json:"unlockProgress"`
}

type StorageResponse struct {
	Result
	Data map[string]json.RawMessage `json:"data"`
}

type AckResponse struct {
	Result
}
