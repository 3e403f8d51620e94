package services

import "encoding/json"

// Conn is the candidate's bidirectional message channel. WriteJSON must be safe
// for concurrent use; the deadline and the turn loop may both write.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

const (
	TypeScreenShareRequest   = "screen_share_request"
	TypeScreenShareConfirmed = "screen_share_confirmed"
	TypeScreenShareRequired  = "screen_share_required"
	TypeInterviewComplete    = "interview_complete"

	setupStage    = "setup"
	setupProgress = "0/1"

	screenShareRequestText   = "Welcome to your AI interview! Before we begin, please start screen sharing for proctoring purposes. Click the 'Share Screen' button below."
	screenShareConfirmedText = "Perfect! Screen sharing is active. Now let's begin your interview. I'll ask you questions and you can respond using voice or text."
	screenShareDeclinedText  = "Screen sharing is required for this interview. Please enable screen sharing to continue."
	screenShareEndedText     = "Screen sharing was stopped. Please restart screen sharing to continue the interview."
	completionText           = "⏰ Interview completed! Here's your comprehensive assessment:"
)

// TurnMessage carries interviewer text plus progress.
type TurnMessage struct {
	Text          string `json:"text"`
	Type          string `json:"type,omitempty"`
	QuestionCount int    `json:"question_count"`
	MaxQuestions  int    `json:"max_questions"`
	CurrentStage  string `json:"current_stage"`
	StageProgress string `json:"stage_progress"`
}

type ErrorMessage struct {
	Error    string `json:"error"`
	StartsAt string `json:"startsAt,omitempty"`
}

type CompletionMessage struct {
	Text           string           `json:"text"`
	Type           string           `json:"type"`
	Summary        string           `json:"summary"`
	AverageScore   *float64         `json:"average_score"`
	StageBreakdown map[string][]int `json:"stage_breakdown"`
	Recommendation *string          `json:"recommendation,omitempty"`
}

type inboundMessage struct {
	Type           string `json:"type"`
	Action         string `json:"action"`
	Answer         string `json:"answer"`
	Reason         string `json:"reason"`
	ViolationCount int    `json:"violation_count"`
	Count          int    `json:"count"`
}

// decodeInbound parses a client frame; fields keeps the raw payload for telemetry storage.
func decodeInbound(raw json.RawMessage) (inboundMessage, map[string]any, error) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return msg, nil, err
	}
	return msg, fields, nil
}
