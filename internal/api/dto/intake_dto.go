package dto

import "github.com/spec-kit/intake-assistant/internal/domain"

// IntakeRespondRequest starts or continues an assistant session. TypeHint
// is accepted for widget compatibility; classification is model-driven.
type IntakeRespondRequest struct {
	Request     string              `json:"request"`
	TypeHint    string              `json:"type_hint"`
	SessionID   string              `json:"session_id"`
	Screenshots []domain.Screenshot `json:"screenshots"`
}

// IntakeQuestionsRequest asks for the follow-up questionnaire.
type IntakeQuestionsRequest struct {
	Request  string `json:"request"`
	TypeHint string `json:"type_hint"`
}

// IntakeSubmitRequest finalizes a session into a record.
type IntakeSubmitRequest struct {
	Request     string              `json:"request"`
	TypeHint    string              `json:"type_hint"`
	Questions   []domain.Question   `json:"questions"`
	Responses   []string            `json:"responses"`
	Screenshots []domain.Screenshot `json:"screenshots"`
}
