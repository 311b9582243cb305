package domain

// QuestionInputType enumerates questionnaire input widgets.
type QuestionInputType string

const (
	InputText     QuestionInputType = "text"
	InputTextarea QuestionInputType = "textarea"
	InputSelect   QuestionInputType = "select"
	InputDate     QuestionInputType = "date"
	InputYesNo    QuestionInputType = "yesno"
)

// Question is a generated follow-up question. Generated fresh per request,
// never reused across sessions.
type Question struct {
	Text        string            `json:"question"`
	InputType   QuestionInputType `json:"type"`
	Required    bool              `json:"required"`
	Category    string            `json:"category"`
	Placeholder string            `json:"placeholder,omitempty"`
	Options     []string          `json:"options,omitempty"`
}

// Submission aggregates the initial request with questionnaire answers.
// Responses are positionally aligned with Questions; a missing entry is
// treated as empty.
type Submission struct {
	InitialRequest string
	TypeHint       string
	Questions      []Question
	Responses      []string
	Screenshots    []Screenshot
}

// Response returns the answer aligned with question index i, or "" when
// absent.
func (s Submission) Response(i int) string {
	if i < 0 || i >= len(s.Responses) {
		return ""
	}
	return s.Responses[i]
}
