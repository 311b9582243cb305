package domain

// StepState marks the progress of one pipeline step.
type StepState string

const (
	StepActive    StepState = "active"
	StepCompleted StepState = "completed"
	StepError     StepState = "error"
)

// StatusStep is one entry in the append-only per-session step log.
type StatusStep struct {
	Name      string    `json:"name"`
	State     StepState `json:"status"`
	Message   string    `json:"message"`
	Timestamp int64     `json:"timestamp"`
}

// StatusLog is the session-scoped progress log polled by the client.
// Single writer per session; most recent write wins.
type StatusLog struct {
	SessionID   string       `json:"sessionId"`
	Steps       []StatusStep `json:"steps"`
	CurrentStep *StatusStep  `json:"currentStep"`
	StartedAt   int64        `json:"startTime"`
}
