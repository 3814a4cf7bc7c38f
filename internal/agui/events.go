// Package agui implements AG-UI protocol SSE streaming for session state.
package agui

import "time"

// EventType identifies an AG-UI event.
type EventType string

const (
	EventRunStarted    EventType = "RUN_STARTED"
	EventRunFinished   EventType = "RUN_FINISHED"
	EventRunError      EventType = "RUN_ERROR"
	EventStepStarted   EventType = "STEP_STARTED"
	EventStepFinished  EventType = "STEP_FINISHED"
	EventStateSnapshot EventType = "STATE_SNAPSHOT"
)

// Event is a single SSE event emitted to the client.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Data      any       `json:"data,omitempty"`
}

// StateSnapshotData carries the full form plus its UI schema.
type StateSnapshotData struct {
	Version  int64  `json:"version"`
	Phase    string `json:"phase"`
	State    any    `json:"state"`
	UISchema any    `json:"ui_schema"`
}

// StepData carries phase transition info.
type StepData struct {
	Phase string `json:"phase"`
}

// FinishedData says why the run ended.
type FinishedData struct {
	Reason string `json:"reason"`
	Ruta   string `json:"ruta,omitempty"`
}

// Reasons carried by RUN_FINISHED.
const (
	ReasonAnalysis = "analisis_completado"
	ReasonRoute    = "ruta"
)

// ErrorData carries error info for RUN_ERROR events.
type ErrorData struct {
	Message string `json:"message"`
}
