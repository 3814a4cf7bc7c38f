// Package uischema defines the typed UI contract emitted by the backend.
// The frontend renders the wizard from this schema and never decides on its
// own which question to show.
package uischema

// UISchema is the top-level schema the backend emits for a session.
type UISchema struct {
	Version    string      `json:"ui_schema_version"`
	SessionID  string      `json:"session_id"`
	Phase      Phase       `json:"phase"`
	Next       string      `json:"next,omitempty"`
	Components []Component `json:"components"`
	Actions    []Action    `json:"actions"`
}

// Phase is the coarse wizard state.
type Phase string

const (
	PhaseQuestions Phase = "preguntas"
	PhaseAnalyzing Phase = "analizando"
	PhaseSending   Phase = "enviando"
	PhaseRouted    Phase = "redirigido"
)

// ComponentType identifies what React component to render.
type ComponentType string

const (
	ComponentMemberCard    ComponentType = "member_card"
	ComponentQuestion      ComponentType = "question"
	ComponentPhotoUpload   ComponentType = "photo_upload"
	ComponentBlockMessage  ComponentType = "block_message"
	ComponentErrorBanner   ComponentType = "error_banner"
	ComponentPostalCodeAsk ComponentType = "postal_code_required"
)

// Visibility controls component rendering.
type Visibility string

const (
	VisibilityVisible   Visibility = "visible"
	VisibilityHidden    Visibility = "hidden"
	VisibilityCollapsed Visibility = "collapsed"
)

// Component is a single renderable UI element.
type Component struct {
	Type       ComponentType  `json:"type"`
	Title      string         `json:"title"`
	Priority   int            `json:"priority"`
	Visibility Visibility     `json:"visibility"`
	Disabled   bool           `json:"disabled,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// ActionUIType classifies the user-facing action.
type ActionUIType string

const (
	ActionSubmit     ActionUIType = "submit"
	ActionRetryPhoto ActionUIType = "retry_photo"
)

// ConfirmConfig describes confirmation requirements for an action.
type ConfirmConfig struct {
	Required        bool   `json:"required"`
	AcknowledgeText string `json:"acknowledge_text,omitempty"`
}

// Action is a user-triggerable operation from the UI.
type Action struct {
	Type     ActionUIType   `json:"type"`
	Label    string         `json:"label"`
	Disabled bool           `json:"disabled,omitempty"`
	Confirm  *ConfirmConfig `json:"confirm,omitempty"`
}
