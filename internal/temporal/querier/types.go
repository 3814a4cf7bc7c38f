// Package querier starts onboarding flows and reads their state.
package querier

import (
	"time"

	"github.com/comunidad-solar/comuneros-go/internal/temporal/workflows"
)

// ListOptions controls filtering for ListFlows.
type ListOptions struct {
	// TaskQueue filters by task queue name. Empty means no filter.
	TaskQueue string
	// StatusFilter filters by workflow status (e.g. "Running", "Completed").
	StatusFilter string
	// PageSize limits the number of results.
	PageSize int
}

// FlowSummary is a lightweight overview of a flow execution.
type FlowSummary struct {
	WorkflowID string    `json:"workflow_id"`
	RunID      string    `json:"run_id"`
	Type       string    `json:"type,omitempty"`
	Status     string    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	CloseTime  time.Time `json:"close_time,omitempty"`
	TaskQueue  string    `json:"task_queue"`
}

// FlowStatus is a flow summary plus the state its query handler reports.
type FlowStatus struct {
	FlowSummary
	State *workflows.FlowState `json:"state,omitempty"`
}

// Workflow ids. A repeated trigger for the same proposal or session maps to
// the same id and joins the running execution.
func ContratoWorkflowID(propuestaID string) string { return "comuneros-contrato-" + propuestaID }

func DatosWorkflowID(subject string) string { return "comuneros-datos-" + subject }

func PagoWorkflowID(subject, pagoID string, visita bool) string {
	kind := "propuesta"
	if visita {
		kind = "visita"
	}
	return "comuneros-pago-" + kind + "-" + subject + "-" + pagoID
}
