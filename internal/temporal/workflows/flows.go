// Package workflows defines the Temporal workflow functions.
//
// Each flow paces a backend call with a fixed delay the UI shows as a
// progress screen. Delays are plain timers: they are neither retried nor
// cancelled once started.
package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/comunidad-solar/comuneros-go/internal/temporal/activities"
)

// QueryNameState is the Query handler name every flow registers.
const QueryNameState = "state"

// Fixed UI pacing delays.
const (
	ContractSignatureDelay = 10 * time.Second
	ValidationRefreshDelay = 3 * time.Second
	PaidFlowDelay          = 3200 * time.Millisecond
)

// Phase is the step a flow is in.
type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCalling   Phase = "calling"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// FlowState is what the state query returns while a flow runs and what it
// carries when it ends.
type FlowState struct {
	Phase Phase  `json:"phase"`
	Error string `json:"error,omitempty"`
}

// Failed reports whether the flow ended with a backend error.
func (s FlowState) Failed() bool { return s.Phase == PhaseFailed }

// ContractResult is the output of ContractSignatureWorkflow.
type ContractResult struct {
	State FlowState `json:"state"`
	URL   string    `json:"url,omitempty"`
}

// RefreshResult is the output of ValidationRefreshWorkflow.
type RefreshResult struct {
	State  FlowState              `json:"state"`
	Output activities.DatosOutput `json:"output"`
}

// PaidFlowInput is the input to PaidFlowWorkflow.
type PaidFlowInput struct {
	Pago   activities.PagoInput `json:"pago"`
	Visita bool                 `json:"visita"`
}

// PaidFlowResult is the output of PaidFlowWorkflow.
type PaidFlowResult struct {
	State  FlowState             `json:"state"`
	Output activities.PagoOutput `json:"output"`
}

// activityContext runs activities once with a generous timeout. A failed
// backend call is reported to the user, never repeated behind their back.
func activityContext(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})
}

func registerState(ctx workflow.Context, state *FlowState) error {
	if err := workflow.SetQueryHandler(ctx, QueryNameState, func() (FlowState, error) {
		return *state, nil
	}); err != nil {
		return fmt.Errorf("register state query: %w", err)
	}
	return nil
}

func fail(state *FlowState, step string, err error) {
	state.Phase = PhaseFailed
	state.Error = fmt.Sprintf("%s failed: %v", step, err)
}

// ContractSignatureWorkflow waits ContractSignatureDelay and then fetches
// the contract signature link.
func ContractSignatureWorkflow(ctx workflow.Context, in activities.FirmaInput) (ContractResult, error) {
	logger := workflow.GetLogger(ctx)
	state := FlowState{Phase: PhaseWaiting}
	if err := registerState(ctx, &state); err != nil {
		return ContractResult{}, err
	}

	if err := workflow.Sleep(ctx, ContractSignatureDelay); err != nil {
		return ContractResult{}, err
	}

	state.Phase = PhaseCalling
	var out activities.FirmaOutput
	if err := workflow.ExecuteActivity(activityContext(ctx), "ObtenerURLFirma", in).Get(ctx, &out); err != nil {
		fail(&state, "url firma", err)
		logger.Warn("signature link failed", "subject", in.Subject, "error", err)
		return ContractResult{State: state}, nil
	}
	state.Phase = PhaseCompleted
	logger.Info("signature link ready", "subject", in.Subject, "propuesta", in.Envelope.PropuestaID)
	return ContractResult{State: state, URL: out.URL}, nil
}

// ValidationRefreshWorkflow waits ValidationRefreshDelay and then fetches
// the member data the backend consolidated after validation.
func ValidationRefreshWorkflow(ctx workflow.Context, in activities.DatosInput) (RefreshResult, error) {
	logger := workflow.GetLogger(ctx)
	state := FlowState{Phase: PhaseWaiting}
	if err := registerState(ctx, &state); err != nil {
		return RefreshResult{}, err
	}

	if err := workflow.Sleep(ctx, ValidationRefreshDelay); err != nil {
		return RefreshResult{}, err
	}

	state.Phase = PhaseCalling
	var out activities.DatosOutput
	if err := workflow.ExecuteActivity(activityContext(ctx), "ObtenerDatosActualizados", in).Get(ctx, &out); err != nil {
		fail(&state, "datos actualizados", err)
		logger.Warn("validation refresh failed", "subject", in.Subject, "error", err)
		return RefreshResult{State: state}, nil
	}
	state.Phase = PhaseCompleted
	return RefreshResult{State: state, Output: out}, nil
}

// PaidFlowWorkflow post-processes a paid proposal or paid visit and then
// holds the confirmation screen for PaidFlowDelay before returning.
func PaidFlowWorkflow(ctx workflow.Context, in PaidFlowInput) (PaidFlowResult, error) {
	logger := workflow.GetLogger(ctx)
	state := FlowState{Phase: PhaseCalling}
	if err := registerState(ctx, &state); err != nil {
		return PaidFlowResult{}, err
	}

	activity := "ProcesarPropuestaPagada"
	if in.Visita {
		activity = "ProcesarVisitaPagada"
	}
	var out activities.PagoOutput
	if err := workflow.ExecuteActivity(activityContext(ctx), activity, in.Pago).Get(ctx, &out); err != nil {
		fail(&state, activity, err)
		logger.Warn("payment post-processing failed", "subject", in.Pago.Subject, "error", err)
		return PaidFlowResult{State: state}, nil
	}

	state.Phase = PhaseWaiting
	if err := workflow.Sleep(ctx, PaidFlowDelay); err != nil {
		return PaidFlowResult{}, err
	}
	state.Phase = PhaseCompleted
	logger.Info("payment confirmed", "subject", in.Pago.Subject, "estado", out.Result.Estado)
	return PaidFlowResult{State: state, Output: out}, nil
}
