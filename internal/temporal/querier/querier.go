package querier

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/activities"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/versioning"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/workflows"
)

// ErrFlowFailed wraps the error a flow reported in its result.
var ErrFlowFailed = errors.New("flow failed")

// TemporalQuerier implements FlowQuerier using a Temporal client.
type TemporalQuerier struct {
	client client.Client
}

// New creates a TemporalQuerier.
func New(c client.Client) *TemporalQuerier {
	return &TemporalQuerier{client: c}
}

// subjectOf picks the budget key for a flow: the proposal when there is one,
// the member otherwise.
func subjectOf(env backend.Envelope) string {
	switch {
	case env.PropuestaID != "":
		return env.PropuestaID
	case env.Email != "":
		return env.Email
	case env.Token != "":
		return env.Token
	default:
		return "anonimo"
	}
}

// execute starts the flow, or joins the running one with the same id, and
// waits for its result.
func (q *TemporalQuerier) execute(ctx context.Context, id, queue string, wf, in, out any) error {
	run, err := q.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       id,
		TaskQueue:                queue,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
	}, wf, in)
	if err != nil {
		return fmt.Errorf("start flow %s: %w", id, err)
	}
	if err := run.Get(ctx, out); err != nil {
		return fmt.Errorf("flow %s: %w", id, err)
	}
	return nil
}

func checkState(id string, st workflows.FlowState) error {
	if st.Failed() {
		return fmt.Errorf("%w: %s: %s", ErrFlowFailed, id, st.Error)
	}
	return nil
}

// ObtenerURLFirma runs ContractSignatureWorkflow for the proposal.
func (q *TemporalQuerier) ObtenerURLFirma(ctx context.Context, env backend.Envelope) (backend.FirmaResult, error) {
	if env.PropuestaID == "" {
		return backend.FirmaResult{}, errors.New("contract flow: propuestaId is required")
	}
	id := ContratoWorkflowID(env.PropuestaID)
	var res workflows.ContractResult
	if err := q.execute(ctx, id, versioning.QueueOnboarding, workflows.ContractSignatureWorkflow,
		activities.FirmaInput{Subject: subjectOf(env), Envelope: env}, &res); err != nil {
		return backend.FirmaResult{}, err
	}
	if err := checkState(id, res.State); err != nil {
		return backend.FirmaResult{}, err
	}
	return backend.FirmaResult{URL: res.URL}, nil
}

// ObtenerDatosActualizados runs ValidationRefreshWorkflow for the member.
func (q *TemporalQuerier) ObtenerDatosActualizados(ctx context.Context, env backend.Envelope) (backend.ValidacionResult, error) {
	subject := subjectOf(env)
	id := DatosWorkflowID(subject)
	var res workflows.RefreshResult
	if err := q.execute(ctx, id, versioning.QueueOnboarding, workflows.ValidationRefreshWorkflow,
		activities.DatosInput{Subject: subject, Envelope: env}, &res); err != nil {
		return backend.ValidacionResult{}, err
	}
	if err := checkState(id, res.State); err != nil {
		return backend.ValidacionResult{}, err
	}
	return res.Output.Result, nil
}

func (q *TemporalQuerier) pago(ctx context.Context, req backend.PagoRequest, visita bool) (backend.PagoResult, error) {
	subject := subjectOf(req.Envelope)
	id := PagoWorkflowID(subject, req.PagoID, visita)
	var res workflows.PaidFlowResult
	if err := q.execute(ctx, id, versioning.QueuePagos, workflows.PaidFlowWorkflow, workflows.PaidFlowInput{
		Pago:   activities.PagoInput{Subject: subject, Request: req},
		Visita: visita,
	}, &res); err != nil {
		return backend.PagoResult{}, err
	}
	if err := checkState(id, res.State); err != nil {
		return backend.PagoResult{}, err
	}
	return res.Output.Result, nil
}

// ProcesarPropuestaPagada runs PaidFlowWorkflow for a paid proposal.
func (q *TemporalQuerier) ProcesarPropuestaPagada(ctx context.Context, req backend.PagoRequest) (backend.PagoResult, error) {
	return q.pago(ctx, req, false)
}

// ProcesarVisitaPagada runs PaidFlowWorkflow for a paid technical visit.
func (q *TemporalQuerier) ProcesarVisitaPagada(ctx context.Context, req backend.PagoRequest) (backend.PagoResult, error) {
	return q.pago(ctx, req, true)
}

// ListFlows lists flow executions using Temporal's visibility API.
func (q *TemporalQuerier) ListFlows(ctx context.Context, opts ListOptions) ([]FlowSummary, error) {
	query := ""
	if opts.TaskQueue != "" {
		query = fmt.Sprintf("TaskQueue = %q", opts.TaskQueue)
	}
	if opts.StatusFilter != "" {
		if query != "" {
			query += " AND "
		}
		query += fmt.Sprintf("ExecutionStatus = %q", opts.StatusFilter)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	resp, err := q.client.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
		Query:    query,
		PageSize: int32(pageSize),
	})
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}

	summaries := make([]FlowSummary, 0, len(resp.Executions))
	for _, exec := range resp.Executions {
		s := FlowSummary{
			WorkflowID: exec.Execution.WorkflowId,
			RunID:      exec.Execution.RunId,
			Status:     exec.Status.String(),
			StartTime:  exec.StartTime.AsTime(),
			TaskQueue:  exec.TaskQueue,
		}
		if exec.Type != nil {
			s.Type = exec.Type.Name
		}
		if exec.CloseTime != nil {
			s.CloseTime = exec.CloseTime.AsTime()
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// GetFlowStatus describes a flow and reads its state. Running flows answer
// through the state query; completed flows through their result.
func (q *TemporalQuerier) GetFlowStatus(ctx context.Context, workflowID string) (*FlowStatus, error) {
	desc, err := q.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		return nil, fmt.Errorf("describe flow: %w", err)
	}

	info := desc.WorkflowExecutionInfo
	out := &FlowStatus{FlowSummary: FlowSummary{
		WorkflowID: info.Execution.WorkflowId,
		RunID:      info.Execution.RunId,
		Status:     info.Status.String(),
		StartTime:  info.StartTime.AsTime(),
		TaskQueue:  info.TaskQueue,
	}}
	if info.Type != nil {
		out.Type = info.Type.Name
	}
	if info.CloseTime != nil {
		out.CloseTime = info.CloseTime.AsTime()
	}

	switch info.Status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		resp, err := q.client.QueryWorkflow(ctx, workflowID, "", workflows.QueryNameState)
		if err != nil {
			return nil, fmt.Errorf("query flow state: %w", err)
		}
		var st workflows.FlowState
		if err := resp.Get(&st); err != nil {
			return nil, fmt.Errorf("decode flow state: %w", err)
		}
		out.State = &st

	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		// Every flow result carries its final state under the same key.
		var res struct {
			State workflows.FlowState `json:"state"`
		}
		if err := q.client.GetWorkflow(ctx, workflowID, "").Get(ctx, &res); err != nil {
			return nil, fmt.Errorf("get flow result: %w", err)
		}
		out.State = &res.State
	}
	return out, nil
}
