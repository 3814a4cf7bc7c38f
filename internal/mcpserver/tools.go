// Package mcpserver exposes advisor tooling via MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/comunidad-solar/comuneros-go/internal/backend"
	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/querier"
	"github.com/comunidad-solar/comuneros-go/internal/wizard"
)

// Backend is the part of the REST API the tools reach.
type Backend interface {
	ObtenerDealPorID(ctx context.Context, dealID string) (domain.Deal, error)
	BuscarSKU(ctx context.Context, q string) ([]backend.SKU, error)
	AnadirSKU(ctx context.Context, req backend.AnadirSKURequest) (domain.Propuesta, error)
}

// FlowReader reads paced flow executions.
type FlowReader interface {
	ListFlows(ctx context.Context, opts querier.ListOptions) ([]querier.FlowSummary, error)
	GetFlowStatus(ctx context.Context, workflowID string) (*querier.FlowStatus, error)
}

// RegisterTools registers the advisor MCP tools on the given server. The
// flow tools are only registered when flows is non-nil.
func RegisterTools(server *mcp.Server, api Backend, flows FlowReader) {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "evaluar_respuestas",
			Description: "Dry-run the wizard routing table for a postal code, zone and set of answers",
		},
		evaluarHandler(),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "obtener_deal",
			Description: "Look up a CRM deal by id, with the member data and answers it would seed",
		},
		obtenerDealHandler(api),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "buscar_sku",
			Description: "Search the product catalogue by SKU or description",
		},
		buscarSKUHandler(api),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "anadir_sku",
			Description: "Add a catalogue product to a proposal",
		},
		anadirSKUHandler(api),
	)

	if flows == nil {
		return
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "listar_flujos",
			Description: "List contract, refresh and payment flows with their status",
		},
		listarFlujosHandler(flows),
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "estado_flujo",
			Description: "Get the status and phase of one flow",
		},
		estadoFlujoHandler(flows),
	)
}

type evaluarInput struct {
	CodigoPostal string `json:"codigo_postal"`
	EnZona       string `json:"en_zona,omitempty"`
	// Respuestas maps question names to answers, e.g. {"tieneInstalacionFV": "false"}.
	Respuestas map[string]string `json:"respuestas,omitempty"`
}

type evaluarOutput struct {
	Decision  wizard.Decision   `json:"decision"`
	Visibles  []wizard.Pregunta `json:"visibles"`
	Siguiente string            `json:"siguiente,omitempty"`
}

func evaluarHandler() mcp.ToolHandlerFor[evaluarInput, any] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input evaluarInput) (*mcp.CallToolResult, any, error) {
		zona := domain.EnZona(input.EnZona)
		if zona != "" && !zona.Valid() {
			return errorResult(fmt.Sprintf("invalid en_zona %q", input.EnZona)), nil, nil
		}

		known := make(map[string]bool, len(wizard.Catalogo))
		for _, p := range wizard.Catalogo {
			known[string(p.Campo)] = true
		}
		for campo := range input.Respuestas {
			if !known[campo] {
				return errorResult(fmt.Sprintf("unknown question %q", campo)), nil, nil
			}
		}

		// Answers are applied in display order so the reset cascade of a
		// later question never erases an earlier one.
		var r domain.RespuestasPreguntas
		for _, p := range wizard.Catalogo {
			v, ok := input.Respuestas[string(p.Campo)]
			if !ok || p.Campo == wizard.CampoFotoDisyuntor {
				continue
			}
			next, err := wizard.ApplyAnswer(r, p.Campo, v)
			if err != nil {
				return errorResult(err.Error()), nil, nil
			}
			r = next
		}

		out := evaluarOutput{
			Decision: wizard.Evaluate(wizard.Snapshot{CodigoPostal: input.CodigoPostal, EnZona: zona, Respuestas: r}),
			Visibles: wizard.Visible(r),
		}
		if p, ok := wizard.Next(r); ok {
			out.Siguiente = string(p.Campo)
		}
		return textResult(out)
	}
}

type dealInput struct {
	DealID string `json:"deal_id"`
}

func obtenerDealHandler(api Backend) mcp.ToolHandlerFor[dealInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input dealInput) (*mcp.CallToolResult, any, error) {
		if input.DealID == "" {
			return errorResult("deal_id is required"), nil, nil
		}
		d, err := api.ObtenerDealPorID(ctx, input.DealID)
		if backend.IsNotFound(err) {
			return errorResult("deal " + input.DealID + " not found"), nil, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("obtener_deal: %w", err)
		}
		return textResult(d)
	}
}

type skuSearchInput struct {
	Query string `json:"q"`
}

func buscarSKUHandler(api Backend) mcp.ToolHandlerFor[skuSearchInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input skuSearchInput) (*mcp.CallToolResult, any, error) {
		if input.Query == "" {
			return errorResult("q is required"), nil, nil
		}
		skus, err := api.BuscarSKU(ctx, input.Query)
		if err != nil {
			return nil, nil, fmt.Errorf("buscar_sku: %w", err)
		}
		if skus == nil {
			skus = []backend.SKU{}
		}
		return textResult(skus)
	}
}

type anadirInput struct {
	PropuestaID string `json:"propuesta_id"`
	SKU         string `json:"sku"`
	Cantidad    int    `json:"cantidad"`
}

func anadirSKUHandler(api Backend) mcp.ToolHandlerFor[anadirInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input anadirInput) (*mcp.CallToolResult, any, error) {
		if input.PropuestaID == "" || input.SKU == "" || input.Cantidad <= 0 {
			return errorResult("propuesta_id, sku and a positive cantidad are required"), nil, nil
		}
		p, err := api.AnadirSKU(ctx, backend.AnadirSKURequest{
			PropuestaID: input.PropuestaID,
			SKU:         input.SKU,
			Cantidad:    input.Cantidad,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("anadir_sku: %w", err)
		}
		return textResult(p)
	}
}

type listarInput struct {
	Status string `json:"status,omitempty"`
	Queue  string `json:"queue,omitempty"`
}

func listarFlujosHandler(flows FlowReader) mcp.ToolHandlerFor[listarInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input listarInput) (*mcp.CallToolResult, any, error) {
		list, err := flows.ListFlows(ctx, querier.ListOptions{TaskQueue: input.Queue, StatusFilter: input.Status})
		if err != nil {
			return nil, nil, fmt.Errorf("listar_flujos: %w", err)
		}
		return textResult(list)
	}
}

type workflowIDInput struct {
	WorkflowID string `json:"workflow_id"`
}

func estadoFlujoHandler(flows FlowReader) mcp.ToolHandlerFor[workflowIDInput, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input workflowIDInput) (*mcp.CallToolResult, any, error) {
		if input.WorkflowID == "" {
			return errorResult("workflow_id is required"), nil, nil
		}
		st, err := flows.GetFlowStatus(ctx, input.WorkflowID)
		if err != nil {
			return nil, nil, fmt.Errorf("estado_flujo: %w", err)
		}
		return textResult(st)
	}
}

func textResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
