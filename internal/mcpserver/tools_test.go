package mcpserver_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/mcpserver"
	"github.com/comunidad-solar/comuneros-go/internal/temporal/querier"
	"github.com/comunidad-solar/comuneros-go/internal/testutil"
)

type stubFlows struct {
	flows []querier.FlowSummary
}

func (s *stubFlows) ListFlows(_ context.Context, _ querier.ListOptions) ([]querier.FlowSummary, error) {
	return s.flows, nil
}

func (s *stubFlows) GetFlowStatus(_ context.Context, id string) (*querier.FlowStatus, error) {
	return &querier.FlowStatus{FlowSummary: querier.FlowSummary{WorkflowID: id, Status: "Completed"}}, nil
}

func connect(t *testing.T, flows mcpserver.FlowReader) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v1"}, nil)
	mcpserver.RegisterTools(server, testutil.NewStubBackend(), flows)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func toolNames(t *testing.T, cs *mcp.ClientSession) []string {
	t.Helper()
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	return names
}

func TestRegisterTools(t *testing.T) {
	names := toolNames(t, connect(t, nil))
	assert.ElementsMatch(t, []string{"evaluar_respuestas", "obtener_deal", "buscar_sku", "anadir_sku"}, names)

	names = toolNames(t, connect(t, &stubFlows{}))
	assert.Contains(t, names, "listar_flujos")
	assert.Contains(t, names, "estado_flujo")
}

func TestEvaluarRespuestas(t *testing.T) {
	cs := connect(t, nil)

	tests := []struct {
		name       string
		args       map[string]any
		wantRule   string
		wantAction string
	}{
		{
			name:       "no postal code",
			args:       map[string]any{"codigo_postal": ""},
			wantRule:   "codigo-postal-requerido",
			wantAction: "block",
		},
		{
			name: "existing installation",
			args: map[string]any{
				"codigo_postal": "28001",
				"respuestas":    map[string]string{"tieneInstalacionFV": "true"},
			},
			wantRule:   "instalacion-fv-existente",
			wantAction: "contact_advisor",
		},
		{
			name: "close installation",
			args: map[string]any{
				"codigo_postal": "28001",
				"en_zona":       "inZone",
				"respuestas": map[string]string{
					"tieneBaterias":       "false",
					"instalacionCerca10m": "true",
					"tieneInstalacionFV":  "false",
					"tipoInstalacion":     "trifasica",
				},
			},
			wantRule:   "instalacion-cerca",
			wantAction: "close_installation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := call(t, cs, "evaluar_respuestas", tt.args)
			require.False(t, isErr, text)

			var out struct {
				Decision struct {
					Rule                  string `json:"rule"`
					Action                string `json:"action"`
					RequiereVisitaTecnica bool   `json:"requiereVisitaTecnica"`
				} `json:"decision"`
			}
			require.NoError(t, json.Unmarshal([]byte(text), &out))
			assert.Equal(t, tt.wantRule, out.Decision.Rule)
			assert.Equal(t, tt.wantAction, out.Decision.Action)
			if tt.wantAction == "close_installation" {
				assert.True(t, out.Decision.RequiereVisitaTecnica)
			}
		})
	}
}

func TestEvaluarRespuestas_InvalidInput(t *testing.T) {
	cs := connect(t, nil)

	text, isErr := call(t, cs, "evaluar_respuestas", map[string]any{
		"codigo_postal": "28001",
		"respuestas":    map[string]string{"colorTejado": "rojo"},
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "colorTejado")

	text, isErr = call(t, cs, "evaluar_respuestas", map[string]any{
		"codigo_postal": "28001",
		"respuestas":    map[string]string{"tieneInstalacionFV": "false", "tipoInstalacion": "bifasica"},
	})
	assert.True(t, isErr)
	assert.Contains(t, text, "bifasica")

	_, isErr = call(t, cs, "evaluar_respuestas", map[string]any{"codigo_postal": "28001", "en_zona": "mars"})
	assert.True(t, isErr)
}

func TestObtenerDeal(t *testing.T) {
	cs := connect(t, nil)

	text, isErr := call(t, cs, "obtener_deal", map[string]any{"deal_id": testutil.DemoDealID})
	require.False(t, isErr, text)
	var d domain.Deal
	require.NoError(t, json.Unmarshal([]byte(text), &d))
	assert.Equal(t, "Marta Pérez", d.Nombre)

	text, isErr = call(t, cs, "obtener_deal", map[string]any{"deal_id": "DEAL-NOPE"})
	assert.True(t, isErr)
	assert.Contains(t, text, "not found")

	_, isErr = call(t, cs, "obtener_deal", map[string]any{"deal_id": ""})
	assert.True(t, isErr)
}

func TestSKUTools(t *testing.T) {
	cs := connect(t, nil)

	text, isErr := call(t, cs, "buscar_sku", map[string]any{"q": "canadian"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "CS-EP-5")

	text, isErr = call(t, cs, "anadir_sku", map[string]any{"propuesta_id": "PROP-1", "sku": "CS-EP-5", "cantidad": 1})
	require.False(t, isErr, text)
	var p domain.Propuesta
	require.NoError(t, json.Unmarshal([]byte(text), &p))
	assert.Equal(t, "PROP-1", p.PropuestaID)

	_, isErr = call(t, cs, "anadir_sku", map[string]any{"propuesta_id": "PROP-1", "sku": "CS-EP-5", "cantidad": 0})
	assert.True(t, isErr)
}

func TestFlowTools(t *testing.T) {
	cs := connect(t, &stubFlows{flows: []querier.FlowSummary{{WorkflowID: "comuneros-contrato-P1"}}})

	text, isErr := call(t, cs, "listar_flujos", map[string]any{})
	require.False(t, isErr, text)
	assert.Contains(t, text, "comuneros-contrato-P1")

	text, isErr = call(t, cs, "estado_flujo", map[string]any{"workflow_id": "comuneros-datos-x"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Completed")
}
