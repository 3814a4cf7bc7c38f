package uischema_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/uischema"
	"github.com/comunidad-solar/comuneros-go/internal/wizard"
)

func baseForm() domain.SessionForm {
	f := domain.NewSessionForm("s-1", time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC))
	f.CodigoPostal = "28001"
	f.EnZona = domain.ZonaInZone
	return f
}

func questions(s uischema.UISchema) []uischema.Component {
	var out []uischema.Component
	for _, c := range s.Components {
		if c.Type == uischema.ComponentQuestion || c.Type == uischema.ComponentPhotoUpload {
			out = append(out, c)
		}
	}
	return out
}

func TestBuild_FirstQuestion(t *testing.T) {
	schema := uischema.Build(baseForm())
	assert.Equal(t, "v1", schema.Version)
	assert.Equal(t, "s-1", schema.SessionID)
	assert.Equal(t, uischema.PhaseQuestions, schema.Phase)
	assert.Equal(t, string(wizard.CampoTieneInstalacionFV), schema.Next)

	qs := questions(schema)
	require.Len(t, qs, 1)
	assert.Equal(t, string(wizard.CampoTieneInstalacionFV), qs[0].Data["campo"])
	assert.False(t, qs[0].Disabled)

	require.Len(t, schema.Actions, 1)
	assert.Equal(t, uischema.ActionSubmit, schema.Actions[0].Type)
	assert.False(t, schema.Actions[0].Disabled)
}

func TestBuild_DisabledWithoutPostalCode(t *testing.T) {
	f := baseForm()
	f.CodigoPostal = ""

	schema := uischema.Build(f)
	assert.Equal(t, uischema.ComponentPostalCodeAsk, schema.Components[0].Type)
	for _, q := range questions(schema) {
		assert.True(t, q.Disabled, q.Data["campo"])
	}
	assert.True(t, schema.Actions[0].Disabled)
}

func TestBuild_PostalCodeFromMember(t *testing.T) {
	f := baseForm()
	f.CodigoPostal = ""
	f.Comunero = &domain.Comunero{Nombre: "Ana", CodigoPostal: "08001"}

	schema := uischema.Build(f)
	require.NotEmpty(t, schema.Components)
	assert.Equal(t, uischema.ComponentMemberCard, schema.Components[0].Type)
	assert.Equal(t, "08001", schema.Components[0].Data["codigo_postal"])
	assert.False(t, schema.Actions[0].Disabled)
}

func TestBuild_VisibleQuestionsFollowAnswers(t *testing.T) {
	f := baseForm()
	f.Respuestas = domain.RespuestasPreguntas{
		TieneInstalacionFV: domain.No,
		TipoInstalacion:    domain.InstalacionMonofasica,
		TieneBaterias:      domain.Yes,
		TipoBaterias:       domain.BateriasHuawei,
	}

	schema := uischema.Build(f)
	var campos []any
	for _, q := range questions(schema) {
		campos = append(campos, q.Data["campo"])
	}
	assert.Equal(t, []any{
		string(wizard.CampoTieneInstalacionFV),
		string(wizard.CampoTipoInstalacion),
		string(wizard.CampoTieneBaterias),
		string(wizard.CampoTipoBaterias),
		string(wizard.CampoCapacidadHuawei),
	}, campos)
	assert.Equal(t, string(wizard.CampoCapacidadHuawei), schema.Next)

	qs := questions(schema)
	assert.Equal(t, "huawei", qs[3].Data["valor"])

	var block *uischema.Component
	for i := range schema.Components {
		if schema.Components[i].Type == uischema.ComponentBlockMessage {
			block = &schema.Components[i]
		}
	}
	require.NotNil(t, block)
	assert.Equal(t, uischema.VisibilityCollapsed, block.Visibility)
	assert.Equal(t, string(wizard.CampoCapacidadHuawei), block.Data["campo"])
}

func TestBuild_PhotoAnalysisInProgress(t *testing.T) {
	f := baseForm()
	f.Respuestas = domain.RespuestasPreguntas{
		TieneInstalacionFV:  domain.No,
		TipoInstalacion:     domain.InstalacionDesconozco,
		TipoCuadroElectrico: domain.CuadroNinguno,
		FotoDisyuntor:       "disyuntor/abc",
		AnalisisIA:          &domain.AnalisisIA{Procesando: true},
	}

	schema := uischema.Build(f)
	assert.Equal(t, uischema.PhaseAnalyzing, schema.Phase)

	qs := questions(schema)
	upload := qs[len(qs)-1]
	assert.Equal(t, uischema.ComponentPhotoUpload, upload.Type)
	assert.Equal(t, true, upload.Data["procesando"])
	assert.Equal(t, "disyuntor/abc", upload.Data["ref"])
	assert.True(t, schema.Actions[0].Disabled)
}

func TestBuild_PhotoFailureOffersRetry(t *testing.T) {
	f := baseForm()
	f.Respuestas = domain.RespuestasPreguntas{
		TieneInstalacionFV:  domain.No,
		TipoInstalacion:     domain.InstalacionDesconozco,
		TipoCuadroElectrico: domain.CuadroNinguno,
	}
	f.UltimoError = "No hemos podido analizar la foto."

	schema := uischema.Build(f)
	require.Len(t, schema.Actions, 2)
	assert.Equal(t, uischema.ActionRetryPhoto, schema.Actions[1].Type)

	var banner bool
	for _, c := range schema.Components {
		if c.Type == uischema.ComponentErrorBanner {
			banner = true
			assert.Equal(t, f.UltimoError, c.Title)
		}
	}
	assert.True(t, banner)
}

func TestBuild_Phase(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*domain.SessionForm)
		want uischema.Phase
	}{
		{"questions", func(*domain.SessionForm) {}, uischema.PhaseQuestions},
		{"sending", func(f *domain.SessionForm) { f.Cargando = true }, uischema.PhaseSending},
		{"routed", func(f *domain.SessionForm) { f.Ruta = wizard.RutaPropuesta }, uischema.PhaseRouted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := baseForm()
			tt.mut(&f)
			assert.Equal(t, tt.want, uischema.Build(f).Phase)
		})
	}
}
