package uischema

import (
	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/wizard"
)

const schemaVersion = "v1"

// Build constructs a UISchema from the current session form.
func Build(f domain.SessionForm) UISchema {
	sinCP := f.CodigoPostalResuelto() == ""
	analizando := f.Respuestas.AnalisisIA != nil && f.Respuestas.AnalisisIA.Procesando

	schema := UISchema{
		Version:   schemaVersion,
		SessionID: f.ID,
		Phase:     phaseOf(f, analizando),
	}
	if p, ok := wizard.Next(f.Respuestas); ok {
		schema.Next = string(p.Campo)
	}

	if f.Comunero != nil {
		schema.Components = append(schema.Components, memberCard(f))
	}
	if sinCP {
		schema.Components = append(schema.Components, postalCodeAsk())
	}
	for i, p := range wizard.Visible(f.Respuestas) {
		if p.Input == wizard.InputUpload {
			schema.Components = append(schema.Components, photoUpload(p, f.Respuestas, i, sinCP))
			continue
		}
		schema.Components = append(schema.Components, question(p, f.Respuestas, i, sinCP))
	}
	if f.UltimoError != "" {
		schema.Components = append(schema.Components, errorBanner(f.UltimoError))
	}

	d := wizard.Evaluate(wizard.Snapshot{
		CodigoPostal: f.CodigoPostalResuelto(),
		EnZona:       f.EnZona,
		Respuestas:   f.Respuestas,
	})
	if d.Action == wizard.ActionBlock {
		schema.Components = append(schema.Components, blockMessage(d))
	}

	schema.Actions = append(schema.Actions, Action{
		Type:     ActionSubmit,
		Label:    "Continuar",
		Disabled: sinCP || f.Cargando || analizando,
	})
	if f.Respuestas.FotoDisyuntor == "" && f.UltimoError != "" && wizard.IsVisible(f.Respuestas, wizard.CampoFotoDisyuntor) {
		schema.Actions = append(schema.Actions, Action{Type: ActionRetryPhoto, Label: "Subir otra foto"})
	}
	return schema
}

func phaseOf(f domain.SessionForm, analizando bool) Phase {
	switch {
	case f.Cargando:
		return PhaseSending
	case analizando:
		return PhaseAnalyzing
	case f.Ruta != "":
		return PhaseRouted
	default:
		return PhaseQuestions
	}
}
