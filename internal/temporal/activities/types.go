// Package activities defines the Temporal activity I/O structs and the
// Activities implementation that bridges Temporal's serialization boundary
// to the onboarding REST API.
package activities

import "github.com/comunidad-solar/comuneros-go/internal/backend"

// FirmaInput is the activity input for the contract signature link.
type FirmaInput struct {
	Subject  string           `json:"subject"`
	Envelope  backend.Envelope `json:"envelope"`
}

// FirmaOutput is the activity output for the contract signature link.
type FirmaOutput struct {
	URL string `json:"url"`
}

// DatosInput is the activity input for the post-validation data refresh.
type DatosInput struct {
	Subject  string           `json:"subject"`
	Envelope  backend.Envelope `json:"envelope"`
}

// DatosOutput is the activity output for the post-validation data refresh.
type DatosOutput struct {
	Result backend.ValidacionResult `json:"result"`
}

// PagoInput is the activity input for payment post-processing.
type PagoInput struct {
	Subject string              `json:"subject"`
	Request   backend.PagoRequest `json:"request"`
}

// PagoOutput is the activity output for payment post-processing.
type PagoOutput struct {
	Result backend.PagoResult `json:"result"`
}
