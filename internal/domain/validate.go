package domain

import "fmt"

// ValidateComunero checks required fields on a member record.
func ValidateComunero(c Comunero) error {
	if c.ID == "" {
		return fmt.Errorf("comunero id is required")
	}
	return nil
}

// ValidateDeal checks required fields on a deal returned by the CRM.
func ValidateDeal(d Deal) error {
	if d.DealID == "" {
		return fmt.Errorf("dealId is required")
	}
	if d.EnZona != "" && !d.EnZona.Valid() {
		return fmt.Errorf("invalid enZona: %q", d.EnZona)
	}
	return nil
}

// ValidateAnalisisIA checks a terminal classification result.
func ValidateAnalisisIA(a AnalisisIA) error {
	if a.Procesando {
		return fmt.Errorf("analysis still in progress")
	}
	if !a.TipoDetectado.Valid() {
		return fmt.Errorf("invalid tipoDetectado: %q", a.TipoDetectado)
	}
	return nil
}

// ValidatePropuesta checks a proposal returned by the backend.
func ValidatePropuesta(p Propuesta) error {
	if p.PropuestaID == "" {
		return fmt.Errorf("propuestaId is required")
	}
	if p.Total < 0 {
		return fmt.Errorf("total must be non-negative, got %f", p.Total)
	}
	return nil
}
