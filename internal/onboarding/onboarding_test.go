package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/session"
	"github.com/comunidad-solar/comuneros-go/internal/testutil"
)

func newService() (*Service, *session.Store, *testutil.StubBackend) {
	store := session.NewStore(0)
	stub := testutil.NewStubBackend()
	return New(store, stub, stub), store, stub
}

func TestZoneRoute(t *testing.T) {
	tests := []struct {
		zona domain.EnZona
		want string
	}{
		{domain.ZonaInZone, RutaPreguntas},
		{domain.ZonaInZoneWithCost, RutaPreguntas},
		{domain.ZonaNoCPAvailable, RutaPreguntas},
		{domain.ZonaOutZone, RutaFueraDeZona},
		{"", RutaContactoAsesor},
	}
	for _, tt := range tests {
		t.Run(string(tt.zona), func(t *testing.T) {
			assert.Equal(t, tt.want, ZoneRoute(tt.zona))
		})
	}
}

func TestValidarEmail(t *testing.T) {
	svc, store, stub := newService()
	id := store.Create(nil).ID

	_, err := svc.ValidarEmail(context.Background(), id, "  ")
	assert.ErrorIs(t, err, ErrEmailRequerido)
	assert.Zero(t, stub.Calls("validar-email"))

	res, err := svc.ValidarEmail(context.Background(), id, " ana@example.com ")
	require.NoError(t, err)
	assert.True(t, res.CodigoEnviado)

	f, _ := store.Get(id)
	assert.Equal(t, "ana@example.com", f.Email)
	assert.False(t, f.Cargando)
}

func TestValidarCodigo(t *testing.T) {
	tests := []struct {
		zona domain.EnZona
		ruta string
	}{
		{domain.ZonaInZoneWithCost, RutaPreguntas},
		{domain.ZonaOutZone, RutaFueraDeZona},
	}
	for _, tt := range tests {
		t.Run(string(tt.zona), func(t *testing.T) {
			svc, store, stub := newService()
			stub.Zona = tt.zona
			id := store.Create(func(f *domain.SessionForm) {
				f.Email = "ana@example.com"
				f.CodigoPostal = "28001"
			}).ID

			out, err := svc.ValidarCodigo(context.Background(), id, "123456")
			require.NoError(t, err)
			assert.Equal(t, tt.ruta, out.Ruta)
			assert.Equal(t, tt.zona, out.Form.EnZona)
			assert.Equal(t, "tok-ana@example.com", out.Form.Token)
			require.NotNil(t, out.Form.Comunero)
			assert.Equal(t, "C-ana@example.com", out.Form.Comunero.ID)
			assert.Contains(t, out.Form.Flags, session.FlagFromValidarCodigo)
			assert.False(t, out.Form.Cargando)
		})
	}
}

func TestValidarCodigo_FailureRecordsError(t *testing.T) {
	svc, store, stub := newService()
	stub.Fail("validar-codigo", errors.New("expired"))
	id := store.Create(nil).ID

	_, err := svc.ValidarCodigo(context.Background(), id, "000000")
	require.Error(t, err)

	f, _ := store.Get(id)
	assert.False(t, f.Cargando)
	assert.NotEmpty(t, f.UltimoError)
	assert.NotContains(t, f.Flags, session.FlagFromValidarCodigo)
}

func TestAplicarDatosActualizados_Once(t *testing.T) {
	svc, store, stub := newService()
	id := store.Create(func(f *domain.SessionForm) {
		f.Email = "ana@example.com"
		f.Token = "tok-1"
		f.Comunero = &domain.Comunero{ID: "C-1", Nombre: "Ana"}
	}).ID

	f, err := svc.AplicarDatosActualizados(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", f.Token)
	// Known fields survive an update that omits them.
	assert.Equal(t, "Ana", f.Comunero.Nombre)
	assert.Equal(t, "ana@example.com", f.Comunero.Email)

	_, err = svc.AplicarDatosActualizados(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.Calls("datos-actualizados"))
}

func TestAplicarDatosActualizados_FailureAllowsRetry(t *testing.T) {
	svc, store, stub := newService()
	stub.Fail("datos-actualizados", errors.New("down"))
	id := store.Create(nil).ID

	_, err := svc.AplicarDatosActualizados(context.Background(), id)
	require.Error(t, err)

	stub.Fail("datos-actualizados", nil)
	_, err = svc.AplicarDatosActualizados(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.Calls("datos-actualizados"))
}

func TestContrato(t *testing.T) {
	svc, store, stub := newService()
	id := store.Create(nil).ID

	_, err := svc.ObtenerContrato(context.Background(), id, "")
	assert.ErrorIs(t, err, ErrSinPropuesta)
	assert.Zero(t, stub.Calls("url-firma"))

	_, err = store.Update(id, func(f *domain.SessionForm) error {
		f.PropuestaID = "PROP-1"
		return nil
	})
	require.NoError(t, err)

	// The backend id wins over navigation state.
	c, err := svc.ObtenerContrato(context.Background(), id, "PROP-OLD")
	require.NoError(t, err)
	assert.Equal(t, "PROP-1", c.PropuestaID)
	assert.Equal(t, "https://firma.example.com/PROP-1", c.URL)
	assert.False(t, c.Firmado)

	first, err := svc.MarcarFirmado(id, "")
	require.NoError(t, err)
	assert.True(t, first)
	again, err := svc.MarcarFirmado(id, "")
	require.NoError(t, err)
	assert.False(t, again)

	c, err = svc.ObtenerContrato(context.Background(), id, "")
	require.NoError(t, err)
	assert.True(t, c.Firmado)
}

func TestConfirmarPago(t *testing.T) {
	svc, store, stub := newService()
	id := store.Create(func(f *domain.SessionForm) {
		f.PropuestaID = "PROP-1"
		f.Flags[session.FlagFromValidarCodigo] = "true"
		f.Flags[session.ContratoFirmadoKey("PROP-1")] = domain.FSMContratoEnviado
	}).ID

	out, err := svc.ConfirmarPago(context.Background(), id, Pago{PagoID: "PAY-1"})
	require.NoError(t, err)
	assert.Equal(t, RutaPagoConfirmado, out.Ruta)
	assert.Empty(t, out.Form.Flags)
	assert.False(t, out.Form.Cargando)

	require.Len(t, stub.Pagos, 1)
	assert.Equal(t, "PAY-1", stub.Pagos[0].PagoID)
	assert.Equal(t, "PROP-1", stub.Pagos[0].PropuestaID)
	assert.Equal(t, domain.FSMPagoConfirmado, stub.Pagos[0].FSMState)

	out, err = svc.ConfirmarPago(context.Background(), id, Pago{PagoID: "PAY-2", Visita: true})
	require.NoError(t, err)
	assert.Equal(t, RutaVisitaConfirmada, out.Ruta)
	assert.Equal(t, 1, stub.Calls("visita-pagada"))
}

func TestConfirmarPago_NeedsProposal(t *testing.T) {
	svc, store, stub := newService()
	id := store.Create(nil).ID

	_, err := svc.ConfirmarPago(context.Background(), id, Pago{PagoID: "PAY-1"})
	assert.ErrorIs(t, err, ErrSinPropuesta)
	assert.Zero(t, stub.Calls("propuesta-pagada"))
}

func TestSolicitarVisita(t *testing.T) {
	svc, store, _ := newService()
	id := store.Create(nil).ID

	res, err := svc.SolicitarVisita(context.Background(), id, Visita{FechaPreferida: "2025-06-01"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.VisitaID)
}
