package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/comunidad-solar/comuneros-go/internal/domain"
	"github.com/comunidad-solar/comuneros-go/internal/wizard"
)

type StoreSuite struct {
	suite.Suite
	store *Store
	now   time.Time
	id    string
}

func (s *StoreSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.store = NewStore(time.Hour)
	s.store.now = func() time.Time { return s.now }
	s.id = s.store.Create(nil).ID
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) TestCreateDefaults() {
	f := s.store.Create(func(f *domain.SessionForm) { f.Asesores = true })
	s.NotEmpty(f.ID)
	s.NotEqual(s.id, f.ID)
	s.True(f.Asesores)
	s.Equal("España", f.Pais)
	s.Equal(int64(1), f.Version)
	s.Equal(2, s.store.Len())
}

func (s *StoreSuite) TestGetUnknown() {
	_, err := s.store.Get("nope")
	s.ErrorIs(err, ErrNotFound)
}

func (s *StoreSuite) TestUpdateBumpsVersionAndIsolatesCopies() {
	f, err := s.store.SetFields(s.id, map[string]string{"nombre": "Lucía", "utm_source": "meta", "bypass": "true"})
	s.Require().NoError(err)
	s.Equal(int64(2), f.Version)
	s.Equal("Lucía", f.Nombre)
	s.Equal("meta", f.Attribution.UTMSource)
	s.True(f.Bypass)

	f.Nombre = "otra"
	f.Flags["x"] = "y"
	got, err := s.store.Get(s.id)
	s.Require().NoError(err)
	s.Equal("Lucía", got.Nombre)
	s.NotContains(got.Flags, "x")
}

func (s *StoreSuite) TestSetFieldsRejectsUnknownAtomically() {
	_, err := s.store.SetFields(s.id, map[string]string{"token": "abc"})
	var fe *FieldError
	s.Require().ErrorAs(err, &fe)
	s.Equal("token", fe.Field)

	_, err = s.store.SetFields(s.id, map[string]string{"bypass": "tal vez"})
	s.Error(err)

	got, _ := s.store.Get(s.id)
	s.Equal(int64(1), got.Version)
	s.Empty(got.Token)
}

func (s *StoreSuite) TestRespuestaNeedsPostalCode() {
	_, err := s.store.SetRespuesta(s.id, wizard.CampoTieneInstalacionFV, "false")
	s.ErrorIs(err, ErrCodigoPostalRequerido)

	_, err = s.store.SetPhoto(s.id, "foto-1")
	s.ErrorIs(err, ErrCodigoPostalRequerido)

	// A postal code on the member record is enough.
	_, err = s.store.MergeComunero(s.id, domain.Comunero{ID: "c-1", CodigoPostal: "46001"})
	s.Require().NoError(err)

	f, err := s.store.SetRespuesta(s.id, wizard.CampoTieneInstalacionFV, "false")
	s.Require().NoError(err)
	s.Equal(domain.No, f.Respuestas.TieneInstalacionFV)
}

func (s *StoreSuite) TestRespuestaCascadeAndInvalidValue() {
	_, err := s.store.SetFields(s.id, map[string]string{"codigoPostal": "28001"})
	s.Require().NoError(err)

	for _, kv := range [][2]string{
		{"tieneInstalacionFV", "false"},
		{"tipoInstalacion", "monofasica"},
		{"tieneBaterias", "true"},
		{"tipoBaterias", "canadian"},
	} {
		_, err := s.store.SetRespuesta(s.id, wizard.Campo(kv[0]), kv[1])
		s.Require().NoError(err)
	}

	_, err = s.store.SetRespuesta(s.id, wizard.CampoCapacidadCanadian, "99kWh")
	var invalid *wizard.InvalidAnswerError
	s.ErrorAs(err, &invalid)

	f, err := s.store.SetRespuesta(s.id, wizard.CampoTieneInstalacionFV, "true")
	s.Require().NoError(err)
	s.Equal(domain.RespuestasPreguntas{TieneInstalacionFV: domain.Yes}, f.Respuestas)
}

func (s *StoreSuite) TestPhotoLifecycle() {
	_, err := s.store.SetFields(s.id, map[string]string{"codigoPostal": "28001"})
	s.Require().NoError(err)
	for _, kv := range [][2]string{
		{"tieneInstalacionFV", "false"},
		{"tipoInstalacion", "desconozco"},
		{"tipoCuadroElectrico", "ninguno"},
	} {
		_, err := s.store.SetRespuesta(s.id, wizard.Campo(kv[0]), kv[1])
		s.Require().NoError(err)
	}

	f, err := s.store.SetPhoto(s.id, "foto-1")
	s.Require().NoError(err)
	s.True(f.Respuestas.AnalisisIA.Procesando)

	// A result for an older photo is ignored.
	f, err = s.store.ResolveAnalysis(s.id, "foto-0", domain.DetectadoMonofasico)
	s.Require().NoError(err)
	s.True(f.Respuestas.AnalisisIA.Procesando)

	f, err = s.store.ResolveAnalysis(s.id, "foto-1", domain.DetectadoTrifasico)
	s.Require().NoError(err)
	s.Equal(domain.InstalacionTrifasica, f.Respuestas.TipoInstalacion)
	s.True(f.Respuestas.AnalisisIA.Completado())

	_, err = s.store.SetPhoto(s.id, "foto-2")
	s.Require().NoError(err)
	f, err = s.store.FailAnalysis(s.id, "foto-2", "no se pudo analizar la foto")
	s.Require().NoError(err)
	s.Empty(f.Respuestas.FotoDisyuntor)
	s.Nil(f.Respuestas.AnalisisIA)
	s.Equal("no se pudo analizar la foto", f.UltimoError)
}

func (s *StoreSuite) TestAnalysisAfterLeavingPanelBranch() {
	_, err := s.store.SetFields(s.id, map[string]string{"codigoPostal": "28001"})
	s.Require().NoError(err)
	for _, kv := range [][2]string{
		{"tieneInstalacionFV", "false"},
		{"tipoInstalacion", "desconozco"},
		{"tipoCuadroElectrico", "ninguno"},
	} {
		_, err := s.store.SetRespuesta(s.id, wizard.Campo(kv[0]), kv[1])
		s.Require().NoError(err)
	}
	_, err = s.store.SetPhoto(s.id, "foto-1")
	s.Require().NoError(err)

	_, err = s.store.SetRespuesta(s.id, wizard.CampoTipoInstalacion, "monofasica")
	s.Require().NoError(err)
	_, err = s.store.SetRespuesta(s.id, wizard.CampoTieneBaterias, "false")
	s.Require().NoError(err)

	f, err := s.store.ResolveAnalysis(s.id, "foto-1", domain.DetectadoTrifasico)
	s.Require().NoError(err)
	s.Equal(domain.InstalacionMonofasica, f.Respuestas.TipoInstalacion)
	s.Equal(domain.No, f.Respuestas.TieneBaterias)
	s.Empty(f.Respuestas.FotoDisyuntor)
	s.Nil(f.Respuestas.AnalisisIA)
}

func (s *StoreSuite) TestLoadingFlag() {
	s.Require().NoError(s.store.BeginLoading(s.id))
	s.ErrorIs(s.store.BeginLoading(s.id), ErrEnCurso)

	s.store.EndLoading(s.id, "backend caído")
	f, _ := s.store.Get(s.id)
	s.False(f.Cargando)
	s.Equal("backend caído", f.UltimoError)

	s.NoError(s.store.BeginLoading(s.id))
	f, _ = s.store.Get(s.id)
	s.Empty(f.UltimoError)
}

func (s *StoreSuite) TestMarkOnce() {
	ok, err := s.store.MarkOnce(s.id, FlagFromValidarCodigo, "1")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.MarkOnce(s.id, FlagFromValidarCodigo, "2")
	s.Require().NoError(err)
	s.False(ok)

	f, _ := s.store.Get(s.id)
	s.Equal("1", f.Flags[FlagFromValidarCodigo])

	s.Require().NoError(s.store.ClearFlags(s.id, FlagFromValidarCodigo))
	ok, err = s.store.MarkOnce(s.id, FlagFromValidarCodigo, "3")
	s.Require().NoError(err)
	s.True(ok)

	_, err = s.store.MarkOnce("nope", ContratoFirmadoKey("p-1"), "1")
	s.ErrorIs(err, ErrNotFound)
}

func (s *StoreSuite) TestExpiry() {
	s.now = s.now.Add(30 * time.Minute)
	_, err := s.store.Get(s.id)
	s.Require().NoError(err)

	s.now = s.now.Add(61 * time.Minute)
	_, err = s.store.Get(s.id)
	s.ErrorIs(err, ErrNotFound)

	s.Equal(1, s.store.Sweep())
	s.Equal(0, s.store.Len())
}

func (s *StoreSuite) TestWatch() {
	ch, stop, err := s.store.Watch(s.id)
	s.Require().NoError(err)
	defer stop()

	_, err = s.store.SetFields(s.id, map[string]string{"nombre": "a"})
	s.Require().NoError(err)
	_, err = s.store.SetFields(s.id, map[string]string{"nombre": "b"})
	s.Require().NoError(err)

	select {
	case <-ch:
	default:
		s.Fail("expected a change signal")
	}
	select {
	case <-ch:
		s.Fail("signals should coalesce")
	default:
	}
}

func TestMarkOnceConcurrent(t *testing.T) {
	st := NewStore(0)
	id := st.Create(nil).ID

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.MarkOnce(id, FlagDatosActualizadosObtenidos, "1")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
