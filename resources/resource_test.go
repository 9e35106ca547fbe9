package resources_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/go-visitas/apiclient"
	"github.com/jrsteele09/go-visitas/auth"
	"github.com/jrsteele09/go-visitas/credentials"
	"github.com/jrsteele09/go-visitas/devserver"
	"github.com/jrsteele09/go-visitas/internal/config"
	"github.com/jrsteele09/go-visitas/internal/errors"
	"github.com/jrsteele09/go-visitas/resources"
	"github.com/stretchr/testify/require"
)

const adminPassword = "Admin123!"

type testFixture struct {
	server  *devserver.Server
	catalog *resources.Catalog
	auth    *auth.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	t.Setenv("ADMIN_PASSWORD", adminPassword)

	srv, err := devserver.New(config.New(), devserver.WithReferenceData(), devserver.WithRouteOutput(io.Discard))
	require.NoError(t, err)
	httpServer := httptest.NewServer(srv)
	t.Cleanup(httpServer.Close)

	vault, err := credentials.NewVault(credentials.NewMemoryStore(), "visitas.")
	require.NoError(t, err)
	client, err := apiclient.New(httpServer.URL+devserver.RoutePrefix, vault)
	require.NoError(t, err)
	service, err := auth.NewService(client)
	require.NoError(t, err)

	_, err = service.Login(context.Background(), "admin", adminPassword)
	require.NoError(t, err)

	return &testFixture{server: srv, catalog: resources.NewCatalog(client), auth: service}
}

func TestCatalog_CRUD(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	potencias, err := f.catalog.Potencias.List(ctx)
	require.NoError(t, err)
	require.Len(t, potencias, 3)

	loja, err := f.catalog.Lojas.Create(ctx, &resources.Loja{
		Nome: "Acácia Paulista", PotenciaID: potencias[0].ID,
		NomeOriente: "Oriente de Santos", CidadeOriente: "Santos", EstadoOriente: "SP",
	})
	require.NoError(t, err)
	require.NotZero(t, loja.ID)
	require.Equal(t, potencias[0].Sigla, loja.Potencia.Sigla)

	visita, err := f.catalog.Visitas.Create(ctx, &resources.Visita{
		DataVisita: resources.NewDate(2024, 5, 17),
		LojaID:     loja.ID, SessaoID: 1, GrauID: 1, RitoID: 1, PotenciaID: 1,
		PossuiCertificado: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Acácia Paulista", visita.Loja.Nome)

	visita.Observacoes = "sessão magna"
	updated, err := f.catalog.Visitas.Update(ctx, visita.ID, visita)
	require.NoError(t, err)
	require.Equal(t, "sessão magna", updated.Observacoes)

	got, err := f.catalog.Visitas.Get(ctx, visita.ID)
	require.NoError(t, err)
	require.True(t, got.PossuiCertificado)

	require.NoError(t, f.catalog.Visitas.Delete(ctx, visita.ID))
	_, err = f.catalog.Visitas.Get(ctx, visita.ID)
	require.ErrorIs(t, err, apiclient.ErrNotFound)

	list, err := f.catalog.Visitas.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestCatalog_ValidatesLocally(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.catalog.Ritos.Create(context.Background(), &resources.Rito{})
	require.ErrorIs(t, err, errors.ErrMissingField)
	require.Zero(t, f.server.RequestCount(http.MethodPost, devserver.RouteRitos))
}

func TestCatalog_ServerValidation(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.catalog.Lojas.Create(context.Background(), &resources.Loja{
		Nome: "Acácia", PotenciaID: 42, NomeOriente: "Oriente", CidadeOriente: "Santos", EstadoOriente: "SP",
	})
	require.ErrorIs(t, err, apiclient.ErrValidation)
	var statusErr *apiclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Contains(t, statusErr.Message, "potencia_id 42")
}

func TestCatalog_MemberCannotWriteReferenceData(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.server.CreateUser("hiram", "Secret123!", false)
	require.NoError(t, err)
	require.NoError(t, f.auth.Logout(ctx))
	_, err = f.auth.Login(ctx, "hiram", "Secret123!")
	require.NoError(t, err)

	_, err = f.catalog.Graus.Create(ctx, &resources.Grau{Numero: 4, Descricao: "Mestre Secreto"})
	require.ErrorIs(t, err, apiclient.ErrForbidden)
	require.True(t, f.auth.SignedIn(), "a 403 leaves the session alone")
}

// TestCatalog_ExpiredTokenRefreshedOnce loads several resources at once
// after the access token expired: one refresh, every call succeeds.
func TestCatalog_ExpiredTokenRefreshedOnce(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.server.ExpireAccessTokens()

	loaders := map[string]func() error{
		resources.LojasPath: func() error { _, err := f.catalog.Lojas.List(ctx); return err },
		resources.RitosPath: func() error { _, err := f.catalog.Ritos.List(ctx); return err },
		resources.GrausPath: func() error { _, err := f.catalog.Graus.List(ctx); return err },
		resources.SessoesPath: func() error {
			_, err := f.catalog.Sessoes.List(ctx)
			return err
		},
		resources.PotenciasPath: func() error {
			_, err := f.catalog.Potencias.List(ctx)
			return err
		},
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(loaders))
	for _, load := range loaders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- load()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 1, f.server.RequestCount(http.MethodPost, devserver.RouteAuthRefresh))
	for path := range loaders {
		require.GreaterOrEqual(t, f.server.RequestCount(http.MethodGet, path), 1, path)
	}
}

func TestCatalog_Collection(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.Equal(t, []string{"graus", "lojas", "orientes", "potencias", "ritos", "sessoes", "visitas"}, f.catalog.Names())

	col, err := f.catalog.Collection("orientes")
	require.NoError(t, err)
	require.Equal(t, resources.OrientesPath, col.Path())

	created, err := col.CreateJSON(ctx, []byte(`{"nome":"Oriente de Santos","cidade":"Santos","estado":"SP"}`))
	require.NoError(t, err)
	oriente, ok := created.(*resources.Oriente)
	require.True(t, ok)
	require.NotZero(t, oriente.ID)

	_, err = col.UpdateJSON(ctx, oriente.ID, []byte(`{"nome":"Oriente","cidad":"typo"}`))
	require.ErrorContains(t, err, "unknown field")

	all, err := col.ListAny(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	_, err = f.catalog.Collection("tronos")
	require.ErrorContains(t, err, "unknown resource")
}
