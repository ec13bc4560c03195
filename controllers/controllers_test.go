package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/CL4275/sistema-troca-alimentos-estilizado/database"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/models"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/repository"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/services"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/session"
	"github.com/CL4275/sistema-troca-alimentos-estilizado/views"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func init() {
	gin.SetMode(gin.TestMode)
}

// testApp drives the router like a browser that keeps the session cookie.
type testApp struct {
	router *gin.Engine
	store  *repository.Store
	cookie *http.Cookie
}

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newHandler(catalog Catalog, accounts Accounts, backend session.Backend) *Handler {
	sessions := session.NewStore(backend, testSecret, time.Hour, false)
	return NewHandler(catalog, accounts, sessions, discardLogger())
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWithBackend(t, session.NewMemoryBackend(time.Hour))
}

func newTestAppWithBackend(t *testing.T, backend session.Backend) *testApp {
	t.Helper()

	db, err := database.OpenSQLite(":memory:", discardLogger())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	store := repository.New(db)
	hasher := services.NewHasher(2, bcrypt.MinCost)
	t.Cleanup(hasher.Close)

	h := newHandler(store, services.NewAccounts(store, hasher), backend)
	return &testApp{
		router: NewRouter(h, views.New(false), h.Log),
		store:  store,
	}
}

func (a *testApp) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if a.cookie != nil {
		req.AddCookie(a.cookie)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name != session.CookieName {
			continue
		}
		if c.MaxAge < 0 {
			a.cookie = nil
		} else {
			a.cookie = c
		}
	}
	return w
}

func (a *testApp) login(t *testing.T, email, password string) {
	t.Helper()
	w := a.do(http.MethodPost, "/cadastro", url.Values{"email": {email}, "password": {password}, "nome": {"Ana"}})
	require.Equal(t, "/login", w.Header().Get("Location"))
	w = a.do(http.MethodPost, "/login", url.Values{"email": {email}, "password": {password}})
	require.Equal(t, "/alimentos", w.Header().Get("Location"))
	require.NotNil(t, a.cookie)
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, location, w.Header().Get("Location"))
}

func TestPublicPages(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/", "/sobre", "/chat-demonstrativo", "/alimentos", "/cadastro", "/login"} {
		t.Run(path, func(t *testing.T) {
			w := app.do(http.MethodGet, path, nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `href="/login"`)
			assert.NotContains(t, w.Body.String(), `href="/logout"`)
		})
	}
}

func TestProtectedRoutesRedirectAnonymous(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		method string
		path   string
		form   url.Values
	}{
		{http.MethodGet, "/add-alimento", nil},
		{http.MethodPost, "/add-alimento", url.Values{"nome": {"Arroz"}, "quantidade": {"1 kg"}}},
		{http.MethodPost, "/alimentos/delete/1", url.Values{}},
		{http.MethodPost, "/rate-alimento", url.Values{"alimentoId": {"1"}, "ratingValue": {"5"}}},
		{http.MethodGet, "/logout", nil},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assertRedirect(t, app.do(tt.method, tt.path, tt.form), "/login")
		})
	}

	items, err := app.store.ListItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	form := url.Values{"email": {"Ana@Example.com"}, "password": {"s3cret"}, "nome": {"Ana"}}

	assertRedirect(t, app.do(http.MethodPost, "/cadastro", form), "/login")
	assertRedirect(t, app.do(http.MethodPost, "/cadastro", form), "/cadastro")
	assertRedirect(t, app.do(http.MethodPost, "/cadastro", url.Values{"email": {"x@example.com"}}), "/cadastro")

	user, err := app.store.FindUserByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", user.Password)
	assert.NoError(t, services.CheckPassword(user.Password, "s3cret"))

	failures := []url.Values{
		{"email": {"ana@example.com"}, "password": {"wrong"}},
		{"email": {"nobody@example.com"}, "password": {"s3cret"}},
		{"email": {"ana@example.com"}},
		{},
	}
	for _, f := range failures {
		assertRedirect(t, app.do(http.MethodPost, "/login", f), "/login")
		assert.Nil(t, app.cookie)
	}

	assertRedirect(t, app.do(http.MethodPost, "/login", url.Values{"email": {"ana@example.com"}, "password": {"s3cret"}}), "/alimentos")
	require.NotNil(t, app.cookie)

	w := app.do(http.MethodGet, "/add-alimento", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/logout"`)
}

func TestItemLifecycle(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	app.login(t, "ana@example.com", "s3cret")

	assertRedirect(t, app.do(http.MethodPost, "/add-alimento", url.Values{
		"nome":       {"Arroz"},
		"quantidade": {"5 kg"},
		"descricao":  {"Arroz integral"},
		"valor":      {"12,50"},
		"fornecedor": {"Mercado Central"},
		"email":      {"contato@mercado.com"},
		"latitude":   {"-23.55052"},
		"longitude":  {"-46.633308"},
	}), "/alimentos")

	// Rejected submissions go back to the form without inserting.
	for _, form := range []url.Values{
		{"quantidade": {"1"}},
		{"nome": {"Feijão"}},
		{"nome": {"Feijão"}, "quantidade": {"1"}, "valor": {"abc"}},
		{"nome": {"Feijão"}, "quantidade": {"1"}, "latitude": {"91"}, "longitude": {"0"}},
		{"nome": {"Feijão"}, "quantidade": {"1"}, "email": {"not-an-email"}},
	} {
		assertRedirect(t, app.do(http.MethodPost, "/add-alimento", form), "/add-alimento")
	}

	items, err := app.store.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	item := items[0]
	assert.Equal(t, "Arroz", item.Name)
	require.True(t, item.Value.Valid)
	assert.Equal(t, "12.50", item.Value.Decimal.StringFixed(2))

	itemID := strconv.FormatUint(uint64(item.ID), 10)
	for _, v := range []string{"5", "3"} {
		assertRedirect(t, app.do(http.MethodPost, "/rate-alimento", url.Values{"alimentoId": {itemID}, "ratingValue": {v}}), "/alimentos")
	}
	for _, form := range []url.Values{
		{"alimentoId": {itemID}, "ratingValue": {"0"}},
		{"alimentoId": {itemID}, "ratingValue": {"6"}},
		{"alimentoId": {itemID}, "ratingValue": {"abc"}},
		{"alimentoId": {itemID}},
		{"alimentoId": {"999"}, "ratingValue": {"4"}},
		{"alimentoId": {"x"}, "ratingValue": {"4"}},
	} {
		assertRedirect(t, app.do(http.MethodPost, "/rate-alimento", form), "/alimentos")
	}

	ratings, err := app.store.ListRatings(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 2)

	w := app.do(http.MethodGet, "/alimentos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Arroz integral")
	assert.Contains(t, body, "R$ 12.50")
	assert.Contains(t, body, "Nota média: 4.0 (2 avaliações)")
	assert.Contains(t, body, "mlat=-23.55052")
	assert.Contains(t, body, "/alimentos/delete/"+itemID)

	assertRedirect(t, app.do(http.MethodPost, "/alimentos/delete/"+itemID, url.Values{}), "/alimentos")
	_, err = app.store.FindItem(ctx, item.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	ratings, err = app.store.ListRatings(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, ratings)

	// Unknown and malformed ids are no-ops.
	assertRedirect(t, app.do(http.MethodPost, "/alimentos/delete/"+itemID, url.Values{}), "/alimentos")
	assertRedirect(t, app.do(http.MethodPost, "/alimentos/delete/abc", url.Values{}), "/alimentos")

	w = app.do(http.MethodGet, "/alimentos", nil)
	assert.Contains(t, w.Body.String(), "Nenhum alimento cadastrado ainda.")
}

func TestLogout(t *testing.T) {
	app := newTestApp(t)
	app.login(t, "ana@example.com", "s3cret")
	stale := app.cookie

	assertRedirect(t, app.do(http.MethodGet, "/logout", nil), "/login")
	assert.Nil(t, app.cookie)
	assertRedirect(t, app.do(http.MethodGet, "/add-alimento", nil), "/login")

	// Replaying the old cookie does not revive the session.
	app.cookie = stale
	assertRedirect(t, app.do(http.MethodGet, "/add-alimento", nil), "/login")
}

// flakyBackend fails deletes on demand.
type flakyBackend struct {
	session.Backend
	failDelete bool
}

func (b *flakyBackend) Delete(ctx context.Context, id string) error {
	if b.failDelete {
		return session.ErrStore
	}
	return b.Backend.Delete(ctx, id)
}

func TestLogoutFailure(t *testing.T) {
	backend := &flakyBackend{Backend: session.NewMemoryBackend(time.Hour)}
	app := newTestAppWithBackend(t, backend)
	app.login(t, "ana@example.com", "s3cret")

	backend.failDelete = true
	w := app.do(http.MethodGet, "/logout", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "session")
}

// brokenCatalog fails every call.
type brokenCatalog struct{}

var errDatabaseDown = errors.New("dial tcp 10.0.0.1:5432: connection refused")

func (brokenCatalog) ListItems(context.Context, ...repository.ListOption) ([]models.FoodItem, error) {
	return nil, errDatabaseDown
}
func (brokenCatalog) CreateItem(context.Context, *models.FoodItem) error { return errDatabaseDown }
func (brokenCatalog) DeleteItem(context.Context, uint) error { return errDatabaseDown }
func (brokenCatalog) CreateRating(context.Context, uint, int) (*models.Rating, error) {
	return nil, errDatabaseDown
}
func (brokenCatalog) Ping(context.Context) error { return errDatabaseDown }

func newBrokenRouter() *gin.Engine {
	h := newHandler(brokenCatalog{}, nil, session.NewMemoryBackend(time.Hour))
	return NewRouter(h, views.New(false), h.Log)
}

func TestListFailureRendersErrorPage(t *testing.T) {
	w := httptest.NewRecorder()
	newBrokenRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/alimentos", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), genericErrorMessage)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body["alive"])

	w = httptest.NewRecorder()
	newBrokenRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"alive": false}`, w.Body.String())
}

func TestParseDecimal(t *testing.T) {
	d, err := parseDecimal("valor", " ")
	require.NoError(t, err)
	assert.False(t, d.Valid)

	d, err = parseDecimal("valor", "3,75")
	require.NoError(t, err)
	assert.Equal(t, "3.75", d.Decimal.String())

	_, err = parseDecimal("valor", "três")
	assert.ErrorIs(t, err, repository.ErrValidation)
}
