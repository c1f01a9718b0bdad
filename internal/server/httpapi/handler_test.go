package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cristobal22/comanda/internal/common"
	"github.com/cristobal22/comanda/internal/dbx"
	"github.com/cristobal22/comanda/internal/logging"
	"github.com/cristobal22/comanda/internal/server/config"
	"github.com/cristobal22/comanda/internal/server/models"
	usersrepo "github.com/cristobal22/comanda/internal/server/repositories/users"
	"github.com/cristobal22/comanda/internal/server/services"
)

const testOrigin = "https://app.example.com"

// --- fakes ---

type fakeUsersRepo struct {
	createErr error
	getOut    *models.User
	getErr    error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "u-1"
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getOut == nil {
		return nil, common.ErrorNotFound
	}
	return f.getOut, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return m.u }

func newTestServer(t *testing.T, repo *fakeUsersRepo, conn *sql.DB) *Server {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	cfg := &config.Config{SecretKey: "k", TokenValidityDuration: 24 * time.Hour}
	svc := services.NewUserService(nil, &fakeRepoManager{u: repo}, cfg)
	return NewServer(":0", logger, svc, conn, testOrigin)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRespondJSON_EncodeFailureLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	cfg := &config.Config{SecretKey: "k", TokenValidityDuration: 24 * time.Hour}
	svc := services.NewUserService(nil, &fakeRepoManager{u: &fakeUsersRepo{}}, cfg)
	s := NewServer(":0", logger, svc, nil, testOrigin)

	ctx := context.WithValue(context.Background(), requestIDKey, "req-42")
	w := httptest.NewRecorder()

	// Channels are not JSON-encodable, forcing the encode error path.
	s.respondJSON(ctx, w, http.StatusOK, map[string]any{"ch": make(chan int)})

	out := buf.String()
	assert.Contains(t, out, "encode response failed")
	assert.Contains(t, out, "req-42")
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- register ---

func TestRegister_Created(t *testing.T) {
	s := newTestServer(t, &fakeUsersRepo{}, nil)

	w := doJSON(t, s.Router(), http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"p1"}`)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Message string       `json:"message"`
		User    userResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Usuario registrado.", resp.Message)
	assert.Equal(t, "u-1", resp.User.ID)
	assert.Equal(t, "a@x.com", resp.User.Email)
	assert.Equal(t, "mesero", resp.User.Role, "role must default")

	assert.NotContains(t, w.Body.String(), "password", "response must never carry the hash")
}

func TestRegister_MissingFields(t *testing.T) {
	tests := []string{
		`{"password":"p1"}`,
		`{"email":"a@x.com"}`,
		`{}`,
	}
	for _, body := range tests {
		s := newTestServer(t, &fakeUsersRepo{createErr: errors.New("must not be called")}, nil)
		w := doJSON(t, s.Router(), http.MethodPost, "/api/auth/register", body)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
		assert.Contains(t, w.Body.String(), "Email y contraseña son requeridos.")
	}
}

func TestRegister_InvalidJSON(t *testing.T) {
	s := newTestServer(t, &fakeUsersRepo{}, nil)

	w := doJSON(t, s.Router(), http.MethodPost, "/api/auth/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newTestServer(t, &fakeUsersRepo{createErr: common.ErrorAlreadyExists}, nil)

	w := doJSON(t, s.Router(), http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"p1"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "El email ya está registrado.")
}

func TestRegister_StoreFailure(t *testing.T) {
	s := newTestServer(t, &fakeUsersRepo{createErr: errors.New("db down")}, nil)

	w := doJSON(t, s.Router(), http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"p1"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Error interno del servidor.")
	assert.NotContains(t, w.Body.String(), "db down", "internals must not leak")
}

// --- login ---

func TestLogin_OK(t *testing.T) {
	s := newTestServer(t, &fakeUsersRepo{getOut: &models.User{
		ID:           "u-7",
		Email:        "a@x.com",
		PasswordHash: hashFor(t, "p1"),
		Role:         "mesero",
	}}, nil)

	w := doJSON(t, s.Router(), http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"p1"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Inicio de sesión exitoso.", resp.Message)
	assert.NotEmpty(t, resp.Token)
}

func TestLogin_BadCredentials_Indistinguishable(t *testing.T) {
	unknown := newTestServer(t, &fakeUsersRepo{getErr: common.ErrorNotFound}, nil)
	wUnknown := doJSON(t, unknown.Router(), http.MethodPost, "/api/auth/login", `{"email":"ghost@x.com","password":"p1"}`)

	wrong := newTestServer(t, &fakeUsersRepo{getOut: &models.User{
		ID:           "u-7",
		Email:        "a@x.com",
		PasswordHash: hashFor(t, "p1"),
		Role:         "mesero",
	}}, nil)
	wWrong := doJSON(t, wrong.Router(), http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, wUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wWrong.Code)
	assert.Equal(t, wUnknown.Body.String(), wWrong.Body.String())
	assert.Contains(t, wUnknown.Body.String(), "Credenciales inválidas.")
}

func TestLogin_MissingFields(t *testing.T) {
	s := newTestServer(t, &fakeUsersRepo{}, nil)

	w := doJSON(t, s.Router(), http.MethodPost, "/api/auth/login", `{"email":"a@x.com"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email y contraseña son requeridos.")
}

// --- health ---

func TestHealth_OK(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT now\(\)`).WillReturnRows(sqlmock.NewRows([]string{"now"}).AddRow(now))

	s := newTestServer(t, &fakeUsersRepo{}, conn)
	w := doJSON(t, s.Router(), http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["db_time"])
}

func TestHealth_StoreUnreachable(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(`SELECT now\(\)`).WillReturnError(errors.New("connection refused"))

	s := newTestServer(t, &fakeUsersRepo{}, conn)
	w := doJSON(t, s.Router(), http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "No se pudo conectar a la base de datos.")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

// --- middleware ---

func TestCORS_AllowedOrigin(t *testing.T) {
	s := newTestServer(t, &fakeUsersRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"a@x.com","password":"p1"}`))
	req.Header.Set("Origin", testOrigin)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	s := newTestServer(t, &fakeUsersRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"a@x.com","password":"p1"}`))
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t, &fakeUsersRepo{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID_Assigned(t *testing.T) {
	s := newTestServer(t, &fakeUsersRepo{}, nil)

	w := doJSON(t, s.Router(), http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"p1"}`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

// --- static front end ---

func TestStaticFrontend_Served(t *testing.T) {
	s := newTestServer(t, &fakeUsersRepo{}, nil)

	w := doJSON(t, s.Router(), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Inicia sesión")
}
