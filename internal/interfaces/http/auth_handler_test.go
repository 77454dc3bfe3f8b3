package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	apphttp "github.com/jhoicas/stock-ledger-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Repositorio de usuarios en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User // por email
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*entity.User{}}
}

func (m *memUserRepo) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return domain.ErrEmailAlreadyExists
	}
	m.users[u.Email] = u
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) UpdateRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			u.Role = role
			return nil
		}
	}
	return domain.ErrNotFound
}

// buildAuthApp monta el router real con auth sobre el repositorio en memoria.
func buildAuthApp(repo *memUserRepo) *fiber.App {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(repo, auth.JWTConfig{
			Secret:     testJWTSecret,
			ExpMinutes: testExpMin,
			Issuer:     testIssuer,
		}),
		JWTSecret: testJWTSecret,
	})
	return app
}

func postPublic(t *testing.T, app *fiber.App, path, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro
// ──────────────────────────────────────────────────────────────────────────────

// Un "role" en el body del registro público se ignora: el usuario nace vendedor
// y el token que obtiene al iniciar sesión también lo es.
func TestRegister_IgnoraRolDelBody(t *testing.T) {
	repo := newMemUserRepo()
	app := buildAuthApp(repo)

	resp, raw := postPublic(t, app, "/api/auth/register",
		`{"email":"intruso@example.com","password":"12345678","role":"admin"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))

	var user dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &user))
	assert.Equal(t, entity.RoleVendedor, user.Role)

	resp, raw = postPublic(t, app, "/api/auth/login",
		`{"email":"intruso@example.com","password":"12345678"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &login))
	_, role, err := pkgjwt.Parse(testJWTSecret, login.Token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleVendedor, role)
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignación de roles
// ──────────────────────────────────────────────────────────────────────────────

func TestAssignRole_SoloAdmin(t *testing.T) {
	repo := newMemUserRepo()
	app := buildAuthApp(repo)

	resp, raw := postPublic(t, app, "/api/auth/register",
		`{"email":"bod@example.com","password":"12345678"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var user dto.UserResponse
	require.NoError(t, json.Unmarshal(raw, &user))
	path := "/api/auth/users/" + user.ID + "/role"

	// vendedor y bodeguero no pueden cambiar roles
	for _, role := range []string{entity.RoleVendedor, entity.RoleBodeguero} {
		resp, _ = call(t, app, http.MethodPatch, path, role, `{"role":"admin"}`)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, role)
	}
	assert.Equal(t, entity.RoleVendedor, repo.users["bod@example.com"].Role)

	// sin token
	req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"role":"admin"}`))
	req.Header.Set("Content-Type", "application/json")
	anon, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, anon.StatusCode)

	resp, raw2 := call(t, app, http.MethodPatch, path, entity.RoleAdmin, `{"role":"bodeguero"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, raw2)
	var updated dto.UserResponse
	require.NoError(t, json.Unmarshal([]byte(raw2), &updated))
	assert.Equal(t, entity.RoleBodeguero, updated.Role)

	resp, _ = call(t, app, http.MethodPatch, path, entity.RoleAdmin, `{"role":"root"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, http.MethodPatch, "/api/auth/users/no-existe/role", entity.RoleAdmin, `{"role":"vendedor"}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
