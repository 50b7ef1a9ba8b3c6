package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/calculator-api/internal/handler"
	"github.com/deppfellow/calculator-api/internal/identity"
	"github.com/deppfellow/calculator-api/internal/server"
	"github.com/deppfellow/calculator-api/internal/service"
	"github.com/deppfellow/calculator-api/internal/testutil"
)

type app struct {
	echo     *echo.Echo
	server   *server.Server
	store    *testutil.MemoryStore
	identity *testutil.FakeIdentity
}

type option func(*app)

func withStore() option {
	return func(a *app) { a.store = testutil.NewMemoryStore() }
}

func withIdentity() option {
	return func(a *app) { a.identity = testutil.NewFakeIdentity() }
}

func newApp(t *testing.T, opts ...option) *app {
	t.Helper()

	a := &app{server: testutil.NewServer()}
	for _, opt := range opts {
		opt(a)
	}

	var store service.CalculationStore
	if a.store != nil {
		store = a.store
	}
	if a.identity != nil {
		a.server.Identity = a.identity
	}

	calc := service.NewCalculatorServiceWithStore(a.server.Logger, store, nil)
	services := &service.Services{
		Calculator: calc,
		Auth:       service.NewAuthService(a.server),
		User:       service.NewUserService(a.server, calc),
	}

	a.echo = NewRouter(a.server, handler.NewHandlers(a.server, services))
	return a
}

func (a *app) do(t *testing.T, method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func bearer(token string) []string {
	return []string{echo.HeaderAuthorization, "Bearer " + token}
}

func TestCalculate_CanonicalCases(t *testing.T) {
	a := newApp(t)

	tests := []struct {
		body        string
		result      float64
		calculation string
	}{
		{`{"num1":10,"num2":5,"operation":"add"}`, 15, "10 + 5"},
		{`{"num1":10,"num2":5,"operation":"subtract"}`, 5, "10 - 5"},
		{`{"num1":10,"num2":5,"operation":"multiply"}`, 50, "10 × 5"},
		{`{"num1":7,"num2":2,"operation":"divide"}`, 3.5, "7 ÷ 2"},
		{`{"num1":2,"num2":10,"operation":"power"}`, 1024, "2 ^ 10"},
		{`{"num1":100,"num2":7,"operation":"modulo"}`, 2, "100 % 7"},
		{`{"num1":"10","num2":"5","operation":"add"}`, 15, "10 + 5"},
	}

	for _, path := range []string{"/api/calculate", "/api/calculator/calculate"} {
		for _, tt := range tests {
			t.Run(path+" "+tt.body, func(t *testing.T) {
				rec, body := a.do(t, http.MethodPost, path, tt.body)

				require.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, true, body["success"])
				assert.Equal(t, tt.result, body["result"])
				assert.Equal(t, tt.calculation, body["calculation"])
				assert.NotEmpty(t, body["timestamp"])

				id, present := body["id"]
				assert.True(t, present)
				assert.Nil(t, id)
			})
		}
	}
}

func TestCalculate_Failures(t *testing.T) {
	a := newApp(t)

	tests := []struct {
		name    string
		body    string
		code    string
		message string
	}{
		{"divide by zero", `{"num1":5,"num2":0,"operation":"divide"}`, "DIVISION_BY_ZERO", "division by zero"},
		{"modulo by zero", `{"num1":5,"num2":0,"operation":"modulo"}`, "DIVISION_BY_ZERO", "division by zero"},
		{"unknown operation", `{"num1":5,"num2":1,"operation":"sqrt"}`, "UNKNOWN_OPERATION", "must be one of"},
		{"missing operand", `{"num1":5,"operation":"add"}`, "MISSING_FIELD", `"num2" is required`},
		{"empty body", `{}`, "MISSING_FIELD", `"num1" is required`},
		{"not a number", `{"num1":"abc","num2":1,"operation":"add"}`, "INVALID_NUMBER", `"num1" must be a finite number`},
		{"overflow", `{"num1":10,"num2":400,"operation":"power"}`, "NON_FINITE_RESULT", "not a finite number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := a.do(t, http.MethodPost, "/api/calculate", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["code"])
			assert.Contains(t, body["error"], tt.message)
			assert.NotContains(t, body, "result")
			assert.NotContains(t, body, "id")
		})
	}
}

func TestCalculate_MalformedJSON(t *testing.T) {
	a := newApp(t)

	rec, body := a.do(t, http.MethodPost, "/api/calculate", `{"num1":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "BAD_REQUEST", body["code"])
}

func TestCalculate_HebrewMessages(t *testing.T) {
	a := newApp(t)

	rec, body := a.do(t, http.MethodPost, "/api/calculate", `{"num1":5,"num2":0,"operation":"divide"}`,
		"Accept-Language", "he-IL,he;q=0.9")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "לא ניתן לחלק באפס", body["error"])
}

func TestCalculate_StoresAndScopesHistory(t *testing.T) {
	a := newApp(t, withStore(), withIdentity())
	user, token := a.identity.MustCreate("ada@example.com")

	rec, body := a.do(t, http.MethodPost, "/api/calculator/calculate", `{"num1":10,"num2":5,"operation":"add"}`, bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)
	id, ok := body["id"].(string)
	require.True(t, ok)

	a.do(t, http.MethodPost, "/api/calculate", `{"num1":1,"num2":1,"operation":"add"}`)

	rec, body = a.do(t, http.MethodGet, "/api/calculator/history", "", bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	records := body["calculations"].([]any)
	first := records[0].(map[string]any)
	assert.Equal(t, id, first["id"])
	assert.Equal(t, user.UID, first["userId"])
	assert.Equal(t, "+", first["operationSymbol"])

	// Anonymous callers only see anonymous records.
	_, body = a.do(t, http.MethodGet, "/api/calculator/history?limit=abc", "")
	assert.EqualValues(t, 1, body["count"])
	assert.Equal(t, "anonymous", body["calculations"].([]any)[0].(map[string]any)["userId"])

	rec, body = a.do(t, http.MethodGet, "/api/calculator/stats", "", bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := body["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["total"])
	assert.Equal(t, map[string]any{"add": float64(1)}, stats["operations"])

	rec, _ = a.do(t, http.MethodDelete, "/api/calculator/history/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = a.do(t, http.MethodDelete, "/api/calculator/history/"+id, "", bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Calculation deleted", body["message"])

	rec, body = a.do(t, http.MethodDelete, "/api/calculator/history/not-a-uuid", "", bearer(token)...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", body["error"])
}

func TestHistory_LimitUsesLeadingDigits(t *testing.T) {
	a := newApp(t, withStore())
	for i := 0; i < 3; i++ {
		rec, _ := a.do(t, http.MethodPost, "/api/calculate", `{"num1":1,"num2":1,"operation":"add"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, body := a.do(t, http.MethodGet, "/api/calculator/history?limit=2abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	_, body = a.do(t, http.MethodGet, "/api/calculator/history?limit=abc", "")
	assert.EqualValues(t, 3, body["count"])
}

func TestCalculatorRoutes_WithoutDatabase(t *testing.T) {
	a := newApp(t)

	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/api/calculator/history"},
		{http.MethodGet, "/api/calculator/stats"},
		{http.MethodDelete, "/api/calculator/history/3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
	} {
		rec, body := a.do(t, r.method, r.path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, r.path)
		assert.Equal(t, "Database not available", body["error"], r.path)
		assert.Equal(t, false, body["success"], r.path)
	}
}

func TestHealth(t *testing.T) {
	a := newApp(t)

	for _, path := range []string{"/health", "/api/health"} {
		rec, body := a.do(t, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", body["status"])
		assert.NotEmpty(t, body["timestamp"])
		assert.Equal(t, "calculator-api", body["service"])

		checks := body["checks"].(map[string]any)
		assert.Equal(t, "disabled", checks["database"].(map[string]any)["status"])
		assert.Equal(t, "disabled", checks["redis"].(map[string]any)["status"])
		assert.Equal(t, "disabled", checks["identity"].(map[string]any)["status"])
	}
}

func TestHealth_ConfiguredIdentity(t *testing.T) {
	a := newApp(t, withIdentity())

	_, body := a.do(t, http.MethodGet, "/health", "")
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "healthy", checks["identity"].(map[string]any)["status"])
}

func TestSystemRoutes(t *testing.T) {
	a := newApp(t)

	rec, body := a.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/docs", body["documentation"])

	rec, _ = a.do(t, http.MethodGet, "/api/docs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/static/openapi.json")

	rec, _ = a.do(t, http.MethodGet, "/static/openapi.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = a.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Endpoint not found", body["error"])
	assert.Equal(t, "/api/nope", body["path"])

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuth_WithoutIdentity(t *testing.T) {
	a := newApp(t)

	rec, body := a.do(t, http.MethodGet, "/api/users/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No authorization token provided", body["error"])

	rec, _ = a.do(t, http.MethodGet, "/api/users/me", "", bearer("whatever")...)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, _ = a.do(t, http.MethodPost, "/api/auth/register", `{"email":"a@b.co","password":"secret1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec, body = a.do(t, http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful", body["message"])

	// Calculations still work anonymously with a token nobody can verify.
	rec, _ = a.do(t, http.MethodPost, "/api/calculate", `{"num1":1,"num2":2,"operation":"add"}`, bearer("whatever")...)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_RegisterVerifyAndProfile(t *testing.T) {
	a := newApp(t, withIdentity())

	rec, body := a.do(t, http.MethodPost, "/api/auth/register", `{"email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User registered successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "ada", user["displayName"])
	uid := user["uid"].(string)

	rec, body = a.do(t, http.MethodPost, "/api/auth/register", `{"email":"ada@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already exists", body["error"])

	rec, body = a.do(t, http.MethodPost, "/api/auth/register", `{"email":"bad","password":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, body["errors"], 2)

	rec, body = a.do(t, http.MethodPost, "/api/auth/verify", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Token is required", body["error"])

	rec, body = a.do(t, http.MethodPost, "/api/auth/verify", `{"token":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", body["error"])

	token := testutil.TokenFor(uid)
	rec, body = a.do(t, http.MethodPost, "/api/auth/verify", `{"token":"`+token+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uid, body["user"].(map[string]any)["uid"])

	rec, body = a.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ClientSideLoginMessage, body["message"])

	rec, _ = a.do(t, http.MethodGet, "/api/users/me", "", bearer("nope")...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = a.do(t, http.MethodGet, "/api/users/me", "", bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", body["user"].(map[string]any)["email"])

	rec, body = a.do(t, http.MethodPut, "/api/users/me", `{"displayName":"Ada L","photoURL":"https://example.com/a.png"}`, bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Profile updated successfully", body["message"])
	assert.Equal(t, "Ada L", body["user"].(map[string]any)["displayName"])

	rec, _ = a.do(t, http.MethodPut, "/api/users/me", `{"photoURL":"not a url"}`, bearer(token)...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = a.do(t, http.MethodDelete, "/api/users/me", "", bearer(token)...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Account deleted successfully", body["message"])

	// The deleted account's token no longer verifies.
	rec, _ = a.do(t, http.MethodGet, "/api/users/me", "", bearer(token)...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RegisterRejectsOverlongPassword(t *testing.T) {
	a := newApp(t, withIdentity())

	body := `{"email":"ada@example.com","password":"` + strings.Repeat("x", 80) + `"}`
	rec, out := a.do(t, http.MethodPost, "/api/auth/register", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Validation failed", out["error"])
	require.Len(t, out["errors"], 1)
	fieldErr := out["errors"].([]any)[0].(map[string]any)
	assert.Equal(t, "password", fieldErr["field"])
}

func TestAuth_PasswordLogin(t *testing.T) {
	a := newApp(t)
	provider := testutil.NewFakePasswordIdentity()
	provider.MustCreate("ada@example.com")
	a.server.Identity = provider

	calc := service.NewCalculatorServiceWithStore(a.server.Logger, nil, nil)
	services := &service.Services{
		Calculator: calc,
		Auth:       service.NewAuthService(a.server),
		User:       service.NewUserService(a.server, calc),
	}
	a.echo = NewRouter(a.server, handler.NewHandlers(a.server, services))

	rec, body := a.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	tokens := body["tokens"].(map[string]any)
	assert.Equal(t, "Bearer", tokens["tokenType"])

	rec, body = a.do(t, http.MethodPost, "/api/auth/refresh", `{"refreshToken":"`+tokens["refreshToken"].(string)+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["tokens"])

	rec, _ = a.do(t, http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

var _ identity.Provider = (*testutil.FakeIdentity)(nil)
