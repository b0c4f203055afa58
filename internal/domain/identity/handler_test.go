package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newAuthServer(t *testing.T) (*echo.Echo, *Handler) {
	t.Helper()
	e := echo.New()
	h := NewHandler(NewService(testBcryptCost), zerolog.Nop())
	h.RegisterRoutes(e.Group("/auth"))
	return e, h
}

func authJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const registerBody = `{"id":"U1","email":"u1@example.com","password":"correct-horse","user_type":"provider"}`

func loginTestUser(t *testing.T, e *echo.Echo) string {
	t.Helper()
	if rec := authJSON(e, http.MethodPost, "/auth/register", registerBody, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", rec.Code, rec.Body.String())
	}
	rec := authJSON(e, http.MethodPost, "/auth/login", `{"email":"u1@example.com","password":"correct-horse"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login response missing token: %v %s", err, rec.Body.String())
	}
	return resp.Token
}

func TestAuthRegisterLoginLogout(t *testing.T) {
	e, _ := newAuthServer(t)
	token := loginTestUser(t, e)

	rec := authJSON(e, http.MethodGet, "/auth/session", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("session: expected 200, got %d", rec.Code)
	}
	var session map[string]string
	json.Unmarshal(rec.Body.Bytes(), &session)
	if session["user_id"] != "U1" {
		t.Fatalf("session resolved to %q", session["user_id"])
	}

	if rec := authJSON(e, http.MethodPost, "/auth/logout", "", token); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}
	if rec := authJSON(e, http.MethodGet, "/auth/session", "", token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("session after logout: expected 401, got %d", rec.Code)
	}
	if rec := authJSON(e, http.MethodPost, "/auth/logout", "", token); rec.Code != http.StatusNotFound {
		t.Fatalf("double logout: expected 404, got %d", rec.Code)
	}
}

func TestAuthRegister_Conflict(t *testing.T) {
	e, _ := newAuthServer(t)
	authJSON(e, http.MethodPost, "/auth/register", registerBody, "")
	if rec := authJSON(e, http.MethodPost, "/auth/register", registerBody, ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAuthRegister_Validation(t *testing.T) {
	e, _ := newAuthServer(t)
	bad := `{"id":"U1","email":"u1@example.com","password":"short","user_type":"provider"}`
	if rec := authJSON(e, http.MethodPost, "/auth/register", bad, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthLogin_BadCredentials(t *testing.T) {
	e, _ := newAuthServer(t)
	authJSON(e, http.MethodPost, "/auth/register", registerBody, "")

	rec := authJSON(e, http.MethodPost, "/auth/login", `{"email":"u1@example.com","password":"wrong-password"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionMiddleware(t *testing.T) {
	e, h := newAuthServer(t)
	token := loginTestUser(t, e)

	var gotUserID string
	e.GET("/guarded", func(c echo.Context) error {
		gotUserID, _ = c.Get("user_id").(string)
		return c.NoContent(http.StatusOK)
	}, h.SessionMiddleware())

	if rec := authJSON(e, http.MethodGet, "/guarded", "", token); rec.Code != http.StatusOK {
		t.Fatalf("valid token: expected 200, got %d", rec.Code)
	}
	if gotUserID != "U1" {
		t.Fatalf("user id not placed on context: %q", gotUserID)
	}

	if rec := authJSON(e, http.MethodGet, "/guarded", "", "bogus-token"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bogus token: expected 401, got %d", rec.Code)
	}
	if rec := authJSON(e, http.MethodGet, "/guarded", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("non-bearer scheme: expected 401, got %d", rec.Code)
	}
}
