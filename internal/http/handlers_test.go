package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adilzhan/auth-core/internal/auth"
	"github.com/adilzhan/auth-core/internal/domain"
	api "github.com/adilzhan/auth-core/internal/http"
	"github.com/adilzhan/auth-core/internal/oauth"
	"github.com/adilzhan/auth-core/internal/repo"
	"github.com/adilzhan/auth-core/internal/security"
)

type fakeProvider struct {
	identity oauth.Identity
}

func (f *fakeProvider) Name() domain.OAuthProvider { return domain.ProviderGoogle }

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://accounts.google.test/authorize?state=" + state
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*oauth.Identity, error) {
	id := f.identity
	return &id, nil
}

type testEnv struct {
	Router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := security.NewTokenService("test-secret", nil, 15*time.Minute, 24*time.Hour)
	provider := &fakeProvider{identity: oauth.Identity{
		Provider:      domain.ProviderGoogle,
		AccountID:     "g-1",
		Email:         "oauth@example.com",
		EmailVerified: true,
		Name:          "OAuth User",
	}}
	flows := oauth.NewManager(repo.NewMemoryStates(), 10*time.Minute, provider)
	svc := auth.NewService(
		repo.NewMemoryUsers(), repo.NewMemorySessions(), repo.NewMemoryOAuthAccounts(),
		tokens, flows, nil, auth.Policy{RotateRefresh: true},
	)
	h := api.NewHandler(svc, tokens, nil, nil)
	return &testEnv{Router: api.NewRouter(h)}
}

func (e *testEnv) do(method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

type authPayload struct {
	User         map[string]any `json:"user"`
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresIn    int            `json:"expiresIn"`
}

func decodeAuth(t *testing.T, w *httptest.ResponseRecorder) authPayload {
	t.Helper()
	var env struct {
		Success bool        `json:"success"`
		Data    authPayload `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v; body=%s", err, w.Body.String())
	}
	if !env.Success {
		t.Fatalf("success=false: %s", w.Body.String())
	}
	return env.Data
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/auth/register",
		`{"email":"john@example.com","password":"StrongPass1","name":"John"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register code=%d body=%s", w.Code, w.Body.String())
	}
	reg := decodeAuth(t, w)
	if reg.AccessToken == "" || reg.RefreshToken == "" || reg.ExpiresIn != 900 {
		t.Fatalf("register payload: %+v", reg)
	}
	if _, leaked := reg.User["passwordHash"]; leaked {
		t.Fatal("password hash leaked in response")
	}

	w = env.do("POST", "/api/auth/login",
		`{"email":"john@example.com","password":"StrongPass1"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login code=%d body=%s", w.Code, w.Body.String())
	}
	lr := decodeAuth(t, w)

	w = env.do("GET", "/api/auth/me", "", map[string]string{"Authorization": "Bearer " + lr.AccessToken})
	if w.Code != http.StatusOK {
		t.Fatalf("me code=%d body=%s", w.Code, w.Body.String())
	}

	w = env.do("GET", "/api/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("me without token: %d", w.Code)
	}
}

func TestRegisterValidationDetails(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/auth/register",
		`{"email":"not-an-email","password":"short","name":""}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Success bool                `json:"success"`
		Code    string              `json:"code"`
		Details map[string][]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Code != "VALIDATION_ERROR" {
		t.Fatalf("envelope: %s", w.Body.String())
	}
	// keyed by the json names the client sent, not Go field names
	for _, f := range []string{"email", "password", "name"} {
		if len(resp.Details[f]) == 0 {
			t.Fatalf("missing detail for %s: %v", f, resp.Details)
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/auth/register",
		`{"email":"u@example.com","password":"StrongPass1","name":"U"}`, nil)

	w := env.do("POST", "/api/auth/login",
		`{"email":"u@example.com","password":"WrongPass99"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("code=%q", resp.Code)
	}

	// unknown email gets the identical response
	w2 := env.do("POST", "/api/auth/login",
		`{"email":"nobody@example.com","password":"WrongPass99"}`, nil)
	if w2.Code != w.Code || w2.Body.String() != w.Body.String() {
		t.Fatalf("enumeration leak: %s vs %s", w.Body.String(), w2.Body.String())
	}
}

func TestRefreshRotationAndReuse(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/auth/register",
		`{"email":"r@example.com","password":"StrongPass1","name":"R"}`, nil)
	w := env.do("POST", "/api/auth/login",
		`{"email":"r@example.com","password":"StrongPass1"}`, nil)
	lr := decodeAuth(t, w)

	w = env.do("POST", "/api/auth/refresh", `{"refreshToken":"`+lr.RefreshToken+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: %d %s", w.Code, w.Body.String())
	}
	r1 := decodeAuth(t, w)
	if r1.AccessToken == "" || r1.RefreshToken == "" {
		t.Fatalf("rotation payload: %+v", r1)
	}

	// replaying the consumed token trips reuse detection
	w = env.do("POST", "/api/auth/refresh", `{"refreshToken":"`+lr.RefreshToken+`"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("reuse: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != "TOKEN_REVOKED" {
		t.Fatalf("code=%q", resp.Code)
	}

	// the whole family went with it
	w = env.do("POST", "/api/auth/refresh", `{"refreshToken":"`+r1.RefreshToken+`"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("family: %d %s", w.Code, w.Body.String())
	}
}

func TestLogoutEndsSession(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("POST", "/api/auth/register",
		`{"email":"out@example.com","password":"StrongPass1","name":"Out"}`, nil)
	reg := decodeAuth(t, w)

	w = env.do("POST", "/api/auth/logout", "", map[string]string{"Authorization": "Bearer " + reg.AccessToken})
	if w.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", w.Code, w.Body.String())
	}

	w = env.do("POST", "/api/auth/refresh", `{"refreshToken":"`+reg.RefreshToken+`"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: %d %s", w.Code, w.Body.String())
	}
}

func TestLogoutBodyCannotEndForeignSession(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("POST", "/api/auth/register",
		`{"email":"v@example.com","password":"StrongPass1","name":"V"}`, nil)
	victim := decodeAuth(t, w)
	w = env.do("POST", "/api/auth/register",
		`{"email":"a@example.com","password":"StrongPass1","name":"A"}`, nil)
	attacker := decodeAuth(t, w)

	w = env.do("GET", "/api/auth/sessions", "", map[string]string{"Authorization": "Bearer " + victim.AccessToken})
	var list struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Data) == 0 {
		t.Fatalf("sessions: %v %s", err, w.Body.String())
	}
	sid := list.Data[0].ID

	w = env.do("POST", "/api/auth/logout", `{"sessionId":"`+sid+`"}`,
		map[string]string{"Authorization": "Bearer " + attacker.AccessToken})
	if w.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", w.Code, w.Body.String())
	}

	// the named session still belongs to its owner
	w = env.do("POST", "/api/auth/refresh", `{"refreshToken":"`+victim.RefreshToken+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("victim session gone: %d %s", w.Code, w.Body.String())
	}
}

func TestSessionsPaginationEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.do("POST", "/api/auth/register",
		`{"email":"s@example.com","password":"StrongPass1","name":"S"}`, nil)
	var access string
	for i := 0; i < 3; i++ {
		w := env.do("POST", "/api/auth/login",
			`{"email":"s@example.com","password":"StrongPass1"}`, nil)
		access = decodeAuth(t, w).AccessToken
	}

	w := env.do("GET", "/api/auth/sessions?page=1&limit=2", "", map[string]string{"Authorization": "Bearer " + access})
	if w.Code != http.StatusOK {
		t.Fatalf("sessions: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Success    bool             `json:"success"`
		Data       []map[string]any `json:"data"`
		Pagination struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int   `json:"totalPages"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || len(resp.Data) != 2 {
		t.Fatalf("data: %s", w.Body.String())
	}
	// register + 3 logins
	if resp.Pagination.Total != 4 || resp.Pagination.TotalPages != 2 {
		t.Fatalf("pagination: %+v", resp.Pagination)
	}
}

func TestOAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/auth/oauth/google/url", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("oauth url: %d %s", w.Code, w.Body.String())
	}
	var urlResp struct {
		Data struct {
			URL   string `json:"url"`
			State string `json:"state"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &urlResp); err != nil {
		t.Fatal(err)
	}
	if urlResp.Data.State == "" {
		t.Fatalf("no state: %s", w.Body.String())
	}

	w = env.do("GET", "/api/auth/oauth/google/callback?code=c1&state="+urlResp.Data.State, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("callback: %d %s", w.Code, w.Body.String())
	}
	cb := decodeAuth(t, w)
	if cb.AccessToken == "" || cb.User["email"] != "oauth@example.com" {
		t.Fatalf("callback payload: %s", w.Body.String())
	}

	// state is single use
	w = env.do("GET", "/api/auth/oauth/google/callback?code=c1&state="+urlResp.Data.State, "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("replayed state: %d %s", w.Code, w.Body.String())
	}

	w = env.do("GET", "/api/auth/oauth/github/url", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown provider: %d", w.Code)
	}

	w = env.do("GET", "/api/auth/oauth/google/callback?code=c1", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing state: %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("GET", "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: %d %s", w.Code, w.Body.String())
	}
}

func TestJWKSDisabledWithoutKeys(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("GET", "/.well-known/jwks.json", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("jwks on hs256: %d", w.Code)
	}
}
