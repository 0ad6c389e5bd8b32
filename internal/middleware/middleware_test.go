package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/kaku-api/internal/config"
	"github.com/iliyamo/kaku-api/internal/identity"
	"github.com/iliyamo/kaku-api/internal/model"
	"github.com/iliyamo/kaku-api/internal/repository"
	"github.com/iliyamo/kaku-api/internal/utils"
)

type stubVerifier map[string]identity.Claims

func (s stubVerifier) VerifyCredential(_ context.Context, token string) (identity.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return identity.Claims{}, identity.ErrInvalidCredential
}

func whoami(c echo.Context) error {
	p, _ := PrincipalFrom(c)
	return c.JSON(http.StatusOK, echo.Map{"id": p.UserID, "role": p.Role, "source": p.Source})
}

func serve(t *testing.T, h echo.HandlerFunc, mws []echo.MiddlewareFunc, token string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/ping", h, mws...)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	tok, _ := utils.NewAccessToken("secret", "u1", "u1@example.com", "admin", time.Hour)

	rec := serve(t, whoami, []echo.MiddlewareFunc{JWTAuth("secret")}, tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec = serve(t, whoami, []echo.MiddlewareFunc{JWTAuth("secret")}, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec = serve(t, whoami, []echo.MiddlewareFunc{JWTAuth("other")}, tok.Token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rec.Code)
	}
}

func TestAuthenticate_AcceptsEitherScheme(t *testing.T) {
	v := stubVerifier{"fb-token": {SubjectID: "fb-1", Email: "fb@example.com", Role: model.RoleUser}}
	tok, _ := utils.NewAccessToken("secret", "u1", "u1@example.com", "user", time.Hour)
	mw := []echo.MiddlewareFunc{Authenticate("secret", v)}

	var got Principal
	capture := func(c echo.Context) error {
		got, _ = PrincipalFrom(c)
		return c.NoContent(http.StatusOK)
	}

	if rec := serve(t, capture, mw, tok.Token); rec.Code != http.StatusOK || got.Source != SourceToken || got.UserID != "u1" {
		t.Fatalf("expected self-issued principal, got %d %+v", rec.Code, got)
	}
	if rec := serve(t, capture, mw, "fb-token"); rec.Code != http.StatusOK || got.Source != SourceProvider || got.UserID != "fb-1" {
		t.Fatalf("expected provider principal, got %d %+v", rec.Code, got)
	}
	if rec := serve(t, capture, mw, "nonsense"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProviderAuth_Unconfigured(t *testing.T) {
	rec := serve(t, whoami, []echo.MiddlewareFunc{ProviderAuth(identity.Unconfigured{})}, "anything")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when provider is unconfigured, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	user, _ := utils.NewAccessToken("secret", "u1", "u1@example.com", "user", time.Hour)
	admin, _ := utils.NewAccessToken("secret", "a1", "a1@example.com", "admin", time.Hour)
	mw := []echo.MiddlewareFunc{JWTAuth("secret"), RequireRole(model.RoleAdmin)}

	if rec := serve(t, whoami, mw, user.Token); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", rec.Code)
	}
	if rec := serve(t, whoami, mw, admin.Token); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
	if rec := serve(t, whoami, []echo.MiddlewareFunc{RequireRole(model.RoleAdmin)}, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", rec.Code)
	}
}

func TestCache_DisabledWithoutRedis(t *testing.T) {
	cfg := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, Prefix: "kaku:cache"}
	mw := []echo.MiddlewareFunc{NewRedisCache(cfg, nil, "events"), InvalidateCache(cfg, nil, "events")}
	rec := serve(t, whoami, mw, "")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
		t.Fatalf("expected passthrough, got %d X-Cache=%q", rec.Code, rec.Header().Get("X-Cache"))
	}
}

func TestCacheKey_UsesConcretePath(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "kaku:cache"}
	e := echo.New()
	key := func(target string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		return cacheKey(cfg, "events", c)
	}
	a, b := key("/api/events/1"), key("/api/events/2")
	if a == b {
		t.Fatalf("expected distinct keys per path")
	}
	if a[:len("kaku:cache:events:")] != "kaku:cache:events:" {
		t.Fatalf("expected namespaced key, got %s", a)
	}
	if key("/api/events?status=upcoming") == key("/api/events?status=cancelled") {
		t.Fatalf("expected query to be part of the key")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != `{"ok":true}` {
		t.Fatalf("unexpected decode: %d %v %s %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload([]byte{0, 1}); ok {
		t.Fatalf("expected short payload rejected")
	}
}

type stubAccounts map[string]*model.User

func (s stubAccounts) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func TestRequireActive(t *testing.T) {
	accounts := stubAccounts{
		"on":  {ID: "on", IsActive: true},
		"off": {ID: "off", IsActive: false},
	}
	mw := []echo.MiddlewareFunc{JWTAuth("secret"), RequireActive(accounts)}
	tok := func(id string) string {
		at, _ := utils.NewAccessToken("secret", id, id+"@example.com", "user", time.Hour)
		return at.Token
	}

	if rec := serve(t, whoami, mw, tok("on")); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for active account, got %d", rec.Code)
	}
	if rec := serve(t, whoami, mw, tok("off")); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for deactivated account, got %d", rec.Code)
	}
	if rec := serve(t, whoami, mw, tok("unmirrored")); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for account without local row, got %d", rec.Code)
	}
	if rec := serve(t, whoami, []echo.MiddlewareFunc{RequireActive(accounts)}, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", rec.Code)
	}
}
