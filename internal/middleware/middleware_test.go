package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fleetops/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protected(tokens *Tokens) *gin.Engine {
	r := gin.New()
	r.GET("/me", RequireAuth(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "tenant": TenantID(c), "jti": TokenID(c)})
	})
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthAcceptsIssuedToken(t *testing.T) {
	tokens := NewTokens("secret", session.NewMemoryStore())
	tok, _, err := tokens.Issue(context.Background(), 4, 2, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	w := get(protected(tokens), tok)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	sessions := session.NewMemoryStore()
	tokens := NewTokens("secret", sessions)
	r := protected(tokens)

	if w := get(r, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("missing header: status %d", w.Code)
	}
	if w := get(r, "not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d", w.Code)
	}

	other := NewTokens("other-secret", sessions)
	forged, _, _ := other.Issue(context.Background(), 1, 1, time.Hour)
	if w := get(r, forged); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong signature: status %d", w.Code)
	}

	tok, _, _ := tokens.Issue(context.Background(), 1, 1, time.Hour)
	claims, err := tokens.Parse(context.Background(), tok)
	if err != nil {
		t.Fatal(err)
	}
	if err := tokens.Revoke(context.Background(), claims.ID); err != nil {
		t.Fatal(err)
	}
	if w := get(r, tok); w.Code != http.StatusUnauthorized {
		t.Errorf("revoked token: status %d", w.Code)
	}
}

func TestRequestIDPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("request id not propagated: body %q header %q", w.Body, w.Header().Get(RequestIDHeader))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(w.Header().Get(RequestIDHeader)) != 36 {
		t.Errorf("generated id %q", w.Header().Get(RequestIDHeader))
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.rutek.tours"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.rutek.tours")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "https://app.rutek.tours" {
		t.Errorf("preflight: status %d origin %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unlisted origin was allowed")
	}
}
