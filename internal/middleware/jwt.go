package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleetops/internal/session"
)

// Context keys set by RequireAuth.
const (
	CtxUserID   = "user_id"
	CtxTenantID = "tenant_id"
	CtxTokenID  = "token_id"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload. The registered ID (jti) names the server-side
// session so a logout can revoke the token.
type Claims struct {
	UserID   uint `json:"user_id"`
	TenantID uint `json:"tenant_id"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies session tokens and records them in a session
// store.
type Tokens struct {
	secret   []byte
	sessions session.Store
	now      func() time.Time
}

func NewTokens(secret string, sessions session.Store) *Tokens {
	return &Tokens{secret: []byte(secret), sessions: sessions, now: time.Now}
}

// Issue creates a session valid for ttl and returns the signed token.
func (t *Tokens) Issue(ctx context.Context, userID, tenantID uint, ttl time.Duration) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(ttl)
	id := uuid.NewString()
	claims := Claims{
		UserID:   userID,
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	rec := session.Session{ID: id, UserID: userID, TenantID: tenantID, CreatedAt: now, ExpiresAt: exp}
	if err := t.sessions.Save(ctx, rec); err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies signature and expiry and checks the session is still live.
func (t *Tokens) Parse(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, err := t.sessions.Get(ctx, claims.ID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return claims, nil
}

// Revoke deletes the session behind a token ID.
func (t *Tokens) Revoke(ctx context.Context, tokenID string) error {
	return t.sessions.Delete(ctx, tokenID)
}

func bearer(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

// RequireAuth ensures a valid, unrevoked token is present.
func RequireAuth(tokens *Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		claims, err := tokens.Parse(c.Request.Context(), raw)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) {
				logrus.WithError(err).Error("session lookup failed")
				abort(c, http.StatusInternalServerError, "Could not verify session")
				return
			}
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxTenantID, claims.TenantID)
		c.Set(CtxTokenID, claims.ID)
		c.Next()
	}
}

// UserID returns the authenticated user set by RequireAuth.
func UserID(c *gin.Context) uint {
	return c.GetUint(CtxUserID)
}

// TenantID returns the caller's tenant set by RequireAuth.
func TenantID(c *gin.Context) uint {
	return c.GetUint(CtxTenantID)
}

func TokenID(c *gin.Context) string {
	return c.GetString(CtxTokenID)
}
