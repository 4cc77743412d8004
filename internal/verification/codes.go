// Package verification issues and redeems the single-use 6-digit codes
// behind account activation and password recovery.
package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"fleetops/internal/apperrors"
	"fleetops/internal/models"
	"fleetops/internal/store"
)

// CodeLength is the number of digits in a code.
const CodeLength = 6

// Codes manages one code slot per (user, purpose).
type Codes struct {
	store  store.CodeStore
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

// New returns a code manager. A zero ttl keeps codes redeemable until a
// newer code replaces them.
func New(s store.CodeStore, ttl time.Duration) *Codes {
	return &Codes{store: s, ttl: ttl, now: time.Now, random: rand.Reader}
}

// WithClock replaces the time source.
func (c *Codes) WithClock(now func() time.Time) *Codes {
	c.now = now
	return c
}

// WithRandom replaces the entropy source.
func (c *Codes) WithRandom(r io.Reader) *Codes {
	c.random = r
	return c
}

// Generate returns CodeLength uniformly random decimal digits.
func Generate(r io.Reader) (string, error) {
	var b strings.Builder
	b.Grow(CodeLength)
	ten := big.NewInt(10)
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(r, ten)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// Issue stores a fresh code for the user and purpose, replacing any
// previous one, and returns it.
func (c *Codes) Issue(ctx context.Context, userID uint, purpose models.CodePurpose) (string, error) {
	code, err := Generate(c.random)
	if err != nil {
		return "", err
	}
	rec := &models.VerificationCode{
		UserID:    userID,
		Purpose:   purpose,
		Code:      code,
		CreatedAt: c.now(),
		Used:      false,
	}
	if err := c.store.Upsert(ctx, rec); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return code, nil
}

// Consume redeems a code. Wrong, replaced, expired or already used codes
// yield ErrInvalidCode and leave the stored code untouched.
func (c *Codes) Consume(ctx context.Context, userID uint, purpose models.CodePurpose, code string) error {
	code = strings.TrimSpace(code)
	if !wellFormed(code) {
		return apperrors.ErrInvalidCode
	}
	var notBefore time.Time
	if c.ttl > 0 {
		notBefore = c.now().Add(-c.ttl)
	}
	ok, err := c.store.Consume(ctx, userID, purpose, code, notBefore)
	if err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	if !ok {
		return apperrors.ErrInvalidCode
	}
	return nil
}

func wellFormed(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
