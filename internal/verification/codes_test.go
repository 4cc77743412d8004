package verification

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"regexp"
	"testing"
	"time"

	"fleetops/internal/apperrors"
	"fleetops/internal/models"
	"fleetops/internal/store"
)

func newUser(t *testing.T, s *store.MemoryStore) uint {
	t.Helper()
	u := models.User{Username: "ana@rutek.co", Email: "ana@rutek.co", Password: "x"}
	if err := s.Users().Create(context.Background(), &u); err != nil {
		t.Fatal(err)
	}
	return u.ID
}

func TestGenerateFormat(t *testing.T) {
	six := regexp.MustCompile(`^[0-9]{6}$`)
	for i := 0; i < 200; i++ {
		code, err := Generate(rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		if !six.MatchString(code) {
			t.Fatalf("bad code %q", code)
		}
	}
}

func TestGenerateFailsWithoutEntropy(t *testing.T) {
	if _, err := Generate(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected an error from an empty entropy source")
	}
}

func TestConsumeOnce(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	uid := newUser(t, s)
	codes := New(s.Codes(), 0)

	code, err := codes.Issue(ctx, uid, models.PurposeEmailVerification)
	if err != nil {
		t.Fatal(err)
	}
	if err := codes.Consume(ctx, uid, models.PurposeEmailVerification, code); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := codes.Consume(ctx, uid, models.PurposeEmailVerification, code); !errors.Is(err, apperrors.ErrInvalidCode) {
		t.Fatalf("second consume: want ErrInvalidCode, got %v", err)
	}
}

func TestReissueInvalidatesPreviousCode(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	uid := newUser(t, s)
	// Deterministic entropy so the two codes differ: 111111 then 222222.
	entropy := bytes.NewReader(append(bytes.Repeat([]byte{1}, 6), bytes.Repeat([]byte{2}, 6)...))
	codes := New(s.Codes(), 0).WithRandom(entropy)

	old, err := codes.Issue(ctx, uid, models.PurposePasswordReset)
	if err != nil {
		t.Fatal(err)
	}
	fresh, err := codes.Issue(ctx, uid, models.PurposePasswordReset)
	if err != nil {
		t.Fatal(err)
	}
	if old == fresh {
		t.Fatalf("expected different codes, both %q", old)
	}
	if err := codes.Consume(ctx, uid, models.PurposePasswordReset, old); !errors.Is(err, apperrors.ErrInvalidCode) {
		t.Fatalf("old code: want ErrInvalidCode, got %v", err)
	}
	if err := codes.Consume(ctx, uid, models.PurposePasswordReset, fresh); err != nil {
		t.Fatalf("fresh code: %v", err)
	}
}

func TestWrongCodeLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	uid := newUser(t, s)
	codes := New(s.Codes(), 0)

	code, _ := codes.Issue(ctx, uid, models.PurposeEmailVerification)
	wrong := "000000"
	if code == wrong {
		wrong = "999999"
	}
	for _, bad := range []string{wrong, "", "12ab56", "1234567"} {
		if err := codes.Consume(ctx, uid, models.PurposeEmailVerification, bad); !errors.Is(err, apperrors.ErrInvalidCode) {
			t.Errorf("Consume(%q): want ErrInvalidCode, got %v", bad, err)
		}
	}
	if err := codes.Consume(ctx, uid, models.PurposeEmailVerification, " "+code+" "); err != nil {
		t.Fatalf("valid code rejected after failed attempts: %v", err)
	}
}

func TestPurposesDoNotInterfere(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	uid := newUser(t, s)
	codes := New(s.Codes(), 0)

	verify, _ := codes.Issue(ctx, uid, models.PurposeEmailVerification)
	reset, _ := codes.Issue(ctx, uid, models.PurposePasswordReset)

	if verify != reset {
		if err := codes.Consume(ctx, uid, models.PurposePasswordReset, verify); !errors.Is(err, apperrors.ErrInvalidCode) {
			t.Errorf("verification code redeemed as reset code: %v", err)
		}
	}
	if err := codes.Consume(ctx, uid, models.PurposeEmailVerification, verify); err != nil {
		t.Errorf("verification code lost after reset issuance: %v", err)
	}
	if err := codes.Consume(ctx, uid, models.PurposePasswordReset, reset); err != nil {
		t.Errorf("reset code: %v", err)
	}
}

func TestTTL(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	uid := newUser(t, s)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	codes := New(s.Codes(), 15*time.Minute).WithClock(func() time.Time { return now })

	code, _ := codes.Issue(ctx, uid, models.PurposeEmailVerification)
	now = now.Add(16 * time.Minute)
	if err := codes.Consume(ctx, uid, models.PurposeEmailVerification, code); !errors.Is(err, apperrors.ErrInvalidCode) {
		t.Fatalf("expired code: want ErrInvalidCode, got %v", err)
	}

	code, _ = codes.Issue(ctx, uid, models.PurposeEmailVerification)
	now = now.Add(10 * time.Minute)
	if err := codes.Consume(ctx, uid, models.PurposeEmailVerification, code); err != nil {
		t.Fatalf("code within ttl: %v", err)
	}
}
