package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"fleetops/internal/apperrors"
	"fleetops/internal/mailer"
	"fleetops/internal/models"
	"fleetops/internal/store"
	"fleetops/internal/verification"
)

type fakeTokens struct {
	issued  int
	revoked []string
	lastTTL time.Duration
}

func (f *fakeTokens) Issue(_ context.Context, userID, tenantID uint, ttl time.Duration) (string, time.Time, error) {
	f.issued++
	f.lastTTL = ttl
	return fmt.Sprintf("tok-%d-%d-%d", userID, tenantID, f.issued), time.Now().Add(ttl), nil
}

func (f *fakeTokens) Revoke(_ context.Context, id string) error {
	f.revoked = append(f.revoked, id)
	return nil
}

type fixture struct {
	svc    *Service
	store  *store.MemoryStore
	mail   *mailer.Recorder
	tokens *fakeTokens
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	rec := &mailer.Recorder{}
	tokens := &fakeTokens{}
	svc := NewService(s, verification.New(s.Codes(), 0), rec,
		mailer.Composer{Brand: "Rutek", From: "no-reply@rutek.tours", Support: "contacto@rutek.tours"},
		tokens,
		Options{
			DefaultTenant: models.Tenant{Name: "Rutek Tours", TaxID: "901000000-0"},
			SessionTTL:    time.Hour,
		})
	if _, err := svc.EnsureDefaultTenant(context.Background()); err != nil {
		t.Fatal(err)
	}
	return &fixture{svc: svc, store: s, mail: rec, tokens: tokens}
}

var sixDigits = regexp.MustCompile(`\b[0-9]{6}\b`)

func (f *fixture) lastCode(t *testing.T) string {
	t.Helper()
	sent := f.mail.Sent()
	if len(sent) == 0 {
		t.Fatal("no email sent")
	}
	code := sixDigits.FindString(sent[len(sent)-1].Text)
	if code == "" {
		t.Fatalf("no code in email:\n%s", sent[len(sent)-1].Text)
	}
	return code
}

func register(email string) RegisterInput {
	return RegisterInput{Name: "Ana", Email: email, Password: "s3cret", Password2: "s3cret"}
}

func TestRegisterVerifyLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.Register(ctx, register("  Ana@Example.com "))
	if err != nil {
		t.Fatal(err)
	}
	if res.User.IsActive || res.AutoActivated {
		t.Fatal("account must start inactive when the email was sent")
	}
	if res.User.Email != "ana@example.com" || res.User.Username != "ana@example.com" {
		t.Errorf("email not normalised: %+v", res.User)
	}
	if !res.IsTenantAdmin || res.Tenant.Name != "Rutek Tours" {
		t.Errorf("first user should administer the default tenant: %+v", res)
	}

	if _, err := f.svc.Login(ctx, "ana@example.com", "s3cret", false); !errors.Is(err, apperrors.ErrInactiveAccount) {
		t.Fatalf("login before verification: want ErrInactiveAccount, got %v", err)
	}

	code := f.lastCode(t)
	login, err := f.svc.Verify(ctx, "ana@example.com", code)
	if err != nil {
		t.Fatal(err)
	}
	if login.Token == "" || login.TenantID != res.Tenant.ID {
		t.Errorf("unexpected login result %+v", login)
	}
	if _, err := f.svc.Verify(ctx, "ana@example.com", code); !errors.Is(err, apperrors.ErrInvalidCode) {
		t.Errorf("code reused: %v", err)
	}

	if _, err := f.svc.Login(ctx, "ana@example.com", "wrong", false); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := f.svc.Login(ctx, "ANA@example.com", "s3cret", true); err != nil {
		t.Fatalf("login by email: %v", err)
	}
	if f.tokens.lastTTL != RememberTTL {
		t.Errorf("remember me ttl %v", f.tokens.lastTTL)
	}
	if _, err := f.svc.Login(ctx, "ana@example.com", "s3cret", false); err != nil {
		t.Fatal(err)
	}
	if f.tokens.lastTTL != time.Hour {
		t.Errorf("session ttl %v", f.tokens.lastTTL)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cases := []RegisterInput{
		{Email: "a@b.co", Password: "x", Password2: "x"},
		{Name: "A", Password: "x", Password2: "x"},
		{Name: "A", Email: "a@b.co", Password: "x", Password2: "y"},
		{Name: "A", Email: "a@b.co", Password: "x"},
		{Name: "A", Email: "a@b.co", Password: "x", Password2: "x", CompanyName: "Acme"},
	}
	for i, in := range cases {
		if _, err := f.svc.Register(ctx, in); !apperrors.IsValidation(err) {
			t.Errorf("case %d: want validation error, got %v", i, err)
		}
	}
	if len(f.mail.Sent()) != 0 {
		t.Error("invalid registrations must not send email")
	}

	if _, err := f.svc.Register(ctx, register("dup@example.com")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Register(ctx, register("DUP@example.com")); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("duplicate email: want conflict, got %v", err)
	}
}

func TestRegisterAutoActivatesWhenMailFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mail.Err = errors.New("smtp unreachable")

	res, err := f.svc.Register(ctx, register("luis@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if !res.AutoActivated || !res.User.IsActive {
		t.Fatalf("expected auto activation, got %+v", res)
	}
	if _, err := f.svc.Login(ctx, "luis@example.com", "s3cret", false); err != nil {
		t.Errorf("auto-activated user cannot log in: %v", err)
	}
}

func TestOnlyFirstUserAdministersTenant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, _ := f.svc.Register(ctx, register("one@example.com"))
	second, err := f.svc.Register(ctx, register("two@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if !first.IsTenantAdmin || second.IsTenantAdmin {
		t.Errorf("admin flags: first=%v second=%v", first.IsTenantAdmin, second.IsTenantAdmin)
	}
	if first.Tenant.ID != second.Tenant.ID {
		t.Error("both users should join the default tenant")
	}

	own, err := f.svc.Register(ctx, RegisterInput{
		Name: "Eva", Email: "eva@acme.co", Password: "p", Password2: "p",
		CompanyName: "Acme Transportes", CompanyTaxID: "900123456-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !own.IsTenantAdmin || own.Tenant.ID == first.Tenant.ID {
		t.Errorf("company registration should create and administer a new tenant: %+v", own)
	}
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mail.Err = errors.New("down")
	if _, err := f.svc.Register(ctx, register("ana@example.com")); err != nil {
		t.Fatal(err)
	}
	f.mail.Err = nil

	if err := f.svc.RequestPasswordReset(ctx, "nobody@example.com"); err != nil {
		t.Errorf("unknown email must not be revealed: %v", err)
	}
	if len(f.mail.Sent()) != 0 {
		t.Error("no email for unknown addresses")
	}

	if err := f.svc.RequestPasswordReset(ctx, "ana@example.com"); err != nil {
		t.Fatal(err)
	}
	code := f.lastCode(t)

	bad := ConfirmResetInput{Email: "ana@example.com", Code: code, Password: "new", Password2: "other"}
	if err := f.svc.ConfirmPasswordReset(ctx, bad); !apperrors.IsValidation(err) {
		t.Errorf("mismatched passwords: %v", err)
	}

	ok := ConfirmResetInput{Email: "ana@example.com", Code: code, Password: "new-pass", Password2: "new-pass"}
	if err := f.svc.ConfirmPasswordReset(ctx, ok); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.ConfirmPasswordReset(ctx, ok); !errors.Is(err, apperrors.ErrInvalidCode) {
		t.Errorf("reset code reused: %v", err)
	}
	if _, err := f.svc.Login(ctx, "ana@example.com", "new-pass", false); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := f.svc.Login(ctx, "ana@example.com", "s3cret", false); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Errorf("old password still accepted: %v", err)
	}
}

func TestPasswordResetDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mail.Err = errors.New("down")
	_, _ = f.svc.Register(ctx, register("ana@example.com"))

	if err := f.svc.RequestPasswordReset(ctx, "ana@example.com"); !errors.Is(err, apperrors.ErrDeliveryFailure) {
		t.Errorf("want ErrDeliveryFailure, got %v", err)
	}
}

func TestLogoutRevokes(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatal(err)
	}
	if len(f.tokens.revoked) != 1 || f.tokens.revoked[0] != "jti-1" {
		t.Errorf("revoked %v", f.tokens.revoked)
	}
}

func TestContact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if err := f.svc.Contact(ctx, ContactInput{Name: "Luis"}); !apperrors.IsValidation(err) {
		t.Errorf("missing fields: %v", err)
	}
	if err := f.svc.Contact(ctx, ContactInput{Name: "Luis", Email: "l@x.co", Message: "Hola"}); err != nil {
		t.Fatal(err)
	}
	sent := f.mail.Sent()
	if len(sent) != 1 || sent[0].To[0] != "contacto@rutek.tours" {
		t.Errorf("contact relay %+v", sent)
	}
}
