// Package accounts covers registration, email verification, login and
// password recovery.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"fleetops/internal/apperrors"
	"fleetops/internal/mailer"
	"fleetops/internal/models"
	"fleetops/internal/store"
	"fleetops/internal/verification"
)

// RememberTTL is the session lifetime when the user asks to be remembered.
const RememberTTL = 14 * 24 * time.Hour

// TokenIssuer creates and revokes login sessions.
type TokenIssuer interface {
	Issue(ctx context.Context, userID, tenantID uint, ttl time.Duration) (string, time.Time, error)
	Revoke(ctx context.Context, tokenID string) error
}

type Options struct {
	// DefaultTenant is joined by users who register without a company.
	DefaultTenant models.Tenant
	SessionTTL    time.Duration
}

type Service struct {
	store   store.Store
	codes   *verification.Codes
	mail    mailer.Mailer
	compose mailer.Composer
	tokens  TokenIssuer
	opts    Options
}

func NewService(s store.Store, codes *verification.Codes, m mailer.Mailer, compose mailer.Composer, tokens TokenIssuer, opts Options) *Service {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	return &Service{store: s, codes: codes, mail: m, compose: compose, tokens: tokens, opts: opts}
}

// EnsureDefaultTenant provisions the shared tenant. Run once at startup.
func (s *Service) EnsureDefaultTenant(ctx context.Context) (*models.Tenant, error) {
	t, err := s.store.Tenants().Ensure(ctx, s.opts.DefaultTenant)
	if err != nil {
		return nil, fmt.Errorf("provision default tenant: %w", err)
	}
	return t, nil
}

type RegisterInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`

	// Optional: register a new company instead of joining the default one.
	CompanyName  string `json:"company_name"`
	CompanyTaxID string `json:"company_tax_id"`
}

type RegisterResult struct {
	User          *models.User   `json:"user"`
	Tenant        *models.Tenant `json:"tenant"`
	IsTenantAdmin bool           `json:"is_tenant_admin"`
	// AutoActivated is set when the verification email could not be sent
	// and the account was activated without it.
	AutoActivated bool `json:"auto_activated"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func checkPasswords(v *apperrors.ValidationError, pw, pw2 string) {
	if pw == "" {
		v.Add("password", "this field is required")
	}
	if pw2 == "" {
		v.Add("password2", "this field is required")
	}
	if pw != "" && pw2 != "" && pw != pw2 {
		v.Add("password2", "passwords do not match")
	}
}

func (in *RegisterInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.CompanyTaxID = strings.TrimSpace(in.CompanyTaxID)

	v := &apperrors.ValidationError{}
	if in.Name == "" {
		v.Add("name", "this field is required")
	}
	if in.Email == "" {
		v.Add("email", "this field is required")
	} else if !strings.Contains(in.Email, "@") {
		v.Add("email", "enter a valid email address")
	}
	checkPasswords(v, in.Password, in.Password2)
	if in.CompanyName != "" && in.CompanyTaxID == "" {
		v.Add("company_tax_id", "required when registering a company")
	}
	if in.CompanyTaxID != "" && in.CompanyName == "" {
		v.Add("company_name", "required when registering a company")
	}
	return v.OrNil()
}

// Register creates an inactive account, links it to a tenant and emails a
// verification code. If the email cannot be sent the account is activated
// on the spot.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.Users().GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: an account with this email already exists", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	res := &RegisterResult{}
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		tenant, err := s.tenantFor(ctx, tx, in)
		if err != nil {
			return err
		}
		user := &models.User{
			Username:  in.Email,
			Email:     in.Email,
			FirstName: in.Name,
			Password:  hash,
			IsActive:  false,
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		admin, err := tx.Tenants().ClaimAdministrator(ctx, tenant.ID, user.ID)
		if err != nil {
			return fmt.Errorf("claim administrator: %w", err)
		}
		m := &models.Membership{UserID: user.ID, TenantID: tenant.ID, IsTenantAdmin: admin}
		if err := tx.Users().CreateMembership(ctx, m); err != nil {
			return fmt.Errorf("create membership: %w", err)
		}
		if admin {
			tenant.AdministratorID = &user.ID
		}
		res.User, res.Tenant, res.IsTenantAdmin = user, tenant, admin
		return nil
	})
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Issue(ctx, res.User.ID, models.PurposeEmailVerification)
	if err != nil {
		return nil, err
	}
	if err := s.sendCode(ctx, res.User, code, s.compose.Verification); err != nil {
		logrus.WithError(err).WithField("user_id", res.User.ID).
			Warn("verification email failed, activating account without verification")
		if err := s.store.Users().Activate(ctx, res.User.ID); err != nil {
			return nil, fmt.Errorf("activate user: %w", err)
		}
		res.User.IsActive = true
		res.AutoActivated = true
		return res, nil
	}
	logrus.WithField("user_id", res.User.ID).Info("verification code sent")
	return res, nil
}

func (s *Service) tenantFor(ctx context.Context, tx store.Store, in RegisterInput) (*models.Tenant, error) {
	if in.CompanyName == "" {
		return tx.Tenants().Ensure(ctx, s.opts.DefaultTenant)
	}
	t := &models.Tenant{Name: in.CompanyName, TaxID: in.CompanyTaxID, Email: in.Email}
	if err := tx.Tenants().Create(ctx, t); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: a company with this name or tax id already exists", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	return t, nil
}

type composeFunc func(to, name, code string) (mailer.Message, error)

func (s *Service) sendCode(ctx context.Context, u *models.User, code string, compose composeFunc) error {
	msg, err := compose(u.Email, u.DisplayName(), code)
	if err != nil {
		return err
	}
	return s.mail.Send(ctx, msg)
}

// LoginResult is returned by Verify and Login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
	TenantID  uint         `json:"tenant_id"`
}

func (s *Service) startSession(ctx context.Context, u *models.User, ttl time.Duration) (*LoginResult, error) {
	m, err := s.store.Users().GetMembership(ctx, u.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: account is not linked to a company", apperrors.ErrForbidden)
		}
		return nil, err
	}
	token, exp, err := s.tokens.Issue(ctx, u.ID, m.TenantID, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	u.Membership = m
	return &LoginResult{Token: token, ExpiresAt: exp, User: u, TenantID: m.TenantID}, nil
}

// Verify redeems an email verification code, activates the account and
// logs the user in.
func (s *Service) Verify(ctx context.Context, email, code string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(code) == "" {
		v := &apperrors.ValidationError{}
		if email == "" {
			v.Add("email", "this field is required")
		}
		if strings.TrimSpace(code) == "" {
			v.Add("code", "this field is required")
		}
		return nil, v
	}
	u, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCode
		}
		return nil, err
	}
	if err := s.codes.Consume(ctx, u.ID, models.PurposeEmailVerification, code); err != nil {
		return nil, err
	}
	if err := s.store.Users().Activate(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}
	u.IsActive = true
	return s.startSession(ctx, u, s.opts.SessionTTL)
}

// Login accepts either the email or the username.
func (s *Service) Login(ctx context.Context, identifier, password string, remember bool) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperrors.Invalid("credentials", "email and password are required")
	}
	u, err := s.store.Users().GetByEmail(ctx, normalizeEmail(identifier))
	if errors.Is(err, apperrors.ErrNotFound) {
		u, err = s.store.Users().GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, apperrors.ErrInactiveAccount
	}
	ttl := s.opts.SessionTTL
	if remember {
		ttl = RememberTTL
	}
	return s.startSession(ctx, u, ttl)
}

func (s *Service) Logout(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, tokenID)
}

// RequestPasswordReset emails a recovery code. Unknown addresses succeed
// silently so the endpoint does not reveal which accounts exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.Invalid("email", "this field is required")
	}
	u, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	code, err := s.codes.Issue(ctx, u.ID, models.PurposePasswordReset)
	if err != nil {
		return err
	}
	if err := s.sendCode(ctx, u, code, s.compose.PasswordReset); err != nil {
		logrus.WithError(err).WithField("user_id", u.ID).Error("password reset email failed")
		return fmt.Errorf("%w: could not send the recovery email, try again later", apperrors.ErrDeliveryFailure)
	}
	return nil
}

type ConfirmResetInput struct {
	Email     string `json:"email"`
	Code      string `json:"code"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// ConfirmPasswordReset redeems a recovery code and sets the new password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, in ConfirmResetInput) error {
	in.Email = normalizeEmail(in.Email)
	v := &apperrors.ValidationError{}
	if in.Email == "" {
		v.Add("email", "this field is required")
	}
	if strings.TrimSpace(in.Code) == "" {
		v.Add("code", "this field is required")
	}
	checkPasswords(v, in.Password, in.Password2)
	if err := v.OrNil(); err != nil {
		return err
	}

	u, err := s.store.Users().GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrInvalidCode
		}
		return err
	}
	if err := s.codes.Consume(ctx, u.ID, models.PurposePasswordReset, in.Code); err != nil {
		return err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return err
	}
	if err := s.store.Users().SetPassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	logrus.WithField("user_id", u.ID).Info("password reset")
	return nil
}

// Profile returns the user with their membership and tenant.
func (s *Service) Profile(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	m, err := s.store.Users().GetMembership(ctx, userID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	u.Membership = m
	return u, nil
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Contact relays a contact-form message to the support address.
func (s *Service) Contact(ctx context.Context, in ContactInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	v := &apperrors.ValidationError{}
	if in.Name == "" {
		v.Add("name", "this field is required")
	}
	if in.Email == "" {
		v.Add("email", "this field is required")
	}
	if strings.TrimSpace(in.Message) == "" {
		v.Add("message", "this field is required")
	}
	if err := v.OrNil(); err != nil {
		return err
	}
	msg, err := s.compose.Contact(in.Name, in.Email, in.Message)
	if err != nil {
		return err
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		logrus.WithError(err).Error("contact relay failed")
		return fmt.Errorf("%w: could not send your message, try again later", apperrors.ErrDeliveryFailure)
	}
	return nil
}
