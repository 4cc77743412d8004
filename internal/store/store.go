// Package store is the persistence boundary. Every query on drivers,
// vehicles and services is scoped by tenant.
package store

import (
	"context"
	"time"

	"fleetops/internal/models"
)

type Store interface {
	Tenants() TenantStore
	Users() UserStore
	Drivers() DriverStore
	Vehicles() VehicleStore
	Services() ServiceStore
	Codes() CodeStore

	// Transaction runs fn against a store bound to a single transaction.
	// Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(Store) error) error
}

type TenantStore interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	Get(ctx context.Context, id uint) (*models.Tenant, error)
	GetByName(ctx context.Context, name string) (*models.Tenant, error)
	// Ensure returns the tenant with the given name, creating it from the
	// template when missing.
	Ensure(ctx context.Context, template models.Tenant) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	// ClaimAdministrator sets the administrator only if none is set yet and
	// reports whether the claim won.
	ClaimAdministrator(ctx context.Context, tenantID, userID uint) (bool, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Activate(ctx context.Context, id uint) error
	SetPassword(ctx context.Context, id uint, hash string) error
	CreateMembership(ctx context.Context, m *models.Membership) error
	GetMembership(ctx context.Context, userID uint) (*models.Membership, error)
}

type DriverFilter struct {
	Query  string // name or document number, case-insensitive substring
	Active *bool
	// LicenseExpiresBy keeps drivers whose license expires on or before
	// the date. Drivers without an expiration are dropped.
	LicenseExpiresBy *time.Time
}

type DriverStore interface {
	List(ctx context.Context, tenantID uint, f DriverFilter) ([]models.Driver, error)
	Get(ctx context.Context, tenantID, id uint) (*models.Driver, error)
	Create(ctx context.Context, d *models.Driver) error
	Update(ctx context.Context, d *models.Driver) error
	Delete(ctx context.Context, tenantID, id uint) error
	CountActive(ctx context.Context, tenantID uint) (int64, error)
}

type VehicleFilter struct {
	Query  string // plate, make or line
	Active *bool
}

type VehicleStore interface {
	List(ctx context.Context, tenantID uint, f VehicleFilter) ([]models.Vehicle, error)
	Get(ctx context.Context, tenantID, id uint) (*models.Vehicle, error)
	Create(ctx context.Context, v *models.Vehicle) error
	Update(ctx context.Context, v *models.Vehicle) error
	Delete(ctx context.Context, tenantID, id uint) error
	CountActive(ctx context.Context, tenantID uint) (int64, error)
}

type ServiceFilter struct {
	Query     string // origin, destination or client name
	Status    models.ServiceStatus
	From      *time.Time
	To        *time.Time
	DriverID  uint
	VehicleID uint
}

type ServiceStore interface {
	// List orders by service date then start time, newest first.
	List(ctx context.Context, tenantID uint, f ServiceFilter) ([]models.Service, error)
	// Get preloads the driver and vehicle.
	Get(ctx context.Context, tenantID, id uint) (*models.Service, error)
	Create(ctx context.Context, s *models.Service) error
	Update(ctx context.Context, s *models.Service) error
	// CountOn counts the services of a day that are not cancelled.
	CountOn(ctx context.Context, tenantID uint, day time.Time) (int64, error)
}

type CodeStore interface {
	// Upsert replaces the user's code for the purpose and resets Used.
	Upsert(ctx context.Context, code *models.VerificationCode) error
	// Consume flips Used on the matching unused code in one conditional
	// update. Codes created before notBefore are ignored unless notBefore
	// is zero. It reports whether a code was consumed.
	Consume(ctx context.Context, userID uint, purpose models.CodePurpose, code string, notBefore time.Time) (bool, error)
}
