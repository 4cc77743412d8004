package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleetops/internal/apperrors"
	"fleetops/internal/models"
)

// GormStore implements Store on top of gorm with the lib/pq driver.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Tenants() TenantStore   { return &tenantRepo{db: s.db} }
func (s *GormStore) Users() UserStore       { return &userRepo{db: s.db} }
func (s *GormStore) Drivers() DriverStore   { return &driverRepo{db: s.db} }
func (s *GormStore) Vehicles() VehicleStore { return &vehicleRepo{db: s.db} }
func (s *GormStore) Services() ServiceStore { return &serviceRepo{db: s.db} }
func (s *GormStore) Codes() CodeStore       { return &codeRepo{db: s.db} }

func (s *GormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// translate maps driver errors onto the application error set.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", apperrors.ErrConflict, pgErr.Constraint)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: record is still referenced", apperrors.ErrConflict)
		}
	}
	return err
}

func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

// --- tenants ---

type tenantRepo struct {
	db *gorm.DB
}

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(tenant).Error)
}

func (r *tenantRepo) Get(ctx context.Context, id uint) (*models.Tenant, error) {
	var t models.Tenant
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *tenantRepo) GetByName(ctx context.Context, name string) (*models.Tenant, error) {
	var t models.Tenant
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *tenantRepo) Ensure(ctx context.Context, template models.Tenant) (*models.Tenant, error) {
	var t models.Tenant
	err := r.db.WithContext(ctx).
		Where(models.Tenant{Name: template.Name}).
		Attrs(models.Tenant{
			TaxID:   template.TaxID,
			Address: template.Address,
			Phone:   template.Phone,
			Email:   template.Email,
		}).
		FirstOrCreate(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(tenant).Error)
}

func (r *tenantRepo) ClaimAdministrator(ctx context.Context, tenantID, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Tenant{}).
		Where("id = ? AND administrator_id IS NULL", tenantID).
		Update("administrator_id", userID)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// --- users ---

type userRepo struct {
	db *gorm.DB
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error)
}

func (r *userRepo) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *userRepo) Activate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetPassword(ctx context.Context, id uint, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *userRepo) CreateMembership(ctx context.Context, m *models.Membership) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error)
}

func (r *userRepo) GetMembership(ctx context.Context, userID uint) (*models.Membership, error) {
	var m models.Membership
	if err := r.db.WithContext(ctx).Preload("Tenant").Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// --- drivers ---

type driverRepo struct {
	db *gorm.DB
}

func (r *driverRepo) List(ctx context.Context, tenantID uint, f DriverFilter) ([]models.Driver, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if f.Query != "" {
		like := likePattern(f.Query)
		q = q.Where("(full_name ILIKE ? OR document_number ILIKE ?)", like, like)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	if f.LicenseExpiresBy != nil {
		q = q.Where("license_expires_on IS NOT NULL AND license_expires_on <= ?", *f.LicenseExpiresBy)
	}
	var drivers []models.Driver
	if err := q.Order("id").Find(&drivers).Error; err != nil {
		return nil, translate(err)
	}
	return drivers, nil
}

func (r *driverRepo) Get(ctx context.Context, tenantID, id uint) (*models.Driver, error) {
	var d models.Driver
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *driverRepo) Create(ctx context.Context, d *models.Driver) error {
	return translate(r.db.WithContext(ctx).Create(d).Error)
}

func (r *driverRepo) Update(ctx context.Context, d *models.Driver) error {
	return translate(r.db.WithContext(ctx).Save(d).Error)
}

func (r *driverRepo) Delete(ctx context.Context, tenantID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Driver
		if err := tx.Where("id = ? AND tenant_id = ?", id, tenantID).First(&d).Error; err != nil {
			return translate(err)
		}
		var refs int64
		if err := tx.Model(&models.Service{}).Where("driver_id = ?", id).Count(&refs).Error; err != nil {
			return translate(err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: driver has %d services", apperrors.ErrConflict, refs)
		}
		return translate(tx.Unscoped().Delete(&d).Error)
	})
}

func (r *driverRepo) CountActive(ctx context.Context, tenantID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Driver{}).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Count(&n).Error
	return n, translate(err)
}

// --- vehicles ---

type vehicleRepo struct {
	db *gorm.DB
}

func (r *vehicleRepo) List(ctx context.Context, tenantID uint, f VehicleFilter) ([]models.Vehicle, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if f.Query != "" {
		like := likePattern(f.Query)
		q = q.Where("(plate ILIKE ? OR make ILIKE ? OR line ILIKE ?)", like, like, like)
	}
	if f.Active != nil {
		q = q.Where("active = ?", *f.Active)
	}
	var vehicles []models.Vehicle
	if err := q.Order("id").Find(&vehicles).Error; err != nil {
		return nil, translate(err)
	}
	return vehicles, nil
}

func (r *vehicleRepo) Get(ctx context.Context, tenantID, id uint) (*models.Vehicle, error) {
	var v models.Vehicle
	if err := r.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", id, tenantID).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *vehicleRepo) Create(ctx context.Context, v *models.Vehicle) error {
	return translate(r.db.WithContext(ctx).Create(v).Error)
}

func (r *vehicleRepo) Update(ctx context.Context, v *models.Vehicle) error {
	return translate(r.db.WithContext(ctx).Save(v).Error)
}

func (r *vehicleRepo) Delete(ctx context.Context, tenantID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v models.Vehicle
		if err := tx.Where("id = ? AND tenant_id = ?", id, tenantID).First(&v).Error; err != nil {
			return translate(err)
		}
		var refs int64
		if err := tx.Model(&models.Service{}).Where("vehicle_id = ?", id).Count(&refs).Error; err != nil {
			return translate(err)
		}
		if refs > 0 {
			return fmt.Errorf("%w: vehicle has %d services", apperrors.ErrConflict, refs)
		}
		return translate(tx.Unscoped().Delete(&v).Error)
	})
}

func (r *vehicleRepo) CountActive(ctx context.Context, tenantID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Vehicle{}).
		Where("tenant_id = ? AND active = ?", tenantID, true).
		Count(&n).Error
	return n, translate(err)
}

// --- services ---

type serviceRepo struct {
	db *gorm.DB
}

func (r *serviceRepo) List(ctx context.Context, tenantID uint, f ServiceFilter) ([]models.Service, error) {
	q := r.db.WithContext(ctx).
		Preload("Driver").
		Preload("Vehicle").
		Where("tenant_id = ?", tenantID)
	if f.Query != "" {
		like := likePattern(f.Query)
		q = q.Where("(origin ILIKE ? OR destination ILIKE ? OR client_name ILIKE ?)", like, like, like)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("service_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("service_date <= ?", *f.To)
	}
	if f.DriverID != 0 {
		q = q.Where("driver_id = ?", f.DriverID)
	}
	if f.VehicleID != 0 {
		q = q.Where("vehicle_id = ?", f.VehicleID)
	}
	var services []models.Service
	if err := q.Order("service_date DESC, start_time DESC, id DESC").Find(&services).Error; err != nil {
		return nil, translate(err)
	}
	return services, nil
}

func (r *serviceRepo) Get(ctx context.Context, tenantID, id uint) (*models.Service, error) {
	var s models.Service
	err := r.db.WithContext(ctx).
		Preload("Driver").
		Preload("Vehicle").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *serviceRepo) Create(ctx context.Context, s *models.Service) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error)
}

func (r *serviceRepo) Update(ctx context.Context, s *models.Service) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error)
}

func (r *serviceRepo) CountOn(ctx context.Context, tenantID uint, day time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Service{}).
		Where("tenant_id = ? AND service_date = ? AND status <> ?", tenantID, day, models.ServiceCancelled).
		Count(&n).Error
	return n, translate(err)
}

// --- verification codes ---

type codeRepo struct {
	db *gorm.DB
}

func (r *codeRepo) Upsert(ctx context.Context, code *models.VerificationCode) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "purpose"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "used", "created_at"}),
		}).
		Create(code).Error
	return translate(err)
}

func (r *codeRepo) Consume(ctx context.Context, userID uint, purpose models.CodePurpose, code string, notBefore time.Time) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.VerificationCode{}).
		Where("user_id = ? AND purpose = ? AND code = ? AND used = ?", userID, purpose, code, false)
	if !notBefore.IsZero() {
		q = q.Where("created_at >= ?", notBefore)
	}
	res := q.Update("used", true)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}
