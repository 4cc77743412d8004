package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fleetops/internal/apperrors"
	"fleetops/internal/models"
)

// MemoryStore keeps everything in process. It backs the tests and the
// STORE_BACKEND=memory demo mode; it enforces the same uniqueness and
// reference rules as the SQL schema.
type MemoryStore struct {
	mu   sync.Mutex
	txMu sync.Mutex
	now  func() time.Time

	nextID   uint
	tenants  map[uint]models.Tenant
	users    map[uint]models.User
	members  map[uint]models.Membership // by user id
	drivers  map[uint]models.Driver
	vehicles map[uint]models.Vehicle
	services map[uint]models.Service
	codes    map[codeKey]models.VerificationCode
}

type codeKey struct {
	userID  uint
	purpose models.CodePurpose
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:      time.Now,
		tenants:  map[uint]models.Tenant{},
		users:    map[uint]models.User{},
		members:  map[uint]models.Membership{},
		drivers:  map[uint]models.Driver{},
		vehicles: map[uint]models.Vehicle{},
		services: map[uint]models.Service{},
		codes:    map[codeKey]models.VerificationCode{},
	}
}

// SetClock overrides the time source used for CreatedAt stamps.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *MemoryStore) Tenants() TenantStore   { return memTenants{s} }
func (s *MemoryStore) Users() UserStore       { return memUsers{s} }
func (s *MemoryStore) Drivers() DriverStore   { return memDrivers{s} }
func (s *MemoryStore) Vehicles() VehicleStore { return memVehicles{s} }
func (s *MemoryStore) Services() ServiceStore { return memServices{s} }
func (s *MemoryStore) Codes() CodeStore       { return memCodes{s} }

// Transaction serializes transactions and restores a snapshot when fn fails.
func (s *MemoryStore) Transaction(ctx context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	nextID   uint
	tenants  map[uint]models.Tenant
	users    map[uint]models.User
	members  map[uint]models.Membership
	drivers  map[uint]models.Driver
	vehicles map[uint]models.Vehicle
	services map[uint]models.Service
	codes    map[codeKey]models.VerificationCode
}

func (s *MemoryStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return memSnapshot{
		nextID:   s.nextID,
		tenants:  cloneMap(s.tenants),
		users:    cloneMap(s.users),
		members:  cloneMap(s.members),
		drivers:  cloneMap(s.drivers),
		vehicles: cloneMap(s.vehicles),
		services: cloneMap(s.services),
		codes:    cloneMap(s.codes),
	}
}

func (s *MemoryStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.tenants = snap.tenants
	s.users = snap.users
	s.members = snap.members
	s.drivers = snap.drivers
	s.vehicles = snap.vehicles
	s.services = snap.services
	s.codes = snap.codes
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *MemoryStore) newID() uint {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) stamp(id *uint, createdAt, updatedAt *time.Time) {
	now := s.now()
	if *id == 0 {
		*id = s.newID()
		*createdAt = now
	}
	*updatedAt = now
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func conflict(what string) error {
	return fmt.Errorf("%w: %s", apperrors.ErrConflict, what)
}

// --- tenants ---

type memTenants struct{ s *MemoryStore }

func (r memTenants) Create(_ context.Context, t *models.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkTenantUnique(*t); err != nil {
		return err
	}
	t.ID = 0
	r.s.stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	r.s.tenants[t.ID] = *t
	return nil
}

func (s *MemoryStore) checkTenantUnique(t models.Tenant) error {
	for id, other := range s.tenants {
		if id == t.ID {
			continue
		}
		switch {
		case other.Name == t.Name:
			return conflict("tenant name")
		case other.TaxID == t.TaxID:
			return conflict("tenant tax id")
		case t.AdministratorID != nil && other.AdministratorID != nil && *other.AdministratorID == *t.AdministratorID:
			return conflict("tenant administrator")
		}
	}
	return nil
}

func (r memTenants) Get(_ context.Context, id uint) (*models.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &t, nil
}

func (r memTenants) GetByName(_ context.Context, name string) (*models.Tenant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tenants {
		if t.Name == name {
			t := t
			return &t, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r memTenants) Ensure(ctx context.Context, template models.Tenant) (*models.Tenant, error) {
	if t, err := r.GetByName(ctx, template.Name); err == nil {
		return t, nil
	}
	t := template
	if err := r.Create(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r memTenants) Update(_ context.Context, t *models.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tenants[t.ID]; !ok {
		return apperrors.ErrNotFound
	}
	if err := r.s.checkTenantUnique(*t); err != nil {
		return err
	}
	t.UpdatedAt = r.s.now()
	r.s.tenants[t.ID] = *t
	return nil
}

func (r memTenants) ClaimAdministrator(_ context.Context, tenantID, userID uint) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[tenantID]
	if !ok || t.AdministratorID != nil {
		return false, nil
	}
	t.AdministratorID = &userID
	r.s.tenants[tenantID] = t
	return true, nil
}

// --- users ---

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.Username == u.Username {
			return conflict("username")
		}
		if strings.EqualFold(other.Email, u.Email) {
			return conflict("email")
		}
	}
	u.ID = 0
	r.s.stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	stored := *u
	stored.Membership = nil
	r.s.users[u.ID] = stored
	return nil
}

func (r memUsers) Get(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (r memUsers) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r memUsers) update(id uint, fn func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (r memUsers) Activate(_ context.Context, id uint) error {
	return r.update(id, func(u *models.User) { u.IsActive = true })
}

func (r memUsers) SetPassword(_ context.Context, id uint, hash string) error {
	return r.update(id, func(u *models.User) { u.Password = hash })
}

func (r memUsers) CreateMembership(_ context.Context, m *models.Membership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.members[m.UserID]; ok {
		return conflict("membership")
	}
	if _, ok := r.s.users[m.UserID]; !ok {
		return conflict("membership user does not exist")
	}
	if _, ok := r.s.tenants[m.TenantID]; !ok {
		return conflict("membership tenant does not exist")
	}
	m.ID = 0
	r.s.stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	stored := *m
	stored.Tenant = models.Tenant{}
	r.s.members[m.UserID] = stored
	return nil
}

func (r memUsers) GetMembership(_ context.Context, userID uint) (*models.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	m.Tenant = r.s.tenants[m.TenantID]
	return &m, nil
}

// --- drivers ---

type memDrivers struct{ s *MemoryStore }

func (r memDrivers) List(_ context.Context, tenantID uint, f DriverFilter) ([]models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Driver
	for _, d := range r.s.drivers {
		if d.TenantID != tenantID {
			continue
		}
		if f.Query != "" && !containsFold(d.FullName, f.Query) && !containsFold(d.DocumentNumber, f.Query) {
			continue
		}
		if f.Active != nil && d.Active != *f.Active {
			continue
		}
		if f.LicenseExpiresBy != nil && (d.LicenseExpiresOn == nil || d.LicenseExpiresOn.After(*f.LicenseExpiresBy)) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memDrivers) Get(_ context.Context, tenantID, id uint) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drivers[id]
	if !ok || d.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return &d, nil
}

func (r memDrivers) Create(_ context.Context, d *models.Driver) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d.ID = 0
	r.s.stamp(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	r.s.drivers[d.ID] = *d
	return nil
}

func (r memDrivers) Update(_ context.Context, d *models.Driver) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.drivers[d.ID]; !ok {
		return apperrors.ErrNotFound
	}
	d.UpdatedAt = r.s.now()
	r.s.drivers[d.ID] = *d
	return nil
}

func (r memDrivers) Delete(_ context.Context, tenantID, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.drivers[id]
	if !ok || d.TenantID != tenantID {
		return apperrors.ErrNotFound
	}
	for _, svc := range r.s.services {
		if svc.DriverID == id {
			return conflict("driver has services")
		}
	}
	delete(r.s.drivers, id)
	return nil
}

func (r memDrivers) CountActive(_ context.Context, tenantID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, d := range r.s.drivers {
		if d.TenantID == tenantID && d.Active {
			n++
		}
	}
	return n, nil
}

// --- vehicles ---

type memVehicles struct{ s *MemoryStore }

func (r memVehicles) List(_ context.Context, tenantID uint, f VehicleFilter) ([]models.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Vehicle
	for _, v := range r.s.vehicles {
		if v.TenantID != tenantID {
			continue
		}
		if f.Query != "" && !containsFold(v.Plate, f.Query) && !containsFold(v.Make, f.Query) && !containsFold(v.Line, f.Query) {
			continue
		}
		if f.Active != nil && v.Active != *f.Active {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memVehicles) Get(_ context.Context, tenantID, id uint) (*models.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[id]
	if !ok || v.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return &v, nil
}

func (r memVehicles) checkPlate(v models.Vehicle) error {
	for id, other := range r.s.vehicles {
		if id != v.ID && other.Plate == v.Plate {
			return conflict("plate")
		}
	}
	return nil
}

func (r memVehicles) Create(_ context.Context, v *models.Vehicle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v.ID = 0
	if err := r.checkPlate(*v); err != nil {
		return err
	}
	r.s.stamp(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	r.s.vehicles[v.ID] = *v
	return nil
}

func (r memVehicles) Update(_ context.Context, v *models.Vehicle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.vehicles[v.ID]; !ok {
		return apperrors.ErrNotFound
	}
	if err := r.checkPlate(*v); err != nil {
		return err
	}
	v.UpdatedAt = r.s.now()
	r.s.vehicles[v.ID] = *v
	return nil
}

func (r memVehicles) Delete(_ context.Context, tenantID, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[id]
	if !ok || v.TenantID != tenantID {
		return apperrors.ErrNotFound
	}
	for _, svc := range r.s.services {
		if svc.VehicleID == id {
			return conflict("vehicle has services")
		}
	}
	delete(r.s.vehicles, id)
	return nil
}

func (r memVehicles) CountActive(_ context.Context, tenantID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, v := range r.s.vehicles {
		if v.TenantID == tenantID && v.Active {
			n++
		}
	}
	return n, nil
}

// --- services ---

type memServices struct{ s *MemoryStore }

func (r memServices) hydrate(svc models.Service) models.Service {
	svc.Driver = r.s.drivers[svc.DriverID]
	svc.Vehicle = r.s.vehicles[svc.VehicleID]
	return svc
}

func (r memServices) List(_ context.Context, tenantID uint, f ServiceFilter) ([]models.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Service
	for _, svc := range r.s.services {
		if svc.TenantID != tenantID {
			continue
		}
		if f.Query != "" && !containsFold(svc.Origin, f.Query) && !containsFold(svc.Destination, f.Query) && !containsFold(svc.ClientName, f.Query) {
			continue
		}
		if f.Status != "" && svc.Status != f.Status {
			continue
		}
		if f.From != nil && svc.ServiceDate.Before(*f.From) {
			continue
		}
		if f.To != nil && svc.ServiceDate.After(*f.To) {
			continue
		}
		if f.DriverID != 0 && svc.DriverID != f.DriverID {
			continue
		}
		if f.VehicleID != 0 && svc.VehicleID != f.VehicleID {
			continue
		}
		out = append(out, r.hydrate(svc))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ServiceDate.Equal(b.ServiceDate) {
			return a.ServiceDate.After(b.ServiceDate)
		}
		as, bs := deref(a.StartTime), deref(b.StartTime)
		if as != bs {
			return as > bs
		}
		return a.ID > b.ID
	})
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r memServices) Get(_ context.Context, tenantID, id uint) (*models.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svc, ok := r.s.services[id]
	if !ok || svc.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	svc = r.hydrate(svc)
	return &svc, nil
}

func (r memServices) checkRefs(svc models.Service) error {
	if _, ok := r.s.drivers[svc.DriverID]; !ok {
		return conflict("driver does not exist")
	}
	if _, ok := r.s.vehicles[svc.VehicleID]; !ok {
		return conflict("vehicle does not exist")
	}
	return nil
}

func (r memServices) Create(_ context.Context, svc *models.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkRefs(*svc); err != nil {
		return err
	}
	svc.ID = 0
	r.s.stamp(&svc.ID, &svc.CreatedAt, &svc.UpdatedAt)
	stored := *svc
	stored.Driver, stored.Vehicle = models.Driver{}, models.Vehicle{}
	r.s.services[svc.ID] = stored
	return nil
}

func (r memServices) Update(_ context.Context, svc *models.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.services[svc.ID]; !ok {
		return apperrors.ErrNotFound
	}
	if err := r.checkRefs(*svc); err != nil {
		return err
	}
	svc.UpdatedAt = r.s.now()
	stored := *svc
	stored.Driver, stored.Vehicle = models.Driver{}, models.Vehicle{}
	r.s.services[svc.ID] = stored
	return nil
}

func (r memServices) CountOn(_ context.Context, tenantID uint, day time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	y, m, d := day.Date()
	var n int64
	for _, svc := range r.s.services {
		sy, sm, sd := svc.ServiceDate.Date()
		if svc.TenantID == tenantID && sy == y && sm == m && sd == d && svc.Status != models.ServiceCancelled {
			n++
		}
	}
	return n, nil
}

// --- verification codes ---

type memCodes struct{ s *MemoryStore }

func (r memCodes) Upsert(_ context.Context, code *models.VerificationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[code.UserID]; !ok {
		return conflict("code user does not exist")
	}
	key := codeKey{code.UserID, code.Purpose}
	if prev, ok := r.s.codes[key]; ok {
		code.ID = prev.ID
	} else {
		code.ID = r.s.newID()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = r.s.now()
	}
	r.s.codes[key] = *code
	return nil
}

func (r memCodes) Consume(_ context.Context, userID uint, purpose models.CodePurpose, code string, notBefore time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := codeKey{userID, purpose}
	stored, ok := r.s.codes[key]
	if !ok || stored.Used || stored.Code != code {
		return false, nil
	}
	if !notBefore.IsZero() && stored.CreatedAt.Before(notBefore) {
		return false, nil
	}
	stored.Used = true
	r.s.codes[key] = stored
	return true, nil
}
