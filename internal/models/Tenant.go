// internal/models/tenant.go
package models

import (
	"gorm.io/gorm"
)

// Tenant represents a transport company. Every driver, vehicle and
// service belongs to exactly one tenant.
type Tenant struct {
	gorm.Model
	Name    string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	TaxID   string `gorm:"size:20;uniqueIndex;not null" json:"tax_id"` // NIT
	Address string `gorm:"size:150" json:"address"`
	Phone   string `gorm:"size:15" json:"phone"`
	Email   string `json:"email"`

	AdministratorID *uint `gorm:"uniqueIndex" json:"administrator_id"`

	Drivers  []Driver  `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE;" json:"-"`
	Vehicles []Vehicle `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE;" json:"-"`
	Services []Service `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE;" json:"-"`
}

// Membership links a user to the tenant whose data they may see.
type Membership struct {
	gorm.Model
	UserID        uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	TenantID      uint   `gorm:"index;not null" json:"tenant_id"`
	IsTenantAdmin bool   `gorm:"not null" json:"is_tenant_admin"`
	Tenant        Tenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE;" json:"tenant"`
}
