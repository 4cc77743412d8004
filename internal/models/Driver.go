// internal/models/driver.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// Driver is a person a tenant can assign to services.
type Driver struct {
	gorm.Model
	TenantID         uint       `json:"tenant_id" gorm:"index;not null"`
	FullName         string     `json:"full_name" gorm:"size:150;not null"`
	DocumentType     string     `json:"document_type" gorm:"size:5;not null"` // CC, CE, TI
	DocumentNumber   string     `json:"document_number" gorm:"size:20;not null"`
	Phone            string     `json:"phone" gorm:"size:20"`
	Email            string     `json:"email"`
	LicenseCategory  string     `json:"license_category" gorm:"size:5;not null"` // C1, C2, C3
	LicenseNumber    string     `json:"license_number" gorm:"size:20;not null"`
	LicenseExpiresOn *time.Time `json:"license_expires_on" gorm:"type:date;index"`
	Active           bool       `json:"active" gorm:"not null"`
}
