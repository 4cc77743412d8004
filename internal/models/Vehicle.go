// internal/models/vehicle.go
package models

import (
	"time"

	"gorm.io/gorm"
)

type Vehicle struct {
	gorm.Model
	TenantID          uint   `json:"tenant_id" gorm:"index;not null"`
	Plate             string `json:"plate" gorm:"size:10;uniqueIndex;not null"`
	Make              string `json:"make" gorm:"size:50;not null"`
	Line              string `json:"line" gorm:"size:50"`
	ModelYear         int    `json:"model_year" gorm:"not null"`
	PassengerCapacity int    `json:"passenger_capacity" gorm:"not null"`

	// Document expirations tracked by the alert engine.
	SOATExpiresOn                   *time.Time `json:"soat_expires_on" gorm:"type:date"`
	TechInspectionExpiresOn         *time.Time `json:"tech_inspection_expires_on" gorm:"type:date"`
	ContractualPolicyExpiresOn      *time.Time `json:"contractual_policy_expires_on" gorm:"type:date"`
	ExtracontractualPolicyExpiresOn *time.Time `json:"extracontractual_policy_expires_on" gorm:"type:date"`

	Active bool `json:"active" gorm:"not null"`
}

// Description is the "make line" text shown next to the plate.
func (v Vehicle) Description() string {
	if v.Line == "" {
		return v.Make
	}
	return v.Make + " " + v.Line
}
