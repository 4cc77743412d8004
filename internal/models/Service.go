// internal/models/service.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ServiceStatus string

const (
	ServiceScheduled  ServiceStatus = "SCHEDULED"
	ServiceInProgress ServiceStatus = "IN_PROGRESS"
	ServiceCompleted  ServiceStatus = "COMPLETED"
	ServiceCancelled  ServiceStatus = "CANCELLED"
)

func (s ServiceStatus) Valid() bool {
	switch s {
	case ServiceScheduled, ServiceInProgress, ServiceCompleted, ServiceCancelled:
		return true
	}
	return false
}

// Service is a scheduled trip. Its driver and vehicle cannot be deleted
// while the service references them.
type Service struct {
	gorm.Model
	TenantID uint `json:"tenant_id" gorm:"index;not null"`

	DriverID  uint    `json:"driver_id" gorm:"index;not null"`
	Driver    Driver  `json:"driver" gorm:"foreignKey:DriverID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	VehicleID uint    `json:"vehicle_id" gorm:"index;not null"`
	Vehicle   Vehicle `json:"vehicle" gorm:"foreignKey:VehicleID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`

	ServiceDate time.Time `json:"service_date" gorm:"type:date;index;not null"`
	StartTime   *string   `json:"start_time" gorm:"size:5"` // HH:MM
	EndTime     *string   `json:"end_time" gorm:"size:5"`

	Origin      string `json:"origin" gorm:"size:150;not null"`
	Destination string `json:"destination" gorm:"size:150;not null"`
	ServiceType string `json:"service_type" gorm:"size:50"` // school, corporate, tourism...

	ClientName    string `json:"client_name" gorm:"size:150;not null"`
	ClientContact string `json:"client_contact" gorm:"size:100"`

	Value  decimal.Decimal `json:"value" gorm:"type:numeric(12,2);not null"`
	Status ServiceStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
}
