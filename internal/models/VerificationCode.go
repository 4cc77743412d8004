package models

import "time"

// CodePurpose separates the verification and recovery flows so that one
// never overwrites the other's code.
type CodePurpose string

const (
	PurposeEmailVerification CodePurpose = "email_verification"
	PurposePasswordReset     CodePurpose = "password_reset"
)

// VerificationCode is the single active code of a user for one purpose.
// Issuing a new code overwrites the row; Used only ever goes false -> true.
type VerificationCode struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	UserID    uint        `gorm:"uniqueIndex:idx_verification_user_purpose;not null" json:"user_id"`
	Purpose   CodePurpose `gorm:"uniqueIndex:idx_verification_user_purpose;type:varchar(32);not null" json:"purpose"`
	Code      string      `gorm:"size:6;not null" json:"-"`
	CreatedAt time.Time   `json:"created_at"`
	Used      bool        `gorm:"not null" json:"used"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
}
