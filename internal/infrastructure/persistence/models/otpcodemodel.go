package models

import (
	"time"

	"github.com/veridian-id/veridian/internal/shared/constants"
)

// OTPCodeModel represents the database persistence model for one-time
// codes. Only the salted hash of a code is stored.
type OTPCodeModel struct {
	ID          uint   `gorm:"primarykey"`
	SID         string `gorm:"uniqueIndex;not null;size:50;column:sid"`
	UserID      *uint  `gorm:"index"`
	Target      string `gorm:"not null;size:255;index:idx_otp_codes_target_purpose,length:191"`
	Channel     string `gorm:"not null;size:10"`
	Purpose     string `gorm:"not null;size:30;index:idx_otp_codes_target_purpose"`
	Salt        string `gorm:"not null;size:64"`
	CodeHash    string `gorm:"not null;size:64"`
	Attempts    int    `gorm:"default:0"`
	MaxAttempts int    `gorm:"not null"`
	Verified    bool   `gorm:"default:false"`
	ConsumedAt  *time.Time
	CreatedAt   time.Time `gorm:"index"`
	ExpiresAt   time.Time `gorm:"index"`
}

// TableName specifies the table name for GORM
func (OTPCodeModel) TableName() string {
	return constants.TableOTPCodes
}
