package models

import (
	"time"

	"github.com/veridian-id/veridian/internal/shared/constants"
)

// RecoveryRequestModel represents the database persistence model for
// account recovery requests
type RecoveryRequestModel struct {
	ID                    uint   `gorm:"primarykey"`
	SID                   string `gorm:"uniqueIndex;not null;size:50;column:sid"`
	UserID                uint   `gorm:"not null;index:idx_recovery_requests_user_status"`
	Email                 string `gorm:"not null;size:255"`
	Status                string `gorm:"not null;size:20;index:idx_recovery_requests_user_status"`
	EmailVerified         bool   `gorm:"default:false"`
	SMSVerified           bool   `gorm:"default:false;column:sms_verified"`
	MFARequired           bool   `gorm:"default:false;column:mfa_required"`
	PhoneNumber           string `gorm:"size:20;default:''"`
	PhoneHint             string `gorm:"size:20;default:''"`
	EmailAttempts         int    `gorm:"default:0"`
	SMSAttempts           int    `gorm:"default:0;column:sms_attempts"`
	MaxStepAttempts       int    `gorm:"not null"`
	UsedForAuthentication bool   `gorm:"default:false"`
	IP                    string `gorm:"size:45;default:''"`
	UserAgent             string `gorm:"size:255;default:''"`
	CompletedAt           *time.Time
	CreatedAt             time.Time
	ExpiresAt             time.Time `gorm:"index"`
	UpdatedAt             time.Time
}

// TableName specifies the table name for GORM
func (RecoveryRequestModel) TableName() string {
	return constants.TableRecoveryRequests
}
