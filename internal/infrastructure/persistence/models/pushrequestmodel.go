package models

import (
	"time"

	"github.com/veridian-id/veridian/internal/shared/constants"
)

// PushRequestModel represents the database persistence model for push
// authentication requests
type PushRequestModel struct {
	ID                uint   `gorm:"primarykey"`
	SID               string `gorm:"uniqueIndex;not null;size:50;column:sid"`
	UserID            uint   `gorm:"not null;index:idx_push_requests_user_status"`
	Status            string `gorm:"not null;size:20;index:idx_push_requests_user_status"`
	Purpose           string `gorm:"not null;size:20"`
	Challenge         string `gorm:"not null;size:64"`
	IP                string `gorm:"size:45;default:''"`
	UserAgent         string `gorm:"size:255;default:''"`
	Location          string `gorm:"size:100;default:''"`
	NotificationsSent int    `gorm:"default:0"`
	ApprovedBySID     string `gorm:"size:50;default:'';column:approved_by_sid"`
	RecoverySID       string `gorm:"size:50;default:'';column:recovery_sid"`
	RespondedAt       *time.Time
	CreatedAt         time.Time
	ExpiresAt         time.Time `gorm:"index"`
	UpdatedAt         time.Time
}

// TableName specifies the table name for GORM
func (PushRequestModel) TableName() string {
	return constants.TablePushRequests
}
