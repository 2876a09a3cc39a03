package models

import (
	"time"

	"github.com/veridian-id/veridian/internal/shared/constants"
)

// PasskeyChallengeModel represents the database persistence model for
// WebAuthn ceremony challenges
type PasskeyChallengeModel struct {
	ID        uint   `gorm:"primarykey"`
	SID       string `gorm:"uniqueIndex;not null;size:50;column:sid"`
	Value     string `gorm:"uniqueIndex;not null;size:64"`
	UserID    *uint  `gorm:"index"`
	Purpose   string `gorm:"not null;size:20"`
	SessionID string `gorm:"size:100;default:''"`
	Used      bool   `gorm:"default:false"`
	UsedAt    *time.Time
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
}

// TableName specifies the table name for GORM
func (PasskeyChallengeModel) TableName() string {
	return constants.TablePasskeyChallenges
}
