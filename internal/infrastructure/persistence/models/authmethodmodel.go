package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/veridian-id/veridian/internal/shared/constants"
)

// AuthMethodModel represents the database persistence model for
// authentication methods
type AuthMethodModel struct {
	ID          uint           `gorm:"primarykey"`
	SID         string         `gorm:"uniqueIndex;not null;size:50;column:sid"`
	UserID      uint           `gorm:"not null;uniqueIndex:idx_auth_methods_user_variant_target"`
	Variant     string         `gorm:"not null;size:20;uniqueIndex:idx_auth_methods_user_variant_target"`
	TargetKey   string         `gorm:"size:255;uniqueIndex:idx_auth_methods_user_variant_target,length:191"`
	DisplayName string         `gorm:"size:100;default:''"`
	Enabled     bool           `gorm:"default:true"`
	Verified    bool           `gorm:"default:false"`
	Payload     datatypes.JSON `gorm:"type:json"`
	// CredentialID duplicates the passkey payload's credential ID so
	// discoverable-credential sign-ins resolve with one indexed lookup
	CredentialID   []byte `gorm:"type:varbinary(1024);uniqueIndex:idx_auth_methods_credential_id,length:255"`
	LastUsedAt     *time.Time
	LastVerifiedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for GORM
func (AuthMethodModel) TableName() string {
	return constants.TableAuthMethods
}
