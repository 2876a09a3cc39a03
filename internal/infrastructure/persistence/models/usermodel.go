package models

import (
	"time"

	"github.com/veridian-id/veridian/internal/shared/constants"
)

// UserModel represents the database persistence model for user accounts.
// The recovery flow only reads this table to resolve emails.
type UserModel struct {
	ID        uint   `gorm:"primarykey"`
	SID       string `gorm:"uniqueIndex;not null;size:50;column:sid"`
	Email     string `gorm:"uniqueIndex;not null;size:255"`
	Status    string `gorm:"size:20;default:'active'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return constants.TableUsers
}
