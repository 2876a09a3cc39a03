package migration

import (
	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
)

func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.AuthMethodModel{},
		&models.PasskeyChallengeModel{},
		&models.PushRequestModel{},
		&models.OTPCodeModel{},
		&models.RecoveryRequestModel{},
	}
}
