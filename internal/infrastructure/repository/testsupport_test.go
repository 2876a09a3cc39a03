package repository

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/veridian-id/veridian/internal/infrastructure/persistence/models"
	"github.com/veridian-id/veridian/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.UserModel{},
		&models.AuthMethodModel{},
		&models.PasskeyChallengeModel{},
		&models.PushRequestModel{},
		&models.OTPCodeModel{},
		&models.RecoveryRequestModel{},
	)
	require.NoError(t, err)

	return db
}

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.DiscardHandler))
}

func testSID(sid string) func() (string, error) {
	return func() (string, error) { return sid, nil }
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
