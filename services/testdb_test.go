package services

import (
	"testing"

	"mythic-quest-system/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Quest{},
		&models.CoinTransaction{},
		&models.PendingLevelUpBonus{},
		&models.OutboxEntry{},
		&models.UserMilestone{},
		&models.HeroUser{},
	))
	return db
}
