// Package storetest opens throwaway in-memory databases for service tests.
package storetest

import (
	"testing"
	"time"

	"parkeasy/internal/auth"
	"parkeasy/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated database private to t. A single connection is used so
// concurrent transactions serialise the way row locks would on postgres.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.Migrate(db))
	return db
}

// User inserts a verified, active user with password "password123".
func User(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	now := time.Now()
	u := &models.User{
		Username:       username,
		Email:          username + "@example.com",
		PasswordHash:   hash,
		Role:           role,
		RoleSelectedAt: &now,
		IsActive:       true,
		EmailVerified:  true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Place inserts a place owned by owner with the given slot codes, all available.
func Place(t *testing.T, db *gorm.DB, owner *models.User, price float64, codes ...string) *models.ParkingPlace {
	t.Helper()
	p := &models.ParkingPlace{
		OwnerID:             owner.ID,
		Name:                "Central Parking",
		Address:             "1 Main Road",
		Area:                "Shivajinagar",
		City:                "Pune",
		PricePerHour:        price,
		AllowedVehicleTypes: "2_wheeler,4_wheeler",
	}
	require.NoError(t, db.Create(p).Error)
	for _, c := range codes {
		s := models.ParkingSlot{PlaceID: p.ID, Code: c, IsAvailable: true}
		require.NoError(t, db.Create(&s).Error)
		p.Slots = append(p.Slots, s)
	}
	return p
}
