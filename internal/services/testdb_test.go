package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/foodhunter/internal/models"
)

const testQRSecret = "test-secret"

// openTestDB returns an isolated in-memory database with the full schema.
// A single connection keeps every query on the same in-memory instance.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Vendor{},
		&models.MenuItem{},
		&models.CartItem{},
		&models.Voucher{},
		&models.UserVoucher{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.Pickup{},
		&models.CheckoutRequest{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		FirstName:    "Aina",
		LastName:     "Rahman",
		Phone:        uuid.NewString(),
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedVendor(t *testing.T, db *gorm.DB, name string) models.Vendor {
	t.Helper()
	vendor := models.Vendor{
		Name:         name,
		Phone:        uuid.NewString(),
		PasswordHash: "x",
		IsOpen:       true,
	}
	require.NoError(t, db.Create(&vendor).Error)
	return vendor
}

func seedMenuItem(t *testing.T, db *gorm.DB, vendorID uuid.UUID, name, price string) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		VendorID:    vendorID,
		Name:        name,
		Price:       dec(price),
		IsAvailable: true,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func seedCartItem(t *testing.T, db *gorm.DB, userID uuid.UUID, menuItemID uuid.UUID, quantity int) models.CartItem {
	t.Helper()
	item := models.CartItem{
		UserID:     userID,
		MenuItemID: menuItemID,
		Quantity:   quantity,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func seedVoucher(t *testing.T, db *gorm.DB, voucher models.Voucher) models.Voucher {
	t.Helper()
	require.NoError(t, db.Create(&voucher).Error)
	return voucher
}

func seedRedemption(t *testing.T, db *gorm.DB, userID, voucherID uuid.UUID, used int) models.UserVoucher {
	t.Helper()
	redemption := models.UserVoucher{
		UserID:     userID,
		VoucherID:  voucherID,
		UsageCount: used,
	}
	require.NoError(t, db.Create(&redemption).Error)
	return redemption
}

func newTestCheckoutService(db *gorm.DB, queue QueueNumberer, authorizer PaymentAuthorizer) *CheckoutService {
	return NewCheckoutService(db, NewVoucherService(db), authorizer, queue, testQRSecret, decimal.NewFromInt(2))
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
