package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/foodhunter/internal/models"
	"github.com/example/foodhunter/internal/utils"
)

type declineAuthorizer struct{}

func (declineAuthorizer) Authorize(ctx context.Context, amount decimal.Decimal, paymentToken string) error {
	return errors.New("insufficient funds")
}

// failingNumberer fails on its nth call so a later vendor order aborts the
// whole transaction.
type failingNumberer struct {
	calls  int
	failOn int
}

func (f *failingNumberer) Next(tx *gorm.DB, vendorID uuid.UUID, at time.Time) (int, error) {
	f.calls++
	if f.calls == f.failOn {
		return 0, errors.New("queue counter unavailable")
	}
	return f.calls, nil
}

func loadCart(t *testing.T, db *gorm.DB, userID uuid.UUID) []models.CartItem {
	t.Helper()
	var cart []models.CartItem
	require.NoError(t, db.Preload("MenuItem").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&cart).Error)
	return cart
}

func TestCheckout_CreatesOneOrderPerVendor(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	nasi := seedVendor(t, db, "Nasi Corner")
	mee := seedVendor(t, db, "Mee House")
	lemak := seedMenuItem(t, db, nasi.ID, "Nasi Lemak", "10.00")
	goreng := seedMenuItem(t, db, mee.ID, "Mee Goreng", "15.00")
	seedCartItem(t, db, user.ID, lemak.ID, 2)
	seedCartItem(t, db, user.ID, goreng.ID, 1)

	svc := newTestCheckoutService(db, NewDailyQueueNumberer(), NewAcceptAllAuthorizer())
	result, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerID:    user.ID,
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)
	assert.False(t, result.Reused)

	first, second := result.Orders[0], result.Orders[1]
	assert.Equal(t, nasi.ID, first.VendorID)
	assert.Equal(t, mee.ID, second.VendorID)
	assert.True(t, first.Subtotal.Equal(dec("20.00")))
	assert.True(t, first.Total.Equal(dec("22.00")))
	assert.True(t, second.Subtotal.Equal(dec("15.00")))
	assert.True(t, second.Total.Equal(dec("17.00")))

	for _, order := range result.Orders {
		assert.Equal(t, models.OrderStatusPending, order.Status)
		require.NotNil(t, order.Payment)
		assert.Equal(t, models.PaymentStatusCashOnPickup, order.Payment.Status)
		require.NotNil(t, order.Pickup)
		assert.Equal(t, models.PickupStatusWaiting, order.Pickup.Status)
		assert.Equal(t, 1, order.Pickup.QueueNumber)

		scanned, err := utils.VerifyPickupToken(testQRSecret, order.Pickup.QRCode)
		require.NoError(t, err)
		assert.Equal(t, order.ID, scanned)
	}

	// Line items are snapshots of the menu at checkout time.
	require.Len(t, first.Items, 1)
	assert.Equal(t, "Nasi Lemak", first.Items[0].ItemName)
	assert.True(t, first.Items[0].UnitPrice.Equal(dec("10.00")))
	assert.Equal(t, 2, first.Items[0].Quantity)

	require.Len(t, result.Events, 2)
	for _, event := range result.Events {
		assert.Equal(t, "order_placed", event.Type)
	}

	assert.Zero(t, countRows(t, db, &models.CartItem{}), "cart is cleared")
}

func TestCheckout_SecondVendorFailureRollsBackEverything(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	nasi := seedVendor(t, db, "Nasi Corner")
	mee := seedVendor(t, db, "Mee House")
	lemak := seedMenuItem(t, db, nasi.ID, "Nasi Lemak", "10.00")
	goreng := seedMenuItem(t, db, mee.ID, "Mee Goreng", "15.00")
	seedCartItem(t, db, user.ID, lemak.ID, 1)
	seedCartItem(t, db, user.ID, goreng.ID, 1)

	voucher := seedVoucher(t, db, models.Voucher{
		Code: "SAVE5", Type: models.VoucherTypeFixed,
		Value: dec("5.00"), PerUserLimit: 1, IsActive: true,
	})
	seedRedemption(t, db, user.ID, voucher.ID, 0)

	svc := newTestCheckoutService(db, &failingNumberer{failOn: 2}, NewAcceptAllAuthorizer())
	_, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerID:     user.ID,
		PaymentMethod:  models.PaymentMethodCash,
		VoucherCode:    "SAVE5",
		IdempotencyKey: "key-rollback",
	})
	require.ErrorIs(t, err, ErrPersistenceFailure)

	assert.Zero(t, countRows(t, db, &models.Order{}))
	assert.Zero(t, countRows(t, db, &models.OrderItem{}))
	assert.Zero(t, countRows(t, db, &models.Payment{}))
	assert.Zero(t, countRows(t, db, &models.Pickup{}))
	assert.Zero(t, countRows(t, db, &models.CheckoutRequest{}))
	assert.EqualValues(t, 2, countRows(t, db, &models.CartItem{}), "cart is untouched")

	var after models.Voucher
	require.NoError(t, db.First(&after, "id = ?", voucher.ID).Error)
	assert.Zero(t, after.UsageCount, "voucher consumption rolled back")
}

func TestCheckout_SameIdempotencyKeyReturnsSameOrders(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	vendor := seedVendor(t, db, "Nasi Corner")
	lemak := seedMenuItem(t, db, vendor.ID, "Nasi Lemak", "10.00")
	seedCartItem(t, db, user.ID, lemak.ID, 1)

	svc := newTestCheckoutService(db, NewDailyQueueNumberer(), NewAcceptAllAuthorizer())
	in := CheckoutInput{
		CustomerID:     user.ID,
		PaymentMethod:  models.PaymentMethodCash,
		IdempotencyKey: "key-123",
	}

	first, err := svc.Checkout(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, first.Orders, 1)
	assert.False(t, first.Reused)

	second, err := svc.Checkout(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.True(t, second.Reused)
	assert.Equal(t, first.Orders[0].ID, second.Orders[0].ID)
	assert.Empty(t, second.Events, "a replay never re-notifies")

	assert.EqualValues(t, 1, countRows(t, db, &models.Order{}), "no second order set")
}

func TestCheckout_AppliesVoucherAndConsumesUsage(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	vendor := seedVendor(t, db, "Nasi Corner")
	lemak := seedMenuItem(t, db, vendor.ID, "Nasi Lemak", "20.00")
	seedCartItem(t, db, user.ID, lemak.ID, 2)

	limit := 10
	voucher := seedVoucher(t, db, models.Voucher{
		Code: "SAVE5", Type: models.VoucherTypeFixed,
		Value: dec("5.00"), UsageLimit: &limit, PerUserLimit: 1, IsActive: true,
	})
	seedRedemption(t, db, user.ID, voucher.ID, 0)

	svc := newTestCheckoutService(db, NewDailyQueueNumberer(), NewAcceptAllAuthorizer())
	result, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerID:    user.ID,
		PaymentMethod: models.PaymentMethodCash,
		VoucherCode:   "SAVE5",
	})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)

	order := result.Orders[0]
	assert.Equal(t, "SAVE5", order.VoucherCode)
	assert.True(t, order.Discount.Equal(dec("5.00")))
	assert.True(t, order.Total.Equal(dec("37.00")), "40 + 2 fee - 5 discount")

	var after models.Voucher
	require.NoError(t, db.First(&after, "id = ?", voucher.ID).Error)
	assert.Equal(t, 1, after.UsageCount)

	var redemption models.UserVoucher
	require.NoError(t, db.First(&redemption, "user_id = ? AND voucher_id = ?", user.ID, voucher.ID).Error)
	assert.Equal(t, 1, redemption.UsageCount)
	assert.NotNil(t, redemption.UsedAt)
}

func TestCheckout_ExhaustedVoucherStillPlacesOrder(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	vendor := seedVendor(t, db, "Nasi Corner")
	lemak := seedMenuItem(t, db, vendor.ID, "Nasi Lemak", "20.00")
	seedCartItem(t, db, user.ID, lemak.ID, 2)

	limit := 1
	voucher := seedVoucher(t, db, models.Voucher{
		Code: "GONE", Type: models.VoucherTypeFixed,
		Value: dec("5.00"), UsageLimit: &limit, UsageCount: 1, PerUserLimit: 1, IsActive: true,
	})
	seedRedemption(t, db, user.ID, voucher.ID, 0)

	svc := newTestCheckoutService(db, NewDailyQueueNumberer(), NewAcceptAllAuthorizer())
	result, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerID:    user.ID,
		PaymentMethod: models.PaymentMethodCash,
		VoucherCode:   "GONE",
	})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)

	order := result.Orders[0]
	assert.Empty(t, order.VoucherCode)
	assert.True(t, order.Discount.IsZero())
	assert.True(t, order.Total.Equal(dec("42.00")), "full price plus fee")

	var after models.Voucher
	require.NoError(t, db.First(&after, "id = ?", voucher.ID).Error)
	assert.Equal(t, 1, after.UsageCount, "exhausted voucher is never consumed again")
}

func TestPersist_VoucherExhaustedMidTransactionAbortsCleanly(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	vendor := seedVendor(t, db, "Nasi Corner")
	lemak := seedMenuItem(t, db, vendor.ID, "Nasi Lemak", "20.00")
	seedCartItem(t, db, user.ID, lemak.ID, 2)

	limit := 1
	seedVoucher(t, db, models.Voucher{
		Code: "RACED", Type: models.VoucherTypeFixed,
		Value: dec("5.00"), UsageLimit: &limit, UsageCount: 1, PerUserLimit: 1, IsActive: true,
	})

	// A copy read before a concurrent checkout consumed the last use.
	var stale models.Voucher
	require.NoError(t, db.First(&stale, "code = ?", "RACED").Error)
	stale.UsageCount = 0

	svc := newTestCheckoutService(db, NewDailyQueueNumberer(), NewAcceptAllAuthorizer())
	partitions, total := partitionCart(loadCart(t, db, user.ID))
	in := CheckoutInput{CustomerID: user.ID, PaymentMethod: models.PaymentMethodCash}

	_, err := svc.persist(context.Background(), in, partitions, total, dec("5.00"), &stale)
	require.ErrorIs(t, err, errVoucherConsumeFailed)

	assert.Zero(t, countRows(t, db, &models.Order{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.CartItem{}), "cart survives the aborted attempt")
}

func TestConsumeVoucher_PerUserLimitGuard(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	voucher := seedVoucher(t, db, models.Voucher{
		Code: "ONCE", Type: models.VoucherTypeFixed,
		Value: dec("5.00"), PerUserLimit: 1, IsActive: true,
	})
	seedRedemption(t, db, user.ID, voucher.ID, 1)

	svc := newTestCheckoutService(db, NewDailyQueueNumberer(), NewAcceptAllAuthorizer())
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.consumeVoucher(tx, &voucher, user.ID, time.Now())
	})
	require.ErrorIs(t, err, errVoucherConsumeFailed)

	var after models.Voucher
	require.NoError(t, db.First(&after, "id = ?", voucher.ID).Error)
	assert.Zero(t, after.UsageCount, "global increment rolled back with the transaction")
}

func TestCheckout_EmptyCart(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)

	svc := newTestCheckoutService(db, NewDailyQueueNumberer(), NewAcceptAllAuthorizer())
	_, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerID:    user.ID,
		PaymentMethod: models.PaymentMethodCash,
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_DeclinedPaymentPersistsNothing(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db)
	vendor := seedVendor(t, db, "Nasi Corner")
	lemak := seedMenuItem(t, db, vendor.ID, "Nasi Lemak", "10.00")
	seedCartItem(t, db, user.ID, lemak.ID, 1)

	svc := newTestCheckoutService(db, NewDailyQueueNumberer(), declineAuthorizer{})
	_, err := svc.Checkout(context.Background(), CheckoutInput{
		CustomerID:    user.ID,
		PaymentMethod: models.PaymentMethodCard,
		PaymentToken:  "tok_visa",
	})
	require.ErrorIs(t, err, ErrPaymentDeclined)

	assert.Zero(t, countRows(t, db, &models.Order{}))
	assert.EqualValues(t, 1, countRows(t, db, &models.CartItem{}))
}

func TestDailyQueueNumberer_ContinuesFromHighest(t *testing.T) {
	db := openTestDB(t)
	vendor := seedVendor(t, db, "Nasi Corner")
	now := time.Now()

	require.NoError(t, db.Create(&models.Pickup{
		OrderID:     uuid.New(),
		VendorID:    vendor.ID,
		QueueDate:   queueDay(now),
		QueueNumber: 3,
		Status:      models.PickupStatusWaiting,
	}).Error)

	n, err := NewDailyQueueNumberer().Next(db, vendor.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	other := seedVendor(t, db, "Mee House")
	n, err = NewDailyQueueNumberer().Next(db, other.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "numbering is per vendor")
}

func TestPickup_DuplicateQueueNumberRejected(t *testing.T) {
	db := openTestDB(t)
	vendor := seedVendor(t, db, "Nasi Corner")
	day := queueDay(time.Now())

	require.NoError(t, db.Create(&models.Pickup{
		OrderID: uuid.New(), VendorID: vendor.ID,
		QueueDate: day, QueueNumber: 1, Status: models.PickupStatusWaiting,
	}).Error)

	err := db.Create(&models.Pickup{
		OrderID: uuid.New(), VendorID: vendor.ID,
		QueueDate: day, QueueNumber: 1, Status: models.PickupStatusWaiting,
	}).Error
	assert.Error(t, err, "same vendor, day and number collides")
}
