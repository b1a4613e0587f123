package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/foodhunter/internal/models"
	"github.com/example/foodhunter/internal/utils"
)

// idempotencyWindow bounds how long a checkout request key dedupes retries.
const idempotencyWindow = time.Hour

// errVoucherConsumeFailed signals that the voucher could not be consumed
// inside the transaction (exhausted or per-user limit hit concurrently).
// Checkout then retries once without the discount instead of failing.
var errVoucherConsumeFailed = errors.New("voucher consume failed")

// QueueNumberer hands out pickup queue numbers. The default counts per
// vendor per day; a dedicated numbering service can replace it.
type QueueNumberer interface {
	Next(tx *gorm.DB, vendorID uuid.UUID, at time.Time) (int, error)
}

type dailyQueueNumberer struct{}

// NewDailyQueueNumberer returns the default per-vendor-per-day numberer.
// Two overlapping checkouts can read the same count; the unique index on
// (vendor_id, queue_date, queue_number) makes the loser roll back and retry.
func NewDailyQueueNumberer() QueueNumberer {
	return dailyQueueNumberer{}
}

// queueDay normalizes a timestamp to its UTC calendar day.
func queueDay(at time.Time) time.Time {
	at = at.UTC()
	return time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
}

func (dailyQueueNumberer) Next(tx *gorm.DB, vendorID uuid.UUID, at time.Time) (int, error) {
	var highest int
	err := tx.Model(&models.Pickup{}).
		Where("vendor_id = ? AND queue_date = ?", vendorID, queueDay(at)).
		Select("COALESCE(MAX(queue_number), 0)").
		Scan(&highest).Error
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

// CheckoutService turns a customer's cart into one persisted order per
// vendor, atomically.
type CheckoutService struct {
	db         *gorm.DB
	vouchers   *VoucherService
	authorizer PaymentAuthorizer
	queue      QueueNumberer
	qrSecret   string
	serviceFee decimal.Decimal
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(db *gorm.DB, vouchers *VoucherService, authorizer PaymentAuthorizer, queue QueueNumberer, qrSecret string, serviceFee decimal.Decimal) *CheckoutService {
	return &CheckoutService{
		db:         db,
		vouchers:   vouchers,
		authorizer: authorizer,
		queue:      queue,
		qrSecret:   qrSecret,
		serviceFee: serviceFee,
	}
}

// CheckoutInput carries everything a checkout needs; no ambient session state.
type CheckoutInput struct {
	CustomerID     uuid.UUID
	PaymentMethod  string
	PaymentToken   string
	Notes          string
	VoucherCode    string
	IdempotencyKey string
}

// CheckoutResult is the outcome of a successful checkout. Events are handed
// back for the caller to dispatch after this call returns, so no notification
// ever rides inside the transaction.
type CheckoutResult struct {
	Orders []models.Order
	Events []OrderEvent
	Reused bool
}

// vendorPartition groups a cart's items under one vendor, preserving the
// item order within the cart.
type vendorPartition struct {
	VendorID uuid.UUID
	Items    []models.CartItem
	Subtotal decimal.Decimal
}

// partitionCart splits cart items by vendor and returns the partitions plus
// the whole-cart subtotal. Item order within each partition follows the cart.
func partitionCart(items []models.CartItem) ([]vendorPartition, decimal.Decimal) {
	index := make(map[uuid.UUID]int)
	partitions := make([]vendorPartition, 0)
	total := decimal.Zero

	for _, item := range items {
		line := item.MenuItem.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)

		vendorID := item.MenuItem.VendorID
		i, ok := index[vendorID]
		if !ok {
			i = len(partitions)
			index[vendorID] = i
			partitions = append(partitions, vendorPartition{VendorID: vendorID})
		}
		partitions[i].Items = append(partitions[i].Items, item)
		partitions[i].Subtotal = partitions[i].Subtotal.Add(line)
	}

	return partitions, total
}

// allocateDiscount splits one voucher discount across vendor partitions in
// proportion to each vendor's share of the cart subtotal. Each share is
// rounded to 2dp; the last partition absorbs the rounding remainder so the
// shares always sum exactly to totalDiscount.
func allocateDiscount(totalDiscount, totalSubtotal decimal.Decimal, partitions []vendorPartition) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(partitions))
	for i := range shares {
		shares[i] = decimal.Zero
	}
	if totalDiscount.IsZero() || !totalSubtotal.IsPositive() || len(partitions) == 0 {
		return shares
	}

	allocated := decimal.Zero
	for i, p := range partitions {
		if i == len(partitions)-1 {
			break
		}
		share := totalDiscount.Mul(p.Subtotal).Div(totalSubtotal).Round(2)
		shares[i] = share
		allocated = allocated.Add(share)
	}

	last := totalDiscount.Sub(allocated)
	if last.IsNegative() {
		last = decimal.Zero
	}
	shares[len(shares)-1] = last
	return shares
}

// Checkout runs the full checkout: idempotency pre-check, cart load, voucher
// re-check, payment authorization, then a single all-or-nothing transaction
// creating every vendor order with its items, payment and pickup records.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	if in.IdempotencyKey != "" {
		if result, err := s.replayIdempotent(ctx, in); err != nil {
			return nil, err
		} else if result != nil {
			return result, nil
		}
	}

	var cart []models.CartItem
	if err := s.db.WithContext(ctx).Preload("MenuItem").
		Where("user_id = ?", in.CustomerID).
		Order("created_at asc").
		Find(&cart).Error; err != nil {
		log.Printf("[Checkout] cart load failed: %v", err)
		return nil, ErrPersistenceFailure
	}
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range cart {
		if item.MenuItem == nil {
			log.Printf("[Checkout] cart item %s has no menu item", item.ID)
			return nil, ErrPersistenceFailure
		}
	}

	partitions, totalSubtotal := partitionCart(cart)

	// Defensive re-check: the voucher may have expired or been exhausted
	// between the validation endpoint and now. A stale voucher drops the
	// discount to zero rather than blocking the whole checkout.
	var voucher *models.Voucher
	totalDiscount := decimal.Zero
	if in.VoucherCode != "" {
		validation, err := s.vouchers.Validate(ctx, in.VoucherCode, totalSubtotal, &in.CustomerID)
		if err != nil {
			log.Printf("[Checkout] voucher %q no longer applicable: %v", in.VoucherCode, err)
		} else {
			voucher = &validation.Voucher
			totalDiscount = validation.Discount
		}
	}

	if in.PaymentMethod != models.PaymentMethodCash {
		fees := s.serviceFee.Mul(decimal.NewFromInt(int64(len(partitions))))
		payable := totalSubtotal.Add(fees).Sub(totalDiscount)
		if payable.IsNegative() {
			payable = decimal.Zero
		}
		if err := s.authorizer.Authorize(ctx, payable, in.PaymentToken); err != nil {
			log.Printf("[Checkout] payment declined for customer %s: %v", in.CustomerID, err)
			return nil, ErrPaymentDeclined
		}
	}

	result, err := s.persist(ctx, in, partitions, totalSubtotal, totalDiscount, voucher)
	if errors.Is(err, errVoucherConsumeFailed) {
		// Exhausted between validation and commit: retry once without it.
		log.Printf("[Checkout] voucher %q exhausted mid-checkout, retrying without discount", in.VoucherCode)
		result, err = s.persist(ctx, in, partitions, totalSubtotal, decimal.Zero, nil)
	}
	if err != nil {
		// A concurrent retry with the same key may have won the unique index
		// race; hand back its orders instead of a failure.
		if in.IdempotencyKey != "" && isUniqueViolation(err) {
			if replay, rerr := s.replayIdempotent(ctx, in); rerr == nil && replay != nil {
				return replay, nil
			}
		}
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		log.Printf("[Checkout] transaction failed: %v", err)
		return nil, ErrPersistenceFailure
	}

	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *CheckoutService) persist(ctx context.Context, in CheckoutInput, partitions []vendorPartition, totalSubtotal, totalDiscount decimal.Decimal, voucher *models.Voucher) (*CheckoutResult, error) {
	discounts := allocateDiscount(totalDiscount, totalSubtotal, partitions)
	now := time.Now()

	var orders []models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if voucher != nil {
			if err := s.consumeVoucher(tx, voucher, in.CustomerID, now); err != nil {
				return err
			}
		}

		orders = orders[:0]
		for i, partition := range partitions {
			order, err := s.createVendorOrder(tx, in, partition, discounts[i], voucher, now)
			if err != nil {
				return err
			}
			orders = append(orders, *order)
		}

		if in.IdempotencyKey != "" {
			ids := make([]string, 0, len(orders))
			for _, o := range orders {
				ids = append(ids, o.ID.String())
			}
			request := models.CheckoutRequest{
				IdempotencyKey: in.IdempotencyKey,
				CustomerID:     in.CustomerID,
				OrderIDs:       strings.Join(ids, ","),
			}
			if err := tx.Create(&request).Error; err != nil {
				return err
			}
		}

		return tx.Where("user_id = ?", in.CustomerID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}

	events := make([]OrderEvent, 0, len(orders))
	for _, o := range orders {
		events = append(events, OrderEvent{
			Type:        "order_placed",
			OrderID:     o.ID.String(),
			OrderNumber: o.OrderNumber,
			CustomerID:  o.CustomerID.String(),
			VendorID:    o.VendorID.String(),
			Status:      o.Status,
			Total:       o.Total.StringFixed(2),
			ItemCount:   len(o.Items),
			OccurredAt:  now,
		})
	}

	return &CheckoutResult{Orders: orders, Events: events}, nil
}

// consumeVoucher increments the voucher's global and per-user usage inside
// the checkout transaction. Both increments are guarded store-side so
// concurrent checkouts can never push usage past a limit.
func (s *CheckoutService) consumeVoucher(tx *gorm.DB, voucher *models.Voucher, userID uuid.UUID, now time.Time) error {
	res := tx.Model(&models.Voucher{}).
		Where("id = ? AND is_active = ? AND (usage_limit IS NULL OR usage_count < usage_limit)",
			voucher.ID, true).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errVoucherConsumeFailed
	}

	res = tx.Model(&models.UserVoucher{}).
		Where("user_id = ? AND voucher_id = ? AND usage_count < ?",
			userID, voucher.ID, voucher.PerUserLimit).
		Updates(map[string]any{
			"usage_count": gorm.Expr("usage_count + 1"),
			"used_at":     &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errVoucherConsumeFailed
	}

	return nil
}

// orderTotal computes subtotal + fee − discount, clamped at zero.
func orderTotal(subtotal, serviceFee, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(serviceFee).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total.Round(2)
}

func (s *CheckoutService) createVendorOrder(tx *gorm.DB, in CheckoutInput, partition vendorPartition, discount decimal.Decimal, voucher *models.Voucher, now time.Time) (*models.Order, error) {
	total := orderTotal(partition.Subtotal, s.serviceFee, discount)

	order := models.Order{
		OrderNumber: utils.GenerateOrderNumber(now),
		CustomerID:  in.CustomerID,
		VendorID:    partition.VendorID,
		Status:      models.OrderStatusPending,
		Subtotal:    partition.Subtotal,
		ServiceFee:  s.serviceFee,
		Discount:    discount.Round(2),
		Total:       total,
		Notes:       in.Notes,
	}
	if voucher != nil {
		order.VoucherCode = voucher.Code
	}

	for _, item := range partition.Items {
		menuItemID := item.MenuItemID
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID:          &menuItemID,
			ItemName:            item.MenuItem.Name,
			UnitPrice:           item.MenuItem.Price,
			Quantity:            item.Quantity,
			Subtotal:            item.MenuItem.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
			SpecialInstructions: item.SpecialInstructions,
		})
	}

	if err := tx.Create(&order).Error; err != nil {
		return nil, err
	}

	paymentStatus := models.PaymentStatusPaid
	if in.PaymentMethod == models.PaymentMethodCash {
		paymentStatus = models.PaymentStatusCashOnPickup
	}
	payment := models.Payment{
		OrderID:        order.ID,
		Method:         in.PaymentMethod,
		Status:         paymentStatus,
		TransactionRef: in.PaymentToken,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, err
	}

	queueNumber, err := s.queue.Next(tx, partition.VendorID, now)
	if err != nil {
		return nil, err
	}
	qrCode, err := utils.SignPickupToken(s.qrSecret, order.ID, now)
	if err != nil {
		return nil, err
	}
	pickup := models.Pickup{
		OrderID:     order.ID,
		VendorID:    partition.VendorID,
		QueueDate:   queueDay(now),
		QueueNumber: queueNumber,
		QRCode:      qrCode,
		Status:      models.PickupStatusWaiting,
	}
	if err := tx.Create(&pickup).Error; err != nil {
		return nil, err
	}

	order.Payment = &payment
	order.Pickup = &pickup
	return &order, nil
}

// replayIdempotent returns the orders a previous submission with the same key
// created, or nil when the key is unseen (or its record has aged out).
func (s *CheckoutService) replayIdempotent(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	var request models.CheckoutRequest
	err := s.db.WithContext(ctx).
		Where("idempotency_key = ? AND customer_id = ? AND created_at > ?",
			in.IdempotencyKey, in.CustomerID, time.Now().Add(-idempotencyWindow)).
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Printf("[Checkout] idempotency lookup failed: %v", err)
		return nil, ErrPersistenceFailure
	}

	ids := strings.Split(request.OrderIDs, ",")
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Preload("Items").Preload("Payment").Preload("Pickup").
		Where("id IN ?", ids).
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		log.Printf("[Checkout] idempotent replay load failed: %v", err)
		return nil, ErrPersistenceFailure
	}

	return &CheckoutResult{Orders: orders, Reused: true}, nil
}
