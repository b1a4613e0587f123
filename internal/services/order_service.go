package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/foodhunter/internal/models"
	"github.com/example/foodhunter/internal/utils"
)

// ActorSystem marks automated transitions (e.g. scheduled auto-cancellation).
const ActorSystem = "system"

// postgres error code for lock_timeout expiry
const pgLockNotAvailable = "55P03"

// orderTransitions is the legal status graph. Completed and cancelled are
// terminal; cancellation is not reachable once an order is ready.
var orderTransitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed: {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:     {models.OrderStatusCompleted},
	models.OrderStatusCompleted: {},
	models.OrderStatusCancelled: {},
}

// roleTargets restricts which target statuses each actor role may request.
// Customers can only back out of an order; vendors drive the forward path.
var roleTargets = map[string]map[string]bool{
	utils.RoleCustomer: {
		models.OrderStatusCancelled: true,
	},
	utils.RoleVendor: {
		models.OrderStatusConfirmed: true,
		models.OrderStatusPreparing: true,
		models.OrderStatusReady:     true,
		models.OrderStatusCompleted: true,
		models.OrderStatusCancelled: true,
	},
}

// CanTransitionTo reports whether an order in status current may move to target.
func CanTransitionTo(current, target string) bool {
	for _, next := range orderTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// RoleMayRequest reports whether the actor role is allowed to request the
// target status at all. The system actor may request anything.
func RoleMayRequest(role, target string) bool {
	if role == ActorSystem {
		_, known := orderTransitions[target]
		return known
	}
	return roleTargets[role][target]
}

// OrderService applies status transitions under a per-order pessimistic lock.
type OrderService struct {
	db          *gorm.DB
	qrSecret    string
	lockTimeout time.Duration
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB, qrSecret string, lockTimeout time.Duration) *OrderService {
	return &OrderService{db: db, qrSecret: qrSecret, lockTimeout: lockTimeout}
}

// UpdateStatus moves an order to target under row-level locking.
//
// observedStatus is the status the caller last read; if another actor changed
// the order in between, the call fails with ErrConcurrentModification rather
// than applying a transition the caller never saw. Notifications are NOT sent
// here: the caller dispatches them after this returns and the lock is gone.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, observedStatus, target, actorRole, reason string) (*models.Order, error) {
	if !RoleMayRequest(actorRole, target) {
		return nil, ErrTransitionNotAllowed
	}
	if !CanTransitionTo(observedStatus, target) {
		return nil, ErrInvalidTransition
	}

	var updated models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.lockOrder(tx, orderID)
		if err != nil {
			return err
		}

		// Re-validate against the freshly locked row: a vendor app and an
		// automated canceller can both have read "pending" a moment ago.
		if order.Status != observedStatus {
			return ErrConcurrentModification
		}
		if !CanTransitionTo(order.Status, target) {
			return ErrInvalidTransition
		}

		now := time.Now()
		updates := map[string]any{"status": target}
		switch target {
		case models.OrderStatusCompleted:
			updates["completed_at"] = &now
		case models.OrderStatusCancelled:
			updates["cancelled_at"] = &now
			updates["cancellation_reason"] = reason
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
			return err
		}

		switch target {
		case models.OrderStatusReady:
			if err := tx.Model(&models.Pickup{}).
				Where("order_id = ? AND status = ?", orderID, models.PickupStatusWaiting).
				Update("status", models.PickupStatusReady).Error; err != nil {
				return err
			}
		case models.OrderStatusCompleted:
			// A completed order always has a collected pickup, whether the
			// vendor scanned the QR code or closed it manually.
			if err := tx.Model(&models.Pickup{}).
				Where("order_id = ?", orderID).
				Updates(map[string]any{
					"status":       models.PickupStatusCollected,
					"collected_at": &now,
				}).Error; err != nil {
				return err
			}
		}

		order.Status = target
		switch target {
		case models.OrderStatusCompleted:
			order.CompletedAt = &now
		case models.OrderStatusCancelled:
			order.CancelledAt = &now
			order.CancellationReason = reason
		}
		updated = *order
		return nil
	})
	if err != nil {
		return nil, translateStoreError(err)
	}

	return &updated, nil
}

// lockOrder reads the order under FOR UPDATE with the configured lock
// timeout armed. Both are Postgres-only; other dialects serialize writers
// at the database level and get a plain read.
func (s *OrderService) lockOrder(tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())).Error; err != nil {
			return nil, err
		}
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var order models.Order
	if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// CompletePickup verifies a scanned QR code against the order's stored pickup
// record and, if the order is ready, completes it.
func (s *OrderService) CompletePickup(ctx context.Context, orderID, vendorID uuid.UUID, scannedCode string) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Pickup").
		First(&order, "id = ? AND vendor_id = ?", orderID, vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, translateStoreError(err)
	}

	if order.Status != models.OrderStatusReady {
		return nil, ErrPickupNotReady
	}

	if order.Pickup == nil || order.Pickup.QRCode != scannedCode {
		return nil, ErrPickupCodeMismatch
	}
	tokenOrderID, err := utils.VerifyPickupToken(s.qrSecret, scannedCode)
	if err != nil || tokenOrderID != order.ID {
		return nil, ErrPickupCodeMismatch
	}

	return s.UpdateStatus(ctx, orderID, order.Status, models.OrderStatusCompleted, utils.RoleVendor, "")
}

// translateStoreError maps storage failures onto the caller-visible taxonomy.
// The original error is logged; its text never reaches a response.
func translateStoreError(err error) error {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrderNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		log.Printf("[Order] lock wait exceeded: %v", err)
		return ErrLockTimeout
	}

	log.Printf("[Order] persistence failure: %v", err)
	return ErrPersistenceFailure
}
