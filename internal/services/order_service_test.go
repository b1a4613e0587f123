package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/foodhunter/internal/models"
	"github.com/example/foodhunter/internal/utils"
)

var allStatuses = []string{
	models.OrderStatusPending,
	models.OrderStatusConfirmed,
	models.OrderStatusPreparing,
	models.OrderStatusReady,
	models.OrderStatusCompleted,
	models.OrderStatusCancelled,
}

func TestCanTransitionTo_LegalGraph(t *testing.T) {
	legal := map[string]map[string]bool{
		models.OrderStatusPending:   {models.OrderStatusConfirmed: true, models.OrderStatusCancelled: true},
		models.OrderStatusConfirmed: {models.OrderStatusPreparing: true, models.OrderStatusCancelled: true},
		models.OrderStatusPreparing: {models.OrderStatusReady: true, models.OrderStatusCancelled: true},
		models.OrderStatusReady:     {models.OrderStatusCompleted: true},
		models.OrderStatusCompleted: {},
		models.OrderStatusCancelled: {},
	}

	// Every (current, target) pair, including self-transitions.
	for _, current := range allStatuses {
		for _, target := range allStatuses {
			got := CanTransitionTo(current, target)
			assert.Equal(t, legal[current][target], got,
				"transition %s -> %s", current, target)
		}
	}
}

func TestCanTransitionTo_TerminalStatesHaveNoExit(t *testing.T) {
	for _, terminal := range []string{models.OrderStatusCompleted, models.OrderStatusCancelled} {
		for _, target := range allStatuses {
			assert.False(t, CanTransitionTo(terminal, target),
				"terminal %s must not reach %s", terminal, target)
		}
	}
}

func TestCanTransitionTo_NoSkippingToCompleted(t *testing.T) {
	assert.False(t, CanTransitionTo(models.OrderStatusPending, models.OrderStatusCompleted))
	assert.False(t, CanTransitionTo(models.OrderStatusConfirmed, models.OrderStatusCompleted))
	assert.False(t, CanTransitionTo(models.OrderStatusPreparing, models.OrderStatusCompleted))
}

func TestCanTransitionTo_UnknownStatus(t *testing.T) {
	assert.False(t, CanTransitionTo("bogus", models.OrderStatusConfirmed))
	assert.False(t, CanTransitionTo(models.OrderStatusPending, "bogus"))
}

func TestRoleMayRequest(t *testing.T) {
	t.Run("customer may only cancel", func(t *testing.T) {
		assert.True(t, RoleMayRequest(utils.RoleCustomer, models.OrderStatusCancelled))
		for _, target := range []string{
			models.OrderStatusConfirmed,
			models.OrderStatusPreparing,
			models.OrderStatusReady,
			models.OrderStatusCompleted,
		} {
			assert.False(t, RoleMayRequest(utils.RoleCustomer, target), "customer -> %s", target)
		}
	})

	t.Run("vendor drives the forward path and cancels", func(t *testing.T) {
		for _, target := range []string{
			models.OrderStatusConfirmed,
			models.OrderStatusPreparing,
			models.OrderStatusReady,
			models.OrderStatusCompleted,
			models.OrderStatusCancelled,
		} {
			assert.True(t, RoleMayRequest(utils.RoleVendor, target), "vendor -> %s", target)
		}
	})

	t.Run("system may request any known status", func(t *testing.T) {
		for _, target := range allStatuses {
			assert.True(t, RoleMayRequest(ActorSystem, target), "system -> %s", target)
		}
		assert.False(t, RoleMayRequest(ActorSystem, "bogus"))
	})

	t.Run("unknown role may request nothing", func(t *testing.T) {
		assert.False(t, RoleMayRequest("auditor", models.OrderStatusCancelled))
	})
}
