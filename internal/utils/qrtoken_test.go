package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickupToken_RoundTrip(t *testing.T) {
	secret := "test-secret"
	orderID := uuid.New()

	token, err := SignPickupToken(secret, orderID, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := VerifyPickupToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, orderID, got)
}

func TestPickupToken_WrongSecretRejected(t *testing.T) {
	token, err := SignPickupToken("secret-a", uuid.New(), time.Now())
	require.NoError(t, err)

	_, err = VerifyPickupToken("secret-b", token)
	assert.Error(t, err)
}

func TestPickupToken_TamperedRejected(t *testing.T) {
	token, err := SignPickupToken("test-secret", uuid.New(), time.Now())
	require.NoError(t, err)

	_, err = VerifyPickupToken("test-secret", token+"x")
	assert.Error(t, err)
}

func TestPickupToken_GarbageRejected(t *testing.T) {
	_, err := VerifyPickupToken("test-secret", "not-a-token")
	assert.Error(t, err)
}

func TestPickupToken_DistinctPerOrder(t *testing.T) {
	now := time.Now()
	a, err := SignPickupToken("test-secret", uuid.New(), now)
	require.NoError(t, err)
	b, err := SignPickupToken("test-secret", uuid.New(), now)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
