package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{
		StatusPending, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusCompleted,
	} {
		assert.True(t, s.Valid(), "status %s", s)
	}

	assert.False(t, Status("SHIPPING").Valid())
	assert.False(t, Status("pending").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatusCanTransitionTo(t *testing.T) {
	// The table is permissive between known values, including corrections
	// like SHIPPED back to PROCESSING.
	assert.True(t, StatusPending.CanTransitionTo(StatusProcessing))
	assert.True(t, StatusShipped.CanTransitionTo(StatusProcessing))
	assert.True(t, StatusCancelled.CanTransitionTo(StatusPending))

	assert.False(t, StatusPending.CanTransitionTo(Status("LOST")))
	assert.False(t, Status("LOST").CanTransitionTo(StatusPending))
}

func TestPaymentStatusValid(t *testing.T) {
	for _, s := range []PaymentStatus{PaymentPending, PaymentSuccess, PaymentFailed} {
		assert.True(t, s.Valid(), "status %s", s)
	}

	assert.False(t, PaymentStatus("PAID").Valid())
	assert.False(t, PaymentStatus("success").Valid())
}

func TestPaymentStatusCanTransitionTo(t *testing.T) {
	assert.True(t, PaymentPending.CanTransitionTo(PaymentSuccess))
	assert.True(t, PaymentFailed.CanTransitionTo(PaymentFailed))
	assert.False(t, PaymentPending.CanTransitionTo(PaymentStatus("REFUNDED")))
}
