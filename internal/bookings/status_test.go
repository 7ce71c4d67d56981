package bookings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())

	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.False(t, StatusRefundPending.IsTerminal())
	assert.False(t, StatusRefundApproved.IsTerminal())
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusRefundPending, false},

		{StatusConfirmed, StatusRefundPending, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusRefunded, false},

		{StatusRefundPending, StatusRefundApproved, true},
		{StatusRefundPending, StatusConfirmed, true}, // rejection path
		{StatusRefundPending, StatusCancelled, true},
		{StatusRefundPending, StatusRefunded, false},

		{StatusRefundApproved, StatusRefunded, true},
		{StatusRefundApproved, StatusConfirmed, false},

		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusRefunded, StatusCancelled, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusPending.IsValid())
	assert.True(t, StatusRefundApproved.IsValid())
	assert.False(t, Status("unknown").IsValid())
	assert.False(t, Status("").IsValid())
}
