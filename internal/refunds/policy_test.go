package refunds

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeRefundAmount(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		totalPaid float64
		departure time.Time
		expected  float64
	}{
		{
			name:      "full refund at 80 hours before departure",
			totalPaid: 200,
			departure: now.Add(80 * time.Hour),
			expected:  200,
		},
		{
			name:      "full refund exactly at 72 hours",
			totalPaid: 200,
			departure: now.Add(72 * time.Hour),
			expected:  200,
		},
		{
			name:      "half refund at 48 hours",
			totalPaid: 200,
			departure: now.Add(48 * time.Hour),
			expected:  100,
		},
		{
			name:      "half refund rounds to nearest unit",
			totalPaid: 99,
			departure: now.Add(48 * time.Hour),
			expected:  50,
		},
		{
			name:      "half refund exactly at 24 hours",
			totalPaid: 200,
			departure: now.Add(24 * time.Hour),
			expected:  100,
		},
		{
			name:      "no refund at 10 hours",
			totalPaid: 200,
			departure: now.Add(10 * time.Hour),
			expected:  0,
		},
		{
			name:      "no refund after departure",
			totalPaid: 200,
			departure: now.Add(-2 * time.Hour),
			expected:  0,
		},
		{
			name:      "unknown departure refunds nothing",
			totalPaid: 200,
			departure: time.Time{},
			expected:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount := ComputeRefundAmount(tt.totalPaid, tt.departure, now)
			assert.Equal(t, tt.expected, amount)
		})
	}
}

func TestComputeRefundFallsBackWithoutPolicy(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	rctx := RefundContext{
		TotalPaid: 150,
		Departure: now.Add(100 * time.Hour),
		BookedAt:  now.Add(-24 * time.Hour),
	}

	assert.Equal(t, 150.0, ComputeRefund(rctx, nil, now))
	assert.Equal(t, 150.0, ComputeRefund(rctx, &RefundPolicy{}, now))
}

func TestComputeRefundFirstMatchWins(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := &RefundPolicy{
		Rules: RuleList{
			{MinHoursBeforeDeparture: 48, MaxHoursBeforeDeparture: math.MaxFloat64, Percent: 90},
			// Overlaps the first rule; must never be selected above 48h
			{MinHoursBeforeDeparture: 0, MaxHoursBeforeDeparture: math.MaxFloat64, Percent: 10},
		},
	}

	rctx := RefundContext{TotalPaid: 100, Departure: now.Add(60 * time.Hour)}
	assert.Equal(t, 90.0, ComputeRefund(rctx, policy, now))

	rctx.Departure = now.Add(12 * time.Hour)
	assert.Equal(t, 10.0, ComputeRefund(rctx, policy, now))
}

func TestComputeRefundFixedFeeFloorsAtZero(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := &RefundPolicy{
		Rules: RuleList{
			{MinHoursBeforeDeparture: 0, MaxHoursBeforeDeparture: math.MaxFloat64, Percent: 10, FixedFee: 25},
		},
	}

	// 10% of 100 is 10, minus a 25 fee would be negative
	rctx := RefundContext{TotalPaid: 100, Departure: now.Add(10 * time.Hour)}
	assert.Equal(t, 0.0, ComputeRefund(rctx, policy, now))

	rctx.TotalPaid = 1000
	assert.Equal(t, 75.0, ComputeRefund(rctx, policy, now))
}

func TestComputeRefundMinHoursSinceBooking(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := &RefundPolicy{
		Rules: RuleList{
			{MinHoursBeforeDeparture: 0, MaxHoursBeforeDeparture: math.MaxFloat64, MinHoursSinceBooking: 48, Percent: 100},
		},
	}

	rctx := RefundContext{
		TotalPaid: 100,
		Departure: now.Add(100 * time.Hour),
		BookedAt:  now.Add(-1 * time.Hour),
	}
	assert.Equal(t, 0.0, ComputeRefund(rctx, policy, now))

	rctx.BookedAt = now.Add(-72 * time.Hour)
	assert.Equal(t, 100.0, ComputeRefund(rctx, policy, now))
}

func TestComputeRefundUnknownDepartureWithPolicy(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := DefaultPolicy()

	rctx := RefundContext{TotalPaid: 500}
	assert.Equal(t, 0.0, ComputeRefund(rctx, policy, now))
}

func TestDefaultPolicyMatchesBuiltInTiers(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := DefaultPolicy()

	rctx := RefundContext{TotalPaid: 200, Departure: now.Add(80 * time.Hour)}
	assert.Equal(t, 200.0, ComputeRefund(rctx, policy, now))

	rctx.Departure = now.Add(48 * time.Hour)
	assert.Equal(t, 100.0, ComputeRefund(rctx, policy, now))

	rctx.Departure = now.Add(10 * time.Hour)
	assert.Equal(t, 0.0, ComputeRefund(rctx, policy, now))
}

// Policy rules keep the exact half-tier percentage while the built-in
// fallback rounds, so odd totals price differently depending on which path
// computed them.
func TestDefaultPolicyHalfTierSkipsRounding(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	departure := now.Add(48 * time.Hour)

	assert.Equal(t, 50.0, ComputeRefundAmount(99, departure, now))

	rctx := RefundContext{TotalPaid: 99, Departure: departure}
	assert.Equal(t, 49.5, ComputeRefund(rctx, DefaultPolicy(), now))
}
