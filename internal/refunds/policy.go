package refunds

import (
	"math"
	"time"
)

// ComputeRefundAmount applies the built-in tiers:
//
//	>= 72h before departure: full refund
//	24h to 72h: half, rounded to the nearest currency unit
//	< 24h: nothing
//
// An unknown departure (zero time) refunds nothing. That conservative default
// matters: a booking whose flight reference cannot be resolved must not
// produce a full refund.
func ComputeRefundAmount(totalPaid float64, departure time.Time, now time.Time) float64 {
	if departure.IsZero() {
		return 0
	}

	hoursBeforeDeparture := departure.Sub(now).Hours()

	switch {
	case hoursBeforeDeparture >= 72:
		return totalPaid
	case hoursBeforeDeparture >= 24:
		return math.Round(totalPaid * 0.5)
	default:
		return 0
	}
}

// RefundContext carries the booking facts the policy engine evaluates.
// Departure is always the outbound leg's instant; return-leg timing does not
// participate in tier selection.
type RefundContext struct {
	TotalPaid float64
	Departure time.Time
	BookedAt  time.Time
}

// ComputeRefund evaluates a configured policy against the booking context.
// Rules are checked in declaration order and the first match wins; no match
// means no refund. With no policy configured it falls back to the built-in
// tiers.
func ComputeRefund(rctx RefundContext, policy *RefundPolicy, now time.Time) float64 {
	if policy == nil || len(policy.Rules) == 0 {
		return ComputeRefundAmount(rctx.TotalPaid, rctx.Departure, now)
	}

	if rctx.Departure.IsZero() {
		return 0
	}

	hoursBeforeDeparture := rctx.Departure.Sub(now).Hours()
	hoursSinceBooking := now.Sub(rctx.BookedAt).Hours()

	for _, rule := range policy.Rules {
		if hoursBeforeDeparture < rule.MinHoursBeforeDeparture ||
			hoursBeforeDeparture > rule.MaxHoursBeforeDeparture {
			continue
		}
		if hoursSinceBooking < rule.MinHoursSinceBooking {
			continue
		}

		amount := rctx.TotalPaid*rule.Percent/100 - rule.FixedFee
		if amount < 0 {
			amount = 0
		}
		return amount
	}

	return 0
}

// DefaultPolicy restates the built-in tiers as an editable policy record,
// used by seeding so admins have something to tune. Policy rules keep the
// exact percentage, so the half tier diverges from the ComputeRefundAmount
// fallback on odd totals: the fallback rounds to the nearest unit, the
// policy does not.
func DefaultPolicy() *RefundPolicy {
	return &RefundPolicy{
		Name:    "standard",
		Version: 1,
		Active:  true,
		Rules: RuleList{
			{MinHoursBeforeDeparture: 72, MaxHoursBeforeDeparture: math.MaxFloat64, Percent: 100, Description: "Full refund 72h or more before departure"},
			{MinHoursBeforeDeparture: 24, MaxHoursBeforeDeparture: 72, Percent: 50, Description: "Half refund between 24h and 72h before departure"},
			{MinHoursBeforeDeparture: 0, MaxHoursBeforeDeparture: 24, Percent: 0, Description: "No refund under 24h before departure"},
		},
	}
}
