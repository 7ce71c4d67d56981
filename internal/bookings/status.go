package bookings

// Status is the booking lifecycle state.
//
//	pending -> confirmed -> {cancelled | refund_pending}
//	refund_pending -> {refund_approved | confirmed (refund rejected)}
//	refund_approved -> refunded
//
// cancelled and refunded are terminal. Any non-terminal state may be
// cancelled directly.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusCancelled      Status = "cancelled"
	StatusRefundPending  Status = "refund_pending"
	StatusRefundApproved Status = "refund_approved"
	StatusRefunded       Status = "refunded"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled,
		StatusRefundPending, StatusRefundApproved, StatusRefunded:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusRefunded
}

func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed
	case StatusConfirmed:
		return next == StatusRefundPending
	case StatusRefundPending:
		return next == StatusRefundApproved || next == StatusConfirmed
	case StatusRefundApproved:
		return next == StatusRefunded
	}
	return false
}

// RefundStatus shadows the live refund request's state on the booking row so
// list views need no join. The refund request ledger stays authoritative.
type RefundStatus string

const (
	RefundStatusNone      RefundStatus = "none"
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusApproved  RefundStatus = "approved"
	RefundStatusRejected  RefundStatus = "rejected"
	RefundStatusProcessed RefundStatus = "processed"
)
