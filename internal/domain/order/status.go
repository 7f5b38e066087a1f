package order

// Status is the order lifecycle state.
type Status string

// Order statuses.
const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
	StatusCompleted  Status = "COMPLETED"
)

// orderStatuses is the allowed value set.
var orderStatuses = map[Status]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusShipped:    {},
	StatusDelivered:  {},
	StatusCancelled:  {},
	StatusCompleted:  {},
}

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	_, ok := orderStatuses[s]
	return ok
}

func (s Status) String() string { return string(s) }

// CanTransitionTo consults the central transition table. The table is
// currently permissive (any valid status to any valid status); call sites
// only go through here, so tightening the policy is a one-table change.
func (s Status) CanTransitionTo(to Status) bool {
	return s.Valid() && to.Valid()
}

// PaymentStatus is the payment lifecycle state.
type PaymentStatus string

// Payment statuses.
const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

var paymentStatuses = map[PaymentStatus]struct{}{
	PaymentPending: {},
	PaymentSuccess: {},
	PaymentFailed:  {},
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	_, ok := paymentStatuses[s]
	return ok
}

func (s PaymentStatus) String() string { return string(s) }

// CanTransitionTo mirrors the permissive order-status table for payments.
func (s PaymentStatus) CanTransitionTo(to PaymentStatus) bool {
	return s.Valid() && to.Valid()
}
