package enums

import "fmt"

// PaymentStatus tracks the lifecycle of an order's payment.
type PaymentStatus string

const (
	// PaymentStatusPending marks an online payment awaiting gateway confirmation.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPaid is terminal: a paid order never reverts.
	PaymentStatusPaid   PaymentStatus = "paid"
	PaymentStatusFailed PaymentStatus = "failed"
	// PaymentStatusCODAccepted marks cash-on-delivery orders, unpaid but committed.
	PaymentStatusCODAccepted PaymentStatus = "cod_accepted"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusFailed,
	PaymentStatusCODAccepted,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
