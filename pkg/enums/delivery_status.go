package enums

import "fmt"

// DeliveryStatus tracks order fulfillment.
type DeliveryStatus string

const (
	DeliveryStatusOrderPlaced DeliveryStatus = "order_placed"
	DeliveryStatusProcessing  DeliveryStatus = "processing"
	DeliveryStatusShipped     DeliveryStatus = "shipped"
	DeliveryStatusDelivered   DeliveryStatus = "delivered"
	DeliveryStatusCancelled   DeliveryStatus = "cancelled"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusOrderPlaced,
	DeliveryStatusProcessing,
	DeliveryStatusShipped,
	DeliveryStatusDelivered,
	DeliveryStatusCancelled,
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
