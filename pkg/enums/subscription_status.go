package enums

import "fmt"

// SubscriptionStatus is the access-gating view of a subscription's billing
// state. It is intentionally coarser than the payment processor's own enum:
// every processor status other than active collapses to inactive, except a
// failed invoice payment which is tracked as past_due.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
)

var validSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusInactive,
	SubscriptionStatusPastDue,
}

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SubscriptionStatus) IsValid() bool {
	for _, candidate := range validSubscriptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubscriptionStatus converts raw input into a SubscriptionStatus.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	for _, candidate := range validSubscriptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription status %q", value)
}

// SubscriptionStatusFromProcessor maps a processor-side status string to the
// gating status: "active" stays active, everything else is inactive.
func SubscriptionStatusFromProcessor(processorStatus string) SubscriptionStatus {
	if processorStatus == string(SubscriptionStatusActive) {
		return SubscriptionStatusActive
	}
	return SubscriptionStatusInactive
}
