package events

import "strings"

// Topic constants for order status transitions.
const (
	TopicOrderCompleted     = "order.completed"
	TopicOrderDenied        = "order.denied"
	TopicOrderRefunded      = "order.refunded"
	TopicOrderReversed      = "order.reversed"
	TopicOrderPending       = "order.pending"
	TopicOrderStatusChanged = "order.status_changed"
)

// Sources of a status write.
const (
	SourceWebhook = "webhook"
	SourceAdmin   = "admin"
	SourceSystem  = "system"
)

// TopicForStatus maps a payment status to its topic. Statuses outside the
// known set share the generic status-changed topic.
func TopicForStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed":
		return TopicOrderCompleted
	case "denied":
		return TopicOrderDenied
	case "refunded":
		return TopicOrderRefunded
	case "reversed":
		return TopicOrderReversed
	case "pending":
		return TopicOrderPending
	default:
		return TopicOrderStatusChanged
	}
}
