package events

// Topics emitted by the checkout and order services.
const (
	TopicOrderCreated     = "order.created"
	TopicOrderCancelled   = "order.cancelled"
	TopicCheckoutRejected = "checkout.rejected"
)
