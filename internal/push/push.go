package push

import "context"

// Payload is the renderable content of one push message.
type Payload struct {
	Title        string
	Body         string
	Data         map[string]string
	HighPriority bool
}

// MulticastResult reports the per-token outcome of a multicast send.
// Invalid tokens are the ones the gateway no longer recognizes; callers
// should prune them from the system-of-record.
type MulticastResult struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
}

// Sender is the push-delivery gateway consumed by the notification pipeline.
type Sender interface {
	SendMulticast(ctx context.Context, tokens []string, p Payload) (*MulticastResult, error)
	SendToTopic(ctx context.Context, topic string, p Payload) error
	SubscribeToTopic(ctx context.Context, tokens []string, topic string) error
	UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error
}
