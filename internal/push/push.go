package push

import "context"

// BatchResult reports per-token delivery outcomes for one multicast send.
type BatchResult struct {
	SuccessCount int
	FailureCount int
}

// Notifier delivers push notifications to a set of device tokens. Failures
// are reported in the result, never as a reason to abort the caller's flow.
type Notifier interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (BatchResult, error)
}
