package push

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type FCMNotifier struct {
	client *messaging.Client
	log    *log.Logger
}

// NewFCMNotifier initializes the Firebase Admin SDK from a service account
// key file and returns a notifier backed by the FCM HTTP v1 API.
func NewFCMNotifier(ctx context.Context, credentialsFile string, logger *log.Logger) (*FCMNotifier, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging client: %w", err)
	}

	return &FCMNotifier{client: client, log: logger}, nil
}

func (n *FCMNotifier) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (BatchResult, error) {
	validTokens := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			validTokens = append(validTokens, t)
		}
	}

	if len(validTokens) == 0 {
		n.log.Println("no valid device tokens, skipping push notification")
		return BatchResult{}, nil
	}

	msg := &messaging.MulticastMessage{
		Tokens: validTokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound:            "default",
					ContentAvailable: true,
				},
			},
		},
	}

	resp, err := n.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return BatchResult{}, fmt.Errorf("send multicast: %w", err)
	}

	if resp.FailureCount > 0 {
		for i, r := range resp.Responses {
			if !r.Success {
				n.log.Printf("push delivery failed for token %q: %v", validTokens[i], r.Error)
			}
		}
	}

	return BatchResult{
		SuccessCount: resp.SuccessCount,
		FailureCount: resp.FailureCount,
	}, nil
}

// DisabledNotifier is used when no FCM credentials are configured. Sends are
// dropped with a log line so the chat flow is unaffected.
type DisabledNotifier struct {
	log *log.Logger
}

func NewDisabledNotifier(logger *log.Logger) *DisabledNotifier {
	return &DisabledNotifier{log: logger}
}

func (n *DisabledNotifier) Send(_ context.Context, tokens []string, title, _ string, _ map[string]string) (BatchResult, error) {
	n.log.Printf("push notifications disabled, dropping %q for %d tokens", title, len(tokens))
	return BatchResult{}, nil
}
