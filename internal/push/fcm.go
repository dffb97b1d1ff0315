package push

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// InitFirebase connects to FCM using the credentials file named by
// FIREBASE_CREDENTIALS_FILE.
func InitFirebase(ctx context.Context) (*messaging.Client, error) {
	credFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
	if credFile == "" {
		return nil, errors.New("FIREBASE_CREDENTIALS_FILE is not set")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credFile))
	if err != nil {
		return nil, fmt.Errorf("firebase init: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("fcm client: %w", err)
	}
	log.Println("Firebase connected")
	return client, nil
}

// FCMSender implements Sender on Firebase Cloud Messaging. Outbound calls
// share a rate limiter so a backlog drain cannot exceed the FCM quota.
type FCMSender struct {
	client  *messaging.Client
	limiter *rate.Limiter
}

func NewFCMSender(client *messaging.Client, limiter *rate.Limiter) *FCMSender {
	return &FCMSender{client: client, limiter: limiter}
}

func (s *FCMSender) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// SendMulticast sends one payload to all tokens in a single gateway call and
// maps per-token failures. Tokens the gateway reports as unregistered are
// returned as invalid so the caller can prune them.
func (s *FCMSender) SendMulticast(ctx context.Context, tokens []string, p Payload) (*MulticastResult, error) {
	if len(tokens) == 0 {
		return &MulticastResult{}, nil
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data:    p.Data,
		Android: androidConfig(p.HighPriority),
		APNS:    apnsConfig(p.HighPriority),
	}

	br, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("multicast send: %w", err)
	}

	result := &MulticastResult{
		SuccessCount: br.SuccessCount,
		FailureCount: br.FailureCount,
	}
	for i, resp := range br.Responses {
		if resp.Error == nil {
			continue
		}
		if messaging.IsUnregistered(resp.Error) || messaging.IsInvalidArgument(resp.Error) {
			result.InvalidTokens = append(result.InvalidTokens, tokens[i])
		} else {
			log.Printf("Push failed for token %s...: %v", prefix(tokens[i]), resp.Error)
		}
	}
	return result, nil
}

// SendToTopic sends one payload to a gateway topic, which fans out
// server-side.
func (s *FCMSender) SendToTopic(ctx context.Context, topic string, p Payload) error {
	if err := s.wait(ctx); err != nil {
		return err
	}

	msg := &messaging.Message{
		Topic: topic,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data:    p.Data,
		Android: androidConfig(p.HighPriority),
		APNS:    apnsConfig(p.HighPriority),
	}

	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("topic send to %s: %w", topic, err)
	}
	return nil
}

func (s *FCMSender) SubscribeToTopic(ctx context.Context, tokens []string, topic string) error {
	if len(tokens) == 0 {
		return nil
	}
	resp, err := s.client.SubscribeToTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	if resp.FailureCount > 0 {
		log.Printf("Topic subscribe %s: %d of %d tokens failed", topic, resp.FailureCount, len(tokens))
	}
	return nil
}

func (s *FCMSender) UnsubscribeFromTopic(ctx context.Context, tokens []string, topic string) error {
	if len(tokens) == 0 {
		return nil
	}
	resp, err := s.client.UnsubscribeFromTopic(ctx, tokens, topic)
	if err != nil {
		return fmt.Errorf("unsubscribe from %s: %w", topic, err)
	}
	if resp.FailureCount > 0 {
		log.Printf("Topic unsubscribe %s: %d of %d tokens failed", topic, resp.FailureCount, len(tokens))
	}
	return nil
}

func androidConfig(high bool) *messaging.AndroidConfig {
	priority := "normal"
	if high {
		priority = "high"
	}
	return &messaging.AndroidConfig{Priority: priority}
}

func apnsConfig(high bool) *messaging.APNSConfig {
	priority := "5"
	if high {
		priority = "10"
	}
	return &messaging.APNSConfig{
		Headers: map[string]string{"apns-priority": priority},
	}
}

// prefix truncates a token for logging; full tokens are credentials.
func prefix(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12]
}
