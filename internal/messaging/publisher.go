package messaging

import (
	"context"
)

// Publisher defines the interface for publishing notifications to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// Publish sends data on subject. msgID lets the broker drop duplicates within its window.
	Publish(ctx context.Context, subject string, data []byte, msgID string) error
	// Close closes the connection
	Close()
}
