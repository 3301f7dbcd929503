// Package messaging defines the event publishing port used by the services.
package messaging

import (
	"context"
)

const (
	// CartUpdatedSubject carries a snapshot of the cart after each accepted mutation.
	CartUpdatedSubject = "cart.updated"
	// CartNotificationsSubject carries user-facing cart error messages.
	CartNotificationsSubject = "cart.notifications"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
