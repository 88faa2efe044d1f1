package queue

import "context"

// Client sends messages to a queue backend. Delivery is at-least-once with no
// ordering guarantee across distinct decks; consumers must tolerate re-delivery.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
