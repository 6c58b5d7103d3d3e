// Package notify delivers match notifications: an in-app row in the
// notifications table plus a best-effort Redis event for live clients.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"agrotalent/matching-service/internal/db"
	"agrotalent/matching-service/internal/model"
)

// ErrUnknownRecipient is returned when the target profile does not exist.
var ErrUnknownRecipient = errors.New("unknown recipient")

// DefaultListLimit caps Inbox.List when no limit is given.
const DefaultListLimit = 20

// ListOptions narrows Inbox.List.
type ListOptions struct {
	UnreadOnly bool
	Limit      int
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Inbox stores in-app notifications.
type Inbox interface {
	Insert(ctx context.Context, n *model.Notification) error
	// List returns a user's notifications, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]model.Notification, error)
	// MarkRead flags the given notifications as read, or all of the user's
	// notifications when ids is empty. It returns the number of rows changed.
	MarkRead(ctx context.Context, userID string, ids []string) (int64, error)
}

// newID returns a fresh notification id.
func newID() string {
	return uuid.NewString()
}

// insertErr maps a failed insert to the package sentinels.
func insertErr(err error) error {
	mapped := db.MapError(err)
	if errors.Is(mapped, db.ErrForeignKey) {
		return fmt.Errorf("%w: %w", ErrUnknownRecipient, mapped)
	}
	return fmt.Errorf("insert notification: %w", mapped)
}
