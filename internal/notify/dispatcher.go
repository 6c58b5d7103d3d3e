package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"agrotalent/matching-service/internal/logger"
	"agrotalent/matching-service/internal/match"
	"agrotalent/matching-service/internal/model"
)

// EventMatchFound is the Redis channel the gateway forwards to live clients.
const EventMatchFound = "EVENT_MATCH_FOUND"

// Publisher broadcasts an event payload on a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher publishes with Redis PUBLISH.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.rdb.Publish(ctx, channel, payload).Err()
}

// Dispatcher delivers match notifications. It satisfies match.Dispatcher.
type Dispatcher struct {
	inbox     Inbox
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

var _ match.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher builds a Dispatcher. publisher may be nil, in which case no
// event is published.
func NewDispatcher(inbox Inbox, publisher Publisher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		inbox:     inbox,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Send stores the notification for userID and then publishes EVENT_MATCH_FOUND.
// Only the store is required to succeed; a publish failure is logged.
func (d *Dispatcher) Send(ctx context.Context, userID string, msg match.Message) error {
	n := &model.Notification{
		UserID:    userID,
		Type:      msg.Type,
		Title:     msg.Title,
		Message:   msg.Message,
		CreatedAt: d.now().UTC(),
	}
	if msg.Link != "" {
		n.Link = model.Ptr(msg.Link)
	}
	if err := d.inbox.Insert(ctx, n); err != nil {
		return err
	}

	if d.publisher == nil {
		return nil
	}
	event, err := json.Marshal(map[string]string{
		"type":           EventMatchFound,
		"notificationId": n.ID,
		"userId":         userID,
		"title":          n.Title,
		"link":           msg.Link,
	})
	if err != nil {
		d.logger.Warn("encode EVENT_MATCH_FOUND failed",
			zap.String(logger.FieldUserID, userID),
			zap.Error(err),
		)
		return nil
	}
	if err := d.publisher.Publish(ctx, EventMatchFound, event); err != nil {
		d.logger.Warn("publish EVENT_MATCH_FOUND failed",
			zap.String(logger.FieldUserID, userID),
			zap.Error(err),
		)
	}
	return nil
}
