package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"agrotalent/matching-service/internal/model"
)

// PostgresInbox writes to the marketplace notifications table.
type PostgresInbox struct {
	pool *pgxpool.Pool
}

var _ Inbox = (*PostgresInbox)(nil)

func NewPostgresInbox(pool *pgxpool.Pool) *PostgresInbox {
	return &PostgresInbox{pool: pool}
}

func (s *PostgresInbox) Insert(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = newID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, link, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Link, n.Read, n.CreatedAt,
	)
	if err != nil {
		return insertErr(err)
	}
	return nil
}

func (s *PostgresInbox) List(ctx context.Context, userID string, opts ListOptions) ([]model.Notification, error) {
	query := `SELECT id::text, user_id::text, type, title, message, link, read, created_at
		FROM notifications WHERE user_id = $1`
	if opts.UnreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $2`

	rows, err := s.pool.Query(ctx, query, userID, opts.limit())
	if err != nil {
		return nil, fmt.Errorf("listNotifications: %w", err)
	}
	defer rows.Close()

	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("listNotifications scan: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresInbox) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	var (
		query = `UPDATE notifications SET read = true WHERE user_id = $1 AND read = false`
		args  = []any{userID}
	)
	if len(ids) > 0 {
		query += ` AND id::text = ANY($2)`
		args = append(args, ids)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("markRead: %w", err)
	}
	return tag.RowsAffected(), nil
}
