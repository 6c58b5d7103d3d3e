package notify

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"agrotalent/matching-service/internal/db"
	"agrotalent/matching-service/internal/model"
)

// SQLiteInbox stores notifications in the local SQLite database.
type SQLiteInbox struct {
	db *sql.DB
}

var _ Inbox = (*SQLiteInbox)(nil)

func NewSQLiteInbox(conn *sql.DB) *SQLiteInbox {
	return &SQLiteInbox{db: conn}
}

func (s *SQLiteInbox) Insert(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = newID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, link, read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.Link, n.Read, db.FormatSQLiteTime(n.CreatedAt),
	)
	if err != nil {
		return insertErr(err)
	}
	return nil
}

func (s *SQLiteInbox) List(ctx context.Context, userID string, opts ListOptions) ([]model.Notification, error) {
	query := `SELECT id, user_id, type, title, message, link, read, created_at
		FROM notifications WHERE user_id = ?`
	if opts.UnreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, opts.limit())
	if err != nil {
		return nil, fmt.Errorf("listNotifications: %w", err)
	}
	defer rows.Close()

	out := make([]model.Notification, 0)
	for rows.Next() {
		var (
			n       model.Notification
			created string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.Read, &created); err != nil {
			return nil, fmt.Errorf("listNotifications scan: %w", err)
		}
		if n.CreatedAt, err = db.ParseSQLiteTime(created); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLiteInbox) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	var (
		query = `UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`
		args  = []any{userID}
	)
	if len(ids) > 0 {
		query += ` AND id IN (?` + strings.Repeat(", ?", len(ids)-1) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("markRead: %w", err)
	}
	return res.RowsAffected()
}
