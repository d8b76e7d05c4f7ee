package notification

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicroot/platform/internal/shared/errors"
	"github.com/civicroot/platform/internal/shared/types"
)

// PostgresRepository provides database operations for notifications
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new notification repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const insertQuery = `
	INSERT INTO inbox.notifications (
		id, recipient_id, recipient_type, type, title, message, data,
		is_read, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Create inserts one notification
func (r *PostgresRepository) Create(ctx context.Context, n *Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return errors.Wrap(err, "failed to encode notification data")
	}

	_, err = r.pool.Exec(ctx, insertQuery,
		n.ID, n.RecipientID, n.RecipientType, n.Type, n.Title, n.Message, data,
		n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create notification")
	}

	return nil
}

// CreateMany inserts a batch of notifications in one transaction
func (r *PostgresRepository) CreateMany(ctx context.Context, ns []*Notification) error {
	if len(ns) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	for _, n := range ns {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return errors.Wrap(err, "failed to encode notification data")
		}

		_, err = tx.Exec(ctx, insertQuery,
			n.ID, n.RecipientID, n.RecipientType, n.Type, n.Title, n.Message, data,
			n.IsRead, n.CreatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "failed to create notification")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// GetByRecipient returns notifications for a recipient, newest first
func (r *PostgresRepository) GetByRecipient(ctx context.Context, recipientID types.ID, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}

	query := `
		SELECT id, recipient_id, recipient_type, type, title, message, data,
			is_read, read_at, created_at
		FROM inbox.notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return r.queryNotifications(ctx, query, recipientID, limit)
}

// GetUnreadByRecipient returns unread notifications, newest first
func (r *PostgresRepository) GetUnreadByRecipient(ctx context.Context, recipientID types.ID) ([]Notification, error) {
	query := `
		SELECT id, recipient_id, recipient_type, type, title, message, data,
			is_read, read_at, created_at
		FROM inbox.notifications
		WHERE recipient_id = $1 AND is_read = FALSE
		ORDER BY created_at DESC`

	return r.queryNotifications(ctx, query, recipientID)
}

// GetUnreadCount returns the number of unread notifications
func (r *PostgresRepository) GetUnreadCount(ctx context.Context, recipientID types.ID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM inbox.notifications WHERE recipient_id = $1 AND is_read = FALSE`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread notifications")
	}
	return count, nil
}

// MarkAsRead marks one notification as read and returns it
func (r *PostgresRepository) MarkAsRead(ctx context.Context, id types.ID) (*Notification, error) {
	query := `
		UPDATE inbox.notifications
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1
		RETURNING id, recipient_id, recipient_type, type, title, message, data,
			is_read, read_at, created_at`

	n, err := scanNotification(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("notification", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to mark notification as read")
	}

	return n, nil
}

// MarkAllAsRead marks every unread notification for the recipient
func (r *PostgresRepository) MarkAllAsRead(ctx context.Context, recipientID types.ID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE inbox.notifications SET is_read = TRUE, read_at = NOW()
		 WHERE recipient_id = $1 AND is_read = FALSE`,
		recipientID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to mark notifications as read")
	}
	return nil
}

// Delete removes a notification
func (r *PostgresRepository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM inbox.notifications WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete notification")
	}
	if result.RowsAffected() == 0 {
		return errors.NotFound("notification", id.String())
	}
	return nil
}

func (r *PostgresRepository) queryNotifications(ctx context.Context, query string, args ...interface{}) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan notification")
		}
		notifications = append(notifications, *n)
	}

	return notifications, nil
}

func scanNotification(row pgx.Row) (*Notification, error) {
	n := &Notification{}
	var data []byte

	err := row.Scan(
		&n.ID, &n.RecipientID, &n.RecipientType, &n.Type, &n.Title, &n.Message, &data,
		&n.IsRead, &n.ReadAt, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, err
		}
	}

	return n, nil
}
