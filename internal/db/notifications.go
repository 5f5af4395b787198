package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"salon-notification-service/internal/models"
)

// MaxAttempts bounds how many delivery attempts a notification gets before it
// is marked FAILED.
const MaxAttempts = 3

// claimExpiry is how long a SENDING claim is honored before the record is
// considered abandoned and re-selectable.
const claimExpiry = 5 * time.Minute

const notificationColumns = `
        id, channel, type, recipient, subject, content, metadata, status,
        retry_count, last_error, created_at, sent_at, claimed_at`

func scanNotification(row pgx.Row) (models.Notification, error) {
	var n models.Notification
	err := row.Scan(
		&n.ID, &n.Channel, &n.Type, &n.Recipient, &n.Subject, &n.Content,
		&n.Metadata, &n.Status, &n.RetryCount, &n.LastError, &n.CreatedAt,
		&n.SentAt, &n.ClaimedAt,
	)
	return n, err
}

// CreateNotification inserts a new notification and returns it with the
// generated id and created_at filled in.
func (d *DB) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Metadata == nil {
		n.Metadata = map[string]any{}
	}

	query := `
        INSERT INTO notifications (
            id, channel, type, recipient, subject, content, metadata, status, retry_count
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING created_at`
	err := d.Pool.QueryRow(ctx, query,
		n.ID, n.Channel, n.Type, n.Recipient, n.Subject, n.Content,
		n.Metadata, n.Status, n.RetryCount,
	).Scan(&n.CreatedAt)
	if err != nil {
		return models.Notification{}, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

// GetPendingNotifications returns dispatch-eligible notifications oldest
// first, bounded by limit. Eligible means PENDING with attempts left, or a
// SENDING claim old enough to be considered abandoned.
func (d *DB) GetPendingNotifications(ctx context.Context, limit int) ([]models.Notification, error) {
	query := `
        SELECT ` + notificationColumns + `
        FROM notifications
        WHERE (status = $1 OR (status = $2 AND claimed_at < $3))
          AND retry_count < $4
        ORDER BY created_at ASC
        LIMIT $5`
	rows, err := d.Pool.Query(ctx, query,
		models.StatusPending, models.StatusSending, time.Now().Add(-claimExpiry),
		MaxAttempts, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// ClaimNotification conditionally transitions a record to SENDING so two
// overlapping sweeps cannot both dispatch it. It reports whether this caller
// won the claim.
func (d *DB) ClaimNotification(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
        UPDATE notifications
        SET status = $1, claimed_at = $2
        WHERE id = $3
          AND (status = $4 OR (status = $1 AND claimed_at < $5))`
	result, err := d.Pool.Exec(ctx, query,
		models.StatusSending, time.Now(), id,
		models.StatusPending, time.Now().Add(-claimExpiry),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim notification %s: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

// MarkNotificationSent finalizes a successful dispatch.
func (d *DB) MarkNotificationSent(ctx context.Context, id uuid.UUID) error {
	query := `
        UPDATE notifications
        SET status = $1, sent_at = $2, claimed_at = NULL, last_error = ''
        WHERE id = $3`
	result, err := d.Pool.Exec(ctx, query, models.StatusSent, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s sent: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no notification updated for id %s", id)
	}
	return nil
}

// MarkNotificationFailed records a failed attempt: the bumped retry count, the
// resulting status (PENDING while attempts remain, FAILED otherwise) and the
// error detail.
func (d *DB) MarkNotificationFailed(ctx context.Context, id uuid.UUID, retryCount int, status models.NotificationStatus, lastError string) error {
	query := `
        UPDATE notifications
        SET status = $1, retry_count = $2, last_error = $3, claimed_at = NULL
        WHERE id = $4`
	result, err := d.Pool.Exec(ctx, query, status, retryCount, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification %s failed: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no notification updated for id %s", id)
	}
	return nil
}

// ApproveNotification promotes a WAITING_APPROVAL record to PENDING. It
// reports whether the record was in an approvable state.
func (d *DB) ApproveNotification(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
        UPDATE notifications
        SET status = $1
        WHERE id = $2 AND status = $3`
	result, err := d.Pool.Exec(ctx, query, models.StatusPending, id, models.StatusWaitingApproval)
	if err != nil {
		return false, fmt.Errorf("failed to approve notification %s: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

// GetNotificationByID retrieves a single notification.
func (d *DB) GetNotificationByID(ctx context.Context, id uuid.UUID) (models.Notification, error) {
	query := `
        SELECT ` + notificationColumns + `
        FROM notifications
        WHERE id = $1`
	n, err := scanNotification(d.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Notification{}, ErrNotFound
		}
		return models.Notification{}, fmt.Errorf("failed to get notification %s: %w", id, err)
	}
	return n, nil
}

// GetNotifications lists notifications newest first.
func (d *DB) GetNotifications(ctx context.Context, limit, offset int) ([]models.Notification, error) {
	query := `
        SELECT ` + notificationColumns + `
        FROM notifications
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`
	rows, err := d.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// HasReminderForBooking reports whether any notification already carries the
// {bookingId, type: REMINDER} metadata pair for the given booking. This is
// the dedup check that makes repeated reminder runs safe.
func (d *DB) HasReminderForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM notifications
            WHERE metadata ->> $1 = $2
              AND metadata ->> $3 = $4
        )`
	var exists bool
	err := d.Pool.QueryRow(ctx, query,
		models.MetadataBookingID, bookingID.String(),
		models.MetadataType, string(models.TypeReminder),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check reminder for booking %s: %w", bookingID, err)
	}
	return exists, nil
}
