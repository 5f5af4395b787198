package db

import (
	"context"
	"fmt"
	"time"

	"salon-notification-service/internal/models"
)

// GetBookingsInWindow returns bookings whose date falls inside [from, to] with
// the given status, joined with their customer, style and category. Bounded by
// limit; bookings beyond the cap are picked up by a later run.
func (d *DB) GetBookingsInWindow(ctx context.Context, from, to time.Time, status string, limit int) ([]models.Booking, error) {
	query := `
        SELECT b.id, b.booking_date, b.booking_time, b.status,
               COALESCE(s.name, ''), COALESCE(cat.name, ''),
               c.full_name, COALESCE(c.email, ''), COALESCE(c.phone, ''),
               c.notification_consent
        FROM bookings b
        JOIN customers c ON c.id = b.customer_id
        LEFT JOIN styles s ON s.id = b.style_id
        LEFT JOIN categories cat ON cat.id = s.category_id
        WHERE b.booking_date >= $1 AND b.booking_date <= $2
          AND b.status = $3
        ORDER BY b.booking_time ASC
        LIMIT $4`
	rows, err := d.Pool.Query(ctx, query, from, to, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings in window: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		var cust models.Customer
		err := rows.Scan(
			&b.ID, &b.BookingDate, &b.BookingTime, &b.Status,
			&b.StyleName, &b.CategoryName,
			&cust.FullName, &cust.Email, &cust.Phone, &cust.NotificationConsent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		b.Customer = &cust
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
