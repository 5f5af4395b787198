package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salon-notification-service/internal/content"
	"salon-notification-service/internal/logging"
	"salon-notification-service/internal/models"
)

// MaxBookingsPerRun caps the work of one reminder sweep. Bookings beyond the
// cap degrade to delayed reminders on a later run rather than unbounded work.
const MaxBookingsPerRun = 100

type bookingStore interface {
	GetBookingsInWindow(ctx context.Context, from, to time.Time, status string, limit int) ([]models.Booking, error)
	HasReminderForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type settingsSource interface {
	Snapshot(ctx context.Context) (models.SalonSettings, error)
}

type enqueuer interface {
	Enqueue(ctx context.Context, channel models.NotificationChannel, typ models.NotificationType, recipient, content, subject string, metadata map[string]any) (*models.Notification, error)
}

// Service queues booking reminders. It is meant to run hourly: a booking
// becomes eligible on the run whose current hour (salon timezone) matches the
// booking's hour, one day ahead. Running less often skips hours; running more
// often is safe because of the dedup check.
type Service struct {
	store    bookingStore
	queue    enqueuer
	settings settingsSource
	logger   *logging.Logger
	now      func() time.Time
}

func New(store bookingStore, queue enqueuer, settings settingsSource, logger *logging.Logger) *Service {
	return &Service{
		store:    store,
		queue:    queue,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckAndSendReminders queues reminders for tomorrow's bookings whose hour
// matches the current hour. Per-booking failures are logged and skipped; only
// failures before the booking loop are returned.
func (s *Service) CheckAndSendReminders(ctx context.Context) error {
	s.logger.Info("Running reminder check")

	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !snap.NotificationsEnabled {
		s.logger.Info("Notifications disabled in settings, skipping reminder check")
		return nil
	}

	loc, err := time.LoadLocation(snap.Timezone)
	if err != nil {
		s.logger.Warnf("Invalid timezone %q, falling back to UTC", snap.Timezone)
		loc = time.UTC
	}

	localNow := s.now().In(loc)
	currentHour := localNow.Hour()

	// Day boundaries of tomorrow's calendar date, in absolute time. Booking
	// dates are stored as UTC midnight timestamps.
	tomorrow := localNow.AddDate(0, 0, 1)
	y, m, d := tomorrow.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), time.UTC)

	bookings, err := s.store.GetBookingsInWindow(ctx, start, end, models.BookingStatusBooked, MaxBookingsPerRun)
	if err != nil {
		return fmt.Errorf("failed to query bookings: %w", err)
	}

	s.logger.Infof("Found %d bookings for tomorrow (%s), checking times for hour %d",
		len(bookings), start.Format("2006-01-02"), currentHour)

	for _, booking := range bookings {
		if booking.BookingTime.UTC().Hour() != currentHour {
			continue
		}
		if err := s.sendReminderForBooking(ctx, booking); err != nil {
			s.logger.Errorf("Failed to send reminder for booking %s: %v", booking.ID, err)
		}
	}
	return nil
}

// sendReminderForBooking queues up to two notifications (email and SMS) for
// one booking, skipping customers who opted out and bookings already
// reminded.
func (s *Service) sendReminderForBooking(ctx context.Context, booking models.Booking) error {
	customer := booking.Customer
	if customer == nil {
		return nil
	}
	// nil consent means the customer never set a preference; only an
	// explicit false opts out.
	if customer.NotificationConsent != nil && !*customer.NotificationConsent {
		s.logger.Debugf("Customer opted out of notifications, skipping booking %s", booking.ID)
		return nil
	}

	exists, err := s.store.HasReminderForBooking(ctx, booking.ID)
	if err != nil {
		return fmt.Errorf("failed dedup check: %w", err)
	}
	if exists {
		s.logger.Infof("Reminder already queued for booking %s", booking.ID)
		return nil
	}

	dateStr := booking.BookingDate.UTC().Format("2006-01-02")
	timeStr := booking.BookingTime.UTC().Format("15:04")

	serviceName := booking.StyleName
	if serviceName == "" {
		serviceName = "Service"
	} else if booking.CategoryName != "" {
		serviceName = serviceName + " - " + booking.CategoryName
	}

	metadata := map[string]any{
		models.MetadataBookingID: booking.ID.String(),
		models.MetadataType:      string(models.TypeReminder),
	}

	if customer.Email != "" {
		subject, body, err := content.RenderReminderEmail(customer.FullName, serviceName, dateStr, timeStr)
		if err != nil {
			return err
		}
		if _, err := s.queue.Enqueue(ctx, models.ChannelEmail, models.TypeReminder, customer.Email, body, subject, metadata); err != nil {
			// Enqueue never aborts the caller; the SMS leg still runs.
			s.logger.Errorf("Failed to queue email reminder for booking %s: %v", booking.ID, err)
		}
	}

	if customer.Phone != "" {
		body, err := content.RenderReminderSMS(customer.FullName, dateStr, timeStr)
		if err != nil {
			return err
		}
		if _, err := s.queue.Enqueue(ctx, models.ChannelSMS, models.TypeReminder, customer.Phone, body, "", metadata); err != nil {
			s.logger.Errorf("Failed to queue SMS reminder for booking %s: %v", booking.ID, err)
		}
	}

	return nil
}
