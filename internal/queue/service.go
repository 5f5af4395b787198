package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"salon-notification-service/internal/logging"
	"salon-notification-service/internal/models"
)

// DefaultBatchLimit bounds one sweep when the caller does not pass a limit.
const DefaultBatchLimit = 20

// MaxAttempts is how many delivery attempts a notification gets before FAILED.
const MaxAttempts = 3

type notificationStore interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	GetPendingNotifications(ctx context.Context, limit int) ([]models.Notification, error)
	ClaimNotification(ctx context.Context, id uuid.UUID) (bool, error)
	MarkNotificationSent(ctx context.Context, id uuid.UUID) error
	MarkNotificationFailed(ctx context.Context, id uuid.UUID, retryCount int, status models.NotificationStatus, lastError string) error
}

type settingsSource interface {
	Snapshot(ctx context.Context) (models.SalonSettings, error)
}

type emailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EventSink receives a dispatch outcome per processed record. Optional.
type EventSink interface {
	Publish(Event)
}

// Event describes one dispatch outcome.
type Event struct {
	ID         uuid.UUID                  `json:"id"`
	Channel    models.NotificationChannel `json:"channel"`
	Recipient  string                     `json:"recipient"`
	Status     models.NotificationStatus  `json:"status"`
	RetryCount int                        `json:"retry_count"`
	Error      string                     `json:"error,omitempty"`
}

// Result aggregates one sweep. Callers needing per-record detail query the
// store directly.
type Result struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

// Service owns the notification queue: enqueueing new records with approval
// gating and sweeping eligible ones out to the channel senders.
type Service struct {
	store    notificationStore
	settings settingsSource
	email    emailSender
	sms      smsSender
	events   EventSink
	logger   *logging.Logger
}

func New(store notificationStore, settings settingsSource, email emailSender, sms smsSender, logger *logging.Logger) *Service {
	return &Service{
		store:    store,
		settings: settings,
		email:    email,
		sms:      sms,
		logger:   logger,
	}
}

// SetEventSink attaches an optional sink for dispatch outcomes.
func (s *Service) SetEventSink(sink EventSink) {
	s.events = sink
}

// Enqueue persists a new notification. Initial status follows the approval
// gate: WAITING_APPROVAL when approval is required, PENDING otherwise.
//
// The error is returned so tests and the API can see the outcome, but callers
// in a larger workflow are expected to log it and carry on; a lost
// notification must never abort the workflow that triggered it.
func (s *Service) Enqueue(ctx context.Context, channel models.NotificationChannel, typ models.NotificationType, recipient, content, subject string, metadata map[string]any) (*models.Notification, error) {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		s.logger.Errorf("Enqueue: failed to load settings: %v", err)
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	status := models.StatusPending
	if snap.RequireApproval {
		status = models.StatusWaitingApproval
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	n := models.Notification{
		Channel:   channel,
		Type:      typ,
		Recipient: recipient,
		Subject:   subject,
		Content:   content,
		Metadata:  metadata,
		Status:    status,
	}
	created, err := s.store.CreateNotification(ctx, n)
	if err != nil {
		s.logger.Errorf("Enqueue: failed to create %s notification for %s: %v", channel, recipient, err)
		return nil, err
	}

	s.logger.Infof("Queued %s notification (%s) for %s (status: %s)", channel, typ, recipient, status)
	return &created, nil
}

// ProcessQueue runs one dispatch sweep: it selects up to limit eligible
// records oldest first and attempts each sequentially. One record's failure
// never aborts the rest of the batch. limit <= 0 means DefaultBatchLimit.
func (s *Service) ProcessQueue(ctx context.Context, limit int) Result {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	pending, err := s.store.GetPendingNotifications(ctx, limit)
	if err != nil {
		s.logger.Errorf("ProcessQueue: failed to select pending notifications: %v", err)
		return Result{}
	}
	if len(pending) == 0 {
		return Result{}
	}

	s.logger.Infof("Processing %d notifications", len(pending))

	var res Result
	for _, n := range pending {
		// Claim before sending so an overlapping sweep cannot dispatch
		// the same record.
		claimed, err := s.store.ClaimNotification(ctx, n.ID)
		if err != nil {
			s.logger.Errorf("ProcessQueue: failed to claim notification %s: %v", n.ID, err)
			res.Errors++
			continue
		}
		if !claimed {
			s.logger.Debugf("Notification %s already claimed, skipping", n.ID)
			continue
		}

		if err := s.dispatch(ctx, n); err != nil {
			s.logger.Errorf("Failed to process notification %s: %v", n.ID, err)
			s.recordFailure(ctx, n, err)
			res.Errors++
			continue
		}
		res.Processed++
	}
	return res
}

// dispatch sends one claimed record and finalizes it as SENT.
func (s *Service) dispatch(ctx context.Context, n models.Notification) error {
	switch n.Channel {
	case models.ChannelEmail:
		if n.Subject == "" {
			return fmt.Errorf("email subject missing")
		}
		if err := s.email.SendEmail(ctx, n.Recipient, n.Subject, n.Content); err != nil {
			return err
		}
	case models.ChannelSMS:
		if err := s.sms.SendSMS(ctx, n.Recipient, n.Content); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown channel %q", n.Channel)
	}

	if err := s.store.MarkNotificationSent(ctx, n.ID); err != nil {
		return err
	}
	s.publish(Event{
		ID: n.ID, Channel: n.Channel, Recipient: n.Recipient,
		Status: models.StatusSent, RetryCount: n.RetryCount,
	})
	return nil
}

// recordFailure bumps the retry count and moves the record back to PENDING,
// or to FAILED once attempts are exhausted.
func (s *Service) recordFailure(ctx context.Context, n models.Notification, cause error) {
	retryCount := n.RetryCount + 1
	status := models.StatusPending
	if retryCount >= MaxAttempts {
		status = models.StatusFailed
	}
	if err := s.store.MarkNotificationFailed(ctx, n.ID, retryCount, status, cause.Error()); err != nil {
		s.logger.Errorf("Failed to record failure for notification %s: %v", n.ID, err)
		return
	}
	s.publish(Event{
		ID: n.ID, Channel: n.Channel, Recipient: n.Recipient,
		Status: status, RetryCount: retryCount, Error: cause.Error(),
	})
}

func (s *Service) publish(e Event) {
	if s.events != nil {
		s.events.Publish(e)
	}
}
