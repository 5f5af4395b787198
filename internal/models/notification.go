package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationChannel is the delivery medium for a notification.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "EMAIL"
	ChannelSMS   NotificationChannel = "SMS"
)

// NotificationType describes the purpose of a notification. Dispatch does not
// branch on it; it is stored for filtering and audit.
type NotificationType string

const (
	TypeReminder     NotificationType = "REMINDER"
	TypeAnnouncement NotificationType = "ANNOUNCEMENT"
)

// NotificationStatus is the dispatch state of a notification.
//
// WAITING_APPROVAL is only ever promoted to PENDING by an external approval
// action. SENDING marks a record claimed by an in-flight sweep. SENT and
// FAILED are terminal.
type NotificationStatus string

const (
	StatusWaitingApproval NotificationStatus = "WAITING_APPROVAL"
	StatusPending         NotificationStatus = "PENDING"
	StatusSending         NotificationStatus = "SENDING"
	StatusSent            NotificationStatus = "SENT"
	StatusFailed          NotificationStatus = "FAILED"
)

// Metadata keys used by the reminder dedup lookup.
const (
	MetadataBookingID = "bookingId"
	MetadataType      = "type"
)

// Notification is one durably tracked outbound message.
type Notification struct {
	ID         uuid.UUID           `json:"id"`
	Channel    NotificationChannel `json:"channel"`
	Type       NotificationType    `json:"type"`
	Recipient  string              `json:"recipient"`
	Subject    string              `json:"subject,omitempty"`
	Content    string              `json:"content"`
	Metadata   map[string]any      `json:"metadata"`
	Status     NotificationStatus  `json:"status"`
	RetryCount int                 `json:"retry_count"`
	LastError  string              `json:"last_error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	SentAt     *time.Time          `json:"sent_at,omitempty"`
	ClaimedAt  *time.Time          `json:"claimed_at,omitempty"`
}
