package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatusBooked is the only booking status eligible for reminders.
const BookingStatusBooked = "booked"

// Booking is a salon appointment. This service only reads bookings; it never
// mutates them.
type Booking struct {
	ID           uuid.UUID `json:"id"`
	BookingDate  time.Time `json:"booking_date"`
	BookingTime  time.Time `json:"booking_time"`
	Status       string    `json:"status"`
	StyleName    string    `json:"style_name,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	Customer     *Customer `json:"customer,omitempty"`
}

// Customer holds the contact details joined onto a booking.
//
// NotificationConsent is a tri-state flag: nil means the customer never set a
// preference and is treated as consenting. Only an explicit false opts out.
type Customer struct {
	FullName            string `json:"full_name"`
	Email               string `json:"email,omitempty"`
	Phone               string `json:"phone,omitempty"`
	NotificationConsent *bool  `json:"notification_consent,omitempty"`
}
