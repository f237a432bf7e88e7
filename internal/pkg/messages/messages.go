package messages

import (
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	amessages "github.com/airenas/async-api/pkg/messages"
)

const (
	st = "BOOKING/"
	// Notify queue name
	Notify = st + "Notify"
	// StatusChange queue name
	StatusChange = st + "StatusChange"
)

// Kind of outbound event
type Kind string

const (
	// SuitableJobPush broadcasts a pending booking to suitable translators
	SuitableJobPush Kind = "suitable_job_push"
	// SuitableJobSMS sends the pending booking to potential translators by sms
	SuitableJobSMS Kind = "suitable_job_sms"
	// ExpiredPush informs the customer about expired booking
	ExpiredPush Kind = "expired_push"
	// JobCreatedMail confirms a received booking to the customer
	JobCreatedMail Kind = "job_created_mail"
	// AcceptedMail confirms translator acceptance to the customer
	AcceptedMail Kind = "accepted_mail"
	// AcceptedPush informs the customer about translator acceptance
	AcceptedPush Kind = "accepted_push"
	// NewTranslatorMail informs the assigned translator
	NewTranslatorMail Kind = "new_translator_mail"
	// SessionReminder schedules session start reminders for both parties
	SessionReminder Kind = "session_reminder"
	// ReopenedMail informs the customer about reopened timed out booking
	ReopenedMail Kind = "reopened_mail"
	// PendingCancelledMail informs the customer that no translator was found
	PendingCancelledMail Kind = "pending_cancelled_mail"
	// WithdrawnCustomerMail informs the customer about withdrawn booking
	WithdrawnCustomerMail Kind = "withdrawn_customer_mail"
	// TranslatorCancelledMail informs the translator about cancelled booking
	TranslatorCancelledMail Kind = "translator_cancelled_mail"
	// SessionEndedMail sends session summary, Audience selects customer or translator
	SessionEndedMail Kind = "session_ended_mail"
	// ChangedDateMail informs both parties about due change
	ChangedDateMail Kind = "changed_date_mail"
	// ChangedTranslatorMail informs customer, old and new translators
	ChangedTranslatorMail Kind = "changed_translator_mail"
	// ChangedLanguageMail informs both parties about language change
	ChangedLanguageMail Kind = "changed_language_mail"
	// CustomerCancelledPush informs the translator that the customer cancelled
	CustomerCancelledPush Kind = "customer_cancelled_push"
	// TranslatorCancelledPush informs the customer that the translator cancelled
	TranslatorCancelledPush Kind = "translator_cancelled_push"
	// StatusChanged feeds dashboards
	StatusChanged Kind = "status_changed"
)

// Audience of the event
type Audience string

const (
	// AudienceCustomer - customer
	AudienceCustomer Audience = "customer"
	// AudienceTranslator - translator
	AudienceTranslator Audience = "translator"
)

// Event is an outbound notification request produced by booking operations
type Event struct {
	Kind            Kind          `json:"kind"`
	BookingID       int64         `json:"bookingID"`
	RecipientID     int64         `json:"recipientID,omitempty"`
	TranslatorID    int64         `json:"translatorID,omitempty"`
	OldTranslatorID int64         `json:"oldTranslatorID,omitempty"`
	ExcludeUserID   int64         `json:"excludeUserID,omitempty"`
	Audience        Audience      `json:"audience,omitempty"`
	OldDue          *time.Time    `json:"oldDue,omitempty"`
	OldLanguageID   int64         `json:"oldLanguageID,omitempty"`
	SessionTime     string        `json:"sessionTime,omitempty"`
	Status          status.Status `json:"status,omitempty"`
}

// NotifyMessage carries an event through the notify queue
type NotifyMessage struct {
	amessages.QueueMessage
	Event Event `json:"event"`
}

// StatusMessage carries a booking status change through the feed queue
type StatusMessage struct {
	amessages.QueueMessage
	BookingID int64         `json:"bookingID"`
	Status    status.Status `json:"status"`
}

// NewStatusMessageFrom creates a feed message from the event
func NewStatusMessageFrom(e *Event) *StatusMessage {
	return &StatusMessage{BookingID: e.BookingID, Status: e.Status}
}

// BookingKey returns the booking of the event
func (m *NotifyMessage) BookingKey() int64 {
	return m.Event.BookingID
}

// BookingKey returns the booking of the status change
func (m *StatusMessage) BookingKey() int64 {
	return m.BookingID
}
