package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
)

// DB provides booking persistence
type DB interface {
	InTx(ctx context.Context, f func(context.Context) error) error
	LoadBooking(ctx context.Context, id int64) (*persistence.Booking, error)
	LockBooking(ctx context.Context, id int64) (*persistence.Booking, error)
	InsertBooking(ctx context.Context, b *persistence.Booking) error
	UpdateBooking(ctx context.Context, b *persistence.Booking) error
	ListBookings(ctx context.Context, f *persistence.BookingFilter) ([]*persistence.Booking, int, error)
	ExpiredPending(ctx context.Context, now time.Time) ([]*persistence.Booking, error)
	Assignments(ctx context.Context, jobID int64) ([]*persistence.Assignment, error)
	InsertAssignment(ctx context.Context, a *persistence.Assignment) error
	UpdateAssignment(ctx context.Context, a *persistence.Assignment) error
	DeleteAssignment(ctx context.Context, id int64) error
	LoadUser(ctx context.Context, id int64) (*persistence.User, error)
	IncrementBookingCount(ctx context.Context, userID int64) error
}

// Assigner links translators to bookings
type Assigner interface {
	Assign(ctx context.Context, translatorID, bookingID int64) (*persistence.Booking, []messages.Event, error)
	FindActive(ctx context.Context, jobID int64) (*persistence.Assignment, error)
	CancelCurrent(ctx context.Context, a *persistence.Assignment) error
}

// Publisher sends events after commit
type Publisher interface {
	Publish(ctx context.Context, events []messages.Event)
}

// Data keeps service dependencies
type Data struct {
	DB        DB
	Assigner  Assigner
	Publisher Publisher
	Clock     timing.Clock
	Expiry    timing.ExpiryPolicy
	// ImmediateDelay is added to the creation time to get the due of an immediate booking
	ImmediateDelay time.Duration
	// Location is used to parse due date and time
	Location *time.Location
}

// Service implements booking lifecycle operations
type Service struct {
	data Data
}

// NewService creates lifecycle service
func NewService(data *Data) (*Service, error) {
	if data.DB == nil {
		return nil, fmt.Errorf("no DB")
	}
	if data.Assigner == nil {
		return nil, fmt.Errorf("no assigner")
	}
	if data.Publisher == nil {
		return nil, fmt.Errorf("no publisher")
	}
	if data.Clock == nil {
		return nil, fmt.Errorf("no clock")
	}
	if err := data.Expiry.Validate(); err != nil {
		return nil, fmt.Errorf("wrong expiry policy: %w", err)
	}
	if data.ImmediateDelay <= 0 {
		return nil, fmt.Errorf("wrong immediate delay %v", data.ImmediateDelay)
	}
	res := &Service{data: *data}
	if res.data.Location == nil {
		res.data.Location = time.Local
	}
	return res, nil
}

func (s *Service) now() time.Time {
	return s.data.Clock.Now()
}

func statusEvent(b *persistence.Booking) messages.Event {
	return messages.Event{Kind: messages.StatusChanged, BookingID: b.ID, Status: b.Status}
}
