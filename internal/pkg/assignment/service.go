package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
)

// DB provides translator relations persistence
type DB interface {
	InTx(ctx context.Context, f func(context.Context) error) error
	LockBooking(ctx context.Context, id int64) (*persistence.Booking, error)
	UpdateBooking(ctx context.Context, b *persistence.Booking) error
	Assignments(ctx context.Context, jobID int64) ([]*persistence.Assignment, error)
	InsertAssignment(ctx context.Context, a *persistence.Assignment) error
	UpdateAssignment(ctx context.Context, a *persistence.Assignment) error
	TranslatorBookedAt(ctx context.Context, translatorID int64, due time.Time, excludeJobID int64) (bool, error)
	LoadUser(ctx context.Context, id int64) (*persistence.User, error)
	UserIDByEmail(ctx context.Context, email string) (int64, error)
}

// Service manages translator and booking relations
type Service struct {
	db    DB
	clock timing.Clock
}

// TranslatorRef is a requested translator, Email takes precedence over ID
type TranslatorRef struct {
	ID    int64
	Email string
}

// Change is a result of ChangeTranslator
type Change struct {
	Changed bool
	Old     *persistence.Assignment
	New     *persistence.Assignment
	Log     *persistence.TranslatorChange
}

// NewService creates assignment service
func NewService(db DB, clock timing.Clock) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("no DB")
	}
	if clock == nil {
		return nil, fmt.Errorf("no clock")
	}
	return &Service{db: db, clock: clock}, nil
}

// SelectActive returns the current relation or the last completed one
func SelectActive(as []*persistence.Assignment) *persistence.Assignment {
	var completed *persistence.Assignment
	for _, a := range as {
		if a.CancelAt != nil {
			continue
		}
		if a.CompletedAt == nil {
			return a
		}
		if completed == nil || completed.CompletedAt.Before(*a.CompletedAt) {
			completed = a
		}
	}
	return completed
}

// FindActive returns the current relation of the booking, nil if there is none
func (s *Service) FindActive(ctx context.Context, jobID int64) (*persistence.Assignment, error) {
	as, err := s.db.Assignments(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("can't load assignments: %w", err)
	}
	return SelectActive(as), nil
}

// IsAlreadyBooked checks if the translator has another assigned or started booking at the same due time
func (s *Service) IsAlreadyBooked(ctx context.Context, translatorID int64, due time.Time, jobID int64) (bool, error) {
	return s.db.TranslatorBookedAt(ctx, translatorID, due, jobID)
}

// Assign links the translator to a pending booking and marks it assigned
func (s *Service) Assign(ctx context.Context, translatorID, bookingID int64) (*persistence.Booking, []messages.Event, error) {
	var res *persistence.Booking
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		b, err := s.db.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != status.Pending {
			if b.Status == status.Assigned || b.Status == status.Started {
				return utils.NewUserErrorf(utils.ErrConflict,
					"Denna tolkning %dmin %s har redan accepterats av annan tolk. Du har inte fått denna tolkning",
					b.Duration, timing.DueText(b.Due, nil))
			}
			return utils.NewUserErrorf(utils.ErrInvalidState, "booking is %s", b.Status)
		}
		current, err := s.FindActive(ctx, b.ID)
		if err != nil {
			return err
		}
		if current.Active() {
			return utils.NewUserErrorf(utils.ErrConflict,
				"Denna tolkning %dmin %s har redan accepterats av annan tolk. Du har inte fått denna tolkning",
				b.Duration, timing.DueText(b.Due, nil))
		}
		booked, err := s.IsAlreadyBooked(ctx, translatorID, b.Due, b.ID)
		if err != nil {
			return fmt.Errorf("can't check translator bookings: %w", err)
		}
		if booked {
			return utils.NewUserErrorf(utils.ErrConflict,
				"Du har redan en bokning den tiden %s. Du har inte fått denna tolkning", timing.DueText(b.Due, nil))
		}
		if err := s.db.InsertAssignment(ctx, &persistence.Assignment{UserID: translatorID, JobID: b.ID,
			Created: s.clock.Now()}); err != nil {
			return fmt.Errorf("can't insert assignment: %w", err)
		}
		b.Status = status.Assigned
		if err := s.db.UpdateBooking(ctx, b); err != nil {
			return err
		}
		res = b
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	goapp.Log.Info().Int64("jobID", bookingID).Int64("translatorID", translatorID).Msg("assigned")
	return res, []messages.Event{
		{Kind: messages.AcceptedMail, BookingID: res.ID, RecipientID: res.UserID, TranslatorID: translatorID},
		{Kind: messages.AcceptedPush, BookingID: res.ID, RecipientID: res.UserID, TranslatorID: translatorID},
		{Kind: messages.StatusChanged, BookingID: res.ID, Status: res.Status},
	}, nil
}

// CancelCurrent marks the relation cancelled, the row is kept
func (s *Service) CancelCurrent(ctx context.Context, a *persistence.Assignment) error {
	if a == nil {
		return nil
	}
	a.CancelAt = persistence.TimePtr(s.clock.Now())
	if err := s.db.UpdateAssignment(ctx, a); err != nil {
		return fmt.Errorf("can't cancel assignment: %w", err)
	}
	return nil
}

// ChangeTranslator replaces or sets the booking translator, must be called inside a transaction.
// A completed relation counts as the current translator but is not cancelled.
func (s *Service) ChangeTranslator(ctx context.Context, current *persistence.Assignment, req TranslatorRef,
	b *persistence.Booking) (*Change, error) {
	id := req.ID
	if req.Email != "" {
		var err error
		id, err = s.db.UserIDByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("can't find translator by email: %w", err)
		}
	}
	if current != nil && ((id != 0 && id != current.UserID) || req.Email != "") {
		old, err := s.db.LoadUser(ctx, current.UserID)
		if err != nil {
			return nil, fmt.Errorf("can't load current translator: %w", err)
		}
		if current.Active() {
			if err := s.CancelCurrent(ctx, current); err != nil {
				return nil, err
			}
		}
		res, err := s.create(ctx, id, b)
		if err != nil {
			return nil, err
		}
		res.Old = current
		res.Log.Old = old.Email
		return res, nil
	}
	if current == nil && (id != 0 || req.Email != "") {
		return s.create(ctx, id, b)
	}
	return &Change{}, nil
}

func (s *Service) create(ctx context.Context, translatorID int64, b *persistence.Booking) (*Change, error) {
	u, err := s.db.LoadUser(ctx, translatorID)
	if err != nil {
		return nil, fmt.Errorf("can't load translator: %w", err)
	}
	if u.Role != persistence.RoleTranslator {
		return nil, utils.NewUserErrorf(utils.ErrInvalidInput, "user %d is not a translator", translatorID)
	}
	a := &persistence.Assignment{UserID: translatorID, JobID: b.ID, Created: s.clock.Now()}
	if err := s.db.InsertAssignment(ctx, a); err != nil {
		return nil, fmt.Errorf("can't insert assignment: %w", err)
	}
	goapp.Log.Info().Int64("jobID", b.ID).Int64("translatorID", translatorID).Msg("translator changed")
	return &Change{Changed: true, New: a, Log: &persistence.TranslatorChange{New: u.Email}}, nil
}
