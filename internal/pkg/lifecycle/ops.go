package lifecycle

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

const withdrawLimit = 24 * time.Hour

// Accept assigns the translator to the pending booking
func (s *Service) Accept(ctx context.Context, bookingID int64, translator *persistence.User) (*persistence.Booking, error) {
	if translator.Role != persistence.RoleTranslator {
		return nil, utils.NewUserError(utils.ErrForbidden, "only translators can accept bookings")
	}
	b, events, err := s.data.Assigner.Assign(ctx, translator.ID, bookingID)
	if err != nil {
		return nil, err
	}
	s.data.Publisher.Publish(ctx, events)
	return b, nil
}

// Cancel withdraws the booking by the customer or gives it back by the translator
func (s *Service) Cancel(ctx context.Context, bookingID int64, actor *persistence.User) (*persistence.Booking, error) {
	var res *persistence.Booking
	var events []messages.Event
	err := s.data.DB.InTx(ctx, func(ctx context.Context) error {
		b, err := s.data.DB.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != status.Pending && b.Status != status.Assigned {
			return utils.NewUserErrorf(utils.ErrInvalidState, "can't cancel %s booking", b.Status)
		}
		current, err := s.data.Assigner.FindActive(ctx, b.ID)
		if err != nil {
			return err
		}
		if !current.Active() {
			current = nil
		}
		if err := canManage(b, current, actor); err != nil {
			return err
		}
		now := s.now()
		switch {
		case b.Due.Sub(now) >= withdrawLimit:
			b.Status = status.WithdrawBefore24
		case actor.Role == persistence.RoleTranslator:
			events, err = s.giveBack(ctx, b, current, now)
			if err != nil {
				return err
			}
		default:
			b.Status = status.WithdrawAfter24
			b.WithdrawAt = persistence.TimePtr(now)
			if current != nil {
				events = append(events, messages.Event{Kind: messages.CustomerCancelledPush, BookingID: b.ID,
					RecipientID: current.UserID})
			}
			if err := s.data.DB.IncrementBookingCount(ctx, b.UserID); err != nil {
				return fmt.Errorf("can't increment bookings count: %w", err)
			}
		}
		b.Updated = now
		if err := s.data.DB.UpdateBooking(ctx, b); err != nil {
			return err
		}
		res = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	goapp.Log.Info().Int64("jobID", bookingID).Int64("actorID", actor.ID).Str("status", res.Status.String()).Msg("cancelled")
	s.data.Publisher.Publish(ctx, append(events, statusEvent(res)))
	return res, nil
}

// canManage allows admins, the booking customer and the current translator
func canManage(b *persistence.Booking, current *persistence.Assignment, actor *persistence.User) error {
	switch {
	case actor.Role.Admin():
		return nil
	case actor.Role == persistence.RoleCustomer && actor.ID == b.UserID:
		return nil
	case actor.Role == persistence.RoleTranslator && current != nil && current.UserID == actor.ID:
		return nil
	}
	return utils.NewUserError(utils.ErrForbidden, "not your booking")
}

// giveBack reverts the booking to pending and looks for a new translator
func (s *Service) giveBack(ctx context.Context, b *persistence.Booking, current *persistence.Assignment,
	now time.Time) ([]messages.Event, error) {
	b.Status = status.Pending
	b.Created = now
	b.WillExpireAt = persistence.TimePtr(s.data.Expiry.ExpiryOrDue(b.Due, now))
	if err := s.data.DB.DeleteAssignment(ctx, current.ID); err != nil {
		return nil, fmt.Errorf("can't delete assignment: %w", err)
	}
	return []messages.Event{
		{Kind: messages.TranslatorCancelledPush, BookingID: b.ID, RecipientID: b.UserID},
		{Kind: messages.SuitableJobPush, BookingID: b.ID, ExcludeUserID: current.UserID},
	}, nil
}

// EndSession completes the started booking, returns false if the booking was not started
func (s *Service) EndSession(ctx context.Context, bookingID int64, actor *persistence.User) (*persistence.Booking, bool, error) {
	var res *persistence.Booking
	var events []messages.Event
	err := s.data.DB.InTx(ctx, func(ctx context.Context) error {
		b, err := s.data.DB.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		current, err := s.data.Assigner.FindActive(ctx, b.ID)
		if err != nil {
			return err
		}
		if err := canManage(b, current, actor); err != nil {
			return err
		}
		res = b
		if b.Status != status.Started {
			return nil
		}
		now := s.now()
		b.EndAt = persistence.TimePtr(now)
		b.Status = status.Completed
		b.SessionTime = timing.SessionInterval(b.Due, now)
		b.Updated = now
		if err := s.data.DB.UpdateBooking(ctx, b); err != nil {
			return err
		}
		events = []messages.Event{{Kind: messages.SessionEndedMail, BookingID: b.ID, RecipientID: b.UserID,
			Audience: messages.AudienceCustomer, SessionTime: b.SessionTime}}
		if current.Active() {
			current.CompletedAt = persistence.TimePtr(now)
			current.CompletedBy = actor.ID
			if err := s.data.DB.UpdateAssignment(ctx, current); err != nil {
				return fmt.Errorf("can't complete assignment: %w", err)
			}
			events = append(events, messages.Event{Kind: messages.SessionEndedMail, BookingID: b.ID,
				TranslatorID: current.UserID, Audience: messages.AudienceTranslator, SessionTime: b.SessionTime})
		}
		events = append(events, statusEvent(b))
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if len(events) == 0 {
		goapp.Log.Info().Int64("jobID", bookingID).Str("status", res.Status.String()).Msg("not started, skip end")
		return res, false, nil
	}
	goapp.Log.Info().Int64("jobID", bookingID).Str("session", res.SessionTime).Msg("session ended")
	s.data.Publisher.Publish(ctx, events)
	return res, true, nil
}

// MarkCustomerNoShow closes the booking the customer did not show up for, nobody is notified
func (s *Service) MarkCustomerNoShow(ctx context.Context, bookingID int64) (*persistence.Booking, error) {
	var res *persistence.Booking
	err := s.data.DB.InTx(ctx, func(ctx context.Context) error {
		b, err := s.data.DB.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != status.Assigned && b.Status != status.Started {
			return utils.NewUserErrorf(utils.ErrInvalidState, "booking is %s", b.Status)
		}
		now := s.now()
		b.EndAt = persistence.TimePtr(now)
		b.Status = status.NotCarriedOutCustomer
		b.Updated = now
		current, err := s.data.Assigner.FindActive(ctx, b.ID)
		if err != nil {
			return err
		}
		if current.Active() {
			current.CompletedAt = persistence.TimePtr(now)
			current.CompletedBy = current.UserID
			if err := s.data.DB.UpdateAssignment(ctx, current); err != nil {
				return fmt.Errorf("can't complete assignment: %w", err)
			}
		}
		if err := s.data.DB.UpdateBooking(ctx, b); err != nil {
			return err
		}
		res = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.data.Publisher.Publish(ctx, []messages.Event{statusEvent(res)})
	return res, nil
}

// Reopen makes the booking pending again, a timed out booking is copied to a new one
func (s *Service) Reopen(ctx context.Context, bookingID, actorID int64) (*persistence.Booking, error) {
	var res *persistence.Booking
	err := s.data.DB.InTx(ctx, func(ctx context.Context) error {
		b, err := s.data.DB.LockBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		now := s.now()
		exp := persistence.TimePtr(s.data.Expiry.ExpiryOrDue(b.Due, now))
		if b.Status != status.TimedOut {
			b.Status = status.Pending
			b.Created = now
			b.WillExpireAt = exp
			b.Updated = now
			if err := s.data.DB.UpdateBooking(ctx, b); err != nil {
				return err
			}
			res = b
		} else {
			nb := b.Clone()
			nb.ID, nb.Version = 0, 0
			nb.Status = status.Pending
			nb.Created, nb.Updated = now, now
			nb.WillExpireAt = exp
			nb.EndAt, nb.WithdrawAt, nb.SessionTime = nil, nil, ""
			nb.EmailSent, nb.EmailSentVirpal = false, false
			nb.Cust16HourEmail, nb.Cust48HourEmail = false, false
			nb.AdminComments = fmt.Sprintf("This booking is a reopening of booking #%d", b.ID)
			if err := s.data.DB.InsertBooking(ctx, nb); err != nil {
				return fmt.Errorf("can't save booking: %w", err)
			}
			res = nb
		}
		as, err := s.data.DB.Assignments(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("can't load assignments: %w", err)
		}
		for _, a := range as {
			if a.CancelAt == nil {
				if err := s.data.Assigner.CancelCurrent(ctx, a); err != nil {
					return err
				}
			}
		}
		if err := s.data.DB.InsertAssignment(ctx, &persistence.Assignment{UserID: actorID, JobID: b.ID, Created: now,
			CancelAt: persistence.TimePtr(now)}); err != nil {
			return fmt.Errorf("can't insert assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	goapp.Log.Info().Int64("jobID", bookingID).Int64("newJobID", res.ID).Int64("actorID", actorID).Msg("reopened")
	s.data.Publisher.Publish(ctx, []messages.Event{{Kind: messages.SuitableJobPush, BookingID: res.ID}, statusEvent(res)})
	return res, nil
}

// ResendNotifications broadcasts the booking push to suitable translators again
func (s *Service) ResendNotifications(ctx context.Context, bookingID int64) error {
	return s.resend(ctx, bookingID, messages.SuitableJobPush)
}

// ResendSMS sends the booking sms to suitable translators again
func (s *Service) ResendSMS(ctx context.Context, bookingID int64) error {
	return s.resend(ctx, bookingID, messages.SuitableJobSMS)
}

func (s *Service) resend(ctx context.Context, bookingID int64, kind messages.Kind) error {
	b, err := s.data.DB.LoadBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	goapp.Log.Info().Int64("jobID", b.ID).Str("kind", string(kind)).Msg("resend")
	s.data.Publisher.Publish(ctx, []messages.Event{{Kind: kind, BookingID: b.ID}})
	return nil
}
