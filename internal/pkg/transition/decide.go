package transition

import (
	"strings"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
)

// input keeps the state the status decision depends on
type input struct {
	translatorChanged bool
	translatorID      int64
	now               time.Time
	expiry            timing.ExpiryPolicy
}

// decision is a result of the status handler
type decision struct {
	changed bool
	booking *persistence.Booking
	events  []messages.Event
	// translator change is already announced by the handler
	translatorAnnounced bool
}

type handlerFunc func(b *persistence.Booking, req *UpdateRequest, in *input) *decision

var handlers = map[status.Status]handlerFunc{
	status.TimedOut:        fromTimedOut,
	status.Completed:       fromCompleted,
	status.Started:         fromStarted,
	status.Pending:         fromPending,
	status.WithdrawAfter24: fromWithdrawAfter24,
	status.Assigned:        fromAssigned,
}

// decide computes the status change of the booking, b is not modified
func decide(b *persistence.Booking, req *UpdateRequest, in *input) *decision {
	if req.Status == 0 || req.Status == b.Status {
		return noChange(b)
	}
	h, ok := handlers[b.Status]
	if !ok {
		return noChange(b)
	}
	return h(b.Clone(), req, in)
}

func noChange(b *persistence.Booking) *decision {
	return &decision{booking: b.Clone()}
}

func hasComment(req *UpdateRequest) bool {
	return strings.TrimSpace(req.AdminComments) != ""
}

func changed(b *persistence.Booking, to status.Status, events ...messages.Event) *decision {
	b.Status = to
	return &decision{changed: true, booking: b, events: events}
}

func fromTimedOut(b *persistence.Booking, req *UpdateRequest, in *input) *decision {
	if req.Status == status.Pending {
		b.Created = in.now
		b.EmailSent, b.EmailSentVirpal = false, false
		b.Cust16HourEmail, b.Cust48HourEmail = false, false
		b.WillExpireAt = persistence.TimePtr(in.expiry.ExpiryOrDue(b.Due, in.now))
		return changed(b, req.Status,
			messages.Event{Kind: messages.ReopenedMail, BookingID: b.ID, RecipientID: b.UserID},
			messages.Event{Kind: messages.SuitableJobPush, BookingID: b.ID})
	}
	if in.translatorChanged {
		return changed(b, req.Status,
			messages.Event{Kind: messages.AcceptedMail, BookingID: b.ID, RecipientID: b.UserID, TranslatorID: in.translatorID})
	}
	return noChange(b)
}

func fromCompleted(b *persistence.Booking, req *UpdateRequest, in *input) *decision {
	if req.Status != status.TimedOut || !hasComment(req) {
		return noChange(b)
	}
	return changed(b, req.Status)
}

func fromStarted(b *persistence.Booking, req *UpdateRequest, in *input) *decision {
	if !hasComment(req) {
		return noChange(b)
	}
	if req.Status != status.Completed {
		return changed(b, req.Status)
	}
	st := strings.TrimSpace(req.SessionTime)
	if st == "" {
		return noChange(b)
	}
	b.EndAt = persistence.TimePtr(in.now)
	b.SessionTime = st
	res := changed(b, req.Status,
		messages.Event{Kind: messages.SessionEndedMail, BookingID: b.ID, Audience: messages.AudienceCustomer, SessionTime: st})
	if in.translatorID != 0 {
		res.events = append(res.events, messages.Event{Kind: messages.SessionEndedMail, BookingID: b.ID,
			Audience: messages.AudienceTranslator, TranslatorID: in.translatorID, SessionTime: st})
	}
	return res
}

func fromPending(b *persistence.Booking, req *UpdateRequest, in *input) *decision {
	if req.Status == status.Assigned {
		if !in.translatorChanged {
			return noChange(b)
		}
		res := changed(b, req.Status,
			messages.Event{Kind: messages.AcceptedMail, BookingID: b.ID, RecipientID: b.UserID, TranslatorID: in.translatorID},
			messages.Event{Kind: messages.AcceptedPush, BookingID: b.ID, RecipientID: b.UserID, TranslatorID: in.translatorID},
			messages.Event{Kind: messages.NewTranslatorMail, BookingID: b.ID, TranslatorID: in.translatorID},
			messages.Event{Kind: messages.SessionReminder, BookingID: b.ID, TranslatorID: in.translatorID})
		res.translatorAnnounced = true
		return res
	}
	if req.Status == status.TimedOut && !hasComment(req) {
		return noChange(b)
	}
	return changed(b, req.Status,
		messages.Event{Kind: messages.PendingCancelledMail, BookingID: b.ID, RecipientID: b.UserID})
}

func fromWithdrawAfter24(b *persistence.Booking, req *UpdateRequest, in *input) *decision {
	if req.Status != status.TimedOut || !hasComment(req) {
		return noChange(b)
	}
	return changed(b, req.Status)
}

func fromAssigned(b *persistence.Booking, req *UpdateRequest, in *input) *decision {
	switch req.Status {
	case status.TimedOut:
		if !hasComment(req) {
			return noChange(b)
		}
		return changed(b, req.Status)
	case status.WithdrawBefore24, status.WithdrawAfter24:
		b.WithdrawAt = persistence.TimePtr(in.now)
		res := changed(b, req.Status,
			messages.Event{Kind: messages.WithdrawnCustomerMail, BookingID: b.ID, RecipientID: b.UserID})
		if in.translatorID != 0 {
			res.events = append(res.events, messages.Event{Kind: messages.TranslatorCancelledMail, BookingID: b.ID,
				TranslatorID: in.translatorID})
		}
		return res
	}
	return noChange(b)
}
