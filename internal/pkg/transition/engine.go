package transition

import (
	"context"
	"fmt"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/assignment"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/google/uuid"
)

// DB provides booking persistence
type DB interface {
	InTx(ctx context.Context, f func(context.Context) error) error
	LockBooking(ctx context.Context, id int64) (*persistence.Booking, error)
	UpdateBooking(ctx context.Context, b *persistence.Booking) error
	LanguageName(ctx context.Context, id int64) (string, error)
	InsertAudit(ctx context.Context, r *persistence.AuditRecord) error
}

// Translators finds and changes booking translators
type Translators interface {
	FindActive(ctx context.Context, jobID int64) (*persistence.Assignment, error)
	ChangeTranslator(ctx context.Context, current *persistence.Assignment, req assignment.TranslatorRef,
		b *persistence.Booking) (*assignment.Change, error)
}

// Publisher sends events after commit
type Publisher interface {
	Publish(ctx context.Context, events []messages.Event)
}

// UpdateRequest is admin booking update, zero Status, Due or FromLanguageID keep the old value
type UpdateRequest struct {
	Status          status.Status
	Due             time.Time
	FromLanguageID  int64
	TranslatorID    int64
	TranslatorEmail string
	AdminComments   string
	Reference       string
	SessionTime     string
}

// Result of the update
type Result struct {
	Booking       *persistence.Booking
	StatusChanged bool
	// Closed is true if due is in the past, change notifications are skipped then
	Closed  bool
	Changes persistence.ChangeSet
	Events  []messages.Event
}

// Data keeps engine dependencies
type Data struct {
	DB          DB
	Translators Translators
	Publisher   Publisher
	Clock       timing.Clock
	Expiry      timing.ExpiryPolicy
}

// Engine applies admin updates to bookings
type Engine struct {
	data Data
}

// NewEngine creates engine
func NewEngine(data *Data) (*Engine, error) {
	if data.DB == nil {
		return nil, fmt.Errorf("no DB")
	}
	if data.Translators == nil {
		return nil, fmt.Errorf("no translators service")
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
	return &Engine{data: *data}, nil
}

// Update changes translator, due, language and status of the booking in one transaction
func (e *Engine) Update(ctx context.Context, bookingID int64, req *UpdateRequest, actorID int64) (*Result, error) {
	var res *Result
	err := e.data.DB.InTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = e.update(ctx, bookingID, req, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	goapp.Log.Info().Int64("jobID", bookingID).Int64("actorID", actorID).Bool("statusChanged", res.StatusChanged).
		Bool("closed", res.Closed).Interface("changes", res.Changes).Msg("booking updated")
	e.data.Publisher.Publish(ctx, res.Events)
	return res, nil
}

func (e *Engine) update(ctx context.Context, bookingID int64, req *UpdateRequest, actorID int64) (*Result, error) {
	b, err := e.data.DB.LockBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	now := e.data.Clock.Now()
	current, err := e.data.Translators.FindActive(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	tc, err := e.data.Translators.ChangeTranslator(ctx, current,
		assignment.TranslatorRef{ID: req.TranslatorID, Email: req.TranslatorEmail}, b)
	if err != nil {
		return nil, err
	}
	var changes persistence.ChangeSet
	oldTranslatorID, translatorID := int64(0), int64(0)
	if current != nil {
		translatorID = current.UserID
	}
	if tc.Changed {
		changes.Translator = tc.Log
		translatorID = tc.New.UserID
		if tc.Old != nil {
			oldTranslatorID = tc.Old.UserID
		}
	}

	old := b.Clone()
	if !req.Due.IsZero() && !req.Due.Equal(b.Due) {
		changes.Due = &persistence.DueChange{Old: b.Due, New: req.Due}
		b.Due = req.Due
	}
	if req.FromLanguageID != 0 && req.FromLanguageID != b.FromLanguageID {
		lc, err := e.languageChange(ctx, b.FromLanguageID, req.FromLanguageID)
		if err != nil {
			return nil, err
		}
		changes.Language = lc
		b.FromLanguageID = req.FromLanguageID
	}

	d := decide(b, req, &input{translatorChanged: tc.Changed, translatorID: translatorID, now: now, expiry: e.data.Expiry})
	b = d.booking
	if d.changed {
		changes.Status = &persistence.StatusChange{Old: old.Status, New: b.Status}
	}
	if changes.Due != nil && b.Status == status.Pending && b.Due.After(now) {
		b.WillExpireAt = persistence.TimePtr(e.data.Expiry.ExpiryOrDue(b.Due, b.Created))
	}
	b.AdminComments = req.AdminComments
	b.Reference = req.Reference
	b.Updated = now
	if err := e.data.DB.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}

	res := &Result{Booking: b, StatusChanged: d.changed, Changes: changes, Closed: !b.Due.After(now)}
	res.Events = append(res.Events, d.events...)
	if !res.Closed {
		res.Events = append(res.Events, changeEvents(b, &changes, d, oldTranslatorID, translatorID)...)
	}
	if d.changed {
		res.Events = append(res.Events, messages.Event{Kind: messages.StatusChanged, BookingID: b.ID, Status: b.Status})
	}
	if !changes.Empty() {
		if err := e.data.DB.InsertAudit(ctx, &persistence.AuditRecord{ID: uuid.NewString(), ActorID: actorID,
			BookingID: b.ID, Changes: changes, Created: now}); err != nil {
			return nil, fmt.Errorf("can't save audit: %w", err)
		}
	}
	return res, nil
}

func (e *Engine) languageChange(ctx context.Context, from, to int64) (*persistence.LanguageChange, error) {
	res := &persistence.LanguageChange{Old: from, New: to}
	var err error
	if res.OldName, err = e.data.DB.LanguageName(ctx, from); err != nil {
		return nil, fmt.Errorf("can't load language: %w", err)
	}
	if res.NewName, err = e.data.DB.LanguageName(ctx, to); err != nil {
		return nil, fmt.Errorf("can't load language: %w", err)
	}
	return res, nil
}

func changeEvents(b *persistence.Booking, c *persistence.ChangeSet, d *decision, oldTranslatorID, translatorID int64) []messages.Event {
	var res []messages.Event
	if c.Due != nil {
		res = append(res, messages.Event{Kind: messages.ChangedDateMail, BookingID: b.ID, RecipientID: b.UserID,
			TranslatorID: translatorID, OldDue: persistence.TimePtr(c.Due.Old)})
	}
	if c.Translator != nil && !d.translatorAnnounced {
		res = append(res, messages.Event{Kind: messages.ChangedTranslatorMail, BookingID: b.ID, RecipientID: b.UserID,
			TranslatorID: translatorID, OldTranslatorID: oldTranslatorID})
	}
	if c.Language != nil {
		res = append(res, messages.Event{Kind: messages.ChangedLanguageMail, BookingID: b.ID, RecipientID: b.UserID,
			TranslatorID: translatorID, OldLanguageID: c.Language.Old})
	}
	return res
}
