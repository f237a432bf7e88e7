package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/assignment"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/mail"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/push"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"go.uber.org/multierr"
)

// DB provides data for notifications
type DB interface {
	LoadBooking(ctx context.Context, id int64) (*persistence.Booking, error)
	LoadUser(ctx context.Context, id int64) (*persistence.User, error)
	Assignments(ctx context.Context, jobID int64) ([]*persistence.Assignment, error)
	EligibleTranslators(ctx context.Context, b *persistence.Booking, excludeUserID int64) ([]*persistence.User, error)
	LanguageName(ctx context.Context, id int64) (string, error)
}

// Mailer sends templated emails
type Mailer interface {
	Send(ctx context.Context, to, name, subject, key string, data *mail.Data) error
}

// PushProvider sends push notifications
type PushProvider interface {
	SendBatch(ctx context.Context, recipients []*persistence.User, p *push.Payload, deliverAfter *time.Time) error
}

// SMSProvider sends sms
type SMSProvider interface {
	Send(ctx context.Context, from, to, body string) error
}

// Data keeps dispatcher dependencies
type Data struct {
	DB       DB
	Mailer   Mailer
	Push     PushProvider
	SMS      SMSProvider
	Clock    timing.Clock
	Night    *timing.NightWindow
	SMSFrom  string
	Location *time.Location
}

// Dispatcher maps booking events to mail, push and sms messages
type Dispatcher struct {
	data Data
}

// NewDispatcher creates dispatcher
func NewDispatcher(data *Data) (*Dispatcher, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	return &Dispatcher{data: *data}, nil
}

func validate(data *Data) error {
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.Mailer == nil {
		return fmt.Errorf("no mailer")
	}
	if data.Push == nil {
		return fmt.Errorf("no push provider")
	}
	if data.SMS == nil {
		return fmt.Errorf("no sms provider")
	}
	if data.Clock == nil {
		return fmt.Errorf("no clock")
	}
	if data.Night == nil {
		return fmt.Errorf("no night window")
	}
	return nil
}

// ShouldSendPush returns false if the user disabled notifications
func ShouldSendPush(u *persistence.User) bool {
	return !u.Meta.NotGetNotification
}

// ShouldDelay returns true if it is night and the user does not want night notifications
func (d *Dispatcher) ShouldDelay(u *persistence.User) bool {
	return u.Meta.NotGetNighttime && d.data.Night.IsNight(d.data.Clock.Now())
}

// NotifySuitableTranslators sends booking push to suitable translators, night time pushes are delayed
func (d *Dispatcher) NotifySuitableTranslators(ctx context.Context, b *persistence.Booking, excludeUserID int64) error {
	users, err := d.data.DB.EligibleTranslators(ctx, b, excludeUserID)
	if err != nil {
		return fmt.Errorf("can't load suitable translators: %w", err)
	}
	var now, delayed []*persistence.User
	for _, u := range users {
		if !ShouldSendPush(u) {
			continue
		}
		if d.ShouldDelay(u) {
			delayed = append(delayed, u)
		} else {
			now = append(now, u)
		}
	}
	lang, err := d.language(ctx, b.FromLanguageID)
	if err != nil {
		return err
	}
	p := &push.Payload{Type: push.TypeSuitableJob, JobID: b.ID, Immediate: b.Immediate,
		Text: suitableJobText(b, lang, d.due(b.Due))}
	goapp.Log.Info().Int64("jobID", b.ID).Int("now", len(now)).Int("delayed", len(delayed)).Msg("push suitable job")
	err = d.sendPush(ctx, now, p, nil)
	at := d.data.Night.NextBusinessTime(d.data.Clock.Now())
	return multierr.Append(err, d.sendPush(ctx, delayed, p, &at))
}

// NotifyExpired sends expired booking push to the user
func (d *Dispatcher) NotifyExpired(ctx context.Context, b *persistence.Booking, u *persistence.User) error {
	lang, err := d.language(ctx, b.FromLanguageID)
	if err != nil {
		return err
	}
	return d.pushToUser(ctx, u, &push.Payload{Type: push.TypeJobExpired, JobID: b.ID,
		Text: expiredText(b, lang, d.due(b.Due))})
}

// NotifyTranslatorsBySMS sends booking sms to every suitable translator, returns number of recipients
func (d *Dispatcher) NotifyTranslatorsBySMS(ctx context.Context, b *persistence.Booking) (int, error) {
	users, err := d.data.DB.EligibleTranslators(ctx, b, 0)
	if err != nil {
		return 0, fmt.Errorf("can't load potential translators: %w", err)
	}
	town := b.Town
	if town == "" {
		customer, err := d.data.DB.LoadUser(ctx, b.UserID)
		if err != nil {
			return 0, fmt.Errorf("can't load customer: %w", err)
		}
		town = customer.Meta.City
	}
	text := smsText(b, town, timing.ConvertToHoursMins(b.Duration))
	var errs error
	for _, u := range users {
		if err := d.data.SMS.Send(ctx, d.data.SMSFrom, u.Mobile, text); err != nil {
			err = utils.NewDeliveryError("sms", b.ID, []string{u.Email}, err)
			goapp.Log.Error().Err(err).Int64("jobID", b.ID).Str("to", u.Email).Msg("sms failed")
			errs = multierr.Append(errs, err)
			continue
		}
		goapp.Log.Info().Int64("jobID", b.ID).Str("to", u.Email).Msg("sms sent")
	}
	return len(users), errs
}

// Dispatch sends messages for every event, a failed event does not stop the others
func (d *Dispatcher) Dispatch(ctx context.Context, events []messages.Event) error {
	var res error
	for i := range events {
		e := &events[i]
		if err := d.handle(ctx, e); err != nil {
			goapp.Log.Error().Err(err).Str("kind", string(e.Kind)).Int64("jobID", e.BookingID).Msg("notification failed")
			res = multierr.Append(res, err)
		}
	}
	return res
}

type jobInfo struct {
	b        *persistence.Booking
	customer *persistence.User
	lang     string
}

func (d *Dispatcher) handle(ctx context.Context, e *messages.Event) error {
	if e.Kind == messages.StatusChanged {
		return nil
	}
	ji, err := d.load(ctx, e.BookingID)
	if err != nil {
		return err
	}
	b := ji.b
	switch e.Kind {
	case messages.SuitableJobPush:
		return d.NotifySuitableTranslators(ctx, b, e.ExcludeUserID)
	case messages.SuitableJobSMS:
		_, err := d.NotifyTranslatorsBySMS(ctx, b)
		return err
	case messages.ExpiredPush:
		return d.NotifyExpired(ctx, b, ji.customer)
	case messages.JobCreatedMail:
		return d.mailCustomer(ctx, ji, subjectCreated(b.ID), mail.TmplJobCreated, nil)
	case messages.AcceptedMail:
		return d.mailCustomer(ctx, ji, subjectAccepted(b.ID), mail.TmplJobAccepted, func(md *mail.Data) error {
			return d.withTranslatorName(ctx, md, e.TranslatorID)
		})
	case messages.AcceptedPush:
		return d.pushToID(ctx, e.RecipientID, &push.Payload{Type: push.TypeJobAccepted, JobID: b.ID,
			Text: acceptedText(b, ji.lang, d.due(b.Due))})
	case messages.NewTranslatorMail:
		return d.mailUser(ctx, ji, e.TranslatorID, subjectAccepted(b.ID), mail.TmplNewTranslator, nil)
	case messages.SessionReminder:
		return d.remind(ctx, ji, e.TranslatorID)
	case messages.ReopenedMail:
		return d.mailCustomer(ctx, ji, subjectReopened(ji.lang, b.ID), mail.TmplStatusToCustomer, nil)
	case messages.PendingCancelledMail:
		return d.mailCustomer(ctx, ji, subjectCancelled(b.ID), mail.TmplStatusChangedCustomer, nil)
	case messages.WithdrawnCustomerMail:
		return d.mailCustomer(ctx, ji, subjectEnded(b.ID), mail.TmplStatusChangedCustomer, nil)
	case messages.TranslatorCancelledMail:
		return d.mailUser(ctx, ji, e.TranslatorID, subjectEnded(b.ID), mail.TmplJobCancelTranslator, nil)
	case messages.SessionEndedMail:
		return d.sessionEnded(ctx, ji, e)
	case messages.ChangedDateMail:
		return d.mailBoth(ctx, ji, e.TranslatorID, subjectChanged(b.ID), mail.TmplJobChangedDate, func(md *mail.Data) error {
			if e.OldDue != nil {
				md.OldDue = d.due(*e.OldDue)
			}
			return nil
		})
	case messages.ChangedLanguageMail:
		return d.mailBoth(ctx, ji, e.TranslatorID, subjectChanged(b.ID), mail.TmplJobChangedLang, func(md *mail.Data) error {
			var err error
			md.OldLanguage, err = d.language(ctx, e.OldLanguageID)
			return err
		})
	case messages.ChangedTranslatorMail:
		return d.translatorChanged(ctx, ji, e)
	case messages.CustomerCancelledPush:
		return d.pushToID(ctx, e.RecipientID, &push.Payload{Type: push.TypeJobCancelled, JobID: b.ID,
			Text: customerCancelledText(b, ji.lang, d.due(b.Due))})
	case messages.TranslatorCancelledPush:
		return d.pushToID(ctx, e.RecipientID, &push.Payload{Type: push.TypeJobCancelled, JobID: b.ID,
			Text: translatorCancelledText(b, ji.lang, d.due(b.Due))})
	}
	return fmt.Errorf("unknown event kind '%s'", e.Kind)
}

func (d *Dispatcher) load(ctx context.Context, id int64) (*jobInfo, error) {
	b, err := d.data.DB.LoadBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("can't load booking: %w", err)
	}
	customer, err := d.data.DB.LoadUser(ctx, b.UserID)
	if err != nil {
		return nil, fmt.Errorf("can't load customer: %w", err)
	}
	lang, err := d.language(ctx, b.FromLanguageID)
	if err != nil {
		return nil, err
	}
	return &jobInfo{b: b, customer: customer, lang: lang}, nil
}

func (d *Dispatcher) mailData(ji *jobInfo, u *persistence.User) *mail.Data {
	b := ji.b
	return &mail.Data{Name: u.Name, JobID: b.ID, Language: ji.lang, Duration: timing.ConvertToHoursMins(b.Duration),
		Due: d.due(b.Due), Reference: b.Reference, Address: b.Address, Town: b.Town, Instructions: b.Instructions,
		Comment: b.AdminComments}
}

func (d *Dispatcher) mailCustomer(ctx context.Context, ji *jobInfo, subject, key string, f func(*mail.Data) error) error {
	md := d.mailData(ji, ji.customer)
	if f != nil {
		if err := f(md); err != nil {
			return err
		}
	}
	return d.sendMail(ctx, ji.b.ContactEmail(ji.customer), ji.customer.Name, subject, key, md)
}

func (d *Dispatcher) mailUser(ctx context.Context, ji *jobInfo, userID int64, subject, key string, f func(*mail.Data) error) error {
	if userID == 0 {
		return nil
	}
	u, err := d.data.DB.LoadUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("can't load user: %w", err)
	}
	md := d.mailData(ji, u)
	if f != nil {
		if err := f(md); err != nil {
			return err
		}
	}
	return d.sendMail(ctx, u.Email, u.Name, subject, key, md)
}

func (d *Dispatcher) mailBoth(ctx context.Context, ji *jobInfo, translatorID int64, subject, key string, f func(*mail.Data) error) error {
	err := d.mailCustomer(ctx, ji, subject, key, f)
	return multierr.Append(err, d.mailUser(ctx, ji, translatorID, subject, key, f))
}

func (d *Dispatcher) sendMail(ctx context.Context, to, name, subject, key string, md *mail.Data) error {
	if err := d.data.Mailer.Send(ctx, to, name, subject, key, md); err != nil {
		return utils.NewDeliveryError("mail", md.JobID, []string{to}, err)
	}
	return nil
}

func (d *Dispatcher) withTranslatorName(ctx context.Context, md *mail.Data, translatorID int64) error {
	if translatorID == 0 {
		return nil
	}
	u, err := d.data.DB.LoadUser(ctx, translatorID)
	if err != nil {
		return fmt.Errorf("can't load translator: %w", err)
	}
	md.TranslatorName = u.Name
	return nil
}

func (d *Dispatcher) sessionEnded(ctx context.Context, ji *jobInfo, e *messages.Event) error {
	st := timing.SessionText(e.SessionTime)
	if e.Audience == messages.AudienceTranslator {
		return d.mailUser(ctx, ji, e.TranslatorID, subjectEnded(ji.b.ID), mail.TmplSessionEnded, func(md *mail.Data) error {
			md.SessionTime, md.ForText = st, "lön"
			return nil
		})
	}
	return d.mailCustomer(ctx, ji, subjectEnded(ji.b.ID), mail.TmplSessionEnded, func(md *mail.Data) error {
		md.SessionTime, md.ForText = st, "faktura"
		return nil
	})
}

func (d *Dispatcher) translatorChanged(ctx context.Context, ji *jobInfo, e *messages.Event) error {
	subject := subjectTranslatorChanged(ji.b.ID)
	err := d.mailCustomer(ctx, ji, subject, mail.TmplChangedTranslatorCust, func(md *mail.Data) error {
		return d.withTranslatorName(ctx, md, e.TranslatorID)
	})
	err = multierr.Append(err, d.mailUser(ctx, ji, e.OldTranslatorID, subject, mail.TmplChangedTranslatorOld, nil))
	return multierr.Append(err, d.mailUser(ctx, ji, e.TranslatorID, subject, mail.TmplNewTranslator, nil))
}

func (d *Dispatcher) remind(ctx context.Context, ji *jobInfo, translatorID int64) error {
	town := ji.b.Town
	if town == "" {
		town = ji.customer.Meta.City
	}
	p := &push.Payload{Type: push.TypeSessionStartRemind, JobID: ji.b.ID, Text: reminderText(ji.b, ji.lang, town)}
	err := d.pushToUser(ctx, ji.customer, p)
	if translatorID != 0 {
		err = multierr.Append(err, d.pushToID(ctx, translatorID, p))
	}
	return err
}

func (d *Dispatcher) pushToID(ctx context.Context, userID int64, p *push.Payload) error {
	if userID == 0 {
		return nil
	}
	u, err := d.data.DB.LoadUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("can't load user: %w", err)
	}
	return d.pushToUser(ctx, u, p)
}

func (d *Dispatcher) pushToUser(ctx context.Context, u *persistence.User, p *push.Payload) error {
	if !ShouldSendPush(u) {
		goapp.Log.Debug().Int64("userID", u.ID).Msg("push disabled")
		return nil
	}
	var at *time.Time
	if d.ShouldDelay(u) {
		at = persistence.TimePtr(d.data.Night.NextBusinessTime(d.data.Clock.Now()))
	}
	return d.sendPush(ctx, []*persistence.User{u}, p, at)
}

func (d *Dispatcher) sendPush(ctx context.Context, users []*persistence.User, p *push.Payload, at *time.Time) error {
	if len(users) == 0 {
		return nil
	}
	if err := d.data.Push.SendBatch(ctx, users, p, at); err != nil {
		emails := make([]string, 0, len(users))
		for _, u := range users {
			emails = append(emails, u.Email)
		}
		return utils.NewDeliveryError("push", p.JobID, emails, err)
	}
	return nil
}

func (d *Dispatcher) language(ctx context.Context, id int64) (string, error) {
	res, err := d.data.DB.LanguageName(ctx, id)
	if err != nil {
		return "", fmt.Errorf("can't load language: %w", err)
	}
	return res, nil
}

func (d *Dispatcher) due(t time.Time) string {
	return timing.DueText(t, d.data.Location)
}

// ActiveTranslatorID returns current translator of the booking or 0
func ActiveTranslatorID(ctx context.Context, db DB, jobID int64) (int64, error) {
	as, err := db.Assignments(ctx, jobID)
	if err != nil {
		return 0, fmt.Errorf("can't load assignments: %w", err)
	}
	if a := assignment.SelectActive(as); a != nil {
		return a.UserID, nil
	}
	return 0, nil
}
