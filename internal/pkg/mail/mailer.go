package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"net/mail"
	"strings"
	"text/template"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jordan-wright/email"
)

// Template keys
const (
	TmplJobCreated            = "emails.job-created"
	TmplJobAccepted           = "emails.job-accepted"
	TmplNewTranslator         = "emails.job-changed-translator-new-translator"
	TmplChangedTranslatorCust = "emails.job-changed-translator-customer"
	TmplChangedTranslatorOld  = "emails.job-changed-translator-old-translator"
	TmplStatusToCustomer      = "emails.job-change-status-to-customer"
	TmplStatusChangedCustomer = "emails.status-changed-from-pending-or-assigned-customer"
	TmplJobCancelTranslator   = "emails.job-cancel-translator"
	TmplSessionEnded          = "emails.session-ended"
	TmplJobChangedDate        = "emails.job-changed-date"
	TmplJobChangedLang        = "emails.job-changed-lang"
	templatePrefix            = "emails."
	templateExt               = ".tmpl"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Sender send emails
type Sender interface {
	Send(email *email.Email) error
}

// Data is passed to mail templates
type Data struct {
	Name           string
	JobID          int64
	Language       string
	OldLanguage    string
	Duration       string
	Due            string
	OldDue         string
	SessionTime    string
	ForText        string
	TranslatorName string
	Reference      string
	Address        string
	Town           string
	Instructions   string
	Comment        string
}

// Mailer renders templates and sends emails
type Mailer struct {
	sender    Sender
	from      string
	templates *template.Template
}

// NewMailer creates mailer
func NewMailer(sender Sender, from string) (*Mailer, error) {
	if sender == nil {
		return nil, fmt.Errorf("no sender")
	}
	if from == "" {
		return nil, fmt.Errorf("no from address")
	}
	if _, err := mail.ParseAddress(from); err != nil {
		return nil, fmt.Errorf("wrong from address '%s': %w", from, err)
	}
	t, err := template.ParseFS(templatesFS, "templates/*"+templateExt)
	if err != nil {
		return nil, fmt.Errorf("can't parse templates: %w", err)
	}
	return &Mailer{sender: sender, from: from, templates: t}, nil
}

// Send renders template by key and sends email
func (m *Mailer) Send(ctx context.Context, to, name, subject, key string, data *Data) error {
	if to == "" {
		return fmt.Errorf("no recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	text, err := m.render(key, data)
	if err != nil {
		return err
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{(&mail.Address{Name: name, Address: to}).String()}
	e.Subject = subject
	e.Text = text
	goapp.Log.Info().Str("template", key).Int64("jobID", data.JobID).Msg("send mail")
	if err := m.sender.Send(e); err != nil {
		return fmt.Errorf("can't send email: %w", err)
	}
	return nil
}

func (m *Mailer) render(key string, data *Data) ([]byte, error) {
	name := strings.TrimPrefix(key, templatePrefix) + templateExt
	t := m.templates.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("no template '%s'", key)
	}
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("can't render '%s': %w", key, err)
	}
	return b.Bytes(), nil
}
