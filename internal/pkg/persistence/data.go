package persistence

import (
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
)

type (

	//Booking table
	Booking struct {
		ID                   int64         `json:"id"`
		UserID               int64         `json:"user_id"`
		FromLanguageID       int64         `json:"from_language_id"`
		Status               status.Status `json:"status"`
		Immediate            bool          `json:"immediate"`
		Due                  time.Time     `json:"due"`
		Duration             int           `json:"duration"`
		Gender               Gender        `json:"gender"`
		Certified            Certified     `json:"certified"`
		JobType              JobType       `json:"job_type"`
		CustomerPhoneType    bool          `json:"customer_phone_type"`
		CustomerPhysicalType bool          `json:"customer_physical_type"`
		AdminComments        string        `json:"admin_comments"`
		Reference            string        `json:"reference"`
		UserEmail            string        `json:"user_email"`
		Address              string        `json:"address"`
		Instructions         string        `json:"instructions"`
		Town                 string        `json:"town"`
		ByAdmin              bool          `json:"by_admin"`
		Created              time.Time     `json:"created_at"`
		WillExpireAt         *time.Time    `json:"will_expire_at,omitempty"`
		EndAt                *time.Time    `json:"end_at,omitempty"`
		SessionTime          string        `json:"session_time,omitempty"`
		WithdrawAt           *time.Time    `json:"withdraw_at,omitempty"`
		EmailSent            bool          `json:"-"`
		EmailSentVirpal      bool          `json:"-"`
		Cust16HourEmail      bool          `json:"-"`
		Cust48HourEmail      bool          `json:"-"`
		IgnoreExpired        bool          `json:"ignore_expired"`
		Version              int           `json:"version"`
		Updated              time.Time     `json:"updated_at"`
	}

	//Assignment is translator_job_rel table
	Assignment struct {
		ID          int64
		UserID      int64
		JobID       int64
		Created     time.Time
		CancelAt    *time.Time
		CompletedAt *time.Time
		CompletedBy int64
	}

	//User table with user_meta
	User struct {
		ID               int64
		Role             Role
		Name             string
		Email            string
		Mobile           string
		Active           bool
		NumberOfBookings int
		Meta             UserMeta
	}

	//UserMeta table
	UserMeta struct {
		Gender             Gender
		TranslatorLevel    string
		TranslatorType     string
		ConsumerType       string
		CustomerType       string
		City               string
		Address            string
		Instructions       string
		NotGetNighttime    bool
		NotGetNotification bool
		NotGetEmergency    bool
	}

	//AuditRecord is booking_audit table
	AuditRecord struct {
		ID        string
		ActorID   int64
		BookingID int64
		Changes   ChangeSet
		Created   time.Time
	}

	// ChangeSet keeps changed booking dimensions, nil means unchanged
	ChangeSet struct {
		Status     *StatusChange     `json:"status,omitempty"`
		Translator *TranslatorChange `json:"translator,omitempty"`
		Due        *DueChange        `json:"due,omitempty"`
		Language   *LanguageChange   `json:"language,omitempty"`
	}

	// StatusChange old and new status
	StatusChange struct {
		Old status.Status `json:"old_status"`
		New status.Status `json:"new_status"`
	}

	// TranslatorChange old and new translator emails, empty Old means no translator before
	TranslatorChange struct {
		Old string `json:"old_translator,omitempty"`
		New string `json:"new_translator"`
	}

	// DueChange old and new due
	DueChange struct {
		Old time.Time `json:"old_due"`
		New time.Time `json:"new_due"`
	}

	// LanguageChange old and new language
	LanguageChange struct {
		Old     int64  `json:"old_lang_id"`
		New     int64  `json:"new_lang_id"`
		OldName string `json:"old_lang,omitempty"`
		NewName string `json:"new_lang,omitempty"`
	}
)

// Empty returns true if nothing changed
func (c ChangeSet) Empty() bool {
	return c.Status == nil && c.Translator == nil && c.Due == nil && c.Language == nil
}

// Active returns true if the assignment is neither cancelled nor completed
func (a *Assignment) Active() bool {
	return a != nil && a.CancelAt == nil && a.CompletedAt == nil
}

// ContactEmail returns booking email override or the customer's email
func (b *Booking) ContactEmail(customer *User) string {
	if b.UserEmail != "" {
		return b.UserEmail
	}
	if customer == nil {
		return ""
	}
	return customer.Email
}

// Clone returns a copy of the booking
func (b *Booking) Clone() *Booking {
	res := *b
	res.WillExpireAt = cloneTime(b.WillExpireAt)
	res.EndAt = cloneTime(b.EndAt)
	res.WithdrawAt = cloneTime(b.WithdrawAt)
	return &res
}

// TimePtr returns pointer to a copy of t
func TimePtr(t time.Time) *time.Time {
	return &t
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return TimePtr(*t)
}
