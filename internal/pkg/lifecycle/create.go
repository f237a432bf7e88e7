package lifecycle

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/timing"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
)

const (
	dueDateLayout = "01/02/2006"
	dueTimeLayout = "15:04"
)

// CreateRequest is a new booking request of a customer
type CreateRequest struct {
	FromLanguageID int64    `json:"from_language_id"`
	Immediate      bool     `json:"immediate"`
	DueDate        string   `json:"due_date"`
	DueTime        string   `json:"due_time"`
	Duration       int      `json:"duration"`
	PhoneType      bool     `json:"customer_phone_type"`
	PhysicalType   bool     `json:"customer_physical_type"`
	JobFor         []string `json:"job_for"`
	ByAdmin        bool     `json:"by_admin"`
}

// EmailRequest sets booking contact data
type EmailRequest struct {
	BookingID int64  `json:"user_email_job_id"`
	UserEmail string `json:"user_email"`
	Reference string `json:"reference"`
	// Address is nil if not provided, empty fields are taken from the customer profile
	Address *AddressData `json:"address_data,omitempty"`
}

// AddressData of the physical session
type AddressData struct {
	Address      string `json:"address"`
	Instructions string `json:"instructions"`
	Town         string `json:"town"`
}

// Create stores a new booking of the customer
func (s *Service) Create(ctx context.Context, actor *persistence.User, req *CreateRequest) (*persistence.Booking, error) {
	if actor.Role != persistence.RoleCustomer {
		return nil, utils.NewUserError(utils.ErrForbidden, "Translator cannot create a booking")
	}
	if req.FromLanguageID <= 0 {
		return nil, utils.NewUserError(utils.ErrInvalidInput, "Du måste fylla in alla fält")
	}
	if req.Duration <= 0 {
		return nil, utils.NewUserError(utils.ErrInvalidInput, "Du måste fylla in alla fält")
	}
	now := s.now()
	b := &persistence.Booking{UserID: actor.ID, FromLanguageID: req.FromLanguageID, Status: status.Pending,
		Immediate: req.Immediate, Duration: req.Duration, CustomerPhoneType: req.PhoneType,
		CustomerPhysicalType: req.PhysicalType, ByAdmin: req.ByAdmin, Created: now, Updated: now}
	if req.Immediate {
		b.Due = now.Add(s.data.ImmediateDelay)
		b.CustomerPhoneType = true
	} else {
		if !req.PhoneType && !req.PhysicalType {
			return nil, utils.NewUserError(utils.ErrInvalidInput, "Du måste göra ett val här")
		}
		due, err := time.ParseInLocation(dueDateLayout+" "+dueTimeLayout,
			strings.TrimSpace(req.DueDate)+" "+strings.TrimSpace(req.DueTime), s.data.Location)
		if err != nil {
			return nil, utils.NewUserErrorf(utils.ErrInvalidInput, "wrong due date '%s %s'", req.DueDate, req.DueTime)
		}
		if !due.After(now) {
			return nil, utils.NewUserError(utils.ErrInvalidInput, "Can't create booking in the past")
		}
		b.Due = due
	}
	b.Gender, b.Certified = JobFor(req.JobFor)
	b.JobType = timing.JobTypeFromConsumerType(actor.Meta.ConsumerType)
	exp, err := s.data.Expiry.WillExpireAt(b.Due, now)
	if err != nil {
		return nil, utils.NewUserError(utils.ErrInvalidInput, "Can't create booking in the past")
	}
	b.WillExpireAt = &exp
	if err := s.data.DB.InsertBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("can't save booking: %w", err)
	}
	goapp.Log.Info().Int64("jobID", b.ID).Int64("userID", actor.ID).Bool("immediate", b.Immediate).Msg("booking created")
	s.data.Publisher.Publish(ctx, []messages.Event{statusEvent(b)})
	return b, nil
}

// JobFor maps "job_for" selections to gender and certification
func JobFor(jobFor []string) (persistence.Gender, persistence.Certified) {
	has := func(s string) bool { return slices.Contains(jobFor, s) }
	gender := persistence.GenderNone
	if has("male") {
		gender = persistence.GenderMale
	} else if has("female") {
		gender = persistence.GenderFemale
	}
	normal, certified, law, health := has("normal"), has("certified"), has("certified_in_law"), has("certified_in_helth")
	switch {
	case normal && certified:
		return gender, persistence.CertifiedBoth
	case normal && law:
		return gender, persistence.CertifiedNLaw
	case normal && health:
		return gender, persistence.CertifiedNHealth
	case normal:
		return gender, persistence.CertifiedNormal
	case certified:
		return gender, persistence.CertifiedYes
	case law:
		return gender, persistence.CertifiedLaw
	case health:
		return gender, persistence.CertifiedHealth
	}
	return gender, persistence.CertifiedNone
}

// StoreJobEmail sets booking contact email and address, confirms the booking to the customer and broadcasts it
func (s *Service) StoreJobEmail(ctx context.Context, req *EmailRequest) (*persistence.Booking, error) {
	var res *persistence.Booking
	err := s.data.DB.InTx(ctx, func(ctx context.Context) error {
		b, err := s.data.DB.LockBooking(ctx, req.BookingID)
		if err != nil {
			return err
		}
		b.UserEmail = strings.TrimSpace(req.UserEmail)
		b.Reference = req.Reference
		if req.Address != nil {
			customer, err := s.data.DB.LoadUser(ctx, b.UserID)
			if err != nil {
				return fmt.Errorf("can't load customer: %w", err)
			}
			b.Address = valueOr(req.Address.Address, customer.Meta.Address)
			b.Instructions = valueOr(req.Address.Instructions, customer.Meta.Instructions)
			b.Town = valueOr(req.Address.Town, customer.Meta.City)
		}
		b.Updated = s.now()
		if err := s.data.DB.UpdateBooking(ctx, b); err != nil {
			return err
		}
		res = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.data.Publisher.Publish(ctx, []messages.Event{
		{Kind: messages.JobCreatedMail, BookingID: res.ID, RecipientID: res.UserID},
		{Kind: messages.SuitableJobPush, BookingID: res.ID},
	})
	return res, nil
}

func valueOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
