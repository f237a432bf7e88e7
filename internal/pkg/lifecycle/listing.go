package lifecycle

import (
	"context"
	"fmt"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
)

// UserJobs are current bookings of the user
type UserJobs struct {
	Emergency []*persistence.Booking `json:"emergencyJobs"`
	Normal    []*persistence.Booking `json:"normalJobs"`
	UserType  string                 `json:"usertype"`
}

// Page is a page of bookings
type Page struct {
	Jobs     []*persistence.Booking `json:"jobs"`
	Total    int                    `json:"total"`
	NumPages int                    `json:"numpages"`
	Page     int                    `json:"pagenum"`
	UserType string                 `json:"usertype,omitempty"`
}

// UsersJobs returns current bookings of the customer or the translator split to emergency and normal ones
func (s *Service) UsersJobs(ctx context.Context, userID int64) (*UserJobs, error) {
	u, err := s.data.DB.LoadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	f := &persistence.BookingFilter{Statuses: []status.Status{status.Pending, status.Assigned, status.Started}}
	if !userFilter(u, f) {
		return &UserJobs{Emergency: []*persistence.Booking{}, Normal: []*persistence.Booking{}}, nil
	}
	if u.Role == persistence.RoleTranslator {
		f.Statuses = []status.Status{status.Assigned, status.Started}
	}
	jobs, _, err := s.data.DB.ListBookings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("can't load bookings: %w", err)
	}
	res := &UserJobs{Emergency: []*persistence.Booking{}, Normal: []*persistence.Booking{}, UserType: u.Role.String()}
	for _, b := range jobs {
		if b.Immediate {
			res.Emergency = append(res.Emergency, b)
		} else {
			res.Normal = append(res.Normal, b)
		}
	}
	return res, nil
}

// UsersJobsHistory returns finished bookings of the customer or the translator, the newest first
func (s *Service) UsersJobsHistory(ctx context.Context, userID int64, page int) (*Page, error) {
	u, err := s.data.DB.LoadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	f := &persistence.BookingFilter{Statuses: status.Historic(), Page: page, PageSize: persistence.DefaultPageSize, Desc: true}
	if !userFilter(u, f) {
		return &Page{Jobs: []*persistence.Booking{}, Page: page}, nil
	}
	res, err := s.list(ctx, f)
	if err != nil {
		return nil, err
	}
	res.UserType = u.Role.String()
	return res, nil
}

// List returns bookings for admins
func (s *Service) List(ctx context.Context, actor *persistence.User, f *persistence.BookingFilter) (*Page, error) {
	if !actor.Role.Admin() {
		return nil, utils.NewUserError(utils.ErrForbidden, "only admins can list bookings")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = persistence.DefaultPageSize
	}
	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, f *persistence.BookingFilter) (*Page, error) {
	jobs, total, err := s.data.DB.ListBookings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("can't load bookings: %w", err)
	}
	return &Page{Jobs: jobs, Total: total, Page: f.Page, NumPages: (total + f.PageSize - 1) / f.PageSize}, nil
}

func userFilter(u *persistence.User, f *persistence.BookingFilter) bool {
	switch u.Role {
	case persistence.RoleCustomer:
		f.CustomerID = u.ID
	case persistence.RoleTranslator:
		f.TranslatorID = u.ID
	default:
		return false
	}
	return true
}
