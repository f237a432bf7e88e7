package persistence

import (
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
)

// DefaultPageSize for booking listings
const DefaultPageSize = 15

// BookingFilter selects bookings for listings, zero values are ignored
type BookingFilter struct {
	IDs             []int64
	Statuses        []status.Status
	LanguageIDs     []int64
	JobTypes        []JobType
	CustomerID      int64
	TranslatorID    int64
	CustomerEmail   string
	TranslatorEmail string
	Immediate       *bool
	DueFrom         *time.Time
	DueTo           *time.Time
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	// Page starts from 1, 0 means no paging
	Page     int
	PageSize int
	// Desc orders by due descending
	Desc bool
}

// Limit returns SQL limit and offset, limit 0 means all rows
func (f *BookingFilter) Limit() (int, int) {
	if f.Page < 1 {
		return 0, 0
	}
	ps := f.PageSize
	if ps < 1 {
		ps = DefaultPageSize
	}
	return ps, (f.Page - 1) * ps
}
