package timing

import (
	"fmt"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/pkg/errors"
)

// ExpiryPolicy keeps the lead time brackets used to calculate booking expiry.
// Upper bounds are inclusive.
type ExpiryPolicy struct {
	// gap <= ImmediateLimit: expires in the middle of the gap
	ImmediateLimit time.Duration
	// gap <= ShortLimit: expires ShortDelay after creation
	ShortLimit time.Duration
	ShortDelay time.Duration
	// gap <= MediumLimit: expires MediumDelay after creation
	MediumLimit time.Duration
	MediumDelay time.Duration
	// otherwise: expires LongBeforeDue before due
	LongBeforeDue time.Duration
}

// DefaultExpiryPolicy returns production brackets
func DefaultExpiryPolicy() ExpiryPolicy {
	return ExpiryPolicy{
		ImmediateLimit: 90 * time.Minute,
		ShortLimit:     24 * time.Hour,
		ShortDelay:     90 * time.Minute,
		MediumLimit:    72 * time.Hour,
		MediumDelay:    16 * time.Hour,
		LongBeforeDue:  48 * time.Hour,
	}
}

// Validate checks that expiry is always before due and the offset from creation never decreases with the gap
func (p ExpiryPolicy) Validate() error {
	if p.ImmediateLimit <= 0 {
		return errors.New("no immediate limit")
	}
	if p.ShortLimit <= p.ImmediateLimit || p.MediumLimit <= p.ShortLimit {
		return errors.Errorf("wrong limits order %v, %v, %v", p.ImmediateLimit, p.ShortLimit, p.MediumLimit)
	}
	if p.ShortDelay > p.ImmediateLimit || p.ShortDelay*2 < p.ImmediateLimit {
		return errors.Errorf("short delay %v must be in [%v, %v]", p.ShortDelay, p.ImmediateLimit/2, p.ImmediateLimit)
	}
	if p.MediumDelay < p.ShortDelay || p.MediumDelay > p.ShortLimit {
		return errors.Errorf("medium delay %v must be in [%v, %v]", p.MediumDelay, p.ShortDelay, p.ShortLimit)
	}
	if p.LongBeforeDue <= 0 {
		return errors.New("no long before due")
	}
	if p.MediumLimit-p.LongBeforeDue < p.MediumDelay {
		return errors.Errorf("long before due %v too big", p.LongBeforeDue)
	}
	return nil
}

// WillExpireAt returns the time the pending booking expires
func (p ExpiryPolicy) WillExpireAt(due, createdAt time.Time) (time.Time, error) {
	if !due.After(createdAt) {
		return time.Time{}, fmt.Errorf("due %s is not after %s: %w", due.Format(time.RFC3339), createdAt.Format(time.RFC3339),
			utils.ErrInvalidTimeRange)
	}
	gap := due.Sub(createdAt)
	switch {
	case gap <= p.ImmediateLimit:
		return createdAt.Add(gap / 2), nil
	case gap <= p.ShortLimit:
		return createdAt.Add(p.ShortDelay), nil
	case gap <= p.MediumLimit:
		return createdAt.Add(p.MediumDelay), nil
	default:
		return due.Add(-p.LongBeforeDue), nil
	}
}

// ExpiryOrDue returns WillExpireAt or due if the range is invalid
func (p ExpiryPolicy) ExpiryOrDue(due, createdAt time.Time) time.Time {
	res, err := p.WillExpireAt(due, createdAt)
	if err != nil {
		return due
	}
	return res
}
