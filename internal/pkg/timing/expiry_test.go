package timing

import (
	"errors"
	"testing"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tCreated = time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)

func TestWillExpireAt(t *testing.T) {
	p := DefaultExpiryPolicy()
	tests := []struct {
		name string
		gap  time.Duration
		want time.Time
	}{
		{name: "10 min", gap: 10 * time.Minute, want: tCreated.Add(5 * time.Minute)},
		{name: "90 min", gap: 90 * time.Minute, want: tCreated.Add(45 * time.Minute)},
		{name: "91 min", gap: 91 * time.Minute, want: tCreated.Add(90 * time.Minute)},
		{name: "24h", gap: 24 * time.Hour, want: tCreated.Add(90 * time.Minute)},
		{name: "25h", gap: 25 * time.Hour, want: tCreated.Add(16 * time.Hour)},
		{name: "72h", gap: 72 * time.Hour, want: tCreated.Add(16 * time.Hour)},
		{name: "73h", gap: 73 * time.Hour, want: tCreated.Add(25 * time.Hour)},
		{name: "10 days", gap: 240 * time.Hour, want: tCreated.Add(192 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.WillExpireAt(tCreated.Add(tt.gap), tCreated)
			require.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWillExpireAt_Fail(t *testing.T) {
	p := DefaultExpiryPolicy()
	_, err := p.WillExpireAt(tCreated, tCreated)
	assert.True(t, errors.Is(err, utils.ErrInvalidTimeRange))
	_, err = p.WillExpireAt(tCreated.Add(-time.Minute), tCreated)
	assert.True(t, errors.Is(err, utils.ErrInvalidTimeRange))
}

func TestWillExpireAt_BeforeDueAndMonotonic(t *testing.T) {
	p := DefaultExpiryPolicy()
	prev := time.Duration(0)
	for gap := time.Minute; gap < 200*time.Hour; gap += 7 * time.Minute {
		due := tCreated.Add(gap)
		got, err := p.WillExpireAt(due, tCreated)
		require.Nil(t, err)
		assert.True(t, got.Before(due), "gap %v", gap)
		offset := got.Sub(tCreated)
		assert.True(t, offset >= prev, "gap %v", gap)
		prev = offset
	}
}

func TestExpiryOrDue(t *testing.T) {
	p := DefaultExpiryPolicy()
	assert.Equal(t, tCreated, p.ExpiryOrDue(tCreated, tCreated.Add(time.Hour)))
	assert.Equal(t, tCreated.Add(5*time.Minute), p.ExpiryOrDue(tCreated.Add(10*time.Minute), tCreated))
}

func TestExpiryPolicy_Validate(t *testing.T) {
	assert.Nil(t, DefaultExpiryPolicy().Validate())
	tests := []struct {
		name string
		f    func(p *ExpiryPolicy)
	}{
		{name: "no immediate", f: func(p *ExpiryPolicy) { p.ImmediateLimit = 0 }},
		{name: "limits order", f: func(p *ExpiryPolicy) { p.ShortLimit = p.MediumLimit }},
		{name: "short delay big", f: func(p *ExpiryPolicy) { p.ShortDelay = 2 * time.Hour }},
		{name: "short delay small", f: func(p *ExpiryPolicy) { p.ShortDelay = 30 * time.Minute }},
		{name: "medium delay small", f: func(p *ExpiryPolicy) { p.MediumDelay = time.Hour }},
		{name: "medium delay big", f: func(p *ExpiryPolicy) { p.MediumDelay = 25 * time.Hour }},
		{name: "no long", f: func(p *ExpiryPolicy) { p.LongBeforeDue = 0 }},
		{name: "long big", f: func(p *ExpiryPolicy) { p.LongBeforeDue = 60 * time.Hour }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultExpiryPolicy()
			tt.f(&p)
			assert.NotNil(t, p.Validate())
		})
	}
}
