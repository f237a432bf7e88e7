package handler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vgarvardt/gue/v5"
	"go.uber.org/multierr"
)

type testMsg struct {
	ID int64 `json:"id"`
}

func (m *testMsg) BookingKey() int64 { return m.ID }

type testData struct {
	got []int64
	err error
}

func testHandler(ctx context.Context, m *testMsg, d *testData) error {
	d.got = append(d.got, m.ID)
	return d.err
}

func TestCreate(t *testing.T) {
	d := &testData{}
	f := Create(d, testHandler, DefaultOpts[testMsg]())

	err := f(context.Background(), &gue.Job{Queue: "q", Args: []byte(`{"id":10}`)})

	require.Nil(t, err)
	assert.Equal(t, []int64{10}, d.got)
}

func TestCreate_WrongMessage(t *testing.T) {
	d := &testData{}
	f := Create(d, testHandler, DefaultOpts[testMsg]())

	err := f(context.Background(), &gue.Job{Queue: "q", Args: []byte(`{"id":`)})

	assert.Nil(t, err)
	assert.Empty(t, d.got)
}

func TestCreate_Retry(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		errCount int32
		retry    bool
	}{
		{name: "transient", err: fmt.Errorf("olia"), retry: true},
		{name: "conflict", err: utils.ErrConflict, errCount: 2, retry: true},
		{name: "too many", err: fmt.Errorf("olia"), errCount: 3, retry: false},
		{name: "not found", err: fmt.Errorf("load: %w", utils.ErrNotFound), retry: false},
		{name: "user error", err: utils.NewUserError(utils.ErrInvalidState, "olia"), retry: false},
		{name: "delivery", err: fmt.Errorf("send: %w", utils.NewDeliveryError("push", 10, []string{"a@o.lt"}, fmt.Errorf("olia"))),
			retry: false},
		{name: "deliveries", err: multierr.Combine(utils.NewDeliveryError("push", 10, nil, fmt.Errorf("olia")),
			utils.NewDeliveryError("mail", 10, nil, fmt.Errorf("olia"))), retry: false},
		{name: "delivery and load", err: multierr.Combine(utils.NewDeliveryError("push", 10, nil, fmt.Errorf("olia")),
			fmt.Errorf("can't load")), retry: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &testData{err: tt.err}
			f := Create(d, testHandler, DefaultOpts[testMsg]().WithBackoff(NoBackoff()))

			err := f(context.Background(), &gue.Job{Queue: "q", Args: []byte(`{"id":10}`), ErrorCount: tt.errCount})

			assert.Equal(t, tt.retry, err != nil)
		})
	}
}

func TestCreate_Failure(t *testing.T) {
	called := false
	d := &testData{err: fmt.Errorf("olia")}
	f := Create(d, testHandler, DefaultOpts[testMsg]().WithMaxRetries(10).
		WithFailure(func(_ context.Context, m *testMsg, err error, _ *gue.Job) (bool, time.Duration) {
			called = true
			assert.Equal(t, int64(10), m.ID)
			return false, 0
		}))

	err := f(context.Background(), &gue.Job{Queue: "q", Args: []byte(`{"id":10}`), ErrorCount: 5})

	assert.Nil(t, err)
	assert.True(t, called)
}

func TestCreate_Panic(t *testing.T) {
	assert.Panics(t, func() { Create[testMsg](&testData{}, testHandler, nil) })
}

func TestDefaultBackoff(t *testing.T) {
	b := DefaultBackoff()
	for i := 1; i < 20; i++ {
		d := b(i)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 10*time.Minute)
	}
	assert.Less(t, b(1), 10*time.Second)
}

func TestPermanent(t *testing.T) {
	assert.True(t, Permanent(utils.ErrForbidden))
	assert.True(t, Permanent(fmt.Errorf("a: %w", utils.ErrInvalidInput)))
	assert.False(t, Permanent(utils.ErrConflict))
	assert.False(t, Permanent(fmt.Errorf("olia")))
}

func TestUndelivered(t *testing.T) {
	de := utils.NewDeliveryError("sms", 1, []string{"a@o.lt"}, fmt.Errorf("olia"))
	assert.False(t, Undelivered(nil))
	assert.False(t, Undelivered(fmt.Errorf("olia")))
	assert.True(t, Undelivered(de))
	assert.True(t, Undelivered(fmt.Errorf("wrap: %w", de)))
	assert.True(t, Undelivered(multierr.Append(de, de)))
	assert.False(t, Undelivered(multierr.Append(de, utils.ErrNotFound)))
	assert.True(t, Permanent(de))
}
