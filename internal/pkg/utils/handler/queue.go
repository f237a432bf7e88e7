package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/rs/zerolog"
	"github.com/vgarvardt/gue/v5"
	"go.uber.org/multierr"
)

// Keyed messages are logged with the booking ID
type Keyed interface {
	BookingKey() int64
}

// FailureFunc decides if a failed message is retried, a zero delay means the backoff is used
type FailureFunc[TM any] func(context.Context, *TM, error, *gue.Job) (bool, time.Duration)

// Opts configures a queue handler
type Opts[TM any] struct {
	backoff        gue.Backoff
	timeout        time.Duration
	maxRetries     int32
	failureHandler FailureFunc[TM]
}

// Create wraps a typed handler into a gue worker func.
// A message that can't be decoded is dropped, a failed one is rescheduled while the failure handler allows.
func Create[TM any, SD any](data *SD, hf func(context.Context, *TM, *SD) error, opts *Opts[TM]) gue.WorkFunc {
	if opts == nil {
		goapp.Log.Panic().Msg("no opts provided")
	}
	return func(ctx context.Context, j *gue.Job) error {
		var m TM
		if err := json.Unmarshal(j.Args, &m); err != nil {
			goapp.Log.Error().Err(err).Str("queue", j.Queue).Str("type", j.Type).Msg("drop wrong message")
			return nil
		}
		logCtx := func(le *zerolog.Event) *zerolog.Event {
			le = le.Str("queue", j.Queue).Str("type", j.Type).Int32("errCount", j.ErrorCount)
			if k, ok := any(&m).(Keyed); ok {
				le = le.Int64("jobID", k.BookingKey())
			}
			return le
		}
		logCtx(goapp.Log.Info()).Msg("got msg")

		wrkCtx, cf := context.WithTimeout(ctx, opts.timeout)
		defer cf()
		err := hf(wrkCtx, &m, data)
		if err == nil {
			return nil
		}
		logCtx(goapp.Log.Warn()).Err(err).Msg("fail")
		if j.ErrorCount >= opts.maxRetries {
			logCtx(goapp.Log.Error()).Err(err).Msg("give up")
			return nil
		}
		retry, delay := opts.failureHandler(ctx, &m, err, j)
		if !retry {
			logCtx(goapp.Log.Warn()).Msg("no retry")
			return nil
		}
		if delay == 0 {
			delay = opts.backoff(int(j.ErrorCount + 1))
		}
		logCtx(goapp.Log.Info()).Dur("after", delay).Msg("retry after")
		return gue.ErrRescheduleJobIn(delay, err.Error())
	}
}

// DefaultOpts retries transient failures up to 3 times
func DefaultOpts[TM any]() *Opts[TM] {
	return &Opts[TM]{timeout: time.Minute * 15, maxRetries: 3, failureHandler: defaultFailureHandler[TM],
		backoff: DefaultBackoff()}
}

// DefaultBackoff grows the delay exponentially from 10s up to 10min
func DefaultBackoff() gue.Backoff {
	return func(retries int) time.Duration {
		d := 10 * time.Second
		for i := 1; i < retries && d < 10*time.Minute; i++ {
			d *= 2
		}
		return fullJitter(min(d, 10*time.Minute))
	}
}

// NoBackoff retries immediately
func NoBackoff() gue.Backoff {
	return func(retries int) time.Duration {
		return 0
	}
}

// DefaultBackoffOrTest returns NoBackoff for test runs
func DefaultBackoffOrTest(test bool) gue.Backoff {
	if test {
		return NoBackoff()
	}
	return DefaultBackoff()
}

// WithFailure overrides the retry decision
func (o *Opts[TM]) WithFailure(failureHandler FailureFunc[TM]) *Opts[TM] {
	o.failureHandler = failureHandler
	return o
}

// WithTimeout limits a single handler run
func (o *Opts[TM]) WithTimeout(timeout time.Duration) *Opts[TM] {
	o.timeout = timeout
	return o
}

// WithBackoff sets the delay used when the failure handler returns zero
func (o *Opts[TM]) WithBackoff(b gue.Backoff) *Opts[TM] {
	o.backoff = b
	return o
}

// WithMaxRetries sets how many failed runs are rescheduled before the message is dropped
func (o *Opts[TM]) WithMaxRetries(n int32) *Opts[TM] {
	o.maxRetries = n
	return o
}

// fullJitter returns randomized duration in interval [0, t)
func fullJitter(t time.Duration) time.Duration {
	return time.Duration(float64(t) * rand.Float64())
}

// Permanent returns true for errors that won't go away on retry.
// Failed deliveries are permanent too, a retry would resend to the recipients already notified.
func Permanent(err error) bool {
	if Undelivered(err) {
		return true
	}
	for _, e := range []error{utils.ErrNotFound, utils.ErrInvalidInput, utils.ErrForbidden, utils.ErrInvalidState} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Undelivered returns true if every combined error is a *utils.DeliveryError
func Undelivered(err error) bool {
	errs := multierr.Errors(err)
	if len(errs) == 0 {
		return false
	}
	for _, e := range errs {
		var de *utils.DeliveryError
		if !errors.As(e, &de) {
			return false
		}
	}
	return true
}

func defaultFailureHandler[TM any](_ context.Context, _ *TM, err error, j *gue.Job) (bool, time.Duration) {
	if Permanent(err) {
		goapp.Log.Info().Str("queue", j.Queue).Str("type", j.Type).Err(err).Msg("permanent failure")
		return false, 0
	}
	return true, 0
}

