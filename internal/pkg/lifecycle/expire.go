package lifecycle

import (
	"context"
	"errors"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/airenas/go-app/pkg/goapp"
	"go.uber.org/multierr"
)

var errSkip = errors.New("skip")

// ExpirePending times out pending bookings nobody accepted before will_expire_at, returns expired count
func (s *Service) ExpirePending(ctx context.Context) (int, error) {
	now := s.now()
	bs, err := s.data.DB.ExpiredPending(ctx, now)
	if err != nil {
		return 0, err
	}
	goapp.Log.Info().Int("count", len(bs)).Msg("expired pending bookings")
	var errs error
	res := 0
	for _, eb := range bs {
		var b *persistence.Booking
		err := s.data.DB.InTx(ctx, func(ctx context.Context) error {
			var err error
			b, err = s.data.DB.LockBooking(ctx, eb.ID)
			if err != nil {
				return err
			}
			if b.Status != status.Pending || b.IgnoreExpired || b.WillExpireAt == nil || b.WillExpireAt.After(now) {
				return errSkip
			}
			b.Status = status.TimedOut
			b.Updated = now
			return s.data.DB.UpdateBooking(ctx, b)
		})
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			goapp.Log.Error().Err(err).Int64("jobID", eb.ID).Msg("can't expire")
			errs = multierr.Append(errs, err)
			continue
		}
		res++
		s.data.Publisher.Publish(ctx, []messages.Event{
			{Kind: messages.ExpiredPush, BookingID: b.ID, RecipientID: b.UserID},
			statusEvent(b),
		})
	}
	return res, errs
}
