package postgres

import (
	"context"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/airenas/go-app/pkg/goapp"
)

// ExpiredPending returns pending bookings with will_expire_at reached and not ignored
func (db *DB) ExpiredPending(ctx context.Context, now time.Time) ([]*persistence.Booking, error) {
	goapp.Log.Info().Time("older than", now).Msg("selecting expired bookings...")
	return db.queryBookings(ctx, `SELECT `+bookingCols+` FROM bookings b
		WHERE b.status = $1 AND NOT b.ignore_expired AND b.will_expire_at IS NOT NULL AND b.will_expire_at <= $2
		ORDER BY b.id`, status.Pending.String(), now)
}
