package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils/handler"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/pkg/errors"
	"github.com/vgarvardt/gue/v5"
)

// HandlerData keeps data required for handler
type HandlerData struct {
	GueClient   *gue.Client
	WorkerCount int
	DB          DB
	WSHandler   WSConnHandler
	Testing     bool
}

// StartStatusHandler starts the status change queue listener
// returns channel for tracking if all jobs are finished
func StartStatusHandler(ctx context.Context, data *HandlerData) (chan struct{}, error) {
	if err := validateHandler(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Msg("Starting listen for messages")

	wm := gue.WorkMap{
		messages.StatusChange: handler.Create(data, handleStatus,
			handler.DefaultOpts[messages.StatusMessage]().WithTimeout(10*time.Second).WithMaxRetries(1).
				WithBackoff(handler.DefaultBackoffOrTest(data.Testing))),
	}

	pool, err := gue.NewWorkerPool(
		data.GueClient, wm, data.WorkerCount,
		gue.WithPoolQueue(messages.StatusChange),
		gue.WithPoolLogger(utils.NewGueLoggerAdapter("booking-feed")),
		gue.WithPoolPollInterval(500*time.Millisecond),
		gue.WithPoolPollStrategy(gue.RunAtPollStrategy),
		gue.WithPoolID("booking-feed"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not build gue workers pool: %w", err)
	}
	res := make(chan struct{}, 1)
	go func() {
		goapp.Log.Info().Msg("Starting workers")
		if err := pool.Run(ctx); err != nil {
			goapp.Log.Error().Err(err).Msg("pool error")
		}
		goapp.Log.Info().Msg("Pool workers finished")
		res <- struct{}{}
	}()
	return res, nil
}

func handleStatus(ctx context.Context, m *messages.StatusMessage, data *HandlerData) error {
	goapp.Log.Info().Int64("jobID", m.BookingID).Str("status", m.Status.String()).Msg("handling status change event")

	conns, found := data.WSHandler.GetConnections(strconv.FormatInt(m.BookingID, 10))
	if !found {
		goapp.Log.Debug().Int64("jobID", m.BookingID).Msg("no connections found")
		return nil
	}
	b, err := data.DB.LoadBooking(ctx, m.BookingID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			goapp.Log.Warn().Int64("jobID", m.BookingID).Msg("no booking")
			return nil
		}
		return fmt.Errorf("cannot load booking %d: %w", m.BookingID, err)
	}
	res := mapBooking(b)
	for _, c := range conns {
		if err := sendMsg(c, res); err != nil {
			goapp.Log.Error().Err(err).Send()
		}
	}
	return nil
}

func sendMsg(c WsConn, res *result) error {
	if err := c.WriteJSON(res); err != nil {
		return fmt.Errorf("cannot write to websocket: %w", err)
	}
	goapp.Log.Debug().Int64("jobID", res.ID).Msg("sent msg to websocket")
	return nil
}

func validateHandler(data *HandlerData) error {
	if data.GueClient == nil {
		return fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return fmt.Errorf("no worker count provided")
	}
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.WSHandler == nil {
		return fmt.Errorf("no WSHandler")
	}
	return nil
}
