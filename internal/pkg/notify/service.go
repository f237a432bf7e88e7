package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils/handler"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"
)

// ServiceData keeps data required for service work
type ServiceData struct {
	GueClient   *gue.Client
	WorkerCount int
	Dispatcher  EventDispatcher
	Testing     bool
}

// StartWorkerService starts the event queue listener service to listen for notify events
// returns channel for tracking when all jobs are finished
func StartWorkerService(ctx context.Context, data *ServiceData) (chan struct{}, error) {
	if err := validateService(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Msg("Starting listen for messages")

	wm := gue.WorkMap{
		messages.Notify: notifyWorkFunc(data),
	}

	pool, err := gue.NewWorkerPool(
		data.GueClient, wm, data.WorkerCount,
		gue.WithPoolQueue(messages.Notify),
		gue.WithPoolLogger(utils.NewGueLoggerAdapter("booking-notifier")),
		gue.WithPoolPollInterval(500*time.Millisecond),
		gue.WithPoolPollStrategy(gue.RunAtPollStrategy),
		gue.WithPoolID("booking-notifier"),
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

// notifyWorkFunc does not retry failed deliveries, other failures are retried
func notifyWorkFunc(data *ServiceData) gue.WorkFunc {
	return handler.Create(data, handleNotify,
		handler.DefaultOpts[messages.NotifyMessage]().WithTimeout(time.Minute).
			WithBackoff(handler.DefaultBackoffOrTest(data.Testing)))
}

func handleNotify(ctx context.Context, m *messages.NotifyMessage, data *ServiceData) error {
	goapp.Log.Info().Str("ID", m.ID).Str("kind", string(m.Event.Kind)).Int64("jobID", m.Event.BookingID).Msg("handling")
	return data.Dispatcher.Dispatch(ctx, []messages.Event{m.Event})
}

func validateService(data *ServiceData) error {
	if data.GueClient == nil {
		return fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return fmt.Errorf("no worker count provided")
	}
	if data.Dispatcher == nil {
		return fmt.Errorf("no dispatcher")
	}
	return nil
}
