package notify

import (
	"context"
	"fmt"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// EventDispatcher sends events
type EventDispatcher interface {
	Dispatch(ctx context.Context, events []messages.Event) error
}

// Direct dispatches events in process, status changes are forwarded to the feed queue if set
type Direct struct {
	dispatcher EventDispatcher
	feed       MsgSender
}

// NewDirect creates in process publisher, feed may be nil
func NewDirect(dispatcher EventDispatcher, feed MsgSender) (*Direct, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("no dispatcher")
	}
	return &Direct{dispatcher: dispatcher, feed: feed}, nil
}

// Publish sends events, errors are logged only
func (p *Direct) Publish(ctx context.Context, events []messages.Event) {
	if len(events) == 0 {
		return
	}
	if err := p.dispatcher.Dispatch(ctx, events); err != nil {
		goapp.Log.Error().Err(err).Msg("can't dispatch events")
	}
	if p.feed != nil {
		if err := sendStatus(ctx, p.feed, events); err != nil {
			goapp.Log.Error().Err(err).Msg("can't send status")
		}
	}
}

// Queue puts events into the notify queue for the notifier service
type Queue struct {
	sender MsgSender
}

// NewQueue creates queue publisher
func NewQueue(sender MsgSender) (*Queue, error) {
	if sender == nil {
		return nil, fmt.Errorf("no sender")
	}
	return &Queue{sender: sender}, nil
}

// Publish enqueues events, errors are logged only
func (p *Queue) Publish(ctx context.Context, events []messages.Event) {
	var errs error
	for _, e := range events {
		if e.Kind == messages.StatusChanged {
			continue
		}
		msg := &messages.NotifyMessage{QueueMessage: amessages.QueueMessage{ID: uuid.NewString()}, Event: e}
		if err := p.sender.SendMessage(ctx, msg, messages.Notify); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", e.Kind, err))
		}
	}
	errs = multierr.Append(errs, sendStatus(ctx, p.sender, events))
	if errs != nil {
		goapp.Log.Error().Err(errs).Msg("can't enqueue events")
	}
}

func sendStatus(ctx context.Context, sender MsgSender, events []messages.Event) error {
	var res error
	for i := range events {
		if events[i].Kind != messages.StatusChanged {
			continue
		}
		msg := messages.NewStatusMessageFrom(&events[i])
		msg.ID = uuid.NewString()
		if err := sender.SendMessage(ctx, msg, messages.StatusChange); err != nil {
			res = multierr.Append(res, err)
		}
	}
	return res
}
