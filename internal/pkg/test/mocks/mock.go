package mocks

import (
	"context"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/mail"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/push"
	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/stretchr/testify/mock"
)

// Sender is postgres queue mock
type Sender struct{ mock.Mock }

func (m *Sender) SendMessage(ctx context.Context, msg amessages.Message, queue string) error {
	args := m.Called(ctx, msg, queue)
	return args.Error(0)
}

// Mailer is mail mock
type Mailer struct{ mock.Mock }

func (m *Mailer) Send(ctx context.Context, to, name, subject, key string, data *mail.Data) error {
	args := m.Called(ctx, to, name, subject, key, data)
	return args.Error(0)
}

// Push is push provider mock
type Push struct{ mock.Mock }

func (m *Push) SendBatch(ctx context.Context, recipients []*persistence.User, p *push.Payload, deliverAfter *time.Time) error {
	args := m.Called(ctx, recipients, p, deliverAfter)
	return args.Error(0)
}

// SMS is sms provider mock
type SMS struct{ mock.Mock }

func (m *SMS) Send(ctx context.Context, from, to, body string) error {
	args := m.Called(ctx, from, to, body)
	return args.Error(0)
}

// Dispatcher is event dispatcher mock
type Dispatcher struct{ mock.Mock }

func (m *Dispatcher) Dispatch(ctx context.Context, events []messages.Event) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// Publisher collects published events
type Publisher struct{ mock.Mock }

func (m *Publisher) Publish(ctx context.Context, events []messages.Event) {
	m.Called(ctx, events)
}

// Events returns all published events
func (m *Publisher) Events() []messages.Event {
	var res []messages.Event
	for _, c := range m.Calls {
		if c.Method == "Publish" {
			res = append(res, to[[]messages.Event](c.Arguments.Get(1))...)
		}
	}
	return res
}

// Kinds returns kinds of all published events
func (m *Publisher) Kinds() []messages.Kind {
	var res []messages.Kind
	for _, e := range m.Events() {
		res = append(res, e.Kind)
	}
	return res
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
