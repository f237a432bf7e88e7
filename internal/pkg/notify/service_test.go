package notify

import (
	"fmt"
	"testing"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/test"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/test/mocks"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vgarvardt/gue/v5"
)

func TestStartWorkerService_Fail(t *testing.T) {
	tests := []struct {
		name string
		data *ServiceData
	}{
		{name: "no gue", data: &ServiceData{WorkerCount: 1, Dispatcher: &mocks.Dispatcher{}}},
		{name: "no workers", data: &ServiceData{GueClient: &gue.Client{}, Dispatcher: &mocks.Dispatcher{}}},
		{name: "no dispatcher", data: &ServiceData{GueClient: &gue.Client{}, WorkerCount: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StartWorkerService(test.Ctx(t), tt.data)
			assert.NotNil(t, err)
		})
	}
}

func TestHandleNotify(t *testing.T) {
	d := &mocks.Dispatcher{}
	d.On("Dispatch", mock.Anything, mock.Anything).Return(nil)
	e := messages.Event{Kind: messages.JobCreatedMail, BookingID: 10}

	err := handleNotify(test.Ctx(t), &messages.NotifyMessage{QueueMessage: amessages.QueueMessage{ID: "1"}, Event: e},
		&ServiceData{Dispatcher: d})

	require.Nil(t, err)
	assert.Equal(t, []messages.Event{e}, d.Calls[0].Arguments.Get(1))
}

func TestHandleNotify_Fail(t *testing.T) {
	d := &mocks.Dispatcher{}
	d.On("Dispatch", mock.Anything, mock.Anything).Return(fmt.Errorf("olia"))

	err := handleNotify(test.Ctx(t), &messages.NotifyMessage{Event: messages.Event{Kind: messages.JobCreatedMail}},
		&ServiceData{Dispatcher: d})

	assert.NotNil(t, err)
}

func TestNotifyWorkFunc_Retry(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{name: "ok", err: nil, retry: false},
		{name: "load", err: fmt.Errorf("can't load booking: olia"), retry: true},
		{name: "delivery", err: utils.NewDeliveryError("push", 10, []string{"a@o.lt"}, fmt.Errorf("olia")), retry: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mocks.Dispatcher{}
			d.On("Dispatch", mock.Anything, mock.Anything).Return(tt.err)
			f := notifyWorkFunc(&ServiceData{Dispatcher: d, Testing: true})

			err := f(test.Ctx(t), &gue.Job{Queue: messages.Notify, Args: []byte(`{"event":{"kind":"accepted_push","bookingID":10}}`)})

			assert.Equal(t, tt.retry, err != nil)
			d.AssertNumberOfCalls(t, "Dispatch", 1)
		})
	}
}
