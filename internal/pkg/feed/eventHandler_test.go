package feed

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/messages"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/status"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/test"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/test/memdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vgarvardt/gue/v5"
)

var (
	handlerMock *mockWSConnHandler
	hndData     *HandlerData
	connMock    *mockWSConn
)

func initHandlerTest(t *testing.T) {
	t.Helper()
	dbMock = memdb.New()
	handlerMock = &mockWSConnHandler{}
	connMock = &mockWSConn{}
	hndData = &HandlerData{DB: dbMock, GueClient: &gue.Client{}, WorkerCount: 10, WSHandler: handlerMock}
	handlerMock.On("GetConnections", mock.Anything).Return([]WsConn{connMock}, true)
	connMock.On("WriteJSON", mock.Anything).Return(nil)
}

func TestHandleStatus(t *testing.T) {
	initHandlerTest(t)
	b := addBooking(t, status.Started)

	err := handleStatus(test.Ctx(t), &messages.StatusMessage{BookingID: b.ID, Status: status.Started}, hndData)

	assert.Nil(t, err)
	handlerMock.AssertCalled(t, "GetConnections", strconv.FormatInt(b.ID, 10))
	require.Equal(t, 1, len(connMock.Calls))
	assert.Equal(t, mapBooking(dbMock.Booking(b.ID)), connMock.Calls[0].Arguments[0])
}

func TestHandleStatus_NoConn(t *testing.T) {
	initHandlerTest(t)
	handlerMock.ExpectedCalls = nil
	handlerMock.On("GetConnections", mock.Anything).Return(nil, false)

	err := handleStatus(test.Ctx(t), &messages.StatusMessage{BookingID: 1}, hndData)

	assert.Nil(t, err)
	assert.Equal(t, 0, len(connMock.Calls))
}

func TestHandleStatus_NoBooking(t *testing.T) {
	initHandlerTest(t)

	err := handleStatus(test.Ctx(t), &messages.StatusMessage{BookingID: 1000}, hndData)

	assert.Nil(t, err)
	assert.Equal(t, 0, len(connMock.Calls))
}

func TestHandleStatus_WriteFailContinues(t *testing.T) {
	initHandlerTest(t)
	b := addBooking(t, status.Started)
	failing := &mockWSConn{}
	failing.On("WriteJSON", mock.Anything).Return(fmt.Errorf("olia"))
	handlerMock.ExpectedCalls = nil
	handlerMock.On("GetConnections", mock.Anything).Return([]WsConn{failing, connMock}, true)

	err := handleStatus(test.Ctx(t), &messages.StatusMessage{BookingID: b.ID}, hndData)

	assert.Nil(t, err)
	assert.Equal(t, 1, len(connMock.Calls))
}

func TestValidateHandler(t *testing.T) {
	initHandlerTest(t)
	tests := []struct {
		name    string
		data    *HandlerData
		wantErr bool
	}{
		{name: "OK", data: &HandlerData{DB: dbMock, GueClient: &gue.Client{}, WorkerCount: 10, WSHandler: handlerMock}},
		{name: "no DB", data: &HandlerData{GueClient: &gue.Client{}, WorkerCount: 10, WSHandler: handlerMock}, wantErr: true},
		{name: "no gue", data: &HandlerData{DB: dbMock, WorkerCount: 10, WSHandler: handlerMock}, wantErr: true},
		{name: "no workers", data: &HandlerData{DB: dbMock, GueClient: &gue.Client{}, WSHandler: handlerMock}, wantErr: true},
		{name: "no handler", data: &HandlerData{DB: dbMock, GueClient: &gue.Client{}, WorkerCount: 10}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, validateHandler(tt.data) != nil)
		})
	}
}
