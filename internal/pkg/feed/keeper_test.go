package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createTestConn(t *testing.T, msg string, closeChan <-chan struct{}) *mockWSConn {
	t.Helper()
	res := &mockWSConn{}
	res.On("WriteJSON", mock.Anything).Return(nil)
	res.On("ReadMessage").Return(1, []byte(msg), nil).Once()
	res.On("ReadMessage").Return(1, []byte{}, fmt.Errorf("err")).Run(func(args mock.Arguments) {
		<-closeChan
	})
	res.On("Close").Return(nil)
	return res
}

func testHas(t *testing.T, kp *WSConnKeeper, key string, i int) {
	t.Helper()
	ctx := test.Ctx(t)
	for {
		cn, ok := kp.GetConnections(key)
		if ok == (i > 0) && len(cn) == i {
			return
		}
		select {
		case <-ctx.Done():
			require.Failf(t, "timeouted", "not found connections for %s", key)
		case <-time.After(time.Millisecond * 20):
		}
	}
}

func TestHandleConnection(t *testing.T) {
	kp := NewWSConnKeeper(time.Minute)
	closeCtx, cf := context.WithCancel(test.Ctx(t))
	go func() {
		assert.Nil(t, kp.HandleConnection(createTestConn(t, "1", closeCtx.Done())))
	}()
	testHas(t, kp, "1", 1)
	testHas(t, kp, "2", 0)
	cf()
	testHas(t, kp, "1", 0)
}

func TestHandleConnection_SeveralKeys(t *testing.T) {
	kp := NewWSConnKeeper(time.Minute)
	closeCtx, cf := context.WithCancel(test.Ctx(t))
	defer cf()
	go func() {
		assert.Nil(t, kp.HandleConnection(createTestConn(t, " 1, 2 ,,3", closeCtx.Done())))
	}()
	testHas(t, kp, "1", 1)
	testHas(t, kp, "2", 1)
	testHas(t, kp, "3", 1)
}

func TestHandleConnection_All(t *testing.T) {
	kp := NewWSConnKeeper(time.Minute)
	closeCtx, cf := context.WithCancel(test.Ctx(t))
	defer cf()
	go func() {
		assert.Nil(t, kp.HandleConnection(createTestConn(t, "1", closeCtx.Done())))
	}()
	go func() {
		assert.Nil(t, kp.HandleConnection(createTestConn(t, AllKey, closeCtx.Done())))
	}()
	testHas(t, kp, "1", 2)
	testHas(t, kp, "10", 1)
	testHas(t, kp, AllKey, 1)
}

func TestHandleConnection_Several(t *testing.T) {
	kp := NewWSConnKeeper(time.Minute)
	closeCtx, cf := context.WithCancel(test.Ctx(t))
	for i := 0; i < 10; i++ {
		go func() {
			assert.Nil(t, kp.HandleConnection(createTestConn(t, "1", closeCtx.Done())))
		}()
	}
	testHas(t, kp, "1", 10)
	cf()
	testHas(t, kp, "1", 0)
}

func TestHandleConnection_Resubscribe(t *testing.T) {
	kp := NewWSConnKeeper(time.Minute)
	conn := &mockWSConn{}
	kp.subscribe(conn, []string{"1", "2"})
	kp.subscribe(conn, []string{"3"})

	testHas(t, kp, "1", 0)
	testHas(t, kp, "2", 0)
	testHas(t, kp, "3", 1)
	kp.remove(conn)
	testHas(t, kp, "3", 0)
	assert.Empty(t, kp.connKeys)
}

func TestHandleConnection_Timeout(t *testing.T) {
	kp := NewWSConnKeeper(50 * time.Millisecond)
	closeCtx, cf := context.WithCancel(test.Ctx(t))
	defer cf()
	conn := createTestConn(t, "1", closeCtx.Done())

	err := kp.HandleConnection(conn)

	assert.Nil(t, err)
	testHas(t, kp, "1", 0)
	conn.AssertCalled(t, "Close")
}
