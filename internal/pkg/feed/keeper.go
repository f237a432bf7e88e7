package feed

import (
	"strings"
	"sync"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
)

// AllKey subscribes to every booking
const AllKey = "*"

// WsConn is a websocket connection
type WsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	WriteJSON(v interface{}) error
}

// WSConnKeeper keeps connections subscribed to booking ids
type WSConnKeeper struct {
	keyConns map[string]map[WsConn]struct{}
	connKeys map[WsConn][]string
	lock     sync.Mutex
	timeOut  time.Duration
}

// NewWSConnKeeper creates keeper, a connection silent for longer than timeout is closed
func NewWSConnKeeper(timeOut time.Duration) *WSConnKeeper {
	return &WSConnKeeper{keyConns: map[string]map[WsConn]struct{}{}, connKeys: map[WsConn][]string{},
		timeOut: timeOut}
}

// HandleConnection reads subscriptions until the connection is closed or silent for too long.
// Every message replaces subscriptions of the connection: a comma separated booking ids list or "*".
func (kp *WSConnKeeper) HandleConnection(conn WsConn) error {
	defer kp.remove(conn)
	defer conn.Close()
	readCh := make(chan string)
	go func() {
		defer close(readCh)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				goapp.Log.Debug().Err(err).Msg("read ended")
				return
			}
			msg := strings.TrimSpace(string(message))
			goapp.Log.Debug().Str("msg", goapp.Sanitize(msg)).Msg("got msg")
			if msg != "" {
				readCh <- msg
			} else {
				time.Sleep(20 * time.Millisecond)
			}
		}
	}()

	ta := time.After(kp.timeOut)
	for {
		select {
		case <-ta:
			goapp.Log.Debug().Msg("conn timeouted")
			return nil
		case msg, ok := <-readCh:
			if !ok {
				return nil
			}
			kp.subscribe(conn, parseKeys(msg))
			ta = time.After(kp.timeOut)
		}
	}
}

func parseKeys(msg string) []string {
	var res []string
	for _, k := range strings.Split(msg, ",") {
		if k = strings.TrimSpace(k); k != "" {
			res = append(res, k)
		}
	}
	return res
}

func (kp *WSConnKeeper) remove(conn WsConn) {
	kp.lock.Lock()
	defer kp.lock.Unlock()
	kp.unsubscribe(conn)
	goapp.Log.Info().Int("active", len(kp.connKeys)).Msg("connection removed")
}

func (kp *WSConnKeeper) unsubscribe(conn WsConn) {
	for _, k := range kp.connKeys[conn] {
		conns := kp.keyConns[k]
		delete(conns, conn)
		if len(conns) == 0 {
			delete(kp.keyConns, k)
		}
	}
	delete(kp.connKeys, conn)
}

func (kp *WSConnKeeper) subscribe(conn WsConn, keys []string) {
	kp.lock.Lock()
	defer kp.lock.Unlock()
	kp.unsubscribe(conn)
	kp.connKeys[conn] = keys
	for _, k := range keys {
		conns, found := kp.keyConns[k]
		if !found {
			conns = map[WsConn]struct{}{}
			kp.keyConns[k] = conns
		}
		conns[conn] = struct{}{}
	}
	goapp.Log.Info().Strs("keys", keys).Int("active", len(kp.connKeys)).Msg("subscribed")
}

// GetConnections returns connections subscribed to the key or to all bookings, each connection once
func (kp *WSConnKeeper) GetConnections(key string) ([]WsConn, bool) {
	kp.lock.Lock()
	defer kp.lock.Unlock()
	var res []WsConn
	seen := map[WsConn]struct{}{}
	for _, k := range []string{key, AllKey} {
		for c := range kp.keyConns[k] {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				res = append(res, c)
			}
		}
	}
	return res, len(res) > 0
}
