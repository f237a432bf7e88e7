//go:build integration
// +build integration

package integration

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/test"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type config struct {
	apiURL     string
	feedURL    string
	dbURL      string
	httpclient *http.Client
	db         *pgxpool.Pool
}

var cfg config

func TestMain(m *testing.M) {
	cfg.apiURL = GetEnvOrFail("API_URL")
	cfg.feedURL = GetEnvOrFail("FEED_URL")
	cfg.dbURL = GetEnvOrFail("DB_URL")
	cfg.httpclient = &http.Client{Timeout: time.Second * 30}

	tCtx, cf := context.WithTimeout(context.Background(), time.Second*20)
	defer cf()
	WaitForOpenOrFail(tCtx, cfg.dbURL)
	WaitForOpenOrFail(tCtx, cfg.apiURL)
	WaitForOpenOrFail(tCtx, cfg.feedURL)
	waitForDB(tCtx, cfg.dbURL)

	var err error
	cfg.db, err = pgxpool.New(context.Background(), cfg.dbURL)
	if err != nil {
		panic(err)
	}
	if _, err := cfg.db.Exec(tCtx, `INSERT INTO languages (id, name) VALUES (1, 'Svenska') ON CONFLICT DO NOTHING`); err != nil {
		panic(err)
	}
	res := m.Run()
	cfg.db.Close()
	os.Exit(res)
}

type statusData struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

type bookingData struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func TestAPILive(t *testing.T) {
	t.Parallel()
	test.CheckCode(t, test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodGet, cfg.apiURL, "/live", 0, nil)), http.StatusOK)
}

func TestFeedLive(t *testing.T) {
	t.Parallel()
	test.CheckCode(t, test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodGet, cfg.feedURL, "/live", 0, nil)), http.StatusOK)
}

func TestAPI_Unauthorized(t *testing.T) {
	t.Parallel()
	test.CheckCode(t, test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodGet, cfg.apiURL, "/jobs", 0, nil)),
		http.StatusUnauthorized)
}

func TestFeedStatus_None(t *testing.T) {
	t.Parallel()
	st := getStatus(t, 0)
	assert.Equal(t, "NOT_FOUND", st.Error)
}

func TestBooking_Flow(t *testing.T) {
	t.Parallel()
	ctx := test.Ctx(t)
	customer := newUser(ctx, t, "customer")
	translator := newUser(ctx, t, "translator")

	b := createBooking(t, customer)
	assert.Equal(t, "pending", b.Status)
	assert.Equal(t, "pending", getStatus(t, b.ID).Status)

	ws := dialFeed(t, strconv.FormatInt(b.ID, 10))
	// let the feed register the subscription
	time.Sleep(500 * time.Millisecond)

	resp := test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodPost, cfg.apiURL,
		"/bookings/"+strconv.FormatInt(b.ID, 10)+"/accept", translator, nil))
	test.CheckCode(t, resp, http.StatusOK)

	require.Nil(t, ws.SetReadDeadline(time.Now().Add(10*time.Second)))
	var st statusData
	require.Nil(t, ws.ReadJSON(&st))
	assert.Equal(t, b.ID, st.ID)
	assert.Equal(t, "assigned", st.Status)

	resp = test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodPost, cfg.apiURL,
		"/bookings/"+strconv.FormatInt(b.ID, 10)+"/accept", translator, nil))
	test.CheckCode(t, resp, http.StatusConflict)
}

func TestBooking_Cancel(t *testing.T) {
	t.Parallel()
	ctx := test.Ctx(t)
	customer := newUser(ctx, t, "customer")
	other := newUser(ctx, t, "customer")

	b := createBooking(t, customer)
	test.CheckCode(t, test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodPost, cfg.apiURL,
		"/bookings/"+strconv.FormatInt(b.ID, 10)+"/cancel", other, nil)), http.StatusForbidden)
	test.CheckCode(t, test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodPost, cfg.apiURL,
		"/bookings/"+strconv.FormatInt(b.ID, 10)+"/cancel", customer, nil)), http.StatusOK)
	assert.Equal(t, "withdrawbefore24", getStatus(t, b.ID).Status)
}

func createBooking(t *testing.T, customer int64) bookingData {
	t.Helper()
	due := time.Now().Add(72 * time.Hour)
	resp := test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodPost, cfg.apiURL, "/bookings", customer,
		map[string]any{"from_language_id": 1, "duration": 30, "customer_phone_type": true,
			"due_date": due.Format("01/02/2006"), "due_time": due.Format("15:04")}))
	test.CheckCode(t, resp, http.StatusCreated)
	return test.Decode[bookingData](t, resp)
}

func getStatus(t *testing.T, id int64) statusData {
	t.Helper()
	resp := test.Invoke(t, cfg.httpclient, NewRequest(t, http.MethodGet, cfg.feedURL, "status/"+strconv.FormatInt(id, 10), 0, nil))
	test.CheckCode(t, resp, http.StatusOK)
	return test.Decode[statusData](t, resp)
}
