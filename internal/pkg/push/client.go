package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/persistence"
	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"
)

// Notification types sent in push data
const (
	TypeSuitableJob        = "suitable_job"
	TypeJobExpired         = "job_expired"
	TypeJobAccepted        = "job_accepted"
	TypeJobCancelled       = "job_cancelled"
	TypeSessionStartRemind = "session_start_remind"
)

// Payload is a push message
type Payload struct {
	Type      string
	JobID     int64
	Text      string
	Immediate bool
}

// Client sends push notifications with OneSignal REST API
type Client struct {
	httpclient *http.Client
	url        string
	appID      string
	apiKey     string
	title      string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewClient creates a push client
func NewClient(url, appID, apiKey string) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("no push URL")
	}
	if appID == "" {
		return nil, fmt.Errorf("no push app ID")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no push API key")
	}
	res := &Client{url: url, appID: appID, apiKey: apiKey, title: "DigitalTolk"}
	res.httpclient = utils.NewHTTPClient()
	res.timeout = time.Second * 20
	res.backoff = utils.NewSimpleBackoff
	return res, nil
}

type tag struct {
	Key      string `json:"key,omitempty"`
	Relation string `json:"relation,omitempty"`
	Value    string `json:"value,omitempty"`
	Operator string `json:"operator,omitempty"`
}

type request struct {
	AppID         string            `json:"app_id"`
	Tags          []tag             `json:"tags"`
	Data          map[string]string `json:"data"`
	Title         map[string]string `json:"title"`
	Contents      map[string]string `json:"contents"`
	IOSBadgeType  string            `json:"ios_badgeType"`
	IOSBadgeCount int               `json:"ios_badgeCount"`
	AndroidSound  string            `json:"android_sound"`
	IOSSound      string            `json:"ios_sound"`
	SendAfter     string            `json:"send_after,omitempty"`
}

// SendBatch sends one push to all recipients, deliverAfter delays the delivery
func (c *Client) SendBatch(ctx context.Context, recipients []*persistence.User, p *Payload, deliverAfter *time.Time) error {
	if len(recipients) == 0 {
		return nil
	}
	body, err := json.Marshal(c.makeRequest(recipients, p, deliverAfter))
	if err != nil {
		return fmt.Errorf("can't marshal push: %w", err)
	}
	_, err = goapp.InvokeWithBackoff(ctx, func() (bool, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, c.timeout)
		defer cancelF()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return false, false, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Basic "+c.apiKey)
		goapp.Log.Info().Str("url", req.URL.String()).Int64("jobID", p.JobID).Int("recipients", len(recipients)).Msg("call")
		resp, err := c.httpclient.Do(req)
		if err != nil {
			return false, goapp.IsRetryableErr(err), fmt.Errorf("can't call: %w", err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 10000))
			_ = resp.Body.Close()
		}()
		if err := goapp.ValidateHTTPResp(resp, 100); err != nil {
			return false, goapp.IsRetryableCode(resp.StatusCode), fmt.Errorf("can't invoke '%s': %w", req.URL.String(), err)
		}
		return true, false, nil
	}, c.backoff())
	return err
}

func (c *Client) makeRequest(recipients []*persistence.User, p *Payload, deliverAfter *time.Time) *request {
	res := &request{AppID: c.appID, IOSBadgeType: "Increase", IOSBadgeCount: 1,
		Title: map[string]string{"en": c.title}, Contents: map[string]string{"en": p.Text},
		Data: map[string]string{"notification_type": p.Type, "job_id": strconv.FormatInt(p.JobID, 10)}}
	res.AndroidSound, res.IOSSound = sounds(p)
	for i, u := range recipients {
		if i > 0 {
			res.Tags = append(res.Tags, tag{Operator: "OR"})
		}
		res.Tags = append(res.Tags, tag{Key: "email", Relation: "=", Value: u.Email})
	}
	if deliverAfter != nil {
		res.SendAfter = deliverAfter.Format("2006-01-02 15:04:05 GMT-0700")
	}
	return res
}

func sounds(p *Payload) (string, string) {
	if p.Type != TypeSuitableJob {
		return "default", "default"
	}
	if p.Immediate {
		return "emergency_booking", "emergency_booking.mp3"
	}
	return "normal_booking", "normal_booking.mp3"
}
