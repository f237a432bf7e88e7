package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/A4RehmanSE/DT-Test/internal/pkg/utils"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/cenkalti/backoff/v4"
)

// Client sends SMS through HTTP gateway
type Client struct {
	httpclient *http.Client
	url        string
	apiKey     string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewClient creates SMS gateway client
func NewClient(url, apiKey string) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("no sms URL")
	}
	res := &Client{url: url, apiKey: apiKey}
	res.httpclient = utils.NewHTTPClient()
	res.timeout = time.Second * 10
	res.backoff = utils.NewSimpleBackoff
	return res, nil
}

type request struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

// Send sends one message
func (c *Client) Send(ctx context.Context, from, to, body string) error {
	if to == "" {
		return fmt.Errorf("no recipient number")
	}
	b, err := json.Marshal(request{From: from, To: to, Body: body})
	if err != nil {
		return fmt.Errorf("can't marshal sms: %w", err)
	}
	_, err = goapp.InvokeWithBackoff(ctx, func() (bool, bool, error) {
		ctx, cancelF := context.WithTimeout(ctx, c.timeout)
		defer cancelF()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
		if err != nil {
			return false, false, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		goapp.Log.Debug().Str("url", req.URL.String()).Str("to", goapp.Sanitize(to)).Msg("call")
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
