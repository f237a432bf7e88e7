package utils

import (
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// NewHTTPClient returns client tuned for many calls to the same host
func NewHTTPClient() *http.Client {
	return &http.Client{Transport: newTransport()}
}

func newTransport() http.RoundTripper {
	// default roundripper has just 2 idle connections per host
	res := http.DefaultTransport.(*http.Transport).Clone()
	res.MaxConnsPerHost = 100
	res.MaxIdleConns = 50
	res.MaxIdleConnsPerHost = 50
	res.IdleConnTimeout = 90 * time.Second
	return res
}

// NewSimpleBackoff returns exponential backoff with 3 retries
func NewSimpleBackoff() backoff.BackOff {
	res := backoff.NewExponentialBackOff()
	return backoff.WithMaxRetries(res, 3)
}
