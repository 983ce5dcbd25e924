package remote

import (
	"net/http"
	"time"

	"github.com/okian/studentpay/pkg/logger"
	"github.com/okian/studentpay/pkg/metrics"
)

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives per-call metrics. *metrics.Manager satisfies it.
type Recorder interface {
	RecordRemoteRequest(action, outcome string, latencyMs float64)
	RecordValidationFailure(action string)
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets the transport used for remote calls.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// WithTimeout builds a dedicated http.Client with the given timeout. Zero
// keeps the transport default (no client-side limit).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder sets where call metrics are recorded.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// globalRecorder forwards to the package-level metrics manager.
type globalRecorder struct{}

func (globalRecorder) RecordRemoteRequest(action, outcome string, latencyMs float64) {
	metrics.RecordRemoteRequest(action, outcome, latencyMs)
}

func (globalRecorder) RecordValidationFailure(action string) {
	metrics.RecordValidationFailure(action)
}
