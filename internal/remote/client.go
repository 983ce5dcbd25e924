// Package remote is the client for the student payments endpoint: a single
// URL that accepts an action-tagged JSON object by POST and answers with a
// JSON object carrying a success flag.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/studentpay/internal/domain/model"
	"github.com/okian/studentpay/pkg/logger"
	"github.com/okian/studentpay/pkg/metrics"
)

// Messages returned in failure results.
const (
	MsgUnknownError       = "Unknown error"
	MsgInvalidResponse    = "Invalid response"
	MsgCredentialsMissing = "Username and PIN required"
	MsgInvalidCredentials = "Invalid credentials"
	MsgFetchStudents      = "Failed to fetch students"
	MsgPaymentMissing     = "Missing payment data"
	MsgAddPayment         = "Failed to add payment"
)

const (
	defaultUserAgent = "studentpay-client/1"
	requestIDHeader  = "X-Request-ID"
	// maxBodyBytes caps how much of a reply is read.
	maxBodyBytes = 8 << 20
)

// errNotObject marks a 2xx body that does not decode into an envelope.
var errNotObject = errors.New("response body is not a JSON object")

// Client calls the remote endpoint. It holds no per-call state and is safe
// for concurrent use.
type Client struct {
	endpoint  string
	http      Doer
	logger    logger.Logger
	recorder  Recorder
	userAgent string
}

// New creates a Client for endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:  endpoint,
		http:      http.DefaultClient,
		logger:    logger.Nop(),
		recorder:  globalRecorder{},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Call posts req and returns the decoded reply. Transport failures, non-2xx
// statuses and undecodable bodies are folded into an unsuccessful Envelope;
// Call never returns an error.
func (c *Client) Call(ctx context.Context, req model.Request) model.Envelope {
	action := string(req.ActionName())
	reqID := uuid.NewString()
	log := c.logger.With(logger.String("action", action), logger.String("request_id", reqID))

	start := time.Now()
	env, outcome, err := c.do(ctx, reqID, req)
	elapsed := time.Since(start)
	c.recorder.RecordRemoteRequest(action, outcome, float64(elapsed.Milliseconds()))

	switch {
	case err != nil:
		log.Warn(ctx, "remote call failed", logger.String("outcome", outcome), logger.Duration("elapsed", elapsed), logger.Error(err))
	case !env.Success:
		log.Info(ctx, "remote rejected request", logger.String("message", env.Message), logger.Duration("elapsed", elapsed))
	default:
		log.Debug(ctx, "remote call succeeded", logger.Duration("elapsed", elapsed))
	}
	return env
}

// do performs the round trip. On failure it still returns the envelope to
// hand back, plus the error for logging.
func (c *Client) do(ctx context.Context, reqID string, payload any) (model.Envelope, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return model.Failure(describe(err)), metrics.OutcomeTransport, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.Failure(describe(err)), metrics.OutcomeTransport, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Failure(describe(err)), metrics.OutcomeTransport, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		msg := fmt.Sprintf("Network error: %d %s", resp.StatusCode, statusText(resp))
		return model.Failure(msg), metrics.OutcomeHTTPError, errors.New(msg)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.Failure(describe(err)), metrics.OutcomeTransport, fmt.Errorf("failed to read response body: %w", err)
	}

	env, err := decodeEnvelope(data)
	if err != nil {
		return model.Failure(MsgInvalidResponse), metrics.OutcomeInvalid, err
	}
	if !env.Success {
		return env, metrics.OutcomeRejected, nil
	}
	return env, metrics.OutcomeSuccess, nil
}

// decodeEnvelope parses a reply body. A literal null decodes to a zero
// (unsuccessful) envelope, so operation defaults apply to it.
func decodeEnvelope(data []byte) (model.Envelope, error) {
	var env model.Envelope
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return env, fmt.Errorf("empty body: %w", errNotObject)
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return model.Envelope{}, fmt.Errorf("%w: %v", errNotObject, err)
	}
	return env, nil
}

// statusText returns the reason phrase the server sent, falling back to
// the standard text for the code.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// describe turns a transport error into the message shown to users.
func describe(err error) string {
	if err == nil {
		return MsgUnknownError
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return MsgUnknownError
}
