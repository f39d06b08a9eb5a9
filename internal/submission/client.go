package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	appLog "craftcal/internal/log"
)

// ConfirmationDelay is how long the success banner stays up.
const ConfirmationDelay = 5 * time.Second

// GenericFailure is shown when the endpoint gives no usable message.
const GenericFailure = "We couldn't submit your event. Please try again."

// ErrNoEndpoint is returned when no endpoint is configured.
var ErrNoEndpoint = errors.New("submission: endpoint is not configured")

// ErrInFlight is returned when a submission for the same form is still
// outstanding.
var ErrInFlight = errors.New("submission: already in progress")

// SubmitError is a failed submission. Message is safe to show to users.
type SubmitError struct {
	StatusCode int // 0 for transport errors
	Message    string
	Err        error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return "submission failed: " + e.Err.Error()
	}
	return "submission failed: " + e.Message
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Client posts event submissions to the endpoint.
type Client struct {
	client   *http.Client
	endpoint string
}

// NewClient creates a Client. A zero timeout falls back to 15 seconds.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

// WithClient replaces the HTTP client.
func (c *Client) WithClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

// Submit POSTs p as JSON. It makes exactly one attempt.
func (c *Client) Submit(ctx context.Context, p Payload) error {
	if c.endpoint == "" {
		return &SubmitError{Message: GenericFailure, Err: ErrNoEndpoint}
	}

	body, err := json.Marshal(p)
	if err != nil {
		return &SubmitError{Message: GenericFailure, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &SubmitError{Message: GenericFailure, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &SubmitError{Message: GenericFailure, Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &SubmitError{
			StatusCode: resp.StatusCode,
			Message:    failureMessage(raw),
			Err:        errors.New(resp.Status),
		}
	}

	appLog.Info("event submitted", "status", resp.StatusCode, "name", p.Name, "date", p.Date)
	return nil
}

// failureMessage pulls "message" out of a JSON error body.
func failureMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		return GenericFailure
	}
	return body.Message
}

// Guard allows one in-flight submission per form token.
type Guard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewGuard returns an empty Guard.
func NewGuard() *Guard {
	return &Guard{inFlight: make(map[string]struct{})}
}

// Begin marks token as submitting. The returned release must be called
// when the submission completes.
func (g *Guard) Begin(token string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[token]; busy {
		return nil, ErrInFlight
	}
	g.inFlight[token] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, token)
			g.mu.Unlock()
		})
	}, nil
}

// Busy reports whether token has a submission outstanding.
func (g *Guard) Busy(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inFlight[token]
	return busy
}
