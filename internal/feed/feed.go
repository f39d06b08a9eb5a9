package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appLog "craftcal/internal/log"
	"craftcal/internal/metrics"
	"craftcal/internal/model"
)

// ErrNoEndpoint is returned when no feed endpoint is configured.
var ErrNoEndpoint = errors.New("feed: endpoint is not configured")

// ErrBadEnvelope is returned when the response is not a {"body": "<json>"}
// envelope whose body is itself a JSON object.
var ErrBadEnvelope = errors.New("feed: malformed envelope")

// maxBodyBytes caps how much of a feed response is read.
const maxBodyBytes = 8 << 20

// StatusError reports a non-2xx feed response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "feed: unexpected status " + e.Status
}

// Fetcher reads the event feed from a single endpoint.
type Fetcher struct {
	client   *http.Client
	endpoint string
}

// NewFetcher creates a Fetcher for endpoint. A zero timeout falls back to
// 15 seconds.
func NewFetcher(endpoint string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

// WithClient replaces the HTTP client. Tests use it with httptest servers.
func (f *Fetcher) WithClient(c *http.Client) *Fetcher {
	f.client = c
	return f
}

// Fetch performs one GET against the endpoint and returns the normalized
// date -> events mapping. Errors are returned to the caller; use Load for
// the degrade-to-empty behavior the calendar wants.
func (f *Fetcher) Fetch(ctx context.Context) (model.Mapping, error) {
	if f.endpoint == "" {
		return nil, ErrNoEndpoint
	}

	start := time.Now()
	defer func() {
		metrics.FeedFetchDuration.Observe(float64(time.Since(start).Milliseconds()))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	appLog.Debug("feed fetch start", "url", redactURL(f.endpoint))

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.FeedFetches.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("feed: get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.FeedFetches.WithLabelValues("http_error").Inc()
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.FeedFetches.WithLabelValues("network_error").Inc()
		return nil, fmt.Errorf("feed: read body: %w", err)
	}

	m, err := Decode(body)
	if err != nil {
		metrics.FeedFetches.WithLabelValues("bad_envelope").Inc()
		return nil, err
	}

	metrics.FeedFetches.WithLabelValues("ok").Inc()
	metrics.FeedEvents.Set(float64(m.Len()))
	appLog.Info("feed fetch success", "url", redactURL(f.endpoint), "status", resp.StatusCode, "event_count", m.Len())
	return m, nil
}

// Load is Fetch with the calendar's failure semantics: any error is logged
// and an empty mapping is returned, so callers always have something to
// render.
func (f *Fetcher) Load(ctx context.Context) model.Mapping {
	m, err := f.Fetch(ctx)
	if err != nil {
		appLog.Error("feed unavailable; showing empty calendar", err, "url", redactURL(f.endpoint))
		return model.Mapping{}
	}
	return m
}

// envelope is the outer wrapper returned by the endpoint. Body holds a
// JSON document encoded as a string.
type envelope struct {
	Body *string `json:"body"`
}

type payload struct {
	FoundEvents json.RawMessage `json:"found_events"`
}

// Decode unwraps the envelope and groups events by their date field.
//
// A missing or non-array found_events yields an empty mapping and no error.
// Individual events that fail to decode, or carry no date, are skipped.
func Decode(raw []byte) (model.Mapping, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if env.Body == nil {
		return nil, fmt.Errorf("%w: missing body", ErrBadEnvelope)
	}

	var p payload
	if err := json.Unmarshal([]byte(*env.Body), &p); err != nil {
		return nil, fmt.Errorf("%w: body: %v", ErrBadEnvelope, err)
	}

	out := model.Mapping{}
	trimmed := bytes.TrimSpace(p.FoundEvents)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return out, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return out, nil
	}

	for i, item := range items {
		var ev model.Event
		if err := json.Unmarshal(item, &ev); err != nil {
			appLog.Debug("feed: skipping undecodable event", "index", i, "err", err)
			continue
		}
		date := strings.TrimSpace(ev.Date)
		if date == "" {
			appLog.Debug("feed: skipping event without date", "index", i, "name", ev.Name)
			continue
		}
		ev.Date = date
		out[date] = append(out[date], ev)
	}
	return out, nil
}

// redactURL hides path and query of the endpoint for logging purposes.
// Example:
//
//	https://abc.execute-api.example.com/prod/events?key=x
//	-> https://abc.execute-api.example.com/...(redacted)
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return "feed://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + redactedSuffix
}
