package salonapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/belvedhair/booking-widget/pkg/logging"
)

const defaultTimeout = 20 * time.Second

// APIError is a non-success response from the booking backend. The body is
// kept verbatim so callers can surface whatever the backend sent.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	msg := e.Body
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return fmt.Sprintf("salonapi: status %d: %s", e.StatusCode, msg)
}

// LatencyObserver records how long one backend round trip took.
type LatencyObserver interface {
	ObserveUpstreamLatency(endpoint string, seconds float64)
}

// Client is a stateless HTTP client for the external booking backend. All
// business logic (availability, conflict prevention, persistence) lives on
// the backend; this client only shapes requests and decodes responses.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	latency    LatencyObserver
}

// New creates a booking backend client for the given base URL.
func New(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetLatencyObserver enables per-endpoint latency recording.
func (c *Client) SetLatencyObserver(obs LatencyObserver) {
	c.latency = obs
}

// Barbers returns the bookable staff list. Fetched once at startup by the
// widget and reused for the lifetime of the process.
func (c *Client) Barbers(ctx context.Context) ([]Barber, error) {
	var out []Barber
	if err := c.get(ctx, "/barbers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MonthOverview returns the per-day free-slot counts for one barber/month.
func (c *Client) MonthOverview(ctx context.Context, barberID, month string) (*MonthOverview, error) {
	q := url.Values{}
	q.Set("barber_id", barberID)
	q.Set("month", month)
	var out MonthOverview
	if err := c.get(ctx, "/month_overview", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Availability returns the free slot start times for one barber/date.
func (c *Client) Availability(ctx context.Context, barberID, date string) ([]string, error) {
	q := url.Values{}
	q.Set("barber_id", barberID)
	q.Set("d", date)
	var out availabilityResponse
	if err := c.get(ctx, "/availability", q, &out); err != nil {
		return nil, err
	}
	return out.Slots, nil
}

// Book submits a confirmed booking and returns the backend's booking id.
func (c *Client) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	var out BookResult
	if err := c.post(ctx, "/book", nil, req, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitPriorityRequest notifies staff of interest in an overbooked slot.
// No booking id is expected back.
func (c *Client) SubmitPriorityRequest(ctx context.Context, req PriorityRequest) error {
	return c.post(ctx, "/priority_request", nil, req, nil, nil)
}

// AdminBookings lists bookings in the inclusive [frm, to] date range,
// optionally filtered by barber. Requires admin credentials.
func (c *Client) AdminBookings(ctx context.Context, creds Credentials, frm, to, barberID string) ([]AdminBookingItem, error) {
	q := url.Values{}
	q.Set("frm", frm)
	q.Set("to", to)
	if barberID != "" {
		q.Set("barber_id", barberID)
	}
	var out adminBookingsResponse
	if err := c.do(ctx, http.MethodGet, "/admin/bookings", q, nil, &out, &creds); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// AdminCancel cancels a booking by id. Any OK status means success.
func (c *Client) AdminCancel(ctx context.Context, creds Credentials, bookingID string) error {
	q := url.Values{}
	q.Set("booking_id", bookingID)
	return c.do(ctx, http.MethodPost, "/admin/cancel", q, nil, nil, &creds)
}

// AdminTimeOff submits a time-off block for a barber.
func (c *Client) AdminTimeOff(ctx context.Context, creds Credentials, req TimeOffRequest) error {
	return c.post(ctx, "/admin/time_off", nil, req, nil, &creds)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, nil)
}

func (c *Client) post(ctx context.Context, path string, query url.Values, body, out any, creds *Credentials) error {
	return c.do(ctx, http.MethodPost, path, query, body, out, creds)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, creds *Credentials) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("salonapi: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("salonapi: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds != nil {
		req.Header.Set("Authorization", creds.AuthorizationHeader())
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.latency != nil {
		c.latency.ObserveUpstreamLatency(path, time.Since(started).Seconds())
	}
	if err != nil {
		return fmt.Errorf("salonapi: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("salonapi: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("booking backend rejected request",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("salonapi: unmarshal response: %w", err)
	}
	return nil
}
