package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"boulderbot/internal/config"
	"boulderbot/internal/metrics"
	"boulderbot/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client talks to the booking backend over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger
}

// New constructs a client from the backend config section.
func New(cfg config.BackendConfig, logger *zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = models.DefaultBackendTimeout * time.Second
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

// FetchAvailability returns the free slots per facility for [from, to].
// An empty mapping is a valid answer.
func (c *Client) FetchAvailability(ctx context.Context, from, to time.Time) (models.Availability, error) {
	q := url.Values{}
	q.Set("from", from.UTC().Format(models.TimestampLayout))
	q.Set("to", to.UTC().Format(models.TimestampLayout))
	endpoint := c.baseURL + "/book?" + q.Encode()

	status, body, err := c.doGet(ctx, "availability", endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !ok(status) {
		return nil, fmt.Errorf("%w: availability http %d", ErrBackendUnavailable, status)
	}

	availability := models.Availability{}
	if err := json.Unmarshal(body, &availability); err != nil {
		return nil, fmt.Errorf("%w: decode availability: %v", ErrBackendUnavailable, err)
	}
	return availability, nil
}

// UserExists reports whether the backend knows the user. Failures count as
// "does not exist".
func (c *Client) UserExists(ctx context.Context, userID int64) bool {
	status, _, err := c.doGet(ctx, "user", c.userURL(userID))
	if err != nil {
		c.logger.Warn().Err(err).Int64("user_id", userID).Msg("User lookup failed")
		return false
	}
	return ok(status)
}

// FetchProfile returns the backend profile of a user.
func (c *Client) FetchProfile(ctx context.Context, userID int64) (models.Profile, error) {
	status, body, err := c.doGet(ctx, "user", c.userURL(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !ok(status) {
		return nil, ErrProfileNotFound
	}

	profile := models.Profile{}
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", ErrBackendUnavailable, err)
	}
	return profile, nil
}

// SubmitBooking posts the reservation. It is never retried.
func (c *Client) SubmitBooking(ctx context.Context, req models.BookingRequest) error {
	status, _, err := c.doPost(ctx, "book", c.baseURL+"/book", req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !ok(status) {
		return fmt.Errorf("%w: http %d", ErrBookingRejected, status)
	}
	return nil
}

func (c *Client) userURL(userID int64) string {
	return c.baseURL + "/user/" + strconv.FormatInt(userID, 10)
}

func (c *Client) doGet(ctx context.Context, name, endpoint string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, nil, err
	}
	c.addHeaders(req)
	return c.do(name, req)
}

func (c *Client) doPost(ctx context.Context, name, endpoint string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req)
	return c.do(name, req)
}

func (c *Client) do(name string, req *http.Request) (int, []byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return 0, nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveBackend(name, 0, time.Since(start))
		return 0, nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		metrics.ObserveBackend(name, 0, time.Since(start))
		return 0, nil, fmt.Errorf("read body: %w", err)
	}
	metrics.ObserveBackend(name, resp.StatusCode, time.Since(start))

	c.logger.Debug().
		Str("endpoint", name).
		Str("method", req.Method).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("Backend request")

	return resp.StatusCode, buf.Bytes(), nil
}

func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
