// Package backend is the HTTP client for the map rendering service endpoints
// the wizard consults: place-name search, reverse geocoding and allowed paper
// sizes.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "plat-mapwizard/0.1"

// StatusError is returned when an endpoint answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// Client talks to the rendering service.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit caps outbound requests per second. Zero disables the limit.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchPlaces queries the place-name endpoint. exclude is the opaque
// exclusion list returned by a previous page, or empty.
func (c *Client) SearchPlaces(ctx context.Context, text, exclude string) (SearchResult, error) {
	params := url.Values{}
	params.Set("q", text)
	if exclude != "" {
		params.Set("exclude", exclude)
	}

	var out SearchResult
	if err := c.getJSON(ctx, "search places", "/apis/nominatim/?"+params.Encode(), &out); err != nil {
		return SearchResult{}, err
	}
	return out, nil
}

// ReverseGeocode returns the country code of the place containing lat/lon.
// The first entry carrying a country code wins; an empty string means none.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	path := fmt.Sprintf("/apis/reversegeo/%s/%s/",
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))

	var places []struct {
		CountryCode *string `json:"country_code"`
	}
	if err := c.getJSON(ctx, "reverse geocode", path, &places); err != nil {
		return "", err
	}
	for _, p := range places {
		if p.CountryCode != nil && *p.CountryCode != "" {
			return *p.CountryCode, nil
		}
	}
	return "", nil
}

// PaperSizes posts the area and rendering options and returns the allowed
// paper definitions.
func (c *Client) PaperSizes(ctx context.Context, q PaperQuery) ([]PaperSize, error) {
	form := url.Values{}
	if q.OsmID != 0 {
		form.Set("osmid", strconv.FormatInt(q.OsmID, 10))
	} else {
		fields := q.Bounds.Fields()
		form.Set("lat_upper_left", fields.LatUpperLeft)
		form.Set("lon_upper_left", fields.LonUpperLeft)
		form.Set("lat_bottom_right", fields.LatBottomRight)
		form.Set("lon_bottom_right", fields.LonBottomRight)
	}
	form.Set("layout", q.Layout)
	form.Set("stylesheet", q.Stylesheet)

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/apis/papersize/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out []PaperSize
	if err := c.do(req, "paper sizes", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, op, out)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if req.Context().Err() == nil {
			c.log.Warn("backend request failed", "op", op, "error", err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.log.Warn("backend returned error status", "op", op, "status", resp.StatusCode)
		return &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
