// Package places is a client for the external places provider (Google Places JSON web service).
// Provider statuses and transport failures are normalized into *apperr.Error kinds; the
// client never retries.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mecabal-location/internal/apperr"
	"mecabal-location/internal/metrics"
	"mecabal-location/internal/models"
)

const (
	// DefaultBaseURL is the Places web service root.
	DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"
	// MaxRadiusM is the largest radius the provider accepts for biased and nearby searches.
	MaxRadiusM = 50000

	detailsFields = "place_id,name,formatted_address,vicinity,geometry/location,types,rating,user_ratings_total"
)

// Bias restricts a text search to a circle around a point.
type Bias struct {
	Coordinates models.Coordinates
	RadiusM     int
}

// Client talks to the places provider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at another provider root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// NewClient creates a places client. An empty apiKey is accepted; every call then fails
// with MissingCredentials.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchNearby finds places of placeType within radiusM meters of coords. An explicit
// zero-results status yields an empty slice and no error.
func (c *Client) SearchNearby(ctx context.Context, coords models.Coordinates, placeType string, radiusM int, keyword string) ([]models.PlaceResult, error) {
	if radiusM <= 0 || radiusM > MaxRadiusM {
		return nil, apperr.New(apperr.InvalidRequest, "radius must be within 1..%d meters, got %d", MaxRadiusM, radiusM)
	}

	params := url.Values{}
	params.Set("location", formatLocation(coords))
	params.Set("radius", strconv.Itoa(radiusM))
	if placeType != "" {
		params.Set("type", placeType)
	}
	if keyword != "" {
		params.Set("keyword", keyword)
	}

	var resp placesResponse
	if err := c.call(ctx, "nearbysearch", params, &resp, func() (string, string) { return resp.Status, resp.ErrorMessage }); err != nil {
		return nil, err
	}
	return toResults(resp.Results), nil
}

// SearchByText resolves a free-text query, optionally biased to a circle.
func (c *Client) SearchByText(ctx context.Context, query string, bias *Bias) ([]models.PlaceResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.New(apperr.InvalidRequest, "query cannot be empty")
	}

	params := url.Values{}
	params.Set("query", query)
	if bias != nil {
		if bias.RadiusM <= 0 || bias.RadiusM > MaxRadiusM {
			return nil, apperr.New(apperr.InvalidRequest, "bias radius must be within 1..%d meters, got %d", MaxRadiusM, bias.RadiusM)
		}
		params.Set("location", formatLocation(bias.Coordinates))
		params.Set("radius", strconv.Itoa(bias.RadiusM))
	}

	var resp placesResponse
	if err := c.call(ctx, "textsearch", params, &resp, func() (string, string) { return resp.Status, resp.ErrorMessage }); err != nil {
		return nil, err
	}
	return toResults(resp.Results), nil
}

// Details fetches a single place by its provider id.
func (c *Client) Details(ctx context.Context, placeID string) (*models.PlaceResult, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, apperr.New(apperr.InvalidRequest, "place id cannot be empty")
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailsFields)

	var resp detailsResponse
	if err := c.call(ctx, "details", params, &resp, func() (string, string) { return resp.Status, resp.ErrorMessage }); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, apperr.New(apperr.InvalidRequest, "place %s not found", placeID)
	}
	result := toResult(*resp.Result)
	return &result, nil
}

// call performs one GET against endpoint, decodes into out and maps the decoded status.
func (c *Client) call(ctx context.Context, endpoint string, params url.Values, out any, status func() (string, string)) (err error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if err != nil {
			outcome = string(apperr.KindOf(err))
		}
		metrics.ProviderRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
		metrics.ProviderDurationMs.WithLabelValues(endpoint).Observe(float64(time.Since(start).Milliseconds()))
	}()

	if c.apiKey == "" {
		return apperr.New(apperr.MissingCredentials, "places API key is not configured")
	}

	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"/json?"+params.Encode(), nil)
	if err != nil {
		return apperr.Wrap(apperr.InvalidRequest, err, "building %s request", endpoint)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ProviderUnavailable, redactKey(err, c.apiKey), "%s request failed", endpoint)
	}
	defer resp.Body.Close()

	if err := httpStatusError(endpoint, resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.ProviderUnavailable, err, "decoding %s response", endpoint)
	}

	code, message := status()
	if code == statusZeroResults {
		outcome = "zero_results"
	}
	return statusError(endpoint, code, message)
}

func httpStatusError(endpoint string, resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("%s returned HTTP %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(body)))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperr.New(apperr.RateLimited, "%s", msg)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperr.New(apperr.MissingCredentials, "%s", msg)
	case resp.StatusCode >= 500:
		return apperr.New(apperr.ProviderUnavailable, "%s", msg)
	case resp.StatusCode >= 400:
		return apperr.New(apperr.InvalidRequest, "%s", msg)
	default:
		return apperr.New(apperr.Unknown, "%s", msg)
	}
}

// statusError maps the provider status vocabulary onto error kinds. OK and ZERO_RESULTS
// are successes.
func statusError(endpoint, status, message string) error {
	detail := status
	if message != "" {
		detail = status + ": " + message
	}

	switch status {
	case statusOK, statusZeroResults:
		return nil
	case statusOverQueryLimit:
		return apperr.New(apperr.RateLimited, "%s: %s", endpoint, detail)
	case statusRequestDenied:
		return apperr.New(apperr.MissingCredentials, "%s: %s", endpoint, detail)
	case statusInvalidRequest, statusNotFound:
		return apperr.New(apperr.InvalidRequest, "%s: %s", endpoint, detail)
	case statusUnknownError:
		return apperr.New(apperr.ProviderUnavailable, "%s: %s", endpoint, detail)
	default:
		return apperr.New(apperr.Unknown, "%s: unexpected status %q", endpoint, detail)
	}
}

func toResults(in []placeResult) []models.PlaceResult {
	out := make([]models.PlaceResult, 0, len(in))
	for _, p := range in {
		out = append(out, toResult(p))
	}
	return out
}

func toResult(p placeResult) models.PlaceResult {
	return models.PlaceResult{
		PlaceID:          p.PlaceID,
		Name:             p.Name,
		FormattedAddress: p.FormattedAddress,
		Vicinity:         p.Vicinity,
		Location:         models.Coordinates{Latitude: p.Geometry.Location.Lat, Longitude: p.Geometry.Location.Lng},
		Types:            p.Types,
		Rating:           p.Rating,
		UserRatingsTotal: p.UserRatingsTotal,
	}
}

func formatLocation(c models.Coordinates) string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// redactKey keeps the API key out of url.Error messages, which embed the request URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
