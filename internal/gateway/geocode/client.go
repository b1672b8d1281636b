// Package geocode resolves postal addresses to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

// Client queries a Google-compatible geocoding JSON API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  logx.Logger
}

// NewClient creates a Client. Requests time out after timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger logx.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type response struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Geocode returns the first match for address. ok is false when the provider finds nothing.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Coordinates{}, false, nil
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode base url: %w", err)
	}
	q := u.Query()
	q.Set("address", address)
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Coordinates{}, false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, false, fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("geocode decode: %w", err)
	}

	switch body.Status {
	case "OK":
		if len(body.Results) == 0 {
			return domain.Coordinates{}, false, nil
		}
		loc := body.Results[0].Geometry.Location
		c.logger.Debug("address geocoded", logx.Any("lat", loc.Lat), logx.Any("lng", loc.Lng))
		return domain.Coordinates{Lat: loc.Lat, Lng: loc.Lng}, true, nil
	case "ZERO_RESULTS":
		return domain.Coordinates{}, false, nil
	default:
		return domain.Coordinates{}, false, fmt.Errorf("geocode: provider status %s: %s", body.Status, body.ErrorMessage)
	}
}
