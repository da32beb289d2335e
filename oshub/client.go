package oshub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// sentinelQuery is the throwaway search used to verify connectivity.
const sentinelQuery = "test"

const userAgent = "os-hub-mcp/0.1.0"

// Client talks to the Open Supply Hub REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each upstream request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client authenticating with the given API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SearchFacilities returns facilities matching the free-text query.
func (c *Client) SearchFacilities(ctx context.Context, query string) ([]Facility, error) {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}

	var fc featureCollection
	if err := c.get(ctx, "/facilities", params, &fc); err != nil {
		return nil, fmt.Errorf("search facilities: %w", err)
	}

	facilities := make([]Facility, 0, len(fc.Features))
	for _, f := range fc.Features {
		facilities = append(facilities, f.facility())
	}
	return facilities, nil
}

// GetFacility returns details for a single facility by OS ID.
func (c *Client) GetFacility(ctx context.Context, osID string) (*FacilityDetails, error) {
	var f feature
	if err := c.get(ctx, "/facilities/"+url.PathEscape(osID), nil, &f); err != nil {
		return nil, fmt.Errorf("get facility %s: %w", osID, err)
	}

	details := &FacilityDetails{
		Facility:       f.facility(),
		OtherNames:     f.Properties.OtherNames,
		OtherAddresses: f.Properties.OtherAddresses,
		IsClosed:       f.Properties.IsClosed,
	}
	for _, contrib := range f.Properties.Contributors {
		details.Contributors = append(details.Contributors, Contributor{
			Name:       contrib.Name,
			IsVerified: contrib.IsVerified,
		})
	}
	return details, nil
}

// Ping issues the sentinel search and discards the body.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("q", sentinelQuery)

	if err := c.get(ctx, "/facilities", params, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// get performs an authenticated GET and decodes the JSON body into out.
// A nil out discards the body.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// The API serves GeoJSON; these wire types flatten it into the domain
// model.

type featureCollection struct {
	Type     string    `json:"type"`
	Count    int       `json:"count"`
	Features []feature `json:"features"`
}

type feature struct {
	Geometry   geometry          `json:"geometry"`
	Properties featureProperties `json:"properties"`
}

type geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lng, lat]
}

type featureProperties struct {
	OSID           string            `json:"os_id"`
	Name           string            `json:"name"`
	Address        string            `json:"address"`
	CountryCode    string            `json:"country_code"`
	CountryName    string            `json:"country_name"`
	OtherNames     []string          `json:"other_names"`
	OtherAddresses []string          `json:"other_addresses"`
	Contributors   []contributorWire `json:"contributors"`
	IsClosed       bool              `json:"is_closed"`
}

type contributorWire struct {
	Name       string `json:"name"`
	IsVerified bool   `json:"is_verified"`
}

func (f feature) facility() Facility {
	fac := Facility{
		OSID:        f.Properties.OSID,
		Name:        f.Properties.Name,
		Address:     f.Properties.Address,
		CountryCode: f.Properties.CountryCode,
		CountryName: f.Properties.CountryName,
	}
	if len(f.Geometry.Coordinates) == 2 {
		fac.Longitude = f.Geometry.Coordinates[0]
		fac.Latitude = f.Geometry.Coordinates[1]
	}
	return fac
}

var _ API = (*Client)(nil)
