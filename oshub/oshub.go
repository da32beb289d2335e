// Package oshub provides a client for the Open Supply Hub facilities API.
package oshub

import (
	"context"
	"errors"
	"fmt"
)

// DefaultBaseURL is the staging API endpoint used when none is configured.
const DefaultBaseURL = "https://staging.opensupplyhub.org/api"

// Sentinel errors for upstream status codes the bridge reacts to.
var (
	ErrNotFound     = errors.New("facility not found")
	ErrUnauthorized = errors.New("invalid api credentials")
	ErrRateLimited  = errors.New("api rate limit exceeded")
)

// StatusError reports an unexpected upstream HTTP status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("open supply hub: unexpected status %s", e.Status)
}

// API is the upstream surface the bridge depends on. The HTTP Client
// implements it; tests substitute fakes.
type API interface {
	// SearchFacilities returns facilities matching the free-text query.
	SearchFacilities(ctx context.Context, query string) ([]Facility, error)

	// GetFacility returns details for a single facility by OS ID.
	// A missing facility is reported as ErrNotFound.
	GetFacility(ctx context.Context, osID string) (*FacilityDetails, error)

	// Ping verifies the API is reachable and the credentials work.
	Ping(ctx context.Context) error
}

// Facility is one search result.
type Facility struct {
	OSID        string  `json:"os_id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Contributor is an organization that submitted data for a facility.
type Contributor struct {
	Name       string `json:"name"`
	IsVerified bool   `json:"is_verified"`
}

// FacilityDetails is the full record for a single facility.
type FacilityDetails struct {
	Facility

	OtherNames     []string      `json:"other_names,omitempty"`
	OtherAddresses []string      `json:"other_addresses,omitempty"`
	Contributors   []Contributor `json:"contributors,omitempty"`
	IsClosed       bool          `json:"is_closed,omitempty"`
}
