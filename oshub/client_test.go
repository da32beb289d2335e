package oshub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const searchBody = `{
	"type": "FeatureCollection",
	"count": 2,
	"features": [
		{
			"id": 1,
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [90.41, 23.81]},
			"properties": {
				"name": "Acme Textiles Ltd",
				"address": "123 Factory Road, Dhaka",
				"country_code": "BD",
				"country_name": "Bangladesh",
				"os_id": "BD2021250D1DTN7"
			}
		},
		{
			"id": 2,
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [-79.38, 43.65]},
			"properties": {
				"name": "Acme Garments",
				"address": "55 Mill Street, Toronto",
				"country_code": "CA",
				"country_name": "Canada",
				"os_id": "CA20211854B51R8"
			}
		}
	]
}`

const detailsBody = `{
	"id": "BD2021250D1DTN7",
	"type": "Feature",
	"geometry": {"type": "Point", "coordinates": [90.41, 23.81]},
	"properties": {
		"name": "Acme Textiles Ltd",
		"address": "123 Factory Road, Dhaka",
		"country_code": "BD",
		"country_name": "Bangladesh",
		"os_id": "BD2021250D1DTN7",
		"other_names": ["Acme Fabrics"],
		"other_addresses": [],
		"contributors": [
			{"id": 10, "name": "Brand A (2021 supplier list)", "is_verified": true},
			{"id": 11, "name": "Civil society map", "is_verified": false}
		],
		"is_closed": false
	}
}`

func TestNewClient(t *testing.T) {
	c := NewClient("secret")

	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if c.httpClient.Timeout == 0 {
		t.Error("expected a default request timeout")
	}
}

func TestClient_SearchFacilities(t *testing.T) {
	t.Run("translates the feature collection", func(t *testing.T) {
		var gotPath, gotQuery, gotAuth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.Query().Get("q")
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(searchBody))
		}))
		defer srv.Close()

		c := NewClient("secret", WithBaseURL(srv.URL))

		facilities, err := c.SearchFacilities(context.Background(), "acme")
		if err != nil {
			t.Fatalf("SearchFacilities() error = %v", err)
		}

		if gotPath != "/facilities" {
			t.Errorf("request path = %q, want /facilities", gotPath)
		}
		if gotQuery != "acme" {
			t.Errorf("query param q = %q, want acme", gotQuery)
		}
		if gotAuth != "Token secret" {
			t.Errorf("Authorization = %q, want %q", gotAuth, "Token secret")
		}

		if len(facilities) != 2 {
			t.Fatalf("got %d facilities, want 2", len(facilities))
		}

		first := facilities[0]
		if first.OSID != "BD2021250D1DTN7" {
			t.Errorf("OSID = %q, want BD2021250D1DTN7", first.OSID)
		}
		if first.Name != "Acme Textiles Ltd" {
			t.Errorf("Name = %q, want Acme Textiles Ltd", first.Name)
		}
		if first.CountryName != "Bangladesh" {
			t.Errorf("CountryName = %q, want Bangladesh", first.CountryName)
		}
		// GeoJSON coordinates are [lng, lat]
		if first.Latitude != 23.81 || first.Longitude != 90.41 {
			t.Errorf("coordinates = (%v, %v), want (23.81, 90.41)", first.Latitude, first.Longitude)
		}
	})

	t.Run("returns empty slice for no matches", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"type": "FeatureCollection", "count": 0, "features": []}`))
		}))
		defer srv.Close()

		c := NewClient("secret", WithBaseURL(srv.URL))

		facilities, err := c.SearchFacilities(context.Background(), "no such factory")
		if err != nil {
			t.Fatalf("SearchFacilities() error = %v", err)
		}
		if len(facilities) != 0 {
			t.Errorf("got %d facilities, want 0", len(facilities))
		}
	})

	t.Run("maps upstream statuses to errors", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			want   error
		}{
			{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
			{"forbidden", http.StatusForbidden, ErrUnauthorized},
			{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				}))
				defer srv.Close()

				c := NewClient("secret", WithBaseURL(srv.URL))

				_, err := c.SearchFacilities(context.Background(), "acme")
				if !errors.Is(err, tt.want) {
					t.Errorf("SearchFacilities() error = %v, want %v", err, tt.want)
				}
			})
		}
	})

	t.Run("wraps unexpected statuses in StatusError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient("secret", WithBaseURL(srv.URL))

		_, err := c.SearchFacilities(context.Background(), "acme")
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("SearchFacilities() error = %v, want StatusError", err)
		}
		if statusErr.StatusCode != http.StatusBadGateway {
			t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, http.StatusBadGateway)
		}
	})

	t.Run("reports malformed response bodies", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"features": [`))
		}))
		defer srv.Close()

		c := NewClient("secret", WithBaseURL(srv.URL))

		_, err := c.SearchFacilities(context.Background(), "acme")
		if err == nil {
			t.Fatal("SearchFacilities() error = nil, want decode failure")
		}
		if !strings.Contains(err.Error(), "decode response") {
			t.Errorf("error = %v, want decode failure", err)
		}
	})
}

func TestClient_GetFacility(t *testing.T) {
	t.Run("translates facility details", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte(detailsBody))
		}))
		defer srv.Close()

		c := NewClient("secret", WithBaseURL(srv.URL))

		details, err := c.GetFacility(context.Background(), "BD2021250D1DTN7")
		if err != nil {
			t.Fatalf("GetFacility() error = %v", err)
		}

		if gotPath != "/facilities/BD2021250D1DTN7" {
			t.Errorf("request path = %q, want /facilities/BD2021250D1DTN7", gotPath)
		}

		if details.OSID != "BD2021250D1DTN7" {
			t.Errorf("OSID = %q, want BD2021250D1DTN7", details.OSID)
		}
		if len(details.OtherNames) != 1 || details.OtherNames[0] != "Acme Fabrics" {
			t.Errorf("OtherNames = %v, want [Acme Fabrics]", details.OtherNames)
		}
		if len(details.Contributors) != 2 {
			t.Fatalf("got %d contributors, want 2", len(details.Contributors))
		}
		if !details.Contributors[0].IsVerified {
			t.Error("expected first contributor to be verified")
		}
		if details.IsClosed {
			t.Error("expected facility to be open")
		}
	})

	t.Run("maps 404 to ErrNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient("secret", WithBaseURL(srv.URL))

		_, err := c.GetFacility(context.Background(), "XX0000000000000")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetFacility() error = %v, want ErrNotFound", err)
		}
	})
}

func TestClient_Ping(t *testing.T) {
	t.Run("issues the sentinel search", func(t *testing.T) {
		var gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			w.Write([]byte(searchBody))
		}))
		defer srv.Close()

		c := NewClient("secret", WithBaseURL(srv.URL))

		if err := c.Ping(context.Background()); err != nil {
			t.Fatalf("Ping() error = %v", err)
		}
		if gotQuery != "test" {
			t.Errorf("sentinel query = %q, want test", gotQuery)
		}
	})

	t.Run("propagates upstream failures", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient("secret", WithBaseURL(srv.URL))

		if err := c.Ping(context.Background()); err == nil {
			t.Fatal("Ping() error = nil, want upstream failure")
		}
	})

	t.Run("fails when the server is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // Shut down before the call

		c := NewClient("secret", WithBaseURL(srv.URL))

		if err := c.Ping(context.Background()); err == nil {
			t.Fatal("Ping() error = nil, want connection failure")
		}
	})
}
