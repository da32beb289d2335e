// Package config loads the server's runtime settings from environment
// variables.
//
// The only required variable is OPEN_SUPPLY_HUB_API_KEY. Everything else
// has a default suitable for the staging API:
//
//	cfg, err := config.FromEnv()
//	if err != nil {
//		// missing API key or malformed value
//	}
package config
