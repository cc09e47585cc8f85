// Package config loads the client configuration file.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/uniespoverflow/config.toml
//  3. If the file doesn't exist, fall back to Defaults
//  4. Missing or blank fields keep their default values
//
// # Default Values
//
//   - api_url: http://127.0.0.1:3000
//   - timeout: 10s
//   - state_dir: ~/.local/state/uniespoverflow
//   - refresh_interval: 30s
//   - like_retries: 3
//   - theme: Nightfox
//   - storage.backend: file
//
// # Example
//
//	api_url = "https://forum.example.com/api"
//	timeout = "5s"
//	refresh_interval = "1m"
//
//	[storage]
//	backend = "sqlite"
//
// The postgres backend requires storage.dsn. Durations use time.ParseDuration
// syntax and must be positive. Paths beginning with ~ expand to the home
// directory.
package config
