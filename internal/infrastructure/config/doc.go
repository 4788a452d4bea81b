// Package config loads the companion's YAML configuration.
//
// Load starts from built-in defaults, overlays the file, then applies
// COMPANION_* environment variables, and finally validates the result.
// Durations are whole seconds.
//
//	cfg, err := config.Load(os.Getenv("COMPANION_CONFIG"))
//
// The legacy sync credential belongs in COMPANION_SYNC_ADMIN_EMAIL and
// COMPANION_SYNC_ADMIN_PASSWORD, never in the file. Keep the file itself
// at mode 0600.
package config
