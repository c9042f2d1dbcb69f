// Package config loads, normalizes, and validates tubepulse configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// YOUTUBE_API_KEY and REFRESH_TOKEN. The Config type centralizes every knob the
// CLI, refresh runner, and web dashboard need, so storage locations, source
// lists, and API credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
