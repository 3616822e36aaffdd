// Package config loads, normalizes, and validates shortscout configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// YOUTUBE_API_KEY, OPENROUTER_API_KEY, DATABASE_URL, and
// GOOGLE_APPLICATION_CREDENTIALS. Language and region codes are canonicalized
// so providers receive the codes they expect.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical provider names, and clear validation errors.
package config
