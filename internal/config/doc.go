// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. It exposes strongly typed settings for the
// icon service: canvas bounds, upload limits, library capacity, logging and
// HTTP server tuning.
package config
