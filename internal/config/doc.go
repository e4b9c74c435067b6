// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. Plate inventories and bar weights are
// validated here so that a malformed setup fails at startup.
package config
