// Package config loads engine configuration from YAML files, .env files and
// environment variables (STAGEFLOW_ prefix), in that order of precedence.
package config
