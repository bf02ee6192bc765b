// Package config loads the dashboard configuration.
//
// Values are resolved in increasing order of precedence:
//
//  1. Built-in defaults (Default)
//  2. A YAML file: $COFFEEDASH_CONFIG_FILE, config.yaml or configs/config.yaml
//  3. Environment variables prefixed with COFFEEDASH_
//
// A .env file, when present, is loaded into the environment by LoadDotEnv
// before Load runs, so it behaves like a set of environment variables that
// never override ones already exported.
//
// Environment variables follow the struct nesting:
//
//	COFFEEDASH_SERVER_PORT=9090
//	COFFEEDASH_SERVER_MAX_UPLOAD_BYTES=10485760
//	COFFEEDASH_LOGGING_LEVEL=debug
//	COFFEEDASH_TELEMETRY_TRACE_EXPORTER=stdout
//	COFFEEDASH_DASHBOARD_CURRENCY_SYMBOL=Rp
//
// The merged result is checked with validator struct tags.
package config
