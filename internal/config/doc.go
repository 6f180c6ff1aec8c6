// ABOUTME: Package-level documentation for acs-agent-demo configuration
// ABOUTME: Config file layout, env var expansion, and validation rules

// Package config handles configuration loading for acs-agent-demo.
//
// # Overview
//
// Configuration is loaded from a single YAML file with environment variable
// expansion. The package validates required fields and parses duration
// strings into time.Duration.
//
// # Configuration File
//
// Default location (in order):
//
//  1. Path from the ACS_AGENT_CONFIG environment variable
//  2. ./acs-agent-demo.yaml (current directory)
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	connection:
//	  resource_id: "${ACS_RESOURCE_ID}"
//
// Syntax: ${VAR_NAME}. An unset variable expands to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	retry:
//	  ack_timeout: "2s"
//	  registration_timeout: "10s"
//	transport:
//	  keepalive_time: "60s"
//	  keepalive_timeout: "10s"
//
// # Configuration Sections
//
// Connection identity:
//
//	connection:
//	  resource_id: "projects/p/instances/i"
//	  channel_id: "chan-1"
//
// Transport:
//
//	transport:
//	  target: "acs.example.com:443"
//	  insecure: false
//
// Retry (max attempts and per-attempt ack timeout):
//
//	retry:
//	  max_attempts: 5
//	  ack_timeout: "2s"
//	  registration_timeout: "10s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - transport.target is set
//   - connection.resource_id is set
//   - retry.max_attempts is not negative
//
// # Usage
//
//	cfg, err := config.Load("acs-agent-demo.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
