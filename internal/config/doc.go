// ABOUTME: Package documentation for the voicestream configuration
// ABOUTME: Describes defaults, loading and validation
// Package config loads the voicestream YAML configuration.
//
// Every section has defaults, so a missing file or an empty document yields a
// runnable configuration. Values are validated after loading.
package config
