package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultSafetyYAML contains the embedded default safety rule table.
//
//go:embed defaults/safety.yaml
var DefaultSafetyYAML []byte

// DefaultFixesYAML contains the embedded default error-pattern table.
//
//go:embed defaults/fixes.yaml
var DefaultFixesYAML []byte
