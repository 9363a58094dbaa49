package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the file at path on top of base and returns the result.
	// base is not modified.
	Load(ctx context.Context, path string, base *Settings) (*Settings, error)
}
