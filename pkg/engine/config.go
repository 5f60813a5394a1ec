package engine

import "github.com/liliang-cn/oblist/pkg/core"

// Config holds the SQLite store configuration
type Config struct {
	// Path is the database file path
	Path string
	// Logger receives engine-level events; defaults to core.NopLogger()
	Logger core.Logger
	// BusyTimeoutMS is how long SQLite waits for a lock before failing
	BusyTimeoutMS int
	// CacheKB is the SQLite page cache size in kilobytes
	CacheKB int
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig(path string) Config {
	return Config{
		Path:          path,
		Logger:        core.NopLogger(),
		BusyTimeoutMS: 5000,
		CacheKB:       2000,
	}
}
