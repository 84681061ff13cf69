package cache

import "errors"

var (
	// ErrRefreshFailed wraps the loader error of a failed refresh
	ErrRefreshFailed = errors.New("cache refresh failed")

	// ErrNotLoaded is reported by health checks for caches that never loaded
	ErrNotLoaded = errors.New("cache has not loaded yet")
)
