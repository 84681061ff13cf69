// Package registry fetches raw service and provider records from the provider registry.
//
// # Overview
//
// The registry is the upstream source for the service catalog and the
// connectivity matrix. Records are fetched once per refresh cycle by the
// caches in pkg/cache; nothing in this package holds state between calls
// except FallbackRegistry, which keeps the last successful payload in redis.
//
// # Implementations
//
// HTTPRegistry: JSON over HTTP against the registry API
// FileRegistry: a YAML document on disk, for local development and tests
// FallbackRegistry: decorator serving the last-known-good payload from redis when upstream fails
//
// # Usage Example
//
//	reg := registry.NewHTTPRegistry("https://registry.example.org/api", 10*time.Second)
//	reg = registry.NewFallbackRegistry(reg, redisClient, logger)
//	services, err := reg.Services(ctx)
//
// # Related Packages
//
//   - pkg/cache: Consumes the records on each refresh
package registry
