// Package cache holds the read-optimised snapshots the aggregator works from.
//
// There are three caches, each refreshed independently:
//
//   - ServicesCache: the service catalog, rendered per locale
//   - ProviderCache: identity providers, service providers and the connectivity matrix
//   - CrmCache: licenses and marketing articles from the CRM
//
// Every cache publishes complete snapshots with an atomic swap. Readers never
// block on a refresh and never see a half-loaded snapshot. A failed refresh
// keeps the previous snapshot. The Scheduler drives refreshes from cron specs.
package cache
