// Package domain holds the types shared by the self-service dashboard core.
//
// # Overview
//
// Services come from the provider registry, connections between identity
// providers and service providers from the connectivity matrix, and licenses
// and marketing articles from the CRM. The aggregator in pkg/csa joins these
// into per identity provider views of the catalog.
//
// Values handed out by the caches are snapshots: the aggregation-time fields
// of Service (Connected, License, LicenseStatus, CrmArticle, HasCrmLink) are
// only ever set on copies owned by a single request.
//
// # Related Packages
//
//   - pkg/cache: Snapshot caches producing these types
//   - pkg/csa: Aggregation over the caches
//   - pkg/actions: Persistence of workflow actions
package domain
