// Package csa aggregates the service catalog, the connectivity matrix and CRM data into the
// per identity provider view shown on the self-service dashboard, and runs the connect and
// disconnect request workflow.
//
// The Aggregator only reads the snapshot caches; it never writes to them. Every call works on
// its own copy of the catalog, so Connected, License and CrmArticle always reflect the
// snapshots current at call time.
//
//	agg := csa.New(csa.Dependencies{Catalog: services, Connectivity: providers, Crm: crmCache, Directory: dir}, csa.Config{})
//	services, err := agg.GetServicesForIdp(ctx, idpEntityID, csa.ResolveLocale(r.Header.Get("Accept-Language")))
package csa
