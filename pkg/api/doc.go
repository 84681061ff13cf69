// Package api exposes the dashboard REST API under /dashboard/api.
//
// Every successful response body is wrapped as {"payload": ...}. The identity provider a request
// acts for comes from the X-IDP-ENTITY-ID header, and the locale from the lang cookie with
// Accept-Language as fallback. Authentication happens in front of this service; a UserResolver
// turns the authenticated request into a domain.CoinUser for the connect and disconnect endpoints.
//
// Routes:
//
//	GET  /dashboard/api/services                     services visible to the identity provider
//	GET  /dashboard/api/services/idps?spEntityId=    identity providers linked to a service provider
//	GET  /dashboard/api/services/download?id[]=      CSV export of selected services
//	GET  /dashboard/api/services/id/{id}             a single service
//	POST /dashboard/api/services/id/{id}/connect     request a connection
//	POST /dashboard/api/services/id/{id}/disconnect  request a disconnection
//	GET  /dashboard/api/facets                       the category taxonomy
//	GET  /dashboard/api/actions                      workflow requests of the identity provider
//	GET  /dashboard/api/users/me/idps                identity providers of the user's institution
package api
