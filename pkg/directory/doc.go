// Package directory resolves identity and service providers by entity id.
package directory
