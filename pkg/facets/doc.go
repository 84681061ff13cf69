// Package facets reads the category facets used to tag catalog services.
package facets
