// Package ticket files connect and disconnect requests in the issue tracker.
package ticket
