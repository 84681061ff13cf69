// Package actions persists connect and disconnect requests.
//
// The requester's email address is only used for notifications and is never stored.
package actions
