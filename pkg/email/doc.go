// Package email delivers administration mail about connect and disconnect requests.
//
// Service addresses every message to the configured administrators. Delivery is
// asynchronous: SMTPEmailer queues messages on a worker pool and logs failures.
package email
