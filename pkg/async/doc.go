// Package async runs background work with panic recovery and timeouts.
//
// SafeGo runs a single task in its own goroutine:
//
//	async.SafeGo(ctx, 30*time.Second, "registry reload", func(ctx context.Context) error {
//		return scheduler.RefreshAll(ctx)
//	})
//
// WorkerPool runs submitted tasks on a fixed number of workers and drains the
// queue on Shutdown. Outgoing administration mail is delivered this way.
//
// Task errors and panics are logged, never returned to the submitter.
package async
