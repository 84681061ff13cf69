// Package httputil holds the response helpers, request parsing and middleware shared by the dashboard API.
//
// Successful responses are wrapped in a payload envelope:
//
//	httputil.WritePayload(w, services) // {"payload": [...]}
//
// Errors are written as {"error": "..."}; WriteDomainError maps unknown-entity errors to 404:
//
//	if err != nil {
//		httputil.WriteDomainError(w, err)
//		return
//	}
//
// Middleware is applied with gorilla/mux:
//
//	router.Use(httputil.RequestIDMiddleware, httputil.LoggingMiddleware(logger), httputil.RecoveryMiddleware(logger))
package httputil
