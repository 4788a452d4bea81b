// Package api implements the loopback HTTP gateway the UI shell talks to.
//
// This package provides:
//   - JSON endpoints for login, first access, legacy sync and password reset
//   - Role-guarded catalog, check-in, registration and audit endpoints
//   - WebSocket hub pushing check-in and session state changes
//   - Request ID, access log, panic recovery, CORS and body limit middleware
//
// # Architecture
//
// The gateway holds no state of its own. The process-wide auth.Service owns
// the session; every guarded route reads it per request and checks the
// caller's role against the navigation surfaces before touching a service.
//
// The gateway binds to loopback by default. It carries no bearer token of
// its own: the backend token never leaves the process.
package api
