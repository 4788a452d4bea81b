// Package checkin implements the booth QR check-in flow.
//
// A Verifier is a single-scanner state machine:
//
//	Idle → Scanning → Resolving → Success | Warning | Error
//	                      ↑                     │
//	                      └────── Reset ────────┘
//
// The scanned lock is taken under the Verifier's mutex before any I/O, so
// a burst of camera frame callbacks produces exactly one submission. Only
// an explicit Reset re-arms the scanner.
//
// Resolved outcomes fan out to best-effort sinks (audit trail, MQTT,
// InfluxDB). A sink failure is logged and never changes the outcome.
package checkin
