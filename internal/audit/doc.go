// Package audit keeps the on-device audit trail.
//
// Entries record authentication and check-in outcomes: who logged in or
// out, which scans succeeded, were duplicates or failed, and which booth
// staff accounts were registered. The trail is append-only and local; it is
// never sent to the backend.
package audit
