// Package logging sets up the structured logger shared by every companion
// component.
//
// Entries are JSON by default and always carry service and version:
//
//	logging:
//	  level: info      # debug | info | warn | error
//	  format: json     # json | text
//	  output: stdout   # stdout | stderr
//
// Components scope the logger rather than prefixing messages:
//
//	log := logger.With("component", "session")
//	log.Info("session restored", "role", sess.Role)
//
// Bearer tokens, passwords and the legacy sync credential are never
// logged in full; pass them through Redact.
package logging
