// Package auth owns the companion's authentication and session state.
//
// It implements:
//   - A closed Role set (user, estande, estandeAdmin); unknown roles fail closed
//   - The SQLite-backed SessionStore that survives restarts
//   - The login state machine, including first access (password equals
//     email, or a backend mustChangePassword flag) and the legacy ticketing
//     reconciliation path
//   - Password creation rules and the password-reset countdown
//
// The Service never surfaces raw backend errors to the UI. Every outcome is
// a LoginResult or a boolean, and login failures use one generic message so
// the response never reveals which field was wrong.
package auth
