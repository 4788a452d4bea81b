// Package database provides the local SQLite store for Event Companion Core.
//
// The companion keeps very little state on the device: the persisted session
// (token, user, role), the list of reconciled ticket emails, the cache epoch,
// and the audit trail. All of it lives in one SQLite file opened here.
//
// The database runs in WAL mode with a single writer connection. Schema
// changes are applied by Migrate from an fs.FS of numbered SQL files, which
// in production is the embedded migrations package.
package database
