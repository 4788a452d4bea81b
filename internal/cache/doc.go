// Package cache holds the process-lifetime catalog cache.
//
// One Store is built at start-up and shared by every consumer. Entries are
// loaded on first use, kept until Clear, and never expire on their own.
// Logout clears the whole Store at once so a new session never sees the
// previous session's lists.
package cache
