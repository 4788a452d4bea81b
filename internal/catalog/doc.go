// Package catalog serves the read-mostly event content: events, agenda,
// talks, speakers and sponsors, plus the two attendee write paths on top
// of it (sponsor favourites and talk ratings).
//
// List reads go through the process-wide cache.Store and are dropped
// wholesale on logout. Event details, favourites, ratings and the banner
// are per-user or short-lived and always hit the backend.
package catalog
