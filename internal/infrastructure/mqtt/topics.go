package mqtt

import "strings"

// TopicPrefix roots every topic the companion publishes on.
const TopicPrefix = "companion"

func topic(parts ...string) string {
	return strings.Join(append([]string{TopicPrefix}, parts...), "/")
}

// Topics builds companion topic names, e.g. Topics{}.Checkin("42") is
// "companion/checkin/42".
type Topics struct{}

// Checkin is where resolved scans at one booth are published.
func (Topics) Checkin(companyID string) string { return topic("checkin", companyID) }

// AllCheckins matches Checkin for every booth.
func (Topics) AllCheckins() string { return topic("checkin", "+") }

// SystemStatus carries the retained online/offline marker for one install,
// including the last will.
func (Topics) SystemStatus(clientID string) string { return topic("system", "status", clientID) }
