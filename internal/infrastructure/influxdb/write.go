package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementCheckinOutcome is the measurement written per resolved scan.
const MeasurementCheckinOutcome = "checkin_outcome"

// WriteCheckinOutcome records one resolved scan at a booth.
//
// Tags: company_id, outcome. Fields: count (always 1) and latency_ms, the
// time from scan to resolution.
func (c *Client) WriteCheckinOutcome(companyID, outcome string, latency time.Duration, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writes.WritePoint(write.NewPoint(
		MeasurementCheckinOutcome,
		map[string]string{"company_id": companyID, "outcome": outcome},
		map[string]any{"count": 1, "latency_ms": latency.Milliseconds()},
		at,
	))
}
