package checkin

import (
	"context"
	"time"

	"github.com/nerrad567/event-companion-core/internal/audit"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/mqtt"
)

// Sink consumes resolved outcomes. Implementations must not panic and
// report their own failures.
type Sink interface {
	Resolved(ctx context.Context, o Outcome)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, o Outcome)

// Resolved calls f.
func (f SinkFunc) Resolved(ctx context.Context, o Outcome) { f(ctx, o) }

// Auditor appends to the audit trail. *audit.Recorder implements it.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// AuditSink appends each outcome to the audit trail.
func AuditSink(a Auditor) Sink {
	return SinkFunc(func(ctx context.Context, o Outcome) {
		a.Record(ctx, audit.Entry{
			Action:     audit.ActionCheckin,
			EntityType: audit.EntityCheckin,
			EntityID:   o.AttemptID,
			UserID:     o.OperatorID,
			Source:     audit.SourceApp,
			Details: map[string]any{
				"company_id": o.CompanyID,
				"outcome":    o.Status.String(),
				"message":    o.Message,
			},
			CreatedAt: o.At,
		})
	})
}

// JSONPublisher publishes a JSON payload. *mqtt.Client implements it.
type JSONPublisher interface {
	PublishJSON(topic string, v any) error
}

// checkinMessage is the MQTT payload. The attendee's code is left out.
type checkinMessage struct {
	AttemptID string    `json:"attempt_id"`
	CompanyID string    `json:"company_id"`
	Outcome   Status    `json:"outcome"`
	Message   string    `json:"message,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	At        time.Time `json:"at"`
}

// MQTTSink publishes each outcome on companion/checkin/{companyId}.
// Outcomes without a resolved company are not published.
func MQTTSink(pub JSONPublisher, logger *logging.Logger) Sink {
	if logger == nil {
		logger = logging.Discard()
	}
	return SinkFunc(func(_ context.Context, o Outcome) {
		if o.CompanyID == "" {
			return
		}
		msg := checkinMessage{
			AttemptID: o.AttemptID,
			CompanyID: o.CompanyID,
			Outcome:   o.Status,
			Message:   o.Message,
			LatencyMS: o.Latency.Milliseconds(),
			At:        o.At.UTC(),
		}
		if err := pub.PublishJSON(mqtt.Topics{}.Checkin(o.CompanyID), msg); err != nil {
			logger.Warn("publishing check-in outcome", "attempt_id", o.AttemptID, "error", err)
		}
	})
}

// OutcomeWriter records an outcome point. *influxdb.Client implements it.
type OutcomeWriter interface {
	WriteCheckinOutcome(companyID, outcome string, latency time.Duration, at time.Time)
}

// MetricsSink writes each outcome as a checkin_outcome point. Outcomes
// without a company are tagged company_id=unknown.
func MetricsSink(w OutcomeWriter) Sink {
	return SinkFunc(func(_ context.Context, o Outcome) {
		company := o.CompanyID
		if company == "" {
			company = "unknown"
		}
		w.WriteCheckinOutcome(company, o.Status.String(), o.Latency, o.At)
	})
}
