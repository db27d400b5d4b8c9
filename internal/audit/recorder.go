package audit

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/siren-bd/platform/internal/shared/events"
	"github.com/siren-bd/platform/internal/shared/metrics"
	"github.com/siren-bd/platform/internal/shared/types"
)

// Recorder turns coordination bus events into chained audit entries.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a new audit recorder
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

// Start subscribes the recorder to all domain events on the bus
func (rec *Recorder) Start(ctx context.Context, bus events.EventBus) error {
	return bus.Subscribe(ctx, "*", "audit-recorder", rec.Record)
}

// Record appends one event to the activity log
func (rec *Recorder) Record(ctx context.Context, event events.Event) error {
	prevHash, err := rec.repo.LatestHash(ctx)
	if err != nil {
		return err
	}

	subjectType, subjectID := subjectOf(event)

	var actorID *types.ID
	if !event.ActorID.IsZero() {
		id := event.ActorID
		actorID = &id
	}

	entry := NewEntry(
		event.Type,
		actorID,
		subjectType,
		subjectID,
		payloadOf(event),
		prevHash,
	)

	if err := rec.repo.Append(ctx, entry); err != nil {
		return err
	}
	metrics.RecordAuditEntry()
	return nil
}

// subjectOf derives the audited subject from the event. The event type
// prefix names the subject kind; the payload carries its identifier.
func subjectOf(event events.Event) (string, string) {
	subjectType := event.Source
	if idx := strings.Index(event.Type, "."); idx > 0 {
		subjectType = event.Type[:idx]
	}

	payload := payloadOf(event)
	for _, key := range []string{"requestId", "taskId", "donationId", "actorId"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return subjectType, v
		}
	}
	return subjectType, event.ID
}

func payloadOf(event events.Event) map[string]any {
	if m, ok := event.Data.(map[string]any); ok {
		return m
	}
	// Events that crossed the wire arrive as json-decoded values;
	// anything else is normalized through a marshal round trip.
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
