// Package events emits ingestion lifecycle events. Emission is best effort:
// a Kafka failure is logged and never changes the outcome of a run.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/turnoutcrew/canvass/internal/tracing"
	"github.com/turnoutcrew/canvass/pkg/kafka"
	"github.com/turnoutcrew/canvass/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

const (
	EventTypeVoterImported = "voter.imported"
	EventTypeListProcessed = "voterlist.processed"
)

// Emitter publishes ingestion events through the Kafka producer. It satisfies
// the pipeline's event sink.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// VotersImported emits one voter.imported event per voter created by a run
func (e *Emitter) VotersImported(ctx context.Context, list *models.VoterList, voters []*models.Voter) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.VotersImported")
	defer span.End()

	events := make([]*kafka.VoterEvent, 0, len(voters))
	for _, voter := range voters {
		data, err := json.Marshal(voter)
		if err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("Failed to marshal voter for event")
			continue
		}
		events = append(events, &kafka.VoterEvent{
			EventType:   EventTypeVoterImported,
			CampaignID:  list.CampaignID,
			VoterListID: list.ID,
			VoterID:     voter.ID,
			Data:        data,
		})
	}

	if err := e.producer.PublishVoterEvents(ctx, events); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"voter_list_id": list.ID,
		}).Warn("Failed to emit voter.imported events")
	}
}

// ListProcessed emits the voterlist.processed event with the final counters
func (e *Emitter) ListProcessed(ctx context.Context, list *models.VoterList, summary models.ImportSummary) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.ListProcessed")
	defer span.End()

	event := &kafka.ListEvent{
		EventType:   EventTypeListProcessed,
		CampaignID:  list.CampaignID,
		VoterListID: list.ID,
		Total:       summary.Total,
		Success:     summary.Success,
		Duplicates:  summary.Duplicates,
		BadFormat:   summary.BadFormat,
		IsActive:    list.IsActive,
	}

	if err := e.producer.PublishListEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"voter_list_id": list.ID,
		}).Warn("Failed to emit voterlist.processed event")
	}
}
