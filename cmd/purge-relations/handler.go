package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"lexivault/application/commands"
	"lexivault/application/commands/bus"
	domainevents "lexivault/domain/events"
	"lexivault/pkg/observability"
)

// Dispatcher runs a command and returns its output
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd bus.Command) (interface{}, error)
}

// PurgeHandler removes the relations of words the vocabulary service deleted.
type PurgeHandler struct {
	commands Dispatcher
	logger   *zap.Logger
}

func NewPurgeHandler(commands Dispatcher, logger *zap.Logger) *PurgeHandler {
	return &PurgeHandler{commands: commands, logger: logger}
}

// Handle processes one EventBridge delivery. Other detail types are ignored. A
// returned error makes Lambda retry the event.
func (h *PurgeHandler) Handle(ctx context.Context, event events.CloudWatchEvent) error {
	if event.DetailType != domainevents.TypeWordDeleted {
		h.logger.Debug("Skipping event", zap.String("detailType", event.DetailType), zap.String("eventID", event.ID))
		return nil
	}

	var detail domainevents.WordDeleted
	if err := json.Unmarshal(event.Detail, &detail); err != nil {
		return fmt.Errorf("failed to unmarshal event detail: %w", err)
	}
	if !detail.WordID.Valid() {
		return fmt.Errorf("event %s has no word_id", event.ID)
	}

	return observability.TraceFunction(ctx, "PurgeWordRelations", func(ctx context.Context) error {
		out, err := h.commands.Dispatch(ctx, commands.PurgeWordRelationsCommand{WordID: detail.WordID})
		if err != nil {
			h.logger.Error("Failed to purge word relations",
				zap.String("eventID", event.ID),
				zap.Int64("wordID", int64(detail.WordID)),
				zap.Error(err),
			)
			return err
		}
		removed, _ := out.(int)
		h.logger.Info("Processed word deletion",
			zap.String("eventID", event.ID),
			zap.Int64("wordID", int64(detail.WordID)),
			zap.Int64("userID", int64(detail.UserID)),
			zap.Int("removed", removed),
		)
		return nil
	})
}
