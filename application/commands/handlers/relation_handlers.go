package handlers

import (
	"context"
	"fmt"

	"lexivault/application/commands"
	"lexivault/application/commands/bus"
	"lexivault/application/services"
)

// LinkWordsHandler handles LinkWordsCommand
type LinkWordsHandler struct {
	graph *services.GraphService
}

func NewLinkWordsHandler(graph *services.GraphService) *LinkWordsHandler {
	return &LinkWordsHandler{graph: graph}
}

func (h *LinkWordsHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.LinkWordsCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", c)
	}
	return nil, h.graph.Link(ctx, cmd.UserID, cmd.WordA, cmd.WordB)
}

// UnlinkWordsHandler handles UnlinkWordsCommand
type UnlinkWordsHandler struct {
	graph *services.GraphService
}

func NewUnlinkWordsHandler(graph *services.GraphService) *UnlinkWordsHandler {
	return &UnlinkWordsHandler{graph: graph}
}

func (h *UnlinkWordsHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.UnlinkWordsCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", c)
	}
	if cmd.EnforceOwnership {
		return nil, h.graph.UnlinkOwned(ctx, cmd.UserID, cmd.WordA, cmd.WordB)
	}
	return nil, h.graph.Unlink(ctx, cmd.WordA, cmd.WordB)
}

// PurgeWordRelationsHandler handles PurgeWordRelationsCommand and returns the
// number of removed relations.
type PurgeWordRelationsHandler struct {
	graph *services.GraphService
}

func NewPurgeWordRelationsHandler(graph *services.GraphService) *PurgeWordRelationsHandler {
	return &PurgeWordRelationsHandler{graph: graph}
}

func (h *PurgeWordRelationsHandler) Handle(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.PurgeWordRelationsCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", c)
	}
	if cmd.UserID.Valid() {
		if _, err := h.graph.Guard().AssertOwned(ctx, cmd.UserID, cmd.WordID); err != nil {
			return nil, err
		}
	}
	return h.graph.PurgeWordRelations(ctx, cmd.WordID)
}

// Register wires every relation command handler into b.
func Register(b *bus.CommandBus, graph *services.GraphService) error {
	if err := b.Register(commands.LinkWordsCommand{}, NewLinkWordsHandler(graph)); err != nil {
		return err
	}
	if err := b.Register(commands.UnlinkWordsCommand{}, NewUnlinkWordsHandler(graph)); err != nil {
		return err
	}
	return b.Register(commands.PurgeWordRelationsCommand{}, NewPurgeWordRelationsHandler(graph))
}
