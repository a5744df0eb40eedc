package service

import (
	"context"
	"time"

	"example.com/backstage/services/picking/internal/messaging"
	"example.com/backstage/services/picking/internal/metrics"
	"example.com/backstage/services/picking/internal/models"
	"example.com/backstage/services/picking/internal/search"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type pickListEvent struct {
	PickListID  uuid.UUID  `json:"pick_list_id"`
	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	CarrierID   *uuid.UUID `json:"carrier_id,omitempty"`
	Route       string     `json:"route"`
	Destination string     `json:"destination"`
	PickCount   int        `json:"pick_count"`
}

// projector pushes committed pick-list changes to search and the event queue.
// Failures are logged and counted, never returned.
type projector struct {
	indexer   search.PickListIndexer
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func (p *projector) pickListChanged(ctx context.Context, pl *models.PickList, eventType string) {
	if p.indexer != nil {
		if err := p.indexer.IndexPickList(ctx, pl); err != nil {
			log.Warn().Err(err).Str("pick_list_id", pl.ID.String()).Msg("failed to index pick list")
		} else {
			p.metrics.IncrementCounter(metrics.DocumentsIndexed)
		}
	}

	if p.publisher == nil {
		return
	}
	err := p.publisher.Publish(ctx, messaging.Event{
		Type:       eventType,
		OccurredAt: p.now(),
		Payload: pickListEvent{
			PickListID:  pl.ID,
			WarehouseID: pl.WarehouseID,
			UserID:      pl.UserID,
			CarrierID:   pl.CarrierID,
			Route:       pl.Route,
			Destination: pl.Destination,
			PickCount:   len(pl.Picks),
		},
	})
	if err != nil {
		p.metrics.IncrementCounter(metrics.EventPublishFailures)
		log.Warn().Err(err).Str("pick_list_id", pl.ID.String()).Str("event", eventType).Msg("failed to publish event")
		return
	}
	p.metrics.IncrementCounter(metrics.EventsPublished)
}
