package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"example.com/backstage/services/picking/internal/messaging"
	"example.com/backstage/services/picking/internal/metrics"
	"example.com/backstage/services/picking/internal/models"
	"example.com/backstage/services/picking/internal/repository"
	"example.com/backstage/services/picking/internal/search"
	"example.com/backstage/services/picking/internal/tracing"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog/log"
)

// DefaultMaxPicks bounds how many products one generated pick list draws
const DefaultMaxPicks = 10

// maxPickAmount is the exclusive upper bound of a pick's requested amount
const maxPickAmount = 10

type routeDestination struct {
	Route       string
	Destination string
}

var routeTable = [...]routeDestination{
	{Route: "R-101", Destination: "Oslo"},
	{Route: "R-102", Destination: "Bergen"},
	{Route: "R-201", Destination: "Trondheim"},
	{Route: "R-202", Destination: "Stavanger"},
	{Route: "R-301", Destination: "Tromsø"},
	{Route: "R-302", Destination: "Kristiansand"},
}

// PickListService generates pick lists and drives them through confirmation
type PickListService interface {
	Generate(ctx context.Context, actorID uuid.UUID) (*models.PickList, error)
	Get(ctx context.Context, id uuid.UUID) (*models.PickList, error)
	List(ctx context.Context, warehouseID uuid.UUID) ([]*models.PickList, error)
	Confirm(ctx context.Context, id, actorID uuid.UUID) (*models.PickList, error)
	Finish(ctx context.Context, id uuid.UUID) (*models.PickList, error)
	ConfirmPick(ctx context.Context, pickID uuid.UUID) (*models.Pick, error)
	PluckPick(ctx context.Context, pickID uuid.UUID) (*models.Pick, error)
	Clear(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PickListConfig wires a PickListService. Only Repo is required.
type PickListConfig struct {
	Repo      repository.Repository
	Actors    ActorResolver
	Metrics   *metrics.Metrics
	Tracer    tracing.Tracer
	Indexer   search.PickListIndexer
	Publisher messaging.Publisher
	MaxPicks  int
	Rand      *rand.Rand
	Clock     func() time.Time
}

type pickListService struct {
	repo     repository.Repository
	actors   ActorResolver
	metrics  *metrics.Metrics
	tracer   tracing.Tracer
	project  *projector
	maxPicks int
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand

	locks *keyedMutex
}

// NewPickListService creates a pick list service, filling unset collaborators
// with defaults
func NewPickListService(cfg PickListConfig) PickListService {
	s := &pickListService{
		repo:     cfg.Repo,
		actors:   cfg.Actors,
		metrics:  cfg.Metrics,
		tracer:   cfg.Tracer,
		maxPicks: cfg.MaxPicks,
		now:      cfg.Clock,
		rng:      cfg.Rand,
		locks:    newKeyedMutex(),
	}
	if s.actors == nil {
		s.actors = NewActorResolver(cfg.Repo)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetrics()
	}
	if s.tracer == nil {
		s.tracer = tracing.NewNoopTracer()
	}
	if s.maxPicks <= 0 {
		s.maxPicks = DefaultMaxPicks
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s.project = &projector{indexer: cfg.Indexer, publisher: cfg.Publisher, metrics: s.metrics, now: s.now}
	return s
}

// Generate builds a new pick list from the available products of the
// actor's warehouse. Product quantities are not reserved.
func (s *pickListService) Generate(ctx context.Context, actorID uuid.UUID) (*models.PickList, error) {
	start := time.Now()
	// join the request's transaction when there is one
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		txn = s.tracer.StartTransaction("picklist.generate")
		defer s.tracer.EndTransaction(txn)
	}
	genSeg := s.tracer.StartSegment(txn, "picklist.generate")
	defer genSeg.End()
	s.tracer.AddAttribute(txn, "actor_id", actorID.String())

	pickList, err := s.generate(ctx, actorID)
	s.metrics.RecordOutcome(metrics.GenerationDuration, start, err)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	s.metrics.IncrementCounter(metrics.PickListsGenerated)
	s.metrics.IncrementCounterBy(metrics.PicksCreated, int64(len(pickList.Picks)))

	seg := s.tracer.StartSegment(txn, "picklist.project")
	s.project.pickListChanged(ctx, pickList, messaging.EventPickListGenerated)
	seg.End()

	log.Info().
		Str("pick_list_id", pickList.ID.String()).
		Str("warehouse_id", pickList.WarehouseID.String()).
		Str("route", pickList.Route).
		Int("picks", len(pickList.Picks)).
		Msg("pick list generated")
	return pickList, nil
}

func (s *pickListService) generate(ctx context.Context, actorID uuid.UUID) (*models.PickList, error) {
	warehouseID, err := s.actors.ResolveWarehouse(ctx, actorID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(warehouseID)
	defer unlock()

	var pickList *models.PickList
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		available, err := tx.ListAvailableProducts(ctx, warehouseID)
		if err != nil {
			return err
		}
		s.metrics.SetGauge(metrics.AvailableProducts, int64(len(available)))
		if len(available) == 0 {
			s.metrics.IncrementCounter(metrics.GenerationEmpty)
			return &EmptyInventoryError{WarehouseID: warehouseID}
		}

		pickList = s.draw(available, warehouseID, actorID)
		return tx.CreatePickList(ctx, pickList)
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("warehouse_id", warehouseID.String()).
		Msg("generated picks do not decrement product stock")
	return pickList, nil
}

// draw picks the route and a distinct random subset of available products
func (s *pickListService) draw(available []*models.Product, warehouseID, actorID uuid.UUID) *models.PickList {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	rd := routeTable[s.rng.IntN(len(routeTable))]
	count := pickCount(s.rng, len(available), s.maxPicks)
	chosen := sampleDistinct(s.rng, len(available), count)

	now := s.now()
	pickList := &models.PickList{
		Base:        models.Base{ID: uuid.New(), CreatedAt: now},
		Route:       rd.Route,
		Destination: rd.Destination,
		UserID:      models.UUIDPtr(actorID),
		WarehouseID: models.UUIDPtr(warehouseID),
		Picks:       make([]models.Pick, 0, count),
	}
	for _, idx := range chosen {
		pickList.Picks = append(pickList.Picks, models.Pick{
			Base:       models.Base{ID: uuid.New(), CreatedAt: now},
			ProductID:  available[idx].ID,
			Amount:     s.rng.IntN(maxPickAmount-1) + 1,
			PickListID: models.UUIDPtr(pickList.ID),
		})
	}
	return pickList
}

// pickCount draws uniformly from [1, size] when size < limit, else from [1, limit]
func pickCount(rng *rand.Rand, size, limit int) int {
	if size < limit {
		return rng.IntN(size) + 1
	}
	return rng.IntN(limit) + 1
}

// sampleDistinct returns n distinct indexes in [0, size) using a partial
// Fisher-Yates shuffle
func sampleDistinct(rng *rand.Rand, size, n int) []int {
	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < n; i++ {
		j := i + rng.IntN(size-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:n]
}

func (s *pickListService) Get(ctx context.Context, id uuid.UUID) (*models.PickList, error) {
	pickList, err := s.repo.FindPickListByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "pick list", id.String())
	}
	return pickList, nil
}

func (s *pickListService) List(ctx context.Context, warehouseID uuid.UUID) ([]*models.PickList, error) {
	if _, err := s.repo.FindWarehouseByID(ctx, warehouseID); err != nil {
		return nil, lookupErr(err, "warehouse", warehouseID.String())
	}
	return s.repo.ListPickListsByWarehouse(ctx, warehouseID)
}

// Confirm marks the pick list as accepted by the actor
func (s *pickListService) Confirm(ctx context.Context, id, actorID uuid.UUID) (*models.PickList, error) {
	var pickList *models.PickList
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.FindUserByID(ctx, actorID); err != nil {
			return lookupErr(err, "actor", actorID.String())
		}

		var err error
		pickList, err = tx.FindPickListByID(ctx, id)
		if err != nil {
			return lookupErr(err, "pick list", id.String())
		}
		if pickList.ConfirmedAt != nil {
			return &ValidationError{Field: "confirmed_at", Reason: "pick list is already confirmed"}
		}

		now := s.now()
		pickList.ConfirmedAt = &now
		pickList.UserID = models.UUIDPtr(actorID)
		return tx.UpdatePickList(ctx, pickList)
	})
	if err != nil {
		return nil, err
	}
	return pickList, nil
}

// Finish closes a confirmed pick list
func (s *pickListService) Finish(ctx context.Context, id uuid.UUID) (*models.PickList, error) {
	var pickList *models.PickList
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		pickList, err = tx.FindPickListByID(ctx, id)
		if err != nil {
			return lookupErr(err, "pick list", id.String())
		}
		switch {
		case pickList.ConfirmedAt == nil:
			return &ValidationError{Field: "confirmed_at", Reason: "pick list must be confirmed before it is finished"}
		case pickList.FinishedAt != nil:
			return &ValidationError{Field: "finished_at", Reason: "pick list is already finished"}
		}

		now := s.now()
		pickList.FinishedAt = &now
		return tx.UpdatePickList(ctx, pickList)
	})
	if err != nil {
		return nil, err
	}

	s.project.pickListChanged(ctx, pickList, messaging.EventPickListFinished)
	return pickList, nil
}

func (s *pickListService) ConfirmPick(ctx context.Context, pickID uuid.UUID) (*models.Pick, error) {
	return s.stampPick(ctx, pickID, func(p *models.Pick, now time.Time) error {
		if p.ConfirmedAt != nil {
			return &ValidationError{Field: "confirmed_at", Reason: "pick is already confirmed"}
		}
		p.ConfirmedAt = &now
		return nil
	})
}

func (s *pickListService) PluckPick(ctx context.Context, pickID uuid.UUID) (*models.Pick, error) {
	return s.stampPick(ctx, pickID, func(p *models.Pick, now time.Time) error {
		if p.PluckedAt != nil {
			return &ValidationError{Field: "plucked_at", Reason: "pick is already plucked"}
		}
		p.PluckedAt = &now
		return nil
	})
}

func (s *pickListService) stampPick(ctx context.Context, pickID uuid.UUID, apply func(*models.Pick, time.Time) error) (*models.Pick, error) {
	var pick *models.Pick
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		pick, err = tx.FindPickByID(ctx, pickID)
		if err != nil {
			return lookupErr(err, "pick", pickID.String())
		}
		if err := apply(pick, s.now()); err != nil {
			return err
		}
		return tx.UpdatePick(ctx, pick)
	})
	if err != nil {
		return nil, err
	}
	return pick, nil
}

// Clear detaches the actor, carrier, location and every pick
func (s *pickListService) Clear(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		_, err := clearPickList(ctx, tx, id)
		return err
	})
}

// Delete clears the pick list and removes it. Detached picks are kept.
func (s *pickListService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := clearPickList(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeletePickList(ctx, id)
	})
}

func clearPickList(ctx context.Context, tx repository.Repository, id uuid.UUID) (*models.PickList, error) {
	pickList, err := tx.FindPickListByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "pick list", id.String())
	}
	if err := tx.DetachPicks(ctx, id); err != nil {
		return nil, err
	}

	pickList.UserID = nil
	pickList.CarrierID = nil
	pickList.LocationID = nil
	pickList.Picks = nil
	if err := tx.UpdatePickList(ctx, pickList); err != nil {
		return nil, err
	}
	return pickList, nil
}
