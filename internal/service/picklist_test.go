package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"example.com/backstage/services/picking/internal/messaging"
	"example.com/backstage/services/picking/internal/metrics"
	"example.com/backstage/services/picking/internal/models"

	"github.com/google/uuid"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event messaging.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

type mockIndexer struct {
	mock.Mock
}

func (m *mockIndexer) IndexPickList(ctx context.Context, pickList *models.PickList) error {
	args := m.Called(ctx, pickList)
	return args.Error(0)
}

type mockTracer struct {
	mock.Mock
}

func (m *mockTracer) StartTransaction(name string) *newrelic.Transaction {
	txn, _ := m.Called(name).Get(0).(*newrelic.Transaction)
	return txn
}

func (m *mockTracer) StartSegment(txn *newrelic.Transaction, name string) *newrelic.Segment {
	seg, _ := m.Called(txn, name).Get(0).(*newrelic.Segment)
	return seg
}

func (m *mockTracer) EndTransaction(txn *newrelic.Transaction) {
	m.Called(txn)
}

func (m *mockTracer) RecordError(txn *newrelic.Transaction, err error) {
	m.Called(txn, err)
}

func (m *mockTracer) AddAttribute(txn *newrelic.Transaction, key string, value interface{}) {
	m.Called(txn, key, value)
}

func (m *mockTracer) Application() *newrelic.Application {
	app, _ := m.Called().Get(0).(*newrelic.Application)
	return app
}

func (m *mockTracer) Close() {
	m.Called()
}

func routeKnown(route, destination string) bool {
	for _, rd := range routeTable {
		if rd.Route == route && rd.Destination == destination {
			return true
		}
	}
	return false
}

func TestGenerateDrawsDistinctAvailableProducts(t *testing.T) {
	for _, size := range []int{1, 2, 5, 10, 11, 25} {
		f := newFixture(t)
		stocked := f.stock(t, size)
		byID := make(map[uuid.UUID]*models.Product, size)
		for _, p := range stocked {
			byID[p.ID] = p
		}

		svc := NewPickListService(PickListConfig{Repo: f.repo, Rand: seeded(uint64(size))})
		limit := min(size, DefaultMaxPicks)

		for i := 0; i < 50; i++ {
			pl, err := svc.Generate(f.ctx, f.actor.ID)
			require.NoError(t, err)
			require.True(t, routeKnown(pl.Route, pl.Destination), "unexpected route %s/%s", pl.Route, pl.Destination)
			require.Equal(t, f.warehouse.ID, *pl.WarehouseID)
			require.Equal(t, f.actor.ID, *pl.UserID)
			require.Nil(t, pl.ConfirmedAt)
			require.Nil(t, pl.CarrierID)
			require.Nil(t, pl.LocationID)

			require.GreaterOrEqual(t, len(pl.Picks), 1)
			require.LessOrEqual(t, len(pl.Picks), limit)

			seen := make(map[uuid.UUID]bool, len(pl.Picks))
			for _, pick := range pl.Picks {
				require.Contains(t, byID, pick.ProductID)
				require.False(t, seen[pick.ProductID], "product drawn twice")
				seen[pick.ProductID] = true
				require.GreaterOrEqual(t, pick.Amount, 1)
				require.LessOrEqual(t, pick.Amount, 9)
				require.Equal(t, pl.ID, *pick.PickListID)
			}
		}

		for _, p := range stocked {
			stored, err := f.repo.FindProductByID(f.ctx, p.ID)
			require.NoError(t, err)
			require.Equal(t, 20, stored.Quantity)
		}
	}
}

func TestGenerateCoversEveryCount(t *testing.T) {
	f := newFixture(t)
	f.stock(t, 3)
	svc := NewPickListService(PickListConfig{Repo: f.repo, Rand: seeded(7)})

	counts := make(map[int]int)
	for i := 0; i < 200; i++ {
		pl, err := svc.Generate(f.ctx, f.actor.ID)
		require.NoError(t, err)
		counts[len(pl.Picks)]++
	}
	require.Len(t, counts, 3)
	for n := 1; n <= 3; n++ {
		require.Positive(t, counts[n])
	}
}

func TestGenerateSkipsUnavailableProducts(t *testing.T) {
	f := newFixture(t)
	f.location(t, "A1", models.LocationKindProduct)

	ready := f.product(t, "Ready", 5, "A1")
	f.product(t, "Empty", 0, "A1")
	f.product(t, "Loose", 5, "")
	f.product(t, "Retired", 5, "A1")
	require.NoError(t, f.products.DeactivateProduct(f.ctx, f.warehouse.ID, "Retired"))

	m := metrics.NewMetrics()
	svc := NewPickListService(PickListConfig{Repo: f.repo, Metrics: m, Rand: seeded(3)})
	for i := 0; i < 10; i++ {
		pl, err := svc.Generate(f.ctx, f.actor.ID)
		require.NoError(t, err)
		require.Len(t, pl.Picks, 1)
		require.Equal(t, ready.ID, pl.Picks[0].ProductID)
	}
	require.Equal(t, int64(1), m.GetGauges()[metrics.AvailableProducts])
	require.Equal(t, int64(10), m.GetCounters()[metrics.PickListsGenerated])
}

func TestGenerateEmptyInventory(t *testing.T) {
	f := newFixture(t)
	f.location(t, "A1", models.LocationKindProduct)
	f.product(t, "Empty", 0, "A1")

	m := metrics.NewMetrics()
	svc := NewPickListService(PickListConfig{Repo: f.repo, Metrics: m})

	_, err := svc.Generate(f.ctx, f.actor.ID)
	var empty *EmptyInventoryError
	require.ErrorAs(t, err, &empty)
	require.Equal(t, f.warehouse.ID, empty.WarehouseID)

	lists, err := svc.List(f.ctx, f.warehouse.ID)
	require.NoError(t, err)
	require.Empty(t, lists)
	require.Equal(t, int64(1), m.GetCounters()[metrics.GenerationEmpty])
}

func TestGenerateRequiresActorWarehouse(t *testing.T) {
	f := newFixture(t)
	svc := NewPickListService(PickListConfig{Repo: f.repo})

	loner, err := f.users.Register(f.ctx, RegisterUserRequest{Email: "loner@example.com"})
	require.NoError(t, err)

	_, err = svc.Generate(f.ctx, loner.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "warehouse", nf.Kind)

	_, err = svc.Generate(f.ctx, uuid.New())
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "actor", nf.Kind)
}

func TestGenerateConcurrently(t *testing.T) {
	f := newFixture(t)
	f.stock(t, 12)
	svc := NewPickListService(PickListConfig{Repo: f.repo, Rand: seeded(11)})

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Generate(f.ctx, f.actor.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	lists, err := svc.List(f.ctx, f.warehouse.ID)
	require.NoError(t, err)
	require.Len(t, lists, workers)
}

func TestGenerateProjectsEvent(t *testing.T) {
	f := newFixture(t)
	f.stock(t, 4)

	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e messaging.Event) bool {
		return e.Type == messaging.EventPickListGenerated
	})).Return(nil).Once()

	indexer := new(mockIndexer)
	indexer.On("IndexPickList", mock.Anything, mock.AnythingOfType("*models.PickList")).Return(nil).Once()

	m := metrics.NewMetrics()
	svc := NewPickListService(PickListConfig{Repo: f.repo, Metrics: m, Publisher: publisher, Indexer: indexer})

	_, err := svc.Generate(f.ctx, f.actor.ID)
	require.NoError(t, err)

	publisher.AssertExpectations(t)
	indexer.AssertExpectations(t)
	require.Equal(t, int64(1), m.GetCounters()[metrics.EventsPublished])
	require.Equal(t, int64(1), m.GetCounters()[metrics.DocumentsIndexed])
}

func TestGenerateSurvivesProjectionFailures(t *testing.T) {
	f := newFixture(t)
	f.stock(t, 2)

	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("queue unavailable"))
	indexer := new(mockIndexer)
	indexer.On("IndexPickList", mock.Anything, mock.Anything).Return(errors.New("index unavailable"))

	m := metrics.NewMetrics()
	svc := NewPickListService(PickListConfig{Repo: f.repo, Metrics: m, Publisher: publisher, Indexer: indexer})

	pl, err := svc.Generate(f.ctx, f.actor.ID)
	require.NoError(t, err)

	stored, err := svc.Get(f.ctx, pl.ID)
	require.NoError(t, err)
	require.Len(t, stored.Picks, len(pl.Picks))
	require.Equal(t, int64(1), m.GetCounters()[metrics.EventPublishFailures])
	require.Zero(t, m.GetCounters()[metrics.DocumentsIndexed])
}

func TestGenerateJoinsRequestTransaction(t *testing.T) {
	f := newFixture(t)
	f.stock(t, 3)

	txn := &newrelic.Transaction{}
	ctx := newrelic.NewContext(f.ctx, txn)

	tracer := new(mockTracer)
	tracer.On("StartSegment", txn, mock.AnythingOfType("string")).Return((*newrelic.Segment)(nil))
	tracer.On("AddAttribute", txn, "actor_id", f.actor.ID.String()).Return()

	svc := NewPickListService(PickListConfig{Repo: f.repo, Tracer: tracer, Rand: seeded(3)})
	_, err := svc.Generate(ctx, f.actor.ID)
	require.NoError(t, err)

	tracer.AssertCalled(t, "StartSegment", txn, "picklist.generate")
	tracer.AssertCalled(t, "StartSegment", txn, "picklist.project")
	tracer.AssertNotCalled(t, "StartTransaction", mock.Anything)
	tracer.AssertNotCalled(t, "EndTransaction", mock.Anything)
}

func TestGenerateStartsTransactionWithoutRequest(t *testing.T) {
	f := newFixture(t)

	var none *newrelic.Transaction
	tracer := new(mockTracer)
	tracer.On("StartTransaction", "picklist.generate").Return(none)
	tracer.On("EndTransaction", none).Return()
	tracer.On("StartSegment", none, "picklist.generate").Return((*newrelic.Segment)(nil))
	tracer.On("AddAttribute", none, "actor_id", f.actor.ID.String()).Return()
	tracer.On("RecordError", none, mock.Anything).Return()

	svc := NewPickListService(PickListConfig{Repo: f.repo, Tracer: tracer})
	_, err := svc.Generate(f.ctx, f.actor.ID)
	var empty *EmptyInventoryError
	require.ErrorAs(t, err, &empty)

	tracer.AssertNumberOfCalls(t, "StartTransaction", 1)
	tracer.AssertNumberOfCalls(t, "EndTransaction", 1)
	tracer.AssertCalled(t, "RecordError", none, err)
}

func TestPickListLifecycle(t *testing.T) {
	f := newFixture(t)
	f.stock(t, 5)

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	svc := NewPickListService(PickListConfig{
		Repo:      f.repo,
		Publisher: publisher,
		Rand:      seeded(5),
		Clock:     func() time.Time { return now },
	})

	pl, err := svc.Generate(f.ctx, f.actor.ID)
	require.NoError(t, err)

	_, err = svc.Finish(f.ctx, pl.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "confirmed_at", verr.Field)

	confirmed, err := svc.Confirm(f.ctx, pl.ID, f.actor.ID)
	require.NoError(t, err)
	require.Equal(t, now, *confirmed.ConfirmedAt)

	_, err = svc.Confirm(f.ctx, pl.ID, f.actor.ID)
	require.ErrorAs(t, err, &verr)

	pick := pl.Picks[0]
	stamped, err := svc.ConfirmPick(f.ctx, pick.ID)
	require.NoError(t, err)
	require.Equal(t, now, *stamped.ConfirmedAt)
	_, err = svc.ConfirmPick(f.ctx, pick.ID)
	require.ErrorAs(t, err, &verr)

	stamped, err = svc.PluckPick(f.ctx, pick.ID)
	require.NoError(t, err)
	require.Equal(t, now, *stamped.PluckedAt)

	finished, err := svc.Finish(f.ctx, pl.ID)
	require.NoError(t, err)
	require.Equal(t, now, *finished.FinishedAt)

	_, err = svc.Finish(f.ctx, pl.ID)
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "finished_at", verr.Field)

	publisher.AssertNumberOfCalls(t, "Publish", 2)
}

func TestConfirmRequiresKnownActor(t *testing.T) {
	f := newFixture(t)
	f.stock(t, 1)
	svc := NewPickListService(PickListConfig{Repo: f.repo})

	pl, err := svc.Generate(f.ctx, f.actor.ID)
	require.NoError(t, err)

	_, err = svc.Confirm(f.ctx, pl.ID, uuid.New())
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = svc.Confirm(f.ctx, uuid.New(), f.actor.ID)
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "pick list", nf.Kind)
}

func TestClearAndDeletePickList(t *testing.T) {
	f := newFixture(t)
	f.stock(t, 6)
	staging := f.location(t, "OUT", models.LocationKindPickList)
	svc := NewPickListService(PickListConfig{Repo: f.repo, Rand: seeded(9)})

	pl, err := svc.Generate(f.ctx, f.actor.ID)
	require.NoError(t, err)
	require.NoError(t, f.inventory.AddEntityToLocation(f.ctx, staging.ID, EntityRef{Kind: models.LocationKindPickList, ID: pl.ID}))

	require.NoError(t, svc.Clear(f.ctx, pl.ID))

	cleared, err := svc.Get(f.ctx, pl.ID)
	require.NoError(t, err)
	require.Nil(t, cleared.UserID)
	require.Nil(t, cleared.LocationID)
	require.Nil(t, cleared.CarrierID)
	require.Empty(t, cleared.Picks)

	for _, pick := range pl.Picks {
		stored, err := f.repo.FindPickByID(f.ctx, pick.ID)
		require.NoError(t, err)
		require.Nil(t, stored.PickListID)
	}

	second, err := svc.Generate(f.ctx, f.actor.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(f.ctx, second.ID))

	_, err = svc.Get(f.ctx, second.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	err = svc.Delete(f.ctx, second.ID)
	require.ErrorAs(t, err, &nf)
}

func TestPickCountBounds(t *testing.T) {
	rng := seeded(42)
	for i := 0; i < 1000; i++ {
		n := pickCount(rng, 4, DefaultMaxPicks)
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, 4)

		n = pickCount(rng, 30, DefaultMaxPicks)
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, DefaultMaxPicks)
	}
}

func TestSampleDistinct(t *testing.T) {
	rng := seeded(13)
	for i := 0; i < 200; i++ {
		got := sampleDistinct(rng, 15, 10)
		require.Len(t, got, 10)

		seen := make(map[int]bool)
		for _, idx := range got {
			require.GreaterOrEqual(t, idx, 0)
			require.Less(t, idx, 15)
			require.False(t, seen[idx])
			seen[idx] = true
		}
	}
}
