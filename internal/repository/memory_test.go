package repository

import (
	"context"
	"errors"
	"testing"

	"example.com/backstage/services/picking/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryTransactionRollback(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	warehouse := &models.Warehouse{Name: "Main"}
	require.NoError(t, repo.CreateWarehouse(ctx, warehouse))

	boom := errors.New("boom")
	err := repo.WithTransaction(ctx, func(ctx context.Context, tx Repository) error {
		loc := &models.Location{Code: "H201", Kind: models.LocationKindProduct, WarehouseID: models.UUIDPtr(warehouse.ID)}
		require.NoError(t, tx.CreateLocation(ctx, loc))
		require.NoError(t, tx.DeleteWarehouse(ctx, warehouse.ID))

		// Nested transactions join the outer one
		return tx.WithTransaction(ctx, func(ctx context.Context, inner Repository) error {
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	_, err = repo.FindWarehouseByID(ctx, warehouse.ID)
	require.NoError(t, err)

	_, err = repo.FindLocationByCode(ctx, warehouse.ID, "H201")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryHidesUncommittedWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	warehouse := &models.Warehouse{Name: "Main"}
	require.NoError(t, repo.CreateWarehouse(ctx, warehouse))

	written := make(chan struct{})
	release := make(chan struct{})
	boom := errors.New("boom")
	done := make(chan error, 1)

	go func() {
		done <- repo.WithTransaction(ctx, func(ctx context.Context, tx Repository) error {
			loc := &models.Location{Code: "GHOST", Kind: models.LocationKindProduct, WarehouseID: models.UUIDPtr(warehouse.ID)}
			if err := tx.CreateLocation(ctx, loc); err != nil {
				return err
			}
			if _, err := tx.FindLocationByCode(ctx, warehouse.ID, "GHOST"); err != nil {
				return err
			}
			close(written)
			<-release
			return boom
		})
	}()

	<-written
	_, err := repo.FindLocationByCode(ctx, warehouse.ID, "GHOST")
	require.ErrorIs(t, err, ErrNotFound)
	locations, err := repo.ListLocationsByWarehouse(ctx, warehouse.ID)
	require.NoError(t, err)
	require.Empty(t, locations)

	close(release)
	require.ErrorIs(t, <-done, boom)

	_, err = repo.FindLocationByCode(ctx, warehouse.ID, "GHOST")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepositoryCommitPublishesWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	warehouse := &models.Warehouse{Name: "Main"}
	require.NoError(t, repo.CreateWarehouse(ctx, warehouse))

	err := repo.WithTransaction(ctx, func(ctx context.Context, tx Repository) error {
		loc := &models.Location{Code: "H201", Kind: models.LocationKindProduct, WarehouseID: models.UUIDPtr(warehouse.ID)}
		return tx.CreateLocation(ctx, loc)
	})
	require.NoError(t, err)

	loc, err := repo.FindLocationByCode(ctx, warehouse.ID, "H201")
	require.NoError(t, err)
	require.Equal(t, "H201", loc.Code)
}

func TestMemoryRepositoryUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	wid := uuid.New()
	other := uuid.New()

	require.NoError(t, repo.CreateLocation(ctx, &models.Location{Code: "A1", WarehouseID: models.UUIDPtr(wid)}))
	require.ErrorIs(t, repo.CreateLocation(ctx, &models.Location{Code: "A1", WarehouseID: models.UUIDPtr(wid)}), ErrDuplicateKey)
	require.NoError(t, repo.CreateLocation(ctx, &models.Location{Code: "A1", WarehouseID: models.UUIDPtr(other)}))

	require.NoError(t, repo.CreateUser(ctx, &models.User{Email: "a@example.com"}))
	require.ErrorIs(t, repo.CreateUser(ctx, &models.User{Email: "a@example.com"}), ErrDuplicateKey)

	require.NoError(t, repo.CreateCarrier(ctx, &models.Carrier{Name: "Pallet", Identifier: 7}))
	require.ErrorIs(t, repo.CreateCarrier(ctx, &models.Carrier{Name: "Other", Identifier: 7}), ErrDuplicateKey)
}

func TestMemoryRepositoryProductQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	wid := uuid.New()
	loc := uuid.New()

	ready := &models.Product{Name: "Q-Melk", Quantity: 5, LocationID: models.UUIDPtr(loc), WarehouseID: models.UUIDPtr(wid)}
	ready.RecomputeStatus()
	empty := &models.Product{Name: "Cola", Quantity: 0, LocationID: models.UUIDPtr(loc), WarehouseID: models.UUIDPtr(wid)}
	empty.RecomputeStatus()
	gone := &models.Product{Name: "Old", Quantity: 5, LocationID: models.UUIDPtr(loc), WarehouseID: models.UUIDPtr(wid)}
	gone.Deactivate()

	for _, p := range []*models.Product{ready, empty, gone} {
		require.NoError(t, repo.CreateProduct(ctx, p))
	}

	available, err := repo.ListAvailableProducts(ctx, wid)
	require.NoError(t, err)
	require.Len(t, available, 1)
	require.Equal(t, ready.ID, available[0].ID)

	all, err := repo.ListProductsByWarehouse(ctx, wid)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byLocation, err := repo.ListProductsByLocation(ctx, loc)
	require.NoError(t, err)
	require.Len(t, byLocation, 3)

	_, err = repo.FindProductByName(ctx, wid, "Old")
	require.ErrorIs(t, err, ErrNotFound)

	// Stored copies are isolated from the caller
	ready.Quantity = 99
	stored, err := repo.FindProductByID(ctx, ready.ID)
	require.NoError(t, err)
	require.Equal(t, 5, stored.Quantity)
}

func TestMemoryRepositoryPickLists(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	wid := uuid.New()

	pl := &models.PickList{
		Route:       "R1",
		WarehouseID: models.UUIDPtr(wid),
		Picks:       []models.Pick{{ProductID: uuid.New(), Amount: 2}, {ProductID: uuid.New(), Amount: 3}},
	}
	require.NoError(t, repo.CreatePickList(ctx, pl))
	require.NotEqual(t, uuid.Nil, pl.Picks[0].ID)

	found, err := repo.FindPickListByID(ctx, pl.ID)
	require.NoError(t, err)
	require.Len(t, found.Picks, 2)

	require.NoError(t, repo.DetachPicks(ctx, pl.ID))
	found, err = repo.FindPickListByID(ctx, pl.ID)
	require.NoError(t, err)
	require.Empty(t, found.Picks)

	pick, err := repo.FindPickByID(ctx, pl.Picks[0].ID)
	require.NoError(t, err)
	require.Nil(t, pick.PickListID)
}
