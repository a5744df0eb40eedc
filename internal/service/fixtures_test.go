package service

import (
	"context"
	"math/rand/v2"
	"testing"

	"example.com/backstage/services/picking/internal/models"
	"example.com/backstage/services/picking/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx       context.Context
	repo      *repository.MemoryRepository
	users     UserService
	inventory InventoryService
	products  ProductService
	actor     *models.User
	warehouse *models.Warehouse
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{ctx: context.Background(), repo: repository.NewMemoryRepository()}
	f.users = NewUserService(f.repo)
	f.inventory = NewInventoryService(f.repo)
	f.products = NewProductService(f.repo)

	var err error
	f.actor, err = f.users.Register(f.ctx, RegisterUserRequest{Email: "picker@example.com", Name: "Picker"})
	require.NoError(t, err)

	f.warehouse, err = f.inventory.CreateWarehouse(f.ctx, f.actor.ID, CreateWarehouseRequest{Name: "Main", Address: "Dock 1"})
	require.NoError(t, err)
	return f
}

func (f *fixture) location(t *testing.T, code string, kind models.LocationKind) *models.Location {
	t.Helper()
	loc, err := f.inventory.AddLocation(f.ctx, f.warehouse.ID, AddLocationRequest{Code: code, ControlDigits: 1, Kind: kind})
	require.NoError(t, err)
	return loc
}

func (f *fixture) product(t *testing.T, name string, quantity int, locationCode string) *models.Product {
	t.Helper()
	p, err := f.products.AddProduct(f.ctx, f.warehouse.ID, AddProductRequest{
		Name:         name,
		Weight:       1.5,
		Volume:       0.5,
		Quantity:     quantity,
		Type:         models.ProductTypeBulkPack,
		LocationCode: locationCode,
	})
	require.NoError(t, err)
	return p
}

// stock adds n ready products in one shelf location
func (f *fixture) stock(t *testing.T, n int) []*models.Product {
	t.Helper()
	f.location(t, "SHELF", models.LocationKindProduct)
	out := make([]*models.Product, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f.product(t, "product-"+uuid.NewString()[:8], 20, "SHELF"))
	}
	return out
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
