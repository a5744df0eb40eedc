package repository

import (
	"context"
	"errors"

	"example.com/backstage/services/picking/internal/models"

	"github.com/google/uuid"
)

// Common repository errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
)

// Repository provides data access for the inventory graph. Ownership edges
// are stored once on the child (warehouse_id, location_id, carrier_id,
// pick_list_id); owned sets are resolved through the List* lookups.
type Repository interface {
	// Transaction support
	WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error

	WarehouseRepository
	UserRepository
	LocationRepository
	ProductRepository
	PickListRepository
	CarrierRepository
}

// WarehouseRepository stores warehouses
type WarehouseRepository interface {
	CreateWarehouse(ctx context.Context, warehouse *models.Warehouse) error
	FindWarehouseByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	ListWarehouses(ctx context.Context) ([]*models.Warehouse, error)
	DeleteWarehouse(ctx context.Context, id uuid.UUID) error
	// DetachWarehouse clears warehouse_id on every user, location, product and pick list
	DetachWarehouse(ctx context.Context, id uuid.UUID) error
	// CountWarehouseReferences counts entities still pointing at the warehouse
	CountWarehouseReferences(ctx context.Context, id uuid.UUID) (int64, error)
}

// UserRepository stores actors
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsersByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*models.User, error)
}

// LocationRepository stores locations
type LocationRepository interface {
	CreateLocation(ctx context.Context, location *models.Location) error
	FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	FindLocationByCode(ctx context.Context, warehouseID uuid.UUID, code string) (*models.Location, error)
	ListLocationsByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*models.Location, error)
	DeleteLocation(ctx context.Context, id uuid.UUID) error
}

// ProductRepository stores products
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// FindProductByName ignores inactive products
	FindProductByName(ctx context.Context, warehouseID uuid.UUID, name string) (*models.Product, error)
	// ListProductsByWarehouse ignores inactive products
	ListProductsByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*models.Product, error)
	ListProductsByLocation(ctx context.Context, locationID uuid.UUID) ([]*models.Product, error)
	// ListAvailableProducts returns READY products with quantity > 0
	ListAvailableProducts(ctx context.Context, warehouseID uuid.UUID) ([]*models.Product, error)
}

// PickListRepository stores pick lists and their picks
type PickListRepository interface {
	// CreatePickList stores the list together with its picks
	CreatePickList(ctx context.Context, pickList *models.PickList) error
	// UpdatePickList stores the list's own columns; picks are left alone
	UpdatePickList(ctx context.Context, pickList *models.PickList) error
	FindPickListByID(ctx context.Context, id uuid.UUID) (*models.PickList, error)
	ListPickListsByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]*models.PickList, error)
	ListPickListsByLocation(ctx context.Context, locationID uuid.UUID) ([]*models.PickList, error)
	ListPickListsByCarrier(ctx context.Context, carrierID uuid.UUID) ([]*models.PickList, error)
	DeletePickList(ctx context.Context, id uuid.UUID) error

	UpdatePick(ctx context.Context, pick *models.Pick) error
	FindPickByID(ctx context.Context, id uuid.UUID) (*models.Pick, error)
	ListPicksByPickList(ctx context.Context, pickListID uuid.UUID) ([]*models.Pick, error)
	// DetachPicks clears pick_list_id on every pick of the list
	DetachPicks(ctx context.Context, pickListID uuid.UUID) error
}

// CarrierRepository stores carriers
type CarrierRepository interface {
	CreateCarrier(ctx context.Context, carrier *models.Carrier) error
	FindCarrierByID(ctx context.Context, id uuid.UUID) (*models.Carrier, error)
	FindCarrierByIdentifier(ctx context.Context, identifier int) (*models.Carrier, error)
	ListCarriers(ctx context.Context) ([]*models.Carrier, error)
	DeleteCarrier(ctx context.Context, id uuid.UUID) error
}
