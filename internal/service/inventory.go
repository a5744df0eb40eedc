package service

import (
	"context"
	"errors"
	"strings"

	"example.com/backstage/services/picking/internal/models"
	"example.com/backstage/services/picking/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InventoryService maintains the warehouse, location and occupant graph
type InventoryService interface {
	CreateWarehouse(ctx context.Context, actorID uuid.UUID, req CreateWarehouseRequest) (*models.Warehouse, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseGraph, error)
	ClearWarehouse(ctx context.Context, id uuid.UUID) error
	DeleteWarehouse(ctx context.Context, id uuid.UUID) error

	AddLocation(ctx context.Context, warehouseID uuid.UUID, req AddLocationRequest) (*models.Location, error)
	GetLocation(ctx context.Context, warehouseID uuid.UUID, code string) (*models.Location, error)
	ListLocations(ctx context.Context, warehouseID uuid.UUID) ([]*models.Location, error)
	LocationOccupants(ctx context.Context, locationID uuid.UUID) (*Occupants, error)
	AddEntityToLocation(ctx context.Context, locationID uuid.UUID, entity EntityRef) error
	RemoveEntityFromLocation(ctx context.Context, entity EntityRef) error
	RemoveLocation(ctx context.Context, warehouseID uuid.UUID, code string) error
}

type inventoryService struct {
	repo repository.Repository
}

// NewInventoryService creates a new inventory service
func NewInventoryService(repo repository.Repository) InventoryService {
	return &inventoryService{repo: repo}
}

// CreateWarehouse creates a warehouse and makes the actor a member of it
func (s *inventoryService) CreateWarehouse(ctx context.Context, actorID uuid.UUID, req CreateWarehouseRequest) (*models.Warehouse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	warehouse := &models.Warehouse{
		Name:    strings.TrimSpace(req.Name),
		Address: strings.TrimSpace(req.Address),
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		actor, err := tx.FindUserByID(ctx, actorID)
		if err != nil {
			return lookupErr(err, "actor", actorID.String())
		}
		if err := tx.CreateWarehouse(ctx, warehouse); err != nil {
			return err
		}
		actor.WarehouseID = models.UUIDPtr(warehouse.ID)
		return tx.UpdateUser(ctx, actor)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("warehouse_id", warehouse.ID.String()).
		Str("actor_id", actorID.String()).
		Msg("warehouse created")
	return warehouse, nil
}

func (s *inventoryService) GetWarehouse(ctx context.Context, id uuid.UUID) (*WarehouseGraph, error) {
	warehouse, err := s.repo.FindWarehouseByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "warehouse", id.String())
	}

	graph := &WarehouseGraph{Warehouse: warehouse}
	if graph.Users, err = s.repo.ListUsersByWarehouse(ctx, id); err != nil {
		return nil, err
	}
	if graph.Locations, err = s.repo.ListLocationsByWarehouse(ctx, id); err != nil {
		return nil, err
	}
	if graph.Products, err = s.repo.ListProductsByWarehouse(ctx, id); err != nil {
		return nil, err
	}
	if graph.PickLists, err = s.repo.ListPickListsByWarehouse(ctx, id); err != nil {
		return nil, err
	}
	return graph, nil
}

// ClearWarehouse detaches every user, location, product and pick list
func (s *inventoryService) ClearWarehouse(ctx context.Context, id uuid.UUID) error {
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.FindWarehouseByID(ctx, id); err != nil {
			return lookupErr(err, "warehouse", id.String())
		}
		return tx.DetachWarehouse(ctx, id)
	})
	if err != nil {
		return err
	}

	log.Info().Str("warehouse_id", id.String()).Msg("warehouse cleared")
	return nil
}

// DeleteWarehouse removes a cleared warehouse
func (s *inventoryService) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.FindWarehouseByID(ctx, id); err != nil {
			return lookupErr(err, "warehouse", id.String())
		}

		refs, err := tx.CountWarehouseReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return &InUseError{Kind: "warehouse", Key: id.String(), References: refs}
		}
		return tx.DeleteWarehouse(ctx, id)
	})
}

func (s *inventoryService) AddLocation(ctx context.Context, warehouseID uuid.UUID, req AddLocationRequest) (*models.Location, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	location := &models.Location{
		Code:          strings.TrimSpace(req.Code),
		ControlDigits: req.ControlDigits,
		Kind:          req.Kind,
		WarehouseID:   models.UUIDPtr(warehouseID),
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.FindWarehouseByID(ctx, warehouseID); err != nil {
			return lookupErr(err, "warehouse", warehouseID.String())
		}

		_, err := tx.FindLocationByCode(ctx, warehouseID, location.Code)
		switch {
		case err == nil:
			return &AlreadyExistsError{Kind: "location", Key: location.Code}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		return createErr(tx.CreateLocation(ctx, location), "location", location.Code)
	})
	if err != nil {
		return nil, err
	}
	return location, nil
}

func (s *inventoryService) GetLocation(ctx context.Context, warehouseID uuid.UUID, code string) (*models.Location, error) {
	location, err := s.repo.FindLocationByCode(ctx, warehouseID, code)
	if err != nil {
		return nil, lookupErr(err, "location", code)
	}
	return location, nil
}

func (s *inventoryService) ListLocations(ctx context.Context, warehouseID uuid.UUID) ([]*models.Location, error) {
	if _, err := s.repo.FindWarehouseByID(ctx, warehouseID); err != nil {
		return nil, lookupErr(err, "warehouse", warehouseID.String())
	}
	return s.repo.ListLocationsByWarehouse(ctx, warehouseID)
}

func (s *inventoryService) LocationOccupants(ctx context.Context, locationID uuid.UUID) (*Occupants, error) {
	location, err := s.repo.FindLocationByID(ctx, locationID)
	if err != nil {
		return nil, lookupErr(err, "location", locationID.String())
	}

	out := &Occupants{Location: location, Products: []*models.Product{}, PickLists: []*models.PickList{}}
	switch location.Kind {
	case models.LocationKindProduct:
		out.Products, err = s.repo.ListProductsByLocation(ctx, locationID)
	case models.LocationKindPickList:
		out.PickLists, err = s.repo.ListPickListsByLocation(ctx, locationID)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddEntityToLocation places a product or pick list in a location of the same kind
func (s *inventoryService) AddEntityToLocation(ctx context.Context, locationID uuid.UUID, entity EntityRef) error {
	if !entity.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: "must be PRODUCT or PICK_LIST"}
	}

	return s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		location, err := tx.FindLocationByID(ctx, locationID)
		if err != nil {
			return lookupErr(err, "location", locationID.String())
		}
		if location.Kind != entity.Kind {
			return &KindMismatchError{LocationKind: location.Kind, EntityKind: entity.Kind}
		}

		switch entity.Kind {
		case models.LocationKindProduct:
			product, err := tx.FindProductByID(ctx, entity.ID)
			if err != nil {
				return lookupErr(err, "product", entity.ID.String())
			}
			if product.IsInactive() {
				return &NotFoundError{Kind: "product", Key: entity.ID.String()}
			}
			if err := sameWarehouse(location.WarehouseID, product.WarehouseID); err != nil {
				return err
			}
			product.SetLocation(models.UUIDPtr(location.ID))
			return tx.UpdateProduct(ctx, product)

		default:
			pickList, err := tx.FindPickListByID(ctx, entity.ID)
			if err != nil {
				return lookupErr(err, "pick list", entity.ID.String())
			}
			if err := sameWarehouse(location.WarehouseID, pickList.WarehouseID); err != nil {
				return err
			}
			pickList.LocationID = models.UUIDPtr(location.ID)
			return tx.UpdatePickList(ctx, pickList)
		}
	})
}

// RemoveEntityFromLocation clears the occupant's location reference
func (s *inventoryService) RemoveEntityFromLocation(ctx context.Context, entity EntityRef) error {
	switch entity.Kind {
	case models.LocationKindProduct:
		product, err := s.repo.FindProductByID(ctx, entity.ID)
		if err != nil {
			return lookupErr(err, "product", entity.ID.String())
		}
		product.SetLocation(nil)
		return s.repo.UpdateProduct(ctx, product)

	case models.LocationKindPickList:
		pickList, err := s.repo.FindPickListByID(ctx, entity.ID)
		if err != nil {
			return lookupErr(err, "pick list", entity.ID.String())
		}
		pickList.LocationID = nil
		return s.repo.UpdatePickList(ctx, pickList)

	default:
		return &ValidationError{Field: "kind", Reason: "must be PRODUCT or PICK_LIST"}
	}
}

// RemoveLocation detaches all occupants and deletes the location
func (s *inventoryService) RemoveLocation(ctx context.Context, warehouseID uuid.UUID, code string) error {
	var detached int
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		location, err := tx.FindLocationByCode(ctx, warehouseID, code)
		if err != nil {
			return lookupErr(err, "location", code)
		}

		products, err := tx.ListProductsByLocation(ctx, location.ID)
		if err != nil {
			return err
		}
		for _, p := range products {
			p.SetLocation(nil)
			if err := tx.UpdateProduct(ctx, p); err != nil {
				return err
			}
		}

		pickLists, err := tx.ListPickListsByLocation(ctx, location.ID)
		if err != nil {
			return err
		}
		for _, pl := range pickLists {
			pl.LocationID = nil
			if err := tx.UpdatePickList(ctx, pl); err != nil {
				return err
			}
		}

		detached = len(products) + len(pickLists)
		return tx.DeleteLocation(ctx, location.ID)
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("warehouse_id", warehouseID.String()).
		Str("code", code).
		Int("detached", detached).
		Msg("location removed")
	return nil
}

func sameWarehouse(location, entity *uuid.UUID) error {
	if location == nil || entity == nil || *location != *entity {
		return &ValidationError{Field: "warehouse", Reason: "entity and location belong to different warehouses"}
	}
	return nil
}
