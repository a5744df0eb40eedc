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

// ProductService owns product mutations. Every quantity or placement change
// goes through models.Product so the status is always recomputed.
type ProductService interface {
	AddProduct(ctx context.Context, warehouseID uuid.UUID, req AddProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, warehouseID uuid.UUID, name string) (*models.Product, error)
	ListProducts(ctx context.Context, warehouseID uuid.UUID) ([]*models.Product, error)
	UpdateQuantity(ctx context.Context, warehouseID uuid.UUID, name string, quantity int) (*models.Product, error)
	DeactivateProduct(ctx context.Context, warehouseID uuid.UUID, name string) error
}

type productService struct {
	repo repository.Repository
}

// NewProductService creates a new product service
func NewProductService(repo repository.Repository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) AddProduct(ctx context.Context, warehouseID uuid.UUID, req AddProductRequest) (*models.Product, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Weight:      req.Weight,
		Volume:      req.Volume,
		Type:        req.Type,
		WarehouseID: models.UUIDPtr(warehouseID),
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		if _, err := tx.FindWarehouseByID(ctx, warehouseID); err != nil {
			return lookupErr(err, "warehouse", warehouseID.String())
		}

		_, err := tx.FindProductByName(ctx, warehouseID, product.Name)
		switch {
		case err == nil:
			return &AlreadyExistsError{Kind: "product", Key: product.Name}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		if code := strings.TrimSpace(req.LocationCode); code != "" {
			location, err := tx.FindLocationByCode(ctx, warehouseID, code)
			if err != nil {
				return lookupErr(err, "location", code)
			}
			if location.Kind != models.LocationKindProduct {
				return &KindMismatchError{LocationKind: location.Kind, EntityKind: models.LocationKindProduct}
			}
			product.LocationID = models.UUIDPtr(location.ID)
		}

		product.SetQuantity(req.Quantity)
		return createErr(tx.CreateProduct(ctx, product), "product", product.Name)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("product_id", product.ID.String()).
		Str("name", product.Name).
		Str("status", product.Status.String()).
		Msg("product added")
	return product, nil
}

func (s *productService) GetProduct(ctx context.Context, warehouseID uuid.UUID, name string) (*models.Product, error) {
	product, err := s.repo.FindProductByName(ctx, warehouseID, name)
	if err != nil {
		return nil, lookupErr(err, "product", name)
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, warehouseID uuid.UUID) ([]*models.Product, error) {
	if _, err := s.repo.FindWarehouseByID(ctx, warehouseID); err != nil {
		return nil, lookupErr(err, "warehouse", warehouseID.String())
	}
	return s.repo.ListProductsByWarehouse(ctx, warehouseID)
}

func (s *productService) UpdateQuantity(ctx context.Context, warehouseID uuid.UUID, name string, quantity int) (*models.Product, error) {
	if quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must be at least 0"}
	}

	var product *models.Product
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		product, err = tx.FindProductByName(ctx, warehouseID, name)
		if err != nil {
			return lookupErr(err, "product", name)
		}
		product.SetQuantity(quantity)
		return tx.UpdateProduct(ctx, product)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// DeactivateProduct soft-deletes the product. Picks referencing it are kept.
func (s *productService) DeactivateProduct(ctx context.Context, warehouseID uuid.UUID, name string) error {
	return s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		product, err := tx.FindProductByName(ctx, warehouseID, name)
		if err != nil {
			return lookupErr(err, "product", name)
		}
		product.Deactivate()
		return tx.UpdateProduct(ctx, product)
	})
}
