package service

import (
	"example.com/backstage/services/picking/internal/models"

	"github.com/google/uuid"
)

// CreateWarehouseRequest describes a new warehouse
type CreateWarehouseRequest struct {
	Name    string `json:"name" validate:"notblank"`
	Address string `json:"address"`
}

// AddLocationRequest describes a new storage location
type AddLocationRequest struct {
	Code          string              `json:"code" validate:"notblank"`
	ControlDigits int                 `json:"control_digits" validate:"gte=0"`
	Kind          models.LocationKind `json:"kind" validate:"location_kind"`
}

// AddProductRequest describes a new product. LocationCode is optional.
type AddProductRequest struct {
	Name         string             `json:"name" validate:"notblank"`
	Weight       float64            `json:"weight" validate:"gt=0"`
	Volume       float64            `json:"volume" validate:"gt=0"`
	Quantity     int                `json:"quantity" validate:"gte=0"`
	Type         models.ProductType `json:"type" validate:"product_type"`
	LocationCode string             `json:"location_code,omitempty"`
}

// CreateCarrierRequest describes a new carrier
type CreateCarrierRequest struct {
	Name               string `json:"name" validate:"notblank"`
	Identifier         int    `json:"identifier" validate:"gte=0"`
	PhoneticIdentifier string `json:"phonetic_identifier" validate:"notblank"`
	Active             bool   `json:"active"`
}

// RegisterUserRequest describes a new actor
type RegisterUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

// EntityRef points at a location occupant. Kind uses the location kinds:
// PRODUCT for products and PICK_LIST for pick lists.
type EntityRef struct {
	Kind models.LocationKind `json:"kind"`
	ID   uuid.UUID           `json:"id"`
}

// WarehouseGraph is a warehouse with its owned sets resolved
type WarehouseGraph struct {
	Warehouse *models.Warehouse  `json:"warehouse"`
	Users     []*models.User     `json:"users"`
	Locations []*models.Location `json:"locations"`
	Products  []*models.Product  `json:"products"`
	PickLists []*models.PickList `json:"pick_lists"`
}

// Occupants lists what a location holds
type Occupants struct {
	Location  *models.Location   `json:"location"`
	Products  []*models.Product  `json:"products"`
	PickLists []*models.PickList `json:"pick_lists"`
}
