package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model fields shared by all models
type Base struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an ID when the caller did not
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	b.EnsureID()
	return nil
}

// EnsureID assigns a fresh UUID if the ID is unset
func (b *Base) EnsureID() {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
}

// Warehouse owns users, locations, products and pick lists. Ownership is
// stored on the children through their warehouse_id column.
type Warehouse struct {
	Base
	Name    string `json:"name" gorm:"not null"`
	Address string `json:"address"`
}

// User is an actor that may belong to a warehouse
type User struct {
	Base
	Email       string     `json:"email" gorm:"uniqueIndex;not null"`
	Name        string     `json:"name"`
	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty" gorm:"type:uuid;index"`
}

// Location is a storage slot inside a warehouse
type Location struct {
	Base
	Code          string       `json:"code" gorm:"not null;uniqueIndex:idx_location_warehouse_code"`
	ControlDigits int          `json:"control_digits"`
	Kind          LocationKind `json:"kind" gorm:"type:varchar(16);not null"`
	WarehouseID   *uuid.UUID   `json:"warehouse_id,omitempty" gorm:"type:uuid;uniqueIndex:idx_location_warehouse_code"`
}

// Product is a stock keeping unit stored in a warehouse
type Product struct {
	Base
	Name        string        `json:"name" gorm:"not null;index"`
	Weight      float64       `json:"weight"`
	Volume      float64       `json:"volume"`
	Quantity    int           `json:"quantity"`
	Type        ProductType   `json:"type" gorm:"type:varchar(16)"`
	Status      ProductStatus `json:"status" gorm:"type:varchar(24);index"`
	LocationID  *uuid.UUID    `json:"location_id,omitempty" gorm:"type:uuid;index"`
	WarehouseID *uuid.UUID    `json:"warehouse_id,omitempty" gorm:"type:uuid;index"`
}

// PickList is a bundle of picks for one outbound delivery
type PickList struct {
	Base
	Route       string     `json:"route"`
	Destination string     `json:"destination"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	UserID      *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`
	CarrierID   *uuid.UUID `json:"carrier_id,omitempty" gorm:"type:uuid;index"`
	LocationID  *uuid.UUID `json:"location_id,omitempty" gorm:"type:uuid;index"`
	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty" gorm:"type:uuid;index"`
	Picks       []Pick     `json:"picks" gorm:"foreignKey:PickListID"`
}

// Pick is one line of a pick list
type Pick struct {
	Base
	ProductID   uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	Amount      int        `json:"amount"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	PluckedAt   *time.Time `json:"plucked_at,omitempty"`
	PickListID  *uuid.UUID `json:"pick_list_id,omitempty" gorm:"type:uuid;index"`
}

// Carrier is a physical transport unit a pick list is loaded onto
type Carrier struct {
	Base
	Name               string `json:"name" gorm:"not null"`
	Identifier         int    `json:"identifier" gorm:"uniqueIndex"`
	PhoneticIdentifier string `json:"phonetic_identifier"`
	Active             bool   `json:"active"`
}

// UUIDPtr returns a pointer to a copy of id
func UUIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

// SameID reports whether ref points at id
func SameID(ref *uuid.UUID, id uuid.UUID) bool {
	return ref != nil && *ref == id
}
