package models

import "github.com/google/uuid"

// ComputeProductStatus derives a status from quantity and placement.
// Precedence is EMPTY, then WITHOUT_LOCATION, then READY.
func ComputeProductStatus(quantity int, hasLocation bool) ProductStatus {
	switch {
	case quantity == 0:
		return ProductStatusEmpty
	case !hasLocation:
		return ProductStatusWithoutLocation
	default:
		return ProductStatusReady
	}
}

// IsInactive reports whether the product was soft-deleted
func (p *Product) IsInactive() bool {
	return p.Status == ProductStatusInactive
}

// IsAvailable reports whether the product may be drawn into a pick list
func (p *Product) IsAvailable() bool {
	return p.Status == ProductStatusReady && p.Quantity > 0
}

// RecomputeStatus refreshes the derived status. Inactive products stay inactive.
func (p *Product) RecomputeStatus() {
	if p.IsInactive() {
		return
	}
	p.Status = ComputeProductStatus(p.Quantity, p.LocationID != nil)
}

// SetQuantity updates the quantity and recomputes the status
func (p *Product) SetQuantity(quantity int) {
	p.Quantity = quantity
	p.RecomputeStatus()
}

// SetLocation places the product in a location, or removes it when id is nil
func (p *Product) SetLocation(id *uuid.UUID) {
	p.LocationID = id
	p.RecomputeStatus()
}

// Deactivate soft-deletes the product. There is no way back.
func (p *Product) Deactivate() {
	p.Status = ProductStatusInactive
}
