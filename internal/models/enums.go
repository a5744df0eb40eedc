package models

import "strings"

// LocationKind decides which entity kind may occupy a location
type LocationKind string

const (
	// LocationKindProduct holds raw stock
	LocationKindProduct LocationKind = "PRODUCT"
	// LocationKindPickList holds staged pick lists
	LocationKindPickList LocationKind = "PICK_LIST"
)

func (k LocationKind) String() string {
	return string(k)
}

// Valid reports whether k is a known kind
func (k LocationKind) Valid() bool {
	return k == LocationKindProduct || k == LocationKindPickList
}

// LocationKindFromString parses a kind, case-insensitively
func LocationKindFromString(s string) (LocationKind, bool) {
	k := LocationKind(strings.ToUpper(strings.TrimSpace(s)))
	return k, k.Valid()
}

// ProductType tags how a product is packed
type ProductType string

const (
	ProductTypeBulkPack    ProductType = "BULK_PACK"
	ProductTypeDisplayPack ProductType = "DISPLAY_PACK"
)

func (t ProductType) String() string {
	return string(t)
}

// Valid reports whether t is a known type
func (t ProductType) Valid() bool {
	return t == ProductTypeBulkPack || t == ProductTypeDisplayPack
}

// ProductTypeFromString parses a product type, case-insensitively
func ProductTypeFromString(s string) (ProductType, bool) {
	t := ProductType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// ProductStatus is the availability of a product for picking
type ProductStatus string

const (
	ProductStatusReady           ProductStatus = "READY"
	ProductStatusEmpty           ProductStatus = "EMPTY"
	ProductStatusWithoutLocation ProductStatus = "WITHOUT_LOCATION"
	ProductStatusInactive        ProductStatus = "INACTIVE"
)

func (s ProductStatus) String() string {
	return string(s)
}
