package service

import (
	"errors"
	"fmt"

	"example.com/backstage/services/picking/internal/models"
	"example.com/backstage/services/picking/internal/repository"

	"github.com/google/uuid"
)

// ValidationError reports malformed input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AlreadyExistsError reports a duplicate code, name, email or identifier
type AlreadyExistsError struct {
	Kind string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Key)
}

// NotFoundError reports a missing referenced entity
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// KindMismatchError reports an entity placed in a location of the other kind
type KindMismatchError struct {
	LocationKind models.LocationKind
	EntityKind   models.LocationKind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("location of kind %s cannot hold %s", e.LocationKind, e.EntityKind)
}

// EmptyInventoryError reports that no product is available for picking
type EmptyInventoryError struct {
	WarehouseID uuid.UUID
}

func (e *EmptyInventoryError) Error() string {
	return fmt.Sprintf("warehouse %s has no available products", e.WarehouseID)
}

// InUseError reports a delete refused while other entities still reference the target
type InUseError struct {
	Kind       string
	Key        string
	References int64
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %q is still referenced by %d entities", e.Kind, e.Key, e.References)
}

// lookupErr turns a repository miss into a NotFoundError
func lookupErr(err error, kind, key string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Kind: kind, Key: key}
	}
	return err
}

// createErr turns a unique violation into an AlreadyExistsError
func createErr(err error, kind, key string) error {
	if errors.Is(err, repository.ErrDuplicateKey) {
		return &AlreadyExistsError{Kind: kind, Key: key}
	}
	return err
}
