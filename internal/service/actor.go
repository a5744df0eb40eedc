package service

import (
	"context"

	"example.com/backstage/services/picking/internal/repository"

	"github.com/google/uuid"
)

// ActorResolver returns the warehouse an actor currently belongs to
type ActorResolver interface {
	ResolveWarehouse(ctx context.Context, actorID uuid.UUID) (uuid.UUID, error)
}

type userActorResolver struct {
	users repository.UserRepository
}

// NewActorResolver resolves actors through the user repository
func NewActorResolver(users repository.UserRepository) ActorResolver {
	return &userActorResolver{users: users}
}

func (r *userActorResolver) ResolveWarehouse(ctx context.Context, actorID uuid.UUID) (uuid.UUID, error) {
	user, err := r.users.FindUserByID(ctx, actorID)
	if err != nil {
		return uuid.Nil, lookupErr(err, "actor", actorID.String())
	}
	if user.WarehouseID == nil {
		return uuid.Nil, &NotFoundError{Kind: "warehouse", Key: "of actor " + actorID.String()}
	}
	return *user.WarehouseID, nil
}
