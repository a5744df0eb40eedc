package service

import (
	"context"

	"example.com/backstage/services/picking/internal/metrics"
	"example.com/backstage/services/picking/internal/models"
	"example.com/backstage/services/picking/internal/repository"
	"example.com/backstage/services/picking/internal/tokenstore"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultInviteLength is the length of generated invite codes
const DefaultInviteLength = 8

// InviteCode is a short-lived code that lets an email address join a warehouse
type InviteCode struct {
	Token       string    `json:"token"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Email       string    `json:"email"`
}

// GetToken implements tokenstore.Tokener
func (c InviteCode) GetToken() string {
	return c.Token
}

// InviteService issues and redeems warehouse invites
type InviteService interface {
	IssueInvite(ctx context.Context, warehouseID uuid.UUID, email string) (*InviteCode, error)
	AcceptInvite(ctx context.Context, actorID uuid.UUID, email, token string) (*models.User, error)
}

type inviteService struct {
	repo    repository.Repository
	store   tokenstore.Store[InviteCode]
	metrics *metrics.Metrics
	length  int
}

// NewInviteService creates an invite service backed by store
func NewInviteService(repo repository.Repository, store tokenstore.Store[InviteCode], m *metrics.Metrics, length int) InviteService {
	if m == nil {
		m = metrics.NewMetrics()
	}
	if length <= 0 {
		length = DefaultInviteLength
	}
	return &inviteService{repo: repo, store: store, metrics: m, length: length}
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// IssueInvite stores a fresh code for email, replacing any pending one
func (s *inviteService) IssueInvite(ctx context.Context, warehouseID uuid.UUID, email string) (*InviteCode, error) {
	if err := validateStruct(inviteRequest{Email: email}); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindWarehouseByID(ctx, warehouseID); err != nil {
		return nil, lookupErr(err, "warehouse", warehouseID.String())
	}

	token, err := tokenstore.Generate(s.length)
	if err != nil {
		return nil, err
	}

	code := InviteCode{Token: token, WarehouseID: warehouseID, Email: normalizeEmail(email)}
	if err := s.store.Put(ctx, code.Email, code); err != nil {
		return nil, err
	}

	s.metrics.IncrementCounter(metrics.TokensIssued)
	log.Info().
		Str("warehouse_id", warehouseID.String()).
		Str("email", code.Email).
		Msg("invite issued")
	return &code, nil
}

// AcceptInvite checks the code and moves the actor into the invited warehouse
func (s *inviteService) AcceptInvite(ctx context.Context, actorID uuid.UUID, email, token string) (*models.User, error) {
	key := normalizeEmail(email)

	ok, err := s.store.Validate(ctx, key, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.IncrementCounter(metrics.TokensRejected)
		return nil, &ValidationError{Field: "token", Reason: "invite code is invalid or expired"}
	}

	code, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.IncrementCounter(metrics.TokensRejected)
		return nil, &ValidationError{Field: "token", Reason: "invite code is invalid or expired"}
	}

	var user *models.User
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		user, err = tx.FindUserByID(ctx, actorID)
		if err != nil {
			return lookupErr(err, "actor", actorID.String())
		}
		if normalizeEmail(user.Email) != key {
			return &ValidationError{Field: "email", Reason: "invite was issued to another address"}
		}
		if _, err := tx.FindWarehouseByID(ctx, code.WarehouseID); err != nil {
			return lookupErr(err, "warehouse", code.WarehouseID.String())
		}

		user.WarehouseID = models.UUIDPtr(code.WarehouseID)
		return tx.UpdateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.Remove(ctx, key); err != nil {
		log.Warn().Err(err).Str("email", key).Msg("failed to remove accepted invite")
	}
	s.metrics.IncrementCounter(metrics.TokensAccepted)
	return user, nil
}
