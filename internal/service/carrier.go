package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"example.com/backstage/services/picking/internal/messaging"
	"example.com/backstage/services/picking/internal/metrics"
	"example.com/backstage/services/picking/internal/models"
	"example.com/backstage/services/picking/internal/repository"
	"example.com/backstage/services/picking/internal/search"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CarrierService manages carriers and binds them to pick lists
type CarrierService interface {
	CreateCarrier(ctx context.Context, req CreateCarrierRequest) (*models.Carrier, error)
	GetCarrier(ctx context.Context, identifier int) (*models.Carrier, error)
	ListCarriers(ctx context.Context) ([]*models.Carrier, error)
	UpdateCarrier(ctx context.Context, pickListID uuid.UUID, identifier int) (*models.PickList, error)
	DeleteCarrier(ctx context.Context, identifier int) error
}

type carrierService struct {
	repo    repository.Repository
	project *projector
}

// NewCarrierService creates a new carrier service. indexer and publisher may be nil.
func NewCarrierService(repo repository.Repository, m *metrics.Metrics, indexer search.PickListIndexer, publisher messaging.Publisher) CarrierService {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &carrierService{
		repo:    repo,
		project: &projector{indexer: indexer, publisher: publisher, metrics: m, now: time.Now},
	}
}

func (s *carrierService) CreateCarrier(ctx context.Context, req CreateCarrierRequest) (*models.Carrier, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	key := strconv.Itoa(req.Identifier)
	carrier := &models.Carrier{
		Name:               strings.TrimSpace(req.Name),
		Identifier:         req.Identifier,
		PhoneticIdentifier: strings.TrimSpace(req.PhoneticIdentifier),
		Active:             req.Active,
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		_, err := tx.FindCarrierByIdentifier(ctx, req.Identifier)
		switch {
		case err == nil:
			return &AlreadyExistsError{Kind: "carrier", Key: key}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		return createErr(tx.CreateCarrier(ctx, carrier), "carrier", key)
	})
	if err != nil {
		return nil, err
	}
	return carrier, nil
}

func (s *carrierService) GetCarrier(ctx context.Context, identifier int) (*models.Carrier, error) {
	carrier, err := s.repo.FindCarrierByIdentifier(ctx, identifier)
	if err != nil {
		return nil, lookupErr(err, "carrier", strconv.Itoa(identifier))
	}
	return carrier, nil
}

func (s *carrierService) ListCarriers(ctx context.Context) ([]*models.Carrier, error) {
	return s.repo.ListCarriers(ctx)
}

// UpdateCarrier binds the carrier to the pick list, replacing any prior carrier
func (s *carrierService) UpdateCarrier(ctx context.Context, pickListID uuid.UUID, identifier int) (*models.PickList, error) {
	var pickList *models.PickList
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		pickList, err = tx.FindPickListByID(ctx, pickListID)
		if err != nil {
			return lookupErr(err, "pick list", pickListID.String())
		}

		carrier, err := tx.FindCarrierByIdentifier(ctx, identifier)
		if err != nil {
			return lookupErr(err, "carrier", strconv.Itoa(identifier))
		}

		pickList.CarrierID = models.UUIDPtr(carrier.ID)
		return tx.UpdatePickList(ctx, pickList)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("pick_list_id", pickListID.String()).
		Int("carrier", identifier).
		Msg("carrier assigned")
	s.project.pickListChanged(ctx, pickList, messaging.EventCarrierAssigned)
	return pickList, nil
}

// DeleteCarrier unbinds the carrier from its pick lists and removes it
func (s *carrierService) DeleteCarrier(ctx context.Context, identifier int) error {
	return s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		carrier, err := tx.FindCarrierByIdentifier(ctx, identifier)
		if err != nil {
			return lookupErr(err, "carrier", strconv.Itoa(identifier))
		}

		pickLists, err := tx.ListPickListsByCarrier(ctx, carrier.ID)
		if err != nil {
			return err
		}
		for _, pl := range pickLists {
			pl.CarrierID = nil
			if err := tx.UpdatePickList(ctx, pl); err != nil {
				return err
			}
		}
		return tx.DeleteCarrier(ctx, carrier.ID)
	})
}
