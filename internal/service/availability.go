package service

import (
	"context"

	"example.com/backstage/services/picking/internal/metrics"
	"example.com/backstage/services/picking/internal/repository"

	"github.com/rs/zerolog/log"
)

// AvailabilityReporter publishes how many products each warehouse can pick from
type AvailabilityReporter struct {
	repo    repository.Repository
	metrics *metrics.Metrics
}

// NewAvailabilityReporter creates a reporter writing gauges to m
func NewAvailabilityReporter(repo repository.Repository, m *metrics.Metrics) *AvailabilityReporter {
	return &AvailabilityReporter{repo: repo, metrics: m}
}

// Report sets a gauge per warehouse plus the overall total and returns the total
func (r *AvailabilityReporter) Report(ctx context.Context) (int, error) {
	warehouses, err := r.repo.ListWarehouses(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, w := range warehouses {
		available, err := r.repo.ListAvailableProducts(ctx, w.ID)
		if err != nil {
			return total, err
		}
		r.metrics.SetGauge(metrics.AvailableProducts+"."+w.ID.String(), int64(len(available)))
		total += len(available)

		if len(available) == 0 {
			log.Debug().Str("warehouse_id", w.ID.String()).Msg("warehouse has nothing to pick")
		}
	}

	r.metrics.SetGauge(metrics.AvailableProducts, int64(total))
	return total, nil
}
