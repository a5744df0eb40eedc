package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"example.com/backstage/services/picking/internal/api"
	"example.com/backstage/services/picking/internal/service"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that reports product availability and checks backing services.
Its metrics and health are served on worker.metrics_address.`,
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	deps, err := newComponents(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			log.Warn().Err(err).Msg("Error while releasing resources")
		}
	}()

	reporter := service.NewAvailabilityReporter(deps.repo, deps.metrics)
	metricsServer := api.NewMetricsServer(cfg.Worker.MetricsAddress, deps.metrics, deps.tracer)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("address", metricsServer.Addr).Msg("Serving worker metrics")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "worker metrics server error")
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		health, err := deps.startHealthChecks(ctx, cfg.Worker.HealthInterval)
		if err != nil {
			return err
		}

		scheduler, err := gocron.NewScheduler()
		if err != nil {
			_ = health.Shutdown()
			return err
		}

		_, err = scheduler.NewJob(
			gocron.DurationJob(cfg.Worker.AvailabilityInterval),
			gocron.NewTask(func() {
				total, err := reporter.Report(ctx)
				if err != nil {
					log.Error().Err(err).Msg("Failed to report product availability")
					return
				}
				log.Info().Int("available_products", total).Msg("Product availability reported")
			}),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			_ = health.Shutdown()
			return err
		}

		log.Info().
			Dur("availability_interval", cfg.Worker.AvailabilityInterval).
			Dur("health_interval", cfg.Worker.HealthInterval).
			Msg("Starting scheduled jobs")
		scheduler.Start()

		<-ctx.Done()

		if err := health.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("Health check scheduler shutdown error")
		}
		return scheduler.Shutdown()
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker error")
		return err
	}

	log.Info().Msg("Worker shutting down gracefully")
	return nil
}
