package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/backstage/services/picking/internal/api"
	"example.com/backstage/services/picking/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server for inventory, pick lists, carriers and invites`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
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

	store, sweeper, err := deps.inviteStore()
	if err != nil {
		return err
	}
	if sweeper != nil {
		defer func() {
			if err := sweeper.Shutdown(); err != nil {
				log.Warn().Err(err).Msg("Token sweeper shutdown error")
			}
		}()
	}

	health, err := deps.startHealthChecks(ctx, cfg.Server.HealthInterval)
	if err != nil {
		return err
	}
	defer func() {
		if err := health.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("Health check scheduler shutdown error")
		}
	}()

	services := api.Services{
		Inventory: service.NewInventoryService(deps.repo),
		Products:  service.NewProductService(deps.repo),
		PickLists: service.NewPickListService(service.PickListConfig{
			Repo:      deps.repo,
			Metrics:   deps.metrics,
			Tracer:    deps.tracer,
			Indexer:   deps.indexer,
			Publisher: deps.publisher,
			MaxPicks:  cfg.Generation.MaxPicks,
		}),
		Carriers: service.NewCarrierService(deps.repo, deps.metrics, deps.indexer, deps.publisher),
		Users:    service.NewUserService(deps.repo),
		Invites:  service.NewInviteService(deps.repo, store, deps.metrics, cfg.Tokens.Length),
	}

	server := api.NewServer(cfg, services, deps.metrics, deps.tracer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	if err := server.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutting down API server")
	return nil
}
