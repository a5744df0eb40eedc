package main

import (
	"os"
	"strings"

	"example.com/backstage/services/picking/cmd"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// LOG_LEVEL applies until the config is loaded by a subcommand
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		level, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			log.Warn().Str("level", raw).Msg("Unknown LOG_LEVEL, keeping info")
		} else {
			zerolog.SetGlobalLevel(level)
		}
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("picking-service exited with error")
	}
}
