// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/mednote-cleaner/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the annotation and inference API over HTTP",
	Long: `Serve starts the HTTP API: note and annotation management, inference,
and background training with progress polling. When --seed-file is given
and the database is empty, the seed data is loaded first.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	seedFile, _ := cmd.Flags().GetString("seed-file")
	if seedFile != "" {
		loaded, err := st.Seed(cmd.Context(), seedFile)
		if err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
		if loaded {
			log.Info().Str("file", seedFile).Msg("seed data loaded")
		}
	}

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(st, log, cfg.Server, cfg.Training).ListenAndServe(ctx)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, else :8000)")
	serveCmd.Flags().String("seed-file", "", "YAML seed file to load when the database is empty")

	rootCmd.AddCommand(serveCmd)
}
