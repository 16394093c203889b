// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mednote-cleaner CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mednote-cleaner/internal/store"
	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the mednote-cleaner CLI.
var rootCmd = &cobra.Command{
	Use:   "mednote-cleaner",
	Short: "Clean clinical notes and extract structured findings",
	Long: `mednote-cleaner removes irrelevant sentences from clinical notes and
extracts structured findings (neuro exam, imaging, vent settings,
hemodynamics, labs, medications, procedures, assessment).

Each stage is a subcommand: notes manages the annotation corpus, train
fits a new model version, infer cleans note text, and serve exposes the
whole pipeline over HTTP.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mednote-cleaner.yaml or ~/.config/mednote-cleaner/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "base directory for persisted state (default: ./data)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mednote-cleaner")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mednote-cleaner"))
		}
	}

	viper.SetEnvPrefix("MEDNOTE_CLEANER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles component configuration from viper with
// built-in defaults.
func pipelineConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{Training: types.DefaultTrainingConfig()}

	cfg.Store.DataDir = viper.GetString("store.data_dir")
	if dir, _ := rootCmd.PersistentFlags().GetString("data-dir"); dir != "" {
		cfg.Store.DataDir = dir
	}

	cfg.Server.Addr = viper.GetString("server.addr")
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	cfg.Server.CORSOrigins = viper.GetStringSlice("server.cors_origins")

	if v := viper.GetInt("training.max_steps"); v > 0 {
		cfg.Training.MaxSteps = v
	}
	if v := viper.GetFloat64("training.lr"); v > 0 {
		cfg.Training.LearnRate = v
	}
	if v := viper.GetString("training.base_model"); v != "" {
		cfg.Training.BaseModel = v
	}

	cfg.Inference.KeepThreshold = viper.GetFloat64("inference.keep_threshold")
	return cfg
}

// openStore opens the SQLite store under the configured data directory.
func openStore() (*store.Store, types.PipelineConfig, error) {
	cfg := pipelineConfig()
	st, err := store.New(cfg.Store)
	if err != nil {
		return nil, types.PipelineConfig{}, err
	}
	return st, cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
