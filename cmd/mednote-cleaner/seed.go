// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load seed data into an empty database",
	Long: `Seed loads notes, sentences, labels, and span annotations from a YAML
file. It is a no-op when the database already contains notes, so it is
safe to run on every startup.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	path, _ := cmd.Flags().GetString("file")
	loaded, err := st.Seed(cmd.Context(), path)
	if err != nil {
		return err
	}
	if !loaded {
		fmt.Println("Database already contains notes; nothing loaded.")
		return nil
	}
	fmt.Printf("Seed data loaded from %s\n", path)
	return nil
}

func init() {
	seedCmd.Flags().String("file", "seed.yaml", "YAML seed file")

	rootCmd.AddCommand(seedCmd)
}
