// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mednote-cleaner/internal/infer"
)

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Clean note text and extract structured findings",
	Long: `Infer runs the cleaning pipeline over one note: sentence segmentation,
relevance filtering, entity extraction, and structured assembly. Input
comes from --in or stdin; the full result is written as JSON to --out or
stdout. With no trained model the pipeline still runs in degraded mode
and reports what it fell back to in the result's warnings.`,
	RunE: runInfer,
}

func runInfer(cmd *cobra.Command, args []string) error {
	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	text, err := readInput(cmd)
	if err != nil {
		return err
	}

	opts := infer.Options{KeepThreshold: cfg.Inference.KeepThreshold}
	opts.ModelVersionID, _ = cmd.Flags().GetString("model")
	if threshold, _ := cmd.Flags().GetFloat64("threshold"); threshold > 0 {
		opts.KeepThreshold = threshold
	}

	res, err := infer.NewEngine(st).Run(cmd.Context(), text, opts)
	if err != nil {
		return err
	}
	if _, err := st.LogInferenceRun(cmd.Context(), text, res); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging inference run: %v\n", err)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintln(os.Stderr, warn)
	}

	if cleanedPath, _ := cmd.Flags().GetString("cleaned"); cleanedPath != "" {
		if err := os.WriteFile(cleanedPath, []byte(res.CleanedText), 0o644); err != nil {
			return fmt.Errorf("writing cleaned text: %w", err)
		}
	}

	out := os.Stdout
	if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func readInput(cmd *cobra.Command) (string, error) {
	inPath, _ := cmd.Flags().GetString("in")
	if inPath == "" || inPath == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(inPath)
	if err != nil {
		return "", fmt.Errorf("reading input file: %w", err)
	}
	return string(data), nil
}

func init() {
	inferCmd.Flags().String("in", "", "input note text file (default: stdin)")
	inferCmd.Flags().String("out", "", "output JSON file (default: stdout)")
	inferCmd.Flags().String("cleaned", "", "also write the cleaned text to this file")
	inferCmd.Flags().String("model", "", "model version ID (default: most recent)")
	inferCmd.Flags().Float64("threshold", 0, "keep-probability threshold (default 0.5)")

	rootCmd.AddCommand(inferCmd)
}
