// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mednote-cleaner/internal/train"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a new model version from the labeled corpus",
	Long: `Train fits the sentence relevance classifier and the entity recognizer
on the labeled sentences and span annotations in the database, then
persists a new immutable model version with its metrics. At least four
labeled sentences are required.`,
	RunE: runTrain,
}

func runTrain(cmd *cobra.Command, args []string) error {
	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if steps, _ := cmd.Flags().GetInt("max-steps"); steps > 0 {
		cfg.Training.MaxSteps = steps
	}
	if lr, _ := cmd.Flags().GetFloat64("lr"); lr > 0 {
		cfg.Training.LearnRate = lr
	}
	if base, _ := cmd.Flags().GetString("base-model"); base != "" {
		cfg.Training.BaseModel = base
	}

	res, err := train.Run(cmd.Context(), st, st.ModelsDir(), cfg.Training, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("model version: %s\n", res.ModelVersionID)
	fmt.Printf("sentence accuracy=%.3f f1=%.3f\n", res.Metrics.Sentence.Accuracy, res.Metrics.Sentence.F1)
	for label, m := range res.Metrics.NER.PerLabel {
		fmt.Printf("ner %s: precision=%.3f recall=%.3f f1=%.3f\n", label, m.Precision, m.Recall, m.F1)
	}
	return nil
}

func init() {
	trainCmd.Flags().Int("max-steps", 0, "training iterations (default from config)")
	trainCmd.Flags().Float64("lr", 0, "learning rate for the relevance classifier (default from config)")
	trainCmd.Flags().String("base-model", "", "base model tag recorded with the version (default from config)")

	rootCmd.AddCommand(trainCmd)
}
