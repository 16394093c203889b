// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the annotated corpus to YAML or JSON",
	Long: `Export writes every note with its span annotations to --out (or
stdout) for offline review or transfer to another instance.`,
	RunE: runExport,
}

// exportedNote is one note with its annotations in the export file.
type exportedNote struct {
	ID      string                 `json:"id" yaml:"id"`
	Source  string                 `json:"source" yaml:"source"`
	RawText string                 `json:"raw_text" yaml:"raw_text"`
	Spans   []types.SpanAnnotation `json:"spans,omitempty" yaml:"spans,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	notes, err := st.AllNotes(cmd.Context())
	if err != nil {
		return err
	}
	spans, err := st.SpanAnnotations(cmd.Context())
	if err != nil {
		return err
	}

	byNote := map[string][]types.SpanAnnotation{}
	for _, sp := range spans {
		byNote[sp.NoteID] = append(byNote[sp.NoteID], sp)
	}
	exported := make([]exportedNote, 0, len(notes))
	for _, n := range notes {
		exported = append(exported, exportedNote{
			ID:      n.ID,
			Source:  n.Source,
			RawText: n.RawText,
			Spans:   byNote[n.ID],
		})
	}

	out := os.Stdout
	if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		out = f
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(map[string]any{"notes": exported})
	case "jsonl":
		enc := json.NewEncoder(out)
		for _, n := range exported {
			if err := enc.Encode(n); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use yaml or jsonl", format)
	}
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or jsonl")
	exportCmd.Flags().String("out", "", "output file (default: stdout)")

	rootCmd.AddCommand(exportCmd)
}
