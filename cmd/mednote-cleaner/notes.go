// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mednote-cleaner/internal/segment"
	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage the note corpus (add, list, segment)",
	Long: `Notes manages the annotation corpus backing training. Use subcommands
to add raw notes, list or search stored ones, and segment a note into
labelable sentences.`,
}

// --- add subcommand ---

var notesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a raw note to the corpus",
	RunE:  runNotesAdd,
}

func runNotesAdd(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	text, _ := cmd.Flags().GetString("text")
	if text == "" {
		var err error
		text, err = readInput(cmd)
		if err != nil {
			return err
		}
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("note text required: use --text or --in")
	}
	source, _ := cmd.Flags().GetString("source")

	note, err := st.CreateNote(cmd.Context(), source, text, nil)
	if err != nil {
		return err
	}
	fmt.Printf("note %s created\n", note.ID)
	return nil
}

// --- list subcommand ---

var notesListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List or search stored notes",
	RunE:  runNotesList,
}

func runNotesList(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var notes []types.Note
	if len(args) > 0 {
		notes, err = st.SearchNotes(cmd.Context(), strings.Join(args, " "))
	} else {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		notes, err = st.ListNotes(cmd.Context(), limit, offset)
	}
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(notes)
	}

	if len(notes) == 0 {
		fmt.Println("No notes found.")
		return nil
	}
	for _, n := range notes {
		preview := strings.Join(strings.Fields(n.RawText), " ")
		if len(preview) > 60 {
			preview = preview[:57] + "..."
		}
		fmt.Printf("%s  %-10s  %s\n", n.ID, n.Source, preview)
	}
	fmt.Printf("\n%d notes\n", len(notes))
	return nil
}

// --- segment subcommand ---

var notesSegmentCmd = &cobra.Command{
	Use:   "segment <note-id>",
	Short: "Segment a note into labelable sentences",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotesSegment,
}

func runNotesSegment(cmd *cobra.Command, args []string) error {
	st, _, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	note, err := st.GetNote(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	sentences, err := st.ReplaceSentences(cmd.Context(), note.ID, segment.Split(note.RawText))
	if err != nil {
		return err
	}

	for _, sent := range sentences {
		fmt.Printf("%s  [%d:%d]  %s\n", sent.ID, sent.StartChar, sent.EndChar, sent.Text)
	}
	fmt.Printf("\n%d sentences\n", len(sentences))
	return nil
}

func init() {
	notesAddCmd.Flags().String("text", "", "note text (default: read from --in or stdin)")
	notesAddCmd.Flags().String("in", "", "input note text file (default: stdin)")
	notesAddCmd.Flags().String("source", "cli", "note source tag")

	notesListCmd.Flags().Int("limit", 20, "maximum notes to list")
	notesListCmd.Flags().Int("offset", 0, "listing offset")
	notesListCmd.Flags().Bool("json", false, "output notes as JSON")

	notesCmd.AddCommand(notesAddCmd)
	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesSegmentCmd)

	rootCmd.AddCommand(notesCmd)
}
