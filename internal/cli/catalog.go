package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/participant"
)

// CatalogCmd returns the catalog command.
func CatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the specialists available to a panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, env.catalog.All())
			}
			headerColor.Fprintf(out, "%d specialists\n", len(env.catalog.All()))
			for _, p := range env.catalog.All() {
				printParticipant(out, p)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the catalog as JSON")
	return cmd
}

// AnalyzeCmd returns the analyze command.
func AnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <case text>",
		Short: "Suggest specialists for a case",
		Long: `Scan the case text for clinical keywords and suggest the specialists
who should sit on the panel. Starred entries are the initial selection.

Examples:
  tumorboard analyze "55-year-old with a lung mass on CT"
  tumorboard analyze --json "biopsy of a breast lesion"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			caseText := strings.Join(args, " ")
			suggestions := consultation.NewAnalyzer(env.catalog).Suggest(caseText)
			initial := consultation.InitialSelection(suggestions)

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"suggestions":       suggestions,
					"initial_selection": participant.IDs(initial),
				})
			}
			printSuggestions(cmd.OutOrStdout(), suggestions, initial)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print suggestions as JSON")
	return cmd
}

func printSuggestions(w io.Writer, suggestions, initial []participant.Participant) {
	selected := make(map[string]bool, len(initial))
	for _, p := range initial {
		selected[p.ID] = true
	}
	headerColor.Fprintln(w, "Suggested specialists")
	for _, p := range suggestions {
		marker := " "
		if selected[p.ID] {
			marker = "*"
		}
		fmt.Fprintf(w, "%s", marker)
		printParticipant(w, p)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
