package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rpggio/tumorboard/internal/authz"
	"github.com/rpggio/tumorboard/internal/domain/archive"
	"github.com/rpggio/tumorboard/internal/domain/participant"
	"github.com/rpggio/tumorboard/internal/sqlite"
)

// archiveStore is an opened database with the archive service on top.
type archiveStore struct {
	db      *sqlite.DB
	service *archive.Service
}

func (s *archiveStore) Close() error {
	return s.db.Close()
}

func openArchive(cmd *cobra.Command, env *environment) (*archiveStore, error) {
	path := env.cfg.DB.Path
	if flagPath, _ := cmd.Flags().GetString("db"); flagPath != "" {
		path = flagPath
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.RunMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &archiveStore{
		db:      db,
		service: archive.NewService(sqlite.NewArchiveRepository(db), env.logger),
	}, nil
}

// ArchiveCmd returns the archive command group.
func ArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Review archived consultation runs",
	}
	cmd.PersistentFlags().String("db", "", "database path (default: db.path from config)")
	cmd.PersistentFlags().String("tenant", authz.AnonymousTenant, "tenant whose runs to read")
	cmd.AddCommand(archiveListCmd())
	cmd.AddCommand(archiveShowCmd())
	return cmd
}

func archiveListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			store, err := openArchive(cmd, env)
			if err != nil {
				return err
			}
			defer store.Close()

			tenantID, _ := cmd.Flags().GetString("tenant")
			panelID, _ := cmd.Flags().GetString("panel")
			limit, _ := cmd.Flags().GetInt("limit")
			summaries, err := store.service.List(cmd.Context(), tenantID, archive.ListOptions{PanelID: panelID, Limit: limit})
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), summaries)
			}
			printSummaries(cmd.OutOrStdout(), summaries)
			return nil
		},
	}
	cmd.Flags().String("panel", "", "only runs from this panel")
	cmd.Flags().Int("limit", 20, "maximum number of runs")
	cmd.Flags().Bool("json", false, "print summaries as JSON")
	return cmd
}

func archiveShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run id>",
		Short: "Print the transcript and consensus of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}
			store, err := openArchive(cmd, env)
			if err != nil {
				return err
			}
			defer store.Close()

			tenantID, _ := cmd.Flags().GetString("tenant")
			run, err := store.service.Get(cmd.Context(), tenantID, args[0])
			if errors.Is(err, archive.ErrRunNotFound) {
				return fmt.Errorf("no archived run %s for tenant %s", args[0], tenantID)
			}
			if err != nil {
				return err
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), run)
			}
			printArchivedRun(cmd.OutOrStdout(), env.catalog, run)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "print the run as JSON")
	return cmd
}

func printSummaries(w io.Writer, summaries []archive.RunSummary) {
	if len(summaries) == 0 {
		dimColor.Fprintln(w, "no archived runs")
		return
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%s  %s  %s\n",
			headerColor.Sprint(s.ID),
			dimColor.Sprint(s.CompletedAt.Format("2006-01-02 15:04")),
			s.CaseExcerpt)
		fmt.Fprintf(w, "  %d turns, panel %s: %s\n", s.TurnCount, s.PanelID, strings.Join(s.ParticipantIDs, ", "))
		if len(s.Topics) > 0 {
			fmt.Fprintf(w, "  topics: %s\n", strings.Join(s.Topics, ", "))
		}
	}
}

func printArchivedRun(w io.Writer, catalog *participant.Catalog, run *archive.ArchivedRun) {
	headerColor.Fprintf(w, "Run %s\n", run.ID)
	fmt.Fprintf(w, "Case: %s\n", run.CaseText)
	fmt.Fprintf(w, "Completed: %s\n\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
	for _, turn := range run.Transcript {
		printTurn(w, catalog, turn)
	}
	fmt.Fprintln(w)
	printConsensus(w, run.Consensus)
}
