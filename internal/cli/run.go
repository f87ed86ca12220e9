package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpggio/tumorboard/internal/authz"
	"github.com/rpggio/tumorboard/internal/clock"
	"github.com/rpggio/tumorboard/internal/domain/archive"
	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/orchestrator"
	"github.com/rpggio/tumorboard/internal/domain/participant"
	"github.com/rpggio/tumorboard/internal/playback"
)

// cliPanelID tags runs archived from the command line.
const cliPanelID = "cli"

// runArchiver stores completed terminal runs.
type runArchiver interface {
	Save(ctx context.Context, tenantID string, run *archive.ArchivedRun) error
}

type runOptions struct {
	caseText       string
	participantIDs []string
	seed           uint64
	timings        playback.Timings
	excerptLength  int
	tenantID       string
}

// RunCmd returns the run command.
func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <case text>",
		Short: "Play a panel consultation in the terminal",
		Long: `Convene a panel around the case text, print the discussion as it plays
out and finish with the consensus report.

Without --participants the panel uses the initial selection from the case
analysis. Unknown participant ids are dropped.

Examples:
  tumorboard run "lung mass on CT, biopsy pending"
  tumorboard run --participants surgeon,pathologist --fast "pancreatic lesion"
  tumorboard run --save --seed 7 "breast mass, MRI scheduled"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd)
			if err != nil {
				return err
			}

			opts := runOptions{
				caseText:      strings.Join(args, " "),
				seed:          env.cfg.Panel.Seed,
				excerptLength: env.cfg.Panel.ExcerptLength,
				timings: playback.Timings{
					SystemTyping:      env.cfg.Panel.SystemTypingDelay,
					ParticipantTyping: env.cfg.Panel.ParticipantTypingDelay,
					SystemEmit:        env.cfg.Panel.SystemEmitDelay,
					ThinkingMin:       env.cfg.Panel.ThinkingMin,
					ThinkingMax:       env.cfg.Panel.ThinkingMax,
				},
			}
			opts.participantIDs, _ = cmd.Flags().GetStringSlice("participants")
			opts.tenantID, _ = cmd.Flags().GetString("tenant")
			if cmd.Flags().Changed("seed") {
				opts.seed, _ = cmd.Flags().GetUint64("seed")
			}
			if fast, _ := cmd.Flags().GetBool("fast"); fast {
				opts.timings = scaleTimings(opts.timings, 10)
			}

			var archiver runArchiver
			if save, _ := cmd.Flags().GetBool("save"); save {
				store, err := openArchive(cmd, env)
				if err != nil {
					return err
				}
				defer store.Close()
				archiver = store.service
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			run, err := runConsultation(ctx, env, opts, archiver, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if archiver != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\narchived as %s\n", run.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("participants", nil, "comma-separated participant ids (default: analysis selection)")
	cmd.Flags().Uint64("seed", 0, "seed for scripted content and pacing (0 picks one at random)")
	cmd.Flags().Bool("fast", false, "play the consultation ten times faster")
	cmd.Flags().Bool("save", false, "archive the completed run in the database")
	cmd.Flags().String("db", "", "database path for --save (default: db.path from config)")
	cmd.Flags().String("tenant", authz.AnonymousTenant, "tenant that owns the archived run")
	return cmd
}

// runConsultation plays one consultation to completion on the wall clock,
// printing turns to out as they are emitted. Cancelling ctx stops playback.
func runConsultation(ctx context.Context, env *environment, opts runOptions, archiver runArchiver, out io.Writer) (*orchestrator.Run, error) {
	rng := consultation.NewRand(opts.seed)
	orch := orchestrator.New(orchestrator.Deps{
		Catalog:   env.catalog,
		Analyzer:  consultation.NewAnalyzer(env.catalog),
		Generator: consultation.NewGenerator(rng, consultation.WithExcerptLength(opts.excerptLength)),
		Scheduler: playback.NewScheduler(clock.Real{}, rng, opts.timings),
		Logger:    env.logger,
	})

	selected := env.catalog.Resolve(opts.participantIDs)
	if len(opts.participantIDs) == 0 {
		selected = consultation.InitialSelection(orch.AnalyzeCase(opts.caseText))
	}

	headerColor.Fprintln(out, "Panel")
	for _, p := range selected {
		printParticipant(out, p)
	}
	fmt.Fprintln(out)

	run, err := orch.StartRun(selected, opts.caseText, orchestrator.Listener{
		OnTyping: func(id string) { printTyping(out, env.catalog, id) },
		OnTurn:   func(turn consultation.Turn) { printTurn(out, env.catalog, turn) },
	})
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		orch.GoToSetup()
		return nil, fmt.Errorf("consultation interrupted: %w", ctx.Err())
	case <-run.Done():
	}

	records, err := orch.Consensus()
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(out)
	printConsensus(out, records)

	if archiver != nil {
		snap := run.Snapshot()
		completedAt := time.Now()
		if snap.CompletedAt != nil {
			completedAt = *snap.CompletedAt
		}
		err := archiver.Save(ctx, opts.tenantID, &archive.ArchivedRun{
			ID:             run.ID,
			TenantID:       opts.tenantID,
			PanelID:        cliPanelID,
			CaseText:       snap.CaseText,
			ParticipantIDs: participant.IDs(snap.Participants),
			Transcript:     snap.Transcript,
			Consensus:      snap.Consensus,
			StartedAt:      snap.StartedAt,
			CompletedAt:    completedAt,
		})
		if err != nil {
			return nil, err
		}
	}
	return run, nil
}

func scaleTimings(t playback.Timings, factor time.Duration) playback.Timings {
	return playback.Timings{
		SystemTyping:      t.SystemTyping / factor,
		ParticipantTyping: t.ParticipantTyping / factor,
		SystemEmit:        t.SystemEmit / factor,
		ThinkingMin:       t.ThinkingMin / factor,
		ThinkingMax:       t.ThinkingMax / factor,
	}
}
