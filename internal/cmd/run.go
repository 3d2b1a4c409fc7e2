package cmd

import (
	"fmt"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/observability"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/status"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/taskspec"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/worklist"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a batch from a task manifest",
	Long: `Run one batch as defined in a YAML or JSON task manifest.

The manifest names the work list, the instruction template (which must
contain {item_name} exactly once), and the output basename for the
aggregated results CSV.

Example:
  rta run --task task.yaml
  rta run --task task.yaml --worklist task_lists/counties.csv
  rta run --task task.yaml --quiet`,
	RunE: runRun,
}

var (
	runTaskPath string
	runWorklist string
	runQuiet    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runTaskPath, "task", "t", "", "Path to task manifest (required)")
	runCmd.Flags().StringVarP(&runWorklist, "worklist", "w", "", "Override worklist.source")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Suppress progress output")

	_ = runCmd.MarkFlagRequired("task")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.CLILogger

	spec, err := taskspec.Load(runTaskPath)
	if err != nil {
		logger.Error("Failed to load task manifest",
			zap.String("path", runTaskPath),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid task manifest", err)
	}
	if runWorklist != "" {
		spec.Worklist.Source = runWorklist
	}
	if spec.Worklist.Source == "" {
		return exitError(foundry.ExitInvalidArgument, "Invalid task manifest",
			fmt.Errorf("worklist.source is required (or pass --worklist)"))
	}

	eng, err := buildEngine(logger)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	list, preview, err := eng.store.Load(spec.Worklist.Source)
	if err != nil {
		if worklist.IsNotFound(err) {
			return exitError(foundry.ExitFileNotFound, "Work list not found", err)
		}
		return exitError(foundry.ExitFileReadError, "Failed to load work list", err)
	}

	if !runQuiet {
		fmt.Printf("Work list: %s (%d items)\n", list.Source, preview.TotalItems)
		for _, item := range preview.Preview {
			fmt.Printf("  - %s\n", item)
		}
		if preview.TotalItems > len(preview.Preview) {
			fmt.Printf("  ... and %d more\n", preview.TotalItems-len(preview.Preview))
		}
	}

	run, err := eng.runner.Start(ctx, list, spec)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Failed to start batch", err)
	}

	snap := watchRun(run.Done(), run.Status, runQuiet)

	switch snap.Phase {
	case status.PhaseCompleted:
		fmt.Printf("Completed %d/%d items in %ds\n", snap.Progress, snap.Total, snap.ElapsedSeconds)
		fmt.Printf("Results: %s\n", snap.ResultLocation)
		return nil
	default:
		return exitError(foundry.ExitExternalServiceUnavailable, "Batch run failed",
			fmt.Errorf("run ended in phase %s after %d/%d items", snap.Phase, snap.Progress, snap.Total))
	}
}

// watchRun polls the register until done, printing progress transitions
// unless quiet. It returns the final snapshot.
func watchRun(done <-chan struct{}, reg *status.Register, quiet bool) status.Snapshot {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	lastProgress := -1
	for {
		select {
		case <-done:
			return reg.Snapshot()
		case <-ticker.C:
			snap := reg.Snapshot()
			if !quiet && snap.Progress != lastProgress {
				fmt.Printf("Progress: %d/%d (%s, %ds elapsed)\n",
					snap.Progress, snap.Total, snap.Phase, snap.ElapsedSeconds)
				lastProgress = snap.Progress
			}
		}
	}
}
