package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/internal/observability"
	"github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/worklist"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Manage work list files",
}

var listsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Enumerate work list files in the sandbox",
	Long: `Enumerate files in a sandbox directory without parsing them.

Example:
  rta lists ls
  rta lists ls --dir results --pattern '*.csv'`,
	RunE: runListsLs,
}

var listsSaveCmd = &cobra.Command{
	Use:   "save <basename> <item>...",
	Short: "Save items as a new work list",
	Long: `Save the given items as a single-column CSV under task_lists/.

Refuses to overwrite an existing list.

Example:
  rta lists save counties Allegany Baltimore Calvert`,
	Args: cobra.MinimumNArgs(2),
	RunE: runListsSave,
}

var listsLoadCmd = &cobra.Command{
	Use:   "load <source>",
	Short: "Load a work list and show its preview",
	Args:  cobra.ExactArgs(1),
	RunE:  runListsLoad,
}

var (
	listsDir     string
	listsPattern string
)

func init() {
	rootCmd.AddCommand(listsCmd)
	listsCmd.AddCommand(listsLsCmd, listsSaveCmd, listsLoadCmd)

	listsLsCmd.Flags().StringVar(&listsDir, "dir", "", "Sandbox directory to enumerate (default: task_lists)")
	listsLsCmd.Flags().StringVar(&listsPattern, "pattern", "", "Glob pattern filter")
}

func runListsLs(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(observability.CLILogger)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	names, err := eng.store.List(listsDir, listsPattern)
	if err != nil {
		return exitError(foundry.ExitFileReadError, "Failed to enumerate lists", err)
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runListsSave(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(observability.CLILogger)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	source, err := eng.store.Save(args[1:], args[0])
	if err != nil {
		if worklist.IsAlreadyExists(err) {
			return exitError(foundry.ExitInvalidArgument, "List already exists", err)
		}
		return exitError(foundry.ExitFileWriteError, "Failed to save list", err)
	}
	fmt.Printf("Saved %d items to %s\n", len(args)-1, source)
	return nil
}

func runListsLoad(cmd *cobra.Command, args []string) error {
	eng, err := buildEngine(observability.CLILogger)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
	}

	list, preview, err := eng.store.Load(args[0])
	if err != nil {
		if worklist.IsNotFound(err) {
			return exitError(foundry.ExitFileNotFound, "Work list not found", err)
		}
		return exitError(foundry.ExitFileReadError, "Failed to load work list", err)
	}

	fmt.Printf("%s: %d items\n", list.Source, preview.TotalItems)
	for _, item := range preview.Preview {
		fmt.Printf("  - %s\n", item)
	}
	if preview.TotalItems > len(preview.Preview) {
		fmt.Printf("  ... and %d more\n", preview.TotalItems-len(preview.Preview))
	}
	return nil
}
