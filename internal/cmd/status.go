package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	batchstatus "github.com/Maryland-State-Innovation-Team/Repetitive-Task-Agent/pkg/batch/status"
)

var statusCmd = &cobra.Command{
	Use:   "status <run-id>",
	Short: "Poll a batch run on a running server",
	Long: `Fetch the status of a batch run from an rta server.

Example:
  rta status 2f1c... --server http://localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

var statusServer string

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusServer, "server", "http://localhost:8080", "Server base URL")
}

func runStatus(cmd *cobra.Command, args []string) error {
	base, err := url.Parse(statusServer)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid --server URL", err)
	}

	endpoint := base.JoinPath("runs", args[0]).String()
	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, endpoint, nil)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Server unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return exitError(foundry.ExitExternalServiceUnavailable, "Status request failed",
			fmt.Errorf("server returned %s", resp.Status))
	}

	var snap batchstatus.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Malformed status response", err)
	}

	fmt.Printf("Phase:    %s\n", snap.Phase)
	fmt.Printf("Progress: %d/%d\n", snap.Progress, snap.Total)
	fmt.Printf("Elapsed:  %ds\n", snap.ElapsedSeconds)
	if snap.ResultLocation != "" {
		fmt.Printf("Results:  %s\n", snap.ResultLocation)
	}
	return nil
}
