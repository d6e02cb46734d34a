package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// StatusFlags holds status command flags
type StatusFlags struct {
	Addr   string
	Output string
}

var statusFlags StatusFlags

type statusView struct {
	State          string `json:"state"`
	LastRunID      string `json:"last_run_id,omitempty"`
	LastError      string `json:"last_error,omitempty"`
	PendingExports int    `json:"pending_exports"`
	Stage          string `json:"stage"`
}

// NewStatusCommand creates the status command, a thin HTTP client against
// a running `watch` command's /status endpoint.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running photomirror instance's reconciliation status",
		RunE:  runStatus,
	}

	cmd.Flags().StringVar(&statusFlags.Addr, "addr", "http://localhost:8080", "base address of the status HTTP server")
	cmd.Flags().StringVarP(&statusFlags.Output, "output", "o", "human", "output format: human, json")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(statusFlags.Addr + "/status")
	if err != nil {
		return fmt.Errorf("failed to reach status endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var view statusView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return fmt.Errorf("failed to parse status response: %w", err)
	}

	if statusFlags.Output == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "State:           %s\n", view.State)
	fmt.Fprintf(cmd.OutOrStdout(), "Stage:           %s\n", view.Stage)
	fmt.Fprintf(cmd.OutOrStdout(), "Pending exports: %d\n", view.PendingExports)
	if view.LastRunID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Last run:        %s\n", view.LastRunID)
	}
	if view.LastError != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Last error:      %s\n", view.LastError)
	}
	return nil
}
