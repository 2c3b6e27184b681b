package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var flowsCmd = &cobra.Command{
	Use:   "flows",
	Short: "List in-flight acquisition flows",
	Long: `List every acquisition flow currently running on the connected
acquired daemon, along with its admission and transfer counters.

Examples:
  acquirectl flows
  acquirectl flows --server http://localhost:9200
  acquirectl flows -o json`,
	RunE: runFlows,
}

func init() {
	flowsCmd.Flags().Duration("timeout", 5*time.Second, "request timeout")
}

// flowStatus mirrors statusapi.FlowStatus without importing the server
// package, keeping the client decoupled from the daemon's internals.
type flowStatus struct {
	ClientID string `json:"client_id"`
	FlowID   string `json:"flow_id"`
	Stats    struct {
		FilesHashed   int
		FilesToFetch  int
		FilesFetched  int
		FilesSkipped  int
		FilesFailed   int
		PendingHashes int
		PendingFiles  int
	} `json:"stats"`
}

type flowsResponse struct {
	Count int          `json:"count"`
	Flows []flowStatus `json:"flows"`
}

func runFlows(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(Flags.ServerURL + "/flows")
	if err != nil {
		return fmt.Errorf("failed to reach acquired at %s: %w", Flags.ServerURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("acquired returned %s", resp.Status)
	}

	var out flowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if Flags.Output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printFlowsTable(out)
	return nil
}

func printFlowsTable(out flowsResponse) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Client", "Flow", "Hashed", "To Fetch", "Fetched", "Skipped", "Failed", "Pending (H/F)"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, f := range out.Flows {
		table.Append([]string{
			f.ClientID,
			f.FlowID,
			strconv.Itoa(f.Stats.FilesHashed),
			strconv.Itoa(f.Stats.FilesToFetch),
			strconv.Itoa(f.Stats.FilesFetched),
			strconv.Itoa(f.Stats.FilesSkipped),
			strconv.Itoa(f.Stats.FilesFailed),
			fmt.Sprintf("%d/%d", f.Stats.PendingHashes, f.Stats.PendingFiles),
		})
	}

	table.Render()
	fmt.Printf("\n%d flow(s)\n", out.Count)
}
