package main

import (
	"fmt"
	"strings"

	"github.com/nao1215/proxysort/internal/database"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of reports listed by --list.
const defaultHistoryLimit = 20

// NewResultsCmd creates the results command.
func NewResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Show the report of a previous scan",
		Long: `Results prints the report of the most recent scan, as saved in the
database. Use --list to see earlier scans and --id to print one of them.

Examples:
  proxysort results
  proxysort results --list
  proxysort results --id 3
  proxysort results --id 3 --json`,
		Args: cobra.NoArgs,
		RunE: runResultsCmd,
	}

	cmd.Flags().BoolP("list", "l", false, "List saved scan reports")
	cmd.Flags().Int64P("id", "i", 0, "Print the report with this ID")
	cmd.Flags().BoolP("json", "j", false, "Print the JSON form of the report")

	return cmd
}

// runResultsCmd executes the results command.
func runResultsCmd(cmd *cobra.Command, _ []string) error {
	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	id, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	_, _, db, _, err := commandSetup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	if list {
		reports, err := db.ListScanReports(ctx, defaultHistoryLimit)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Fprintln(out, "No scan reports found. Use 'proxysort scan' to run a scan.")
			return nil
		}
		fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %-11s  %s\n", "ID", "Date", "Links", "Categorized", "Unknown")
		fmt.Fprintln(out, "  "+strings.Repeat("-", 60))
		for _, meta := range reports {
			fmt.Fprintf(out, "  %-6d  %-20s  %-8d  %-11d  %d\n",
				meta.ID,
				meta.Timestamp.Local().Format("2006-01-02 15:04:05"),
				meta.Total,
				meta.Categorized,
				meta.Unknown,
			)
		}
		return nil
	}

	var rec *database.ScanReportRecord
	if id > 0 {
		rec, err = db.GetScanReportByID(ctx, id)
	} else {
		rec, err = db.LatestScanReport(ctx)
	}
	if err != nil {
		return err
	}
	if rec == nil {
		if id > 0 {
			return fmt.Errorf("no scan report with ID %d", id)
		}
		fmt.Fprintln(out, "No scan reports found. Use 'proxysort scan' to run a scan.")
		return nil
	}

	if asJSON {
		fmt.Fprintln(out, rec.JSON)
		return nil
	}
	fmt.Fprint(out, rec.Text)
	return nil
}
