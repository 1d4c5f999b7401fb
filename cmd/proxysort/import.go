package main

import (
	"fmt"

	"github.com/nao1215/proxysort/internal/legacy"
	"github.com/spf13/cobra"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Import the JSON files of the proxy bot",
		Long: `Import reads a Proxys directory written by the chat bot proxysort
replaces and merges it into the database:

  customMappings.json   IP to category mapping
  unknown.json          links waiting per IP
  <category>.json       links of each category

Importing is a union: links already stored are kept, and importing the same
directory twice changes nothing.

Examples:
  proxysort import ./Proxys`,
		Args: cobra.ExactArgs(1),
		RunE: runImportCmd,
	}
}

// runImportCmd executes the import command.
func runImportCmd(cmd *cobra.Command, args []string) error {
	_, logger, db, _, err := commandSetup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	sum, err := legacy.NewImporter(db, legacy.WithLogger(logger)).Import(commandContext(cmd), args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %s\n", args[0])
	fmt.Fprintf(out, "  mappings:      %d\n", sum.Mappings)
	fmt.Fprintf(out, "  categories:    %d\n", sum.Categories)
	fmt.Fprintf(out, "  new links:     %d\n", sum.Links)
	fmt.Fprintf(out, "  queued links:  %d\n", sum.Unknown)
	return nil
}
