package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/proxysort/internal/category"
	"github.com/spf13/cobra"
)

// NewGetCmd creates the get command.
func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <category...> [count]",
		Short: "Print random links of a category",
		Long: `Get prints up to count links of a category, drawn at random without
repetition. The stored links are not changed.

The category name may contain spaces. When the last argument is an integer
it is the count; a count of zero or less, or no count, means 1. When no
category has exactly the given name, a unique case-insensitive match is used.

Examples:
  # One random link
  proxysort get Residential EU

  # Five random links written to a file
  proxysort get Residential EU 5 -o get_links.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: runGetCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Write the links to a file instead of standard output")

	return cmd
}

// runGetCmd executes the get command.
func runGetCmd(cmd *cobra.Command, args []string) error {
	name, count := parseGetArgs(args)
	if name == "" {
		return errors.New("category name is required")
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	_, _, db, store, err := commandSetup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	links, err := store.Retrieve(commandContext(cmd), name, count, nil)
	switch {
	case errors.Is(err, category.ErrCategoryNotFound):
		fmt.Fprintf(out, "No links found for proxy type: **%s**\n", name)
		return nil
	case errors.Is(err, category.ErrCategoryEmpty):
		fmt.Fprintf(out, "No links stored under **%s**\n", name)
		return nil
	case err != nil:
		return err
	}

	if outputPath == "" {
		return writeLinks(out, links)
	}
	if err := writeLinksFile(outputPath, links); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d link(s) to %s\n", len(links), outputPath)
	return nil
}

// parseGetArgs splits the arguments into the category name and the count.
// The last argument is the count when it is an integer.
func parseGetArgs(args []string) (string, int) {
	count := 1
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			count = n
			args = args[:len(args)-1]
		}
	}
	return strings.TrimSpace(strings.Join(args, " ")), count
}

func writeLinks(w io.Writer, links []string) error {
	_, err := io.WriteString(w, strings.Join(links, "\n")+"\n")
	return err
}

func writeLinksFile(path string, links []string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(strings.Join(links, "\n")), 0600); err != nil {
		return fmt.Errorf("failed to write links: %w", err)
	}
	return nil
}
