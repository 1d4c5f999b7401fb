package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewProxyCmd creates the proxy command.
func NewProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "List supported proxy categories",
		Long: `Proxy lists every category at least one IP is mapped to.

Examples:
  proxysort proxy

  # Include link counts and mapped IPs
  proxysort proxy --counts`,
		Args: cobra.NoArgs,
		RunE: runProxyCmd,
	}

	cmd.Flags().Bool("counts", false, "Show link counts and mapped IPs")
	cmd.Flags().Bool("all", false, "Include categories no IP is mapped to")

	return cmd
}

// runProxyCmd executes the proxy command.
func runProxyCmd(cmd *cobra.Command, _ []string) error {
	counts, err := cmd.Flags().GetBool("counts")
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	_, _, db, store, err := commandSetup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := commandContext(cmd)
	list := store.Categories
	if all {
		list = store.AllCategories
	}
	summaries, err := list(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No proxy types yet. Use 'proxysort track <ip> <name>' to add one.")
		return nil
	}

	fmt.Fprintln(out, "Supported Proxies:")
	for _, s := range summaries {
		if !counts {
			fmt.Fprintln(out, s.Name)
			continue
		}
		ips := "-"
		if len(s.IPs) > 0 {
			ips = strings.Join(s.IPs, ", ")
		}
		fmt.Fprintf(out, "%s\t%d link(s)\t%s\n", s.Name, s.Links, ips)
	}
	return nil
}

// NewUnknownCmd creates the unknown command.
func NewUnknownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unknown",
		Short: "List links waiting for their IP to be tracked",
		Long: `Unknown lists the Unknown Bucket: links whose IP has no category yet,
grouped by IP. Map an IP with 'proxysort track <ip> <name>' to move its
links into a category.`,
		Args: cobra.NoArgs,
		RunE: runUnknownCmd,
	}
}

// runUnknownCmd executes the unknown command.
func runUnknownCmd(cmd *cobra.Command, _ []string) error {
	_, _, db, store, err := commandSetup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	groups, err := store.Unknown(commandContext(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(groups) == 0 {
		fmt.Fprintln(out, "The Unknown Bucket is empty.")
		return nil
	}

	for _, g := range groups {
		fmt.Fprintf(out, "(%s) %d link(s)\n", g.Key, len(g.Links))
		for _, link := range g.Links {
			fmt.Fprintf(out, "  %s\n", link)
		}
	}
	return nil
}
