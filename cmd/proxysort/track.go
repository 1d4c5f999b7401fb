package main

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"
)

// errInvalidIP is returned when track is given something that is not an IP.
var errInvalidIP = errors.New("invalid IP address")

// NewTrackCmd creates the track command.
func NewTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track <ip> <name...>",
		Short: "Map an IP to a category and move its queued links",
		Long: `Track maps an IP address to a category name. Every link queued for the
IP in the Unknown Bucket is moved into the category, and future scans file
links at this IP under the category.

The name may contain spaces; all arguments after the IP form the name.
Tracking an IP again replaces its category.

Examples:
  proxysort track 203.0.113.7 Residential EU`,
		Args: cobra.MinimumNArgs(2),
		RunE: runTrackCmd,
	}
}

// runTrackCmd executes the track command.
func runTrackCmd(cmd *cobra.Command, args []string) error {
	ip := strings.TrimSpace(args[0])
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("%w: %q", errInvalidIP, ip)
	}
	name := strings.Join(args[1:], " ")

	_, _, db, store, err := commandSetup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	moved, err := store.TrackMapping(commandContext(cmd), ip, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Tracked IP %s as %q. Moved %d link(s).\n", ip, name, moved)
	return nil
}
