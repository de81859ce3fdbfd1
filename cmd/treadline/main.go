// Command treadline runs the tyre shop admin dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treadline",
		Short: "Admin dashboard for the tyre shop back office",
		Long: `Treadline serves the back-office dashboard of the tyre shop.

Operators sign in against the shop's REST API and browse, search and
delete products, appointments, brands, customer queries and measurement
values. List screens update live over a websocket and fall back to plain
links and forms without JavaScript.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		versionCmd(),
	)

	return rootCmd
}
