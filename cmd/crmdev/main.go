// Command crmdev runs the CRM dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flags holds the command-line overrides shared by serve and seed.
type flags struct {
	addr     string
	db       string
	memory   bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "crmdev",
		Short: "CRM dashboard with inline-editable company records",
		Long: `crmdev serves a server-rendered CRM dashboard.

Configuration comes from CRM_* environment variables; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.db, "db", "", "SQLite database URL (overrides CRM_DATABASE_URL)")
	root.PersistentFlags().BoolVar(&f.memory, "memory", false, "use an in-memory store seeded with demo data")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level (overrides CRM_LOG_LEVEL)")

	root.AddCommand(newServeCmd(f), newSeedCmd(f), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crmdev version %s\n", version)
		},
	}
}
