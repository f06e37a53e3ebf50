// Package cmd provides the CLI commands for cargo-upgrade.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	uperrors "github.com/wexinc/cargo-upgrade/internal/errors"
)

// Version information, set by main before Execute.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// newRootCmd builds the command tree. The root command performs the
// upgrade; cargo invokes external subcommands as `cargo-upgrade upgrade ...`
// so a leading "upgrade" argument is dropped by Execute.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cargo-upgrade [DEPENDENCY]...",
		Short: "Upgrade dependency version requirements in Cargo.toml",
		Long: `Upgrade the version requirements of dependencies declared in Cargo.toml
to the latest versions published in the registry.

Formatting, comments and the order of entries are preserved. Path and git
dependencies without a version requirement are left alone.

Examples:
  cargo upgrade                      # Upgrade every dependency of the package
  cargo upgrade docopt serde         # Upgrade only the named dependencies
  cargo upgrade --all                # Upgrade every member of the workspace
  cargo upgrade --dry-run            # Show what would change
  cargo upgrade --interactive        # Choose the upgrades to apply`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runUpgrade,
	}
	root.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
	root.SetVersionTemplate("cargo-upgrade {{.Version}}\n")

	addUpgradeFlags(root)
	root.AddCommand(newVersionCmd())
	return root
}

// cargoArgs strips the subcommand name cargo passes to external commands.
func cargoArgs(args []string) []string {
	if len(args) > 0 && args[0] == "upgrade" {
		return args[1:]
	}
	return args
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := newRootCmd()
	root.SetArgs(cargoArgs(os.Args[1:]))
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, uperrors.Render(err))
		os.Exit(1)
	}
}
