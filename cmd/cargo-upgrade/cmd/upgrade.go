package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/wexinc/cargo-upgrade/internal/config"
	uperrors "github.com/wexinc/cargo-upgrade/internal/errors"
	"github.com/wexinc/cargo-upgrade/internal/logging"
	"github.com/wexinc/cargo-upgrade/internal/manifest"
	"github.com/wexinc/cargo-upgrade/internal/project"
	"github.com/wexinc/cargo-upgrade/internal/registry"
	"github.com/wexinc/cargo-upgrade/internal/report"
	"github.com/wexinc/cargo-upgrade/internal/tui"
	"github.com/wexinc/cargo-upgrade/internal/upgrade"
	"github.com/wexinc/cargo-upgrade/internal/workspace"
)

func addUpgradeFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringArrayP("dependency", "d", nil, "Dependency to upgrade (repeatable; default: all)")
	f.String("manifest-path", "", "Path to the manifest to upgrade")
	f.Bool("all", false, "Upgrade all packages in the workspace")
	f.Bool("allow-prerelease", false, "Include prerelease versions when choosing the latest version")
	f.Bool("dry-run", false, "Print the changes without writing any manifest")
	f.StringSlice("exclude", nil, "Dependencies to leave untouched")
	f.StringP("output", "o", "", "Output format: text, json or yaml")
	f.String("color", "", "When to color output: auto, always or never")
	f.BoolP("interactive", "i", false, "Choose which upgrades to apply")
	f.String("registry-dir", "", "Read versions from a sparse index directory instead of the network")
	f.String("config", "", "Path to a configuration file")
	f.BoolP("verbose", "v", false, "Enable verbose output")
}

// runUpgrade is the entry point of the upgrade command.
func runUpgrade(cmd *cobra.Command, args []string) error {
	deps, _ := cmd.Flags().GetStringArray("dependency")
	manifestFlag, _ := cmd.Flags().GetString("manifest-path")
	all, _ := cmd.Flags().GetBool("all")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	interactive, _ := cmd.Flags().GetBool("interactive")
	verbose, _ := cmd.Flags().GetBool("verbose")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	manifestPath, err := project.ManifestPath(manifestFlag, cwd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, filepath.Dir(manifestPath))
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, verbose, errOut)
	if err != nil {
		return err
	}
	logging.SetGlobal(logger)
	defer func() { _ = logging.CloseGlobal() }()
	logging.Debug("cargo-upgrade starting", "version", Version, "manifest", manifestPath, "all", all)

	if interactive && !isTerminal(cmd.InOrStdin()) {
		return uperrors.WithSuggestion(uperrors.ErrConfig,
			"--interactive requires a terminal",
			"Run without --interactive, or use --dry-run to review the changes first.")
	}

	mode := workspace.Single
	if all {
		mode = workspace.All
	}
	loader := manifest.NewLoader(nil)
	manifests, err := workspace.NewResolver(loader, logger).ResolveTargets(manifestPath, mode)
	if err != nil {
		return err
	}

	printer := report.NewPrinter(out, errOut, cfg.Output.Format, report.UseColor(cfg.Output.Color, out))
	names := append(append([]string{}, args...), deps...)

	engine := upgrade.NewEngine(loader, newRegistryClient(cfg, logger), logger)
	engine.SetOptions(&upgrade.Options{
		Filter:          manifest.NewFilter(names...),
		Exclude:         cfg.Upgrade.Exclude,
		AllowPrerelease: cfg.Upgrade.AllowPrerelease,
		DryRun:          dryRun,
		Concurrency:     cfg.Registry.Concurrency,
		OnEvent: func(ev upgrade.Event) {
			switch ev.Type {
			case upgrade.EventUpgraded:
				printer.Upgraded(*ev.Decision)
			case upgrade.EventSkipped:
				printer.Skipped(*ev.Decision)
			}
		},
	})

	plan, err := engine.Plan(ctx, manifests)
	if err != nil {
		return err
	}

	var keep func(*upgrade.ManifestPlan, upgrade.Decision) bool
	if interactive {
		selected, err := tui.Pick(ctx, tui.Items(plan), cmd.InOrStdin(), out)
		if errors.Is(err, tui.ErrCancelled) {
			fmt.Fprintln(errOut, "No changes applied.")
			return nil
		}
		if err != nil {
			return err
		}
		keep = tui.Keep(selected)
	}

	results, err := engine.Commit(ctx, plan, keep)
	if err != nil {
		return err
	}

	for _, name := range missingEverywhere(results) {
		where := manifestPath
		if len(results) > 1 {
			where = "any workspace member"
		}
		printer.Missing(uperrors.DependencyNotFound(name, where))
	}
	if dryRun {
		for _, r := range results {
			printer.Diff(r.Path, r.Before, r.After)
		}
	}
	return printer.Summary(results, dryRun)
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command, dir string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	loader := config.NewLoader()

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = loader.LoadConfig(path)
	} else {
		cfg, err = loader.LoadConfigFromDir(dir)
	}
	if err != nil {
		return nil, configError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("allow-prerelease") {
		cfg.Upgrade.AllowPrerelease, _ = flags.GetBool("allow-prerelease")
	}
	if flags.Changed("exclude") {
		exclude, _ := flags.GetStringSlice("exclude")
		cfg.Upgrade.Exclude = append(cfg.Upgrade.Exclude, exclude...)
	}
	if flags.Changed("output") {
		format, _ := flags.GetString("output")
		cfg.Output.Format = config.OutputFormat(strings.ToLower(format))
	}
	if flags.Changed("color") {
		mode, _ := flags.GetString("color")
		cfg.Output.Color = config.ColorMode(strings.ToLower(mode))
	}
	if flags.Changed("registry-dir") {
		cfg.Registry.LocalIndex, _ = flags.GetString("registry-dir")
	}
	if err := cfg.Validate(); err != nil {
		return nil, configError(err)
	}
	return cfg, nil
}

// validOptions lists the accepted values of enumerated settings.
var validOptions = map[string][]string{
	"output.format": {"text", "json", "yaml"},
	"output.color":  {"auto", "always", "never"},
	"log.level":     {"debug", "info", "warn", "error"},
}

// configError converts a configuration failure into a user-facing error.
func configError(err error) error {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field
		return uperrors.ConfigValidationError(field, verrs.Error(), validOptions[field])
	}
	var lerr *config.LoadError
	if errors.As(err, &lerr) {
		return uperrors.ConfigParseError(lerr.Path, err)
	}
	return uperrors.Wrap(err, uperrors.ErrConfig, "Failed to load configuration")
}

func newLogger(cfg *config.Config, verbose bool, errOut io.Writer) (*logging.Logger, error) {
	lc, err := cfg.Log.LoggerConfig(verbose)
	if err != nil {
		return nil, uperrors.Wrap(err, uperrors.ErrConfig, "Invalid log configuration")
	}
	lc.Console = verbose
	lc.Output = errOut
	return logging.New(lc)
}

// newRegistryClient builds the client used for the whole invocation.
func newRegistryClient(cfg *config.Config, logger *logging.Logger) registry.Client {
	if cfg.Registry.LocalIndex != "" {
		return registry.NewDirClient(cfg.Registry.LocalIndex)
	}
	return registry.NewHTTPClient(cfg.Registry.IndexURL,
		registry.WithHTTPClient(&http.Client{Timeout: cfg.Registry.Timeout}),
		registry.WithUserAgent(fmt.Sprintf("%s/%s", cfg.Registry.UserAgent, Version)),
		registry.WithMaxTries(uint(cfg.Registry.Retries)+1),
		registry.WithLogger(logger),
	)
}

// missingEverywhere returns the requested names no manifest declares.
func missingEverywhere(results []upgrade.Result) []string {
	if len(results) == 0 {
		return nil
	}
	counts := make(map[string]int)
	var order []string
	for _, r := range results {
		for _, name := range r.Missing {
			if counts[name] == 0 {
				order = append(order, name)
			}
			counts[name]++
		}
	}
	var out []string
	for _, name := range order {
		if counts[name] == len(results) {
			out = append(out, name)
		}
	}
	return out
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
