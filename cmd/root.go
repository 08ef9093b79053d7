// Package cmd contains the CLI commands for the mintdraw application.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

// verbose holds the global --verbose flag state.
var verbose bool

// jsonOutput holds the global --json flag state.
var jsonOutput bool

// configPath holds the global --config flag state.
var configPath string

func init() {
	adapter := newProjectAdapter(os.Getwd, os.Stderr)
	rootCmd = BuildCommandTree(adapter)
	adapter.flags = rootCmd.PersistentFlags()
}

// GetVerbose returns the current verbose flag state.
// This is used by other packages to check if debug logging is enabled.
func GetVerbose() bool {
	return verbose
}

// GetJSON returns the current global --json flag state.
func GetJSON() bool {
	return jsonOutput
}

// GetConfigPath returns the explicit config file given with --config, if any.
func GetConfigPath() string {
	return configPath
}

// NewRootCmd creates a new root command instance.
// This is useful for testing to get a fresh command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mintdraw",
		Short:         "Draw unique random identifiers from a fixed range",
		Long:          "mintdraw allocates identifiers from [0, capacity) in uniformly random order, each exactly once.",
		SilenceErrors: true,
	}

	// Add persistent flags (available to all subcommands)
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr")
	flags.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	flags.StringVar(&configPath, "config", "", "Config file (default .mintdraw/config.yaml)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "console", "Log format: console or json")
	flags.Duration("lock-wait", 0, "How long to wait for another mintdraw command to finish")
	flags.String("metrics-file", "", "Write Prometheus metrics to this file after each command")

	return cmd
}

// AllocatorRunner is everything the command tree needs from the project.
type AllocatorRunner interface {
	InitRunner
	DrawRunner
	StatusRunner
	ListRunner
	ExportRunner
}

// BuildCommandTree returns a root command with every subcommand registered.
// A nil runner makes every command fail with ErrNotInProject.
func BuildCommandTree(runner AllocatorRunner) *cobra.Command {
	if runner == nil {
		runner = notInProject{}
	}
	root := NewRootCmd()
	root.AddCommand(
		NewInitCmd(runner),
		NewDrawCmd(runner),
		NewStatusCmd(runner),
		NewListCmd(runner),
		NewExportCmd(runner),
	)
	return root
}

// Execute runs the root command and returns any error.
// Deprecated: Use ExecuteContext instead for proper signal handling.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context.
// This enables graceful shutdown via context cancellation (e.g., on SIGINT).
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
