package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/code-pilot/internal/app"
	"github.com/sevigo/code-pilot/internal/wire"
)

var (
	configPath string
	verbose    bool
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgWhite)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var rootCmd = &cobra.Command{
	Use:   "pilot-cli",
	Short: "pilot-cli is the command-line interface for Code-Pilot.",
	Long: `A CLI for Code-Pilot: review source files of any length, browse and search
the review library, and ask for explanations of review feedback.`,
	SilenceUsage: true,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
}

func initServices(ctx context.Context) (*app.Services, func(), error) {
	services, cleanup, err := wire.InitializeServices(ctx, wire.ConfigPath(configPath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize: %w\n\nTip: Check that your config.yaml exists and is valid", err)
	}
	return services, cleanup, nil
}
