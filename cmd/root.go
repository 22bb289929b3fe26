// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Jifa CLI.
// It implements the session subcommands (handshake, login, signup, logout,
// whoami, token) and a raw request command on top of the Cobra framework,
// with pterm spinners and notifications for terminal output.
package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"jifa/cli/internal/auth"
	"jifa/cli/internal/config"
	apperrors "jifa/cli/internal/errors"
	"jifa/cli/internal/logging"
	"jifa/cli/internal/notify"
	"jifa/cli/internal/transport"
)

var (
	showVersion  bool
	serverFlag   string
	prefixFlag   string
	verboseFlag  bool
	activeConfig config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "jifa",
	Short:         "Jifa CLI for session management against a Jifa analysis server",
	Long:          `Jifa is a command-line client for Eclipse Jifa servers. It performs the server handshake, keeps the login token in the OS keychain and waits for elastic workers to become ready.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("jifa %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application and maps errors to user-facing output.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Jifa server URL (overrides "+config.EnvServer+")")
	rootCmd.PersistentFlags().StringVar(&prefixFlag, "api-prefix", "", "API path prefix (overrides "+config.EnvAPIPrefix+")")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
}

// loadConfig reads the config file and environment, then applies flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if serverFlag != "" {
		cfg.ServerURL = strings.TrimRight(serverFlag, "/")
	}
	if prefixFlag != "" {
		cfg.APIPrefix = prefixFlag
	}
	if verboseFlag {
		cfg.LogLevel = "debug"
	}
	activeConfig = cfg
	return cfg, nil
}

// openService builds the auth service for a command. wait may be nil.
func openService(wait *workerWait) (*auth.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	deps := auth.Deps{
		Notifier: notify.NewTerminal(os.Stderr),
		Logger:   logging.New(cfg.LogLevel),
	}
	if wait != nil {
		wait.max = cfg.Retry.Max
		deps.OnRetry = wait.onRetry
	}
	return auth.Open(cfg, deps)
}

// reportError prints err once. 500 responses were already announced by the
// notifier, so only the request context is added for them.
func reportError(err error) {
	var apiErr *transport.APIError
	var urlErr *url.Error
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Status == 500 {
			pterm.FgGray.Println(logging.Mask(apiErr.Method + " " + apiErr.URL))
			return
		}
		if apiErr.Unauthorized() {
			pterm.Error.Println(logging.PresentError("Not authorized", err))
			pterm.FgGray.Println("  Run 'jifa login' to sign in again.")
			return
		}
		pterm.Error.Println(logging.PresentError("Request failed", err))
	case errors.As(err, &urlErr):
		_ = notify.FormatNetworkError(err, "Jifa server", activeConfig.ServerURL)
	case apperrors.Is(err, apperrors.NotLoggedIn):
		pterm.Info.Println("You're not logged in yet.")
		pterm.FgGray.Println("  Run 'jifa login' to get started.")
	case apperrors.Is(err, apperrors.StorageFailed):
		pterm.Error.Println(logging.PresentError("Credential storage", err))
		pterm.FgGray.Println("  Set " + config.EnvKeyringPassword + " to use the encrypted file keyring.")
	default:
		pterm.Error.Println(logging.PresentError("Error", err))
	}
}
