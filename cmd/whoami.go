// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	apperrors "jifa/cli/internal/errors"
)

// whoamiCmd shows the user the server recognises for the stored token.
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current authenticated user",
	Long: `The whoami command performs a handshake with the stored token and prints the
user the server reports. When the token can be decoded locally, its expiry is
shown too.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		wait := &workerWait{}
		defer wait.stop()
		svc, err := openService(wait)
		if err != nil {
			return err
		}
		user, err := svc.WhoAmI(cmd.Context())
		wait.stop()
		if apperrors.Is(err, apperrors.NotLoggedIn) {
			pterm.Info.Println("You're not logged in yet.")
			if svc.Session().LoginRequired() {
				pterm.FgGray.Println("  This server requires login. Run 'jifa login' to get started.")
			}
			return nil
		}
		if err != nil {
			return err
		}

		role := "user"
		if user.Admin {
			role = "admin"
		}
		fmt.Printf("👤 Current user: %s (%s)\n", user.Name, role)
		if info, err := svc.TokenInfo(); err == nil && !info.ExpiresAt.IsZero() {
			pterm.FgGray.Printf("  Token expires %s\n", info.ExpiresAt.Local().Format(time.RFC1123))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
