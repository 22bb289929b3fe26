// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	apperrors "jifa/cli/internal/errors"
	"jifa/cli/internal/logging"
)

// logoutCmd removes the stored token from the keychain and the cookie jar.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved token",
	Long: `The logout command removes the token from the OS keychain and from the
persisted cookie jar, then repeats the handshake as an anonymous user.

The token is removed even when the server cannot be reached.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		wait := &workerWait{}
		defer wait.stop()
		svc, err := openService(wait)
		if err != nil {
			return err
		}
		err = svc.Logout(cmd.Context())
		wait.stop()
		if apperrors.Is(err, apperrors.StorageFailed) {
			return err
		}
		pterm.Success.Println("Token removed")
		if err != nil {
			pterm.Warning.Println(logging.PresentError("Could not reload the session", err))
			return nil
		}
		if svc.Session().LoginRequired() {
			pterm.FgGray.Println("  This server requires login. Run 'jifa login' to sign in again.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
