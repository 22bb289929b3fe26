// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"jifa/cli/internal/token"
)

var revealToken bool

// tokenCmd groups local token operations. None of them contact the server.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Inspect or reset the stored token",
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored token and its claims",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(nil)
		if err != nil {
			return err
		}
		tok, err := svc.Session().Token()
		if err != nil {
			return err
		}
		if tok == "" {
			pterm.Info.Println("No token stored.")
			return nil
		}
		if revealToken {
			fmt.Println(tok)
		} else {
			fmt.Println(tok[:min(8, len(tok))] + "***")
		}

		info, err := svc.TokenInfo()
		if errors.Is(err, token.ErrNoToken) {
			return nil
		}
		if err != nil {
			pterm.FgGray.Println("  Token is not a JWT; no claims to show.")
			return nil
		}
		now := time.Now()
		data := pterm.TableData{
			{"Subject", orDash(info.Subject)},
			{"Name", orDash(info.Name)},
			{"Admin", yesNo(info.Admin)},
			{"Issued", formatTime(info.IssuedAt)},
			{"Expires", formatTime(info.ExpiresAt)},
			{"Expired", yesNo(info.Expired(now))},
		}
		return pterm.DefaultTable.WithData(data).Render()
	},
}

var tokenResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove the stored token without contacting the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(nil)
		if err != nil {
			return err
		}
		if err := svc.ResetLocalAuth(); err != nil {
			return err
		}
		pterm.Success.Println("Token removed")
		return nil
	},
}

func init() {
	tokenShowCmd.Flags().BoolVar(&revealToken, "reveal", false, "Print the token unmasked")
	tokenCmd.AddCommand(tokenShowCmd, tokenResetCmd)
	rootCmd.AddCommand(tokenCmd)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC1123)
}
