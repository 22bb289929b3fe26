// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"jifa/cli/internal/session"
)

// handshakeCmd performs the server handshake and prints the session state.
var handshakeCmd = &cobra.Command{
	Use:   "handshake",
	Short: "Show server capabilities and the current login state",
	Long: `The handshake command sends the stored token (if any) to the server and prints
what the server reports back: its role, whether login, anonymous access and
registration are allowed, OAuth2 providers, disabled file transfer methods and
the logged-in user.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		wait := &workerWait{}
		defer wait.stop()
		svc, err := openService(wait)
		if err != nil {
			return err
		}
		if err := svc.Bootstrap(cmd.Context()); err != nil {
			return err
		}
		wait.stop()
		renderState(svc.Session().Snapshot())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(handshakeCmd)
}

func renderState(st session.State) {
	user := "-"
	if st.User != nil {
		user = st.User.Name
		if st.User.Admin {
			user += " (admin)"
		}
	}
	providers := make([]string, 0, len(st.OAuth2LoginLinks))
	for name := range st.OAuth2LoginLinks {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	disabled := make([]string, 0, len(st.DisabledFileTransferMethods))
	for _, m := range st.DisabledFileTransferMethods {
		disabled = append(disabled, string(m))
	}

	data := pterm.TableData{
		{"Server role", orDash(string(st.ServerRole))},
		{"Allow login", yesNo(st.AllowLogin)},
		{"Anonymous access", yesNo(st.AllowAnonymousAccess)},
		{"Registration", yesNo(st.AllowRegistration)},
		{"OAuth2 providers", orDash(strings.Join(providers, ", "))},
		{"Disabled transfer", orDash(strings.Join(disabled, ", "))},
		{"User", user},
	}
	_ = pterm.DefaultTable.WithData(data).Render()

	if st.LoginFormVisible {
		fmt.Println()
		pterm.Info.Println("This server requires login. Run 'jifa login'.")
		for _, name := range providers {
			pterm.FgGray.Printf("  %s: %s\n", name, st.OAuth2LoginLinks[name])
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
