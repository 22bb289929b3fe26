// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"jifa/cli/internal/auth"
	"jifa/cli/internal/model"
	"jifa/cli/internal/session"
)

var (
	loginUsername string
	signupName    string
)

// loginCmd authenticates with username and password. The token returned in
// the Authorization header is stored in the OS keychain.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Log in with username and password",
	Long: `The login command asks for a username and password, sends them to the server
and stores the returned token in the OS keychain. Afterwards the session is
reloaded and the logged-in user is shown.

A password can be piped on stdin for non-interactive use.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, stop, err := prepareCredentials(cmd)
		if err != nil {
			return err
		}
		defer stop()
		if st.LoggedIn() {
			pterm.Info.Printf("Already logged in as %s\n", st.User.Name)
			return nil
		}
		if !st.AllowLogin {
			return errors.New("this server does not allow login")
		}

		username, password, err := readCredentials(loginUsername)
		if err != nil {
			return err
		}

		stopSpinner := startInlineSpinner(os.Stdout, "Logging in", spinnerFrames, 120*time.Millisecond)
		err = svc.Login(cmd.Context(), username, password)
		stopSpinner()
		if err != nil {
			return err
		}
		greet(svc)
		return nil
	},
}

// signupCmd registers a new account and logs it in.
var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account on the server",
	Long: `The signup command registers a new user when the server allows registration.
The server logs the new user in right away; the returned token is stored like
after 'jifa login'.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, stop, err := prepareCredentials(cmd)
		if err != nil {
			return err
		}
		defer stop()
		if !st.AllowRegistration {
			return errors.New("this server does not allow registration")
		}

		username, password, err := readCredentials(loginUsername)
		if err != nil {
			return err
		}

		stopSpinner := startInlineSpinner(os.Stdout, "Creating account", spinnerFrames, 120*time.Millisecond)
		err = svc.Signup(cmd.Context(), model.SignupRequest{
			Username: username,
			Password: password,
			FullName: signupName,
		})
		stopSpinner()
		if err != nil {
			return err
		}
		greet(svc)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted when empty)")
	signupCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted when empty)")
	signupCmd.Flags().StringVar(&signupName, "full-name", "", "Display name for the new account")
	rootCmd.AddCommand(loginCmd, signupCmd)
}

// prepareCredentials opens the service and runs the handshake so the
// command can check what the server allows.
func prepareCredentials(cmd *cobra.Command) (*auth.Service, session.State, func(), error) {
	wait := &workerWait{}
	svc, err := openService(wait)
	if err != nil {
		return nil, session.State{}, nil, err
	}
	err = svc.Bootstrap(cmd.Context())
	wait.stop()
	if err != nil {
		return nil, session.State{}, nil, err
	}
	return svc, svc.Session().Snapshot(), wait.stop, nil
}

func readCredentials(username string) (string, string, error) {
	var err error
	if username == "" {
		if username, err = promptLine("Username"); err != nil {
			return "", "", fmt.Errorf("read username: %w", err)
		}
	}
	if username == "" {
		return "", "", errors.New("username is required")
	}
	password, err := promptSecret("Password")
	if err != nil {
		return "", "", fmt.Errorf("read password: %w", err)
	}
	if password == "" {
		return "", "", errors.New("password is required")
	}
	return username, password, nil
}

func greet(svc *auth.Service) {
	st := svc.Session().Snapshot()
	if st.User == nil {
		pterm.Success.Println("Login successful")
		return
	}
	pterm.Success.Printf("Logged in as %s\n", st.User.Name)
}
