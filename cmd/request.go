// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var requestData string

// requestCmd sends an authenticated request to the server API. Requests that
// hit a worker that is still starting are retried while a spinner is shown.
var requestCmd = &cobra.Command{
	Use:   "request METHOD PATH",
	Short: "Send an authenticated request to the server API",
	Long: `The request command sends METHOD PATH with the stored token and prints the
response body. PATH is relative to the API prefix unless it is an absolute URL.
Use --data to send a JSON body, or --data @file / --data @- to read it from a
file or stdin.`,
	Example: `  jifa request GET analysis/heap-dump/summary
  jifa request POST files --data '{"name":"dump.hprof"}'`,
	Args: cobra.ExactArgs(2),

	RunE: func(cmd *cobra.Command, args []string) error {
		method := strings.ToUpper(args[0])
		path := args[1]

		var body any
		if requestData != "" {
			raw, err := readRequestData(requestData)
			if err != nil {
				return err
			}
			if !json.Valid(raw) {
				return fmt.Errorf("--data is not valid JSON")
			}
			body = json.RawMessage(raw)
		}

		wait := &workerWait{}
		defer wait.stop()
		svc, err := openService(wait)
		if err != nil {
			return err
		}
		if err := svc.Bootstrap(cmd.Context()); err != nil {
			return err
		}
		resp, err := svc.Request(cmd.Context(), method, path, body)
		wait.stop()
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		return nil
	},
}

func init() {
	requestCmd.Flags().StringVarP(&requestData, "data", "d", "", "JSON request body, @file or @- for stdin")
	rootCmd.AddCommand(requestCmd)
}

func readRequestData(v string) ([]byte, error) {
	switch {
	case v == "@-":
		return io.ReadAll(os.Stdin)
	case strings.HasPrefix(v, "@"):
		return os.ReadFile(strings.TrimPrefix(v, "@"))
	default:
		return []byte(v), nil
	}
}
