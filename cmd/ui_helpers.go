// Copyright (c) 2025 Jifa CLI contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"golang.org/x/term"

	"jifa/cli/internal/terminal"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// startInlineSpinner draws frames followed by text on a single line until the
// returned stop function is called, which clears the line.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			line := fmt.Sprintf("%s %s", frames[i%len(frames)], text)
			select {
			case <-stop:
				fmt.Fprintf(w, "\r%*s\r", len(line), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s", line)
				i++
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
		})
	}
}

// workerWait shows a spinner while the client waits for an elastic worker.
// The spinner starts on the first retry and is removed by stop.
type workerWait struct {
	mu      sync.Mutex
	max     int
	spinner *pterm.SpinnerPrinter
}

func (w *workerWait) onRetry(retry int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	text := fmt.Sprintf("Waiting for the analysis worker to start (retry %d/%d)", retry, w.max)
	if w.spinner == nil {
		cursor.Hide()
		sp, err := pterm.DefaultSpinner.WithWriter(os.Stderr).WithRemoveWhenDone(true).Start(text)
		if err != nil {
			cursor.Show()
			return
		}
		w.spinner = sp
		return
	}
	w.spinner.UpdateText(text)
}

func (w *workerWait) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.spinner == nil {
		return
	}
	_ = w.spinner.Stop()
	w.spinner = nil
	cursor.Show()
}

var stdinReader = bufio.NewReader(os.Stdin)

// promptLine asks for a single line of input and removes the prompt from the
// terminal afterwards.
func promptLine(label string) (string, error) {
	prompt := label + ": "
	fmt.Print(prompt)
	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		fmt.Println()
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		terminal.ClearPreviousLines(len(prompt) + len(line))
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a value without echo. Piped input is read as a line.
func promptSecret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdinReader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Print(label + ": ")
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	terminal.ClearPreviousLines(len(label) + 2)
	return string(b), nil
}
