/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eslsoft/conceptgraph/internal/app"
	"github.com/eslsoft/conceptgraph/internal/entity"
	"github.com/eslsoft/conceptgraph/internal/infrastructure/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "conceptgraph",
	Short: "Curriculum concept graph, mastery tracking and learning pathways",
	Long: `conceptgraph manages a directed graph of curriculum concepts annotated with
six-dimensional difficulty vectors, tracks student performance to derive mastery,
and plans learning pathways over the prerequisite graph.

Commands read JSON from files or stdin and print JSON to stdout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default is ./.env or ./config/.env)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("store", "", "graph store driver (memory, sqlite3, postgres, neo4j)")

	bindFlagToViper("config", rootCmd.PersistentFlags().Lookup("config"))
	bindFlagToViper("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlagToViper("store.driver", rootCmd.PersistentFlags().Lookup("store"))
}

// withContainer loads configuration, builds the application and runs fn with it.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	container, cleanup, err := app.Initialize(cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer cleanup()
	if err := fn(cmd.Context(), container); err != nil {
		container.Logger.WithError(err).WithField("command", cmd.CommandPath()).Error("command failed")
		return err
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput opens path, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// decodeInput reads a JSON value from a file, stdin or an inline argument.
func decodeInput(cmd *cobra.Command, source string, out any) error {
	if trimmed := strings.TrimSpace(source); strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return decodeJSON(strings.NewReader(trimmed), out)
	}
	r, err := readInput(cmd, source)
	if err != nil {
		return err
	}
	defer r.Close()
	return decodeJSON(r, out)
}

func decodeJSON(r io.Reader, out any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &entity.ValidationError{Field: "input", Problems: []string{err.Error()}}
	}
	return nil
}

// errorCategory names the failure class a command ended with.
func errorCategory(err error) string {
	switch {
	case errors.Is(err, entity.ErrCycle):
		return "conflict"
	case errors.Is(err, entity.ErrValidation):
		return "validation"
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, entity.ErrPersonaNotFound):
		return "not found"
	case errors.Is(err, entity.ErrStore):
		return "store"
	default:
		return "error"
	}
}

func describeError(err error) string {
	msg := fmt.Sprintf("%s: %v", errorCategory(err), err)
	var verr *entity.ValidationError
	if errors.As(err, &verr) && len(verr.Problems) > 1 {
		msg += "\n  - " + strings.Join(verr.Problems, "\n  - ")
	}
	var cerr *entity.CycleError
	if errors.As(err, &cerr) && len(cerr.Path) > 0 {
		msg += "\n  path: " + cerr.PathString()
	}
	return msg
}

func exitCode(err error) int {
	switch errorCategory(err) {
	case "validation":
		return 2
	case "not found":
		return 3
	case "conflict":
		return 4
	case "store":
		return 5
	default:
		return 1
	}
}
