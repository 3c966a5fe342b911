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
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/conceptgraph/internal/app"
	"github.com/eslsoft/conceptgraph/internal/usecase"
	"github.com/eslsoft/conceptgraph/internal/usecase/backup"
)

const (
	importInputKey  = "backup.import.input"
	importGzipKey   = "backup.import.gzip"
	importDryRunKey = "backup.import.dry_run"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a graph export, validating it before anything is written",
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := viper.GetString(importInputKey)
		gzipEnabled := viper.GetBool(importGzipKey)
		dryRun := viper.GetBool(importDryRunKey)

		if inputPath == "" {
			return fmt.Errorf("--input is required, use - for stdin")
		}
		if !gzipEnabled && inputPath != "-" && strings.HasSuffix(strings.ToLower(inputPath), ".gz") {
			gzipEnabled = true
		}

		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			result, err := importFile(ctx, cmd, c.Backup, inputPath, gzipEnabled, dryRun)
			if result != nil {
				if perr := printJSON(cmd, result); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		})
	},
}

// importFile streams path (or stdin) into the backup service.
func importFile(ctx context.Context, cmd *cobra.Command, service *backup.Service, path string, gzipEnabled, dryRun bool) (result *usecase.ImportResult, err error) {
	rc, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	closers := []func() error{rc.Close}
	var reader io.Reader = rc
	if gzipEnabled {
		gzr, gzErr := gzip.NewReader(reader)
		if gzErr != nil {
			_ = rc.Close()
			return nil, fmt.Errorf("open gzip reader: %w", gzErr)
		}
		reader = gzr
		closers = append([]func() error{gzr.Close}, closers...)
	}
	defer func() {
		for _, closer := range closers {
			if cerr := closer(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()

	progress := newCLIProgress(cmd.ErrOrStderr(), "importing")
	return service.Import(ctx, reader, backup.WithImportProgress(progress), backup.WithDryRun(dryRun))
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringP("input", "i", "", "export file path, - for stdin")
	importCmd.Flags().Bool("gzip", false, "input is gzip compressed")
	importCmd.Flags().Bool("dry-run", false, "validate without writing")

	bindFlagToViper(importInputKey, importCmd.Flags().Lookup("input"))
	bindFlagToViper(importGzipKey, importCmd.Flags().Lookup("gzip"))
	bindFlagToViper(importDryRunKey, importCmd.Flags().Lookup("dry-run"))
}
