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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/conceptgraph/internal/app"
	"github.com/eslsoft/conceptgraph/internal/usecase/backup"
)

const (
	exportOutputKey  = "backup.export.output"
	exportGzipKey    = "backup.export.gzip"
	exportCompactKey = "backup.export.compact"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the whole concept graph as a JSON document",
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath := viper.GetString(exportOutputKey)
		gzipEnabled := viper.GetBool(exportGzipKey)
		compact := viper.GetBool(exportCompactKey)

		if outputPath == "" {
			outputPath = defaultExportFilename(gzipEnabled)
		}
		if !gzipEnabled && outputPath != "-" && strings.HasSuffix(strings.ToLower(outputPath), ".gz") {
			gzipEnabled = true
		}

		return withContainer(cmd, func(ctx context.Context, c *app.Container) (err error) {
			service, err := backup.NewService(c.Graph, backup.WithIndent(!compact), backup.WithLogger(c.Logger))
			if err != nil {
				return fmt.Errorf("create backup service: %w", err)
			}

			var (
				writer   io.Writer = cmd.OutOrStdout()
				closeFns []func() error
			)
			if outputPath != "-" {
				if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
				file, openErr := os.Create(outputPath)
				if openErr != nil {
					return fmt.Errorf("create export file: %w", openErr)
				}
				writer = file
				closeFns = append(closeFns, file.Close)
			}
			if gzipEnabled {
				gz := gzip.NewWriter(writer)
				writer = gz
				closeFns = append([]func() error{gz.Close}, closeFns...)
			}
			defer func() {
				for _, closer := range closeFns {
					if cerr := closer(); cerr != nil && err == nil {
						err = cerr
					}
				}
			}()

			progress := newCLIProgress(cmd.ErrOrStderr(), "exporting")
			if err := service.Export(ctx, writer, backup.WithProgressReporter(progress)); err != nil {
				return fmt.Errorf("export graph: %w", err)
			}
			if outputPath == "-" {
				fmt.Fprintln(cmd.ErrOrStderr(), "export complete: written to stdout")
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "export complete: %s\n", outputPath)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "output file path, - for stdout")
	exportCmd.Flags().Bool("gzip", false, "gzip the output")
	exportCmd.Flags().Bool("compact", false, "write the document without indentation")

	bindFlagToViper(exportOutputKey, exportCmd.Flags().Lookup("output"))
	bindFlagToViper(exportGzipKey, exportCmd.Flags().Lookup("gzip"))
	bindFlagToViper(exportCompactKey, exportCmd.Flags().Lookup("compact"))
}

func defaultExportFilename(gzipEnabled bool) string {
	ts := time.Now().UTC().Format("20060102-150405")
	filename := fmt.Sprintf("conceptgraph-export-%s.json", ts)
	if gzipEnabled {
		filename += ".gz"
	}
	return filename
}
