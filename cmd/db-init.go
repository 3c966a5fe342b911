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
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eslsoft/conceptgraph/internal/app"
	"github.com/eslsoft/conceptgraph/internal/infrastructure/config"
	"github.com/eslsoft/conceptgraph/internal/infrastructure/logging"
)

// dbInitCmd prepares the configured store and optionally seeds it from a graph export.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Initialise the store schema and optionally seed it",
	Long: `Creates the schema of the configured store (goose migrations for sqlite3 and
postgres, constraints for neo4j) and imports an optional seed graph export.
The seed may be a local path or an http(s) URL; downloads are cached in the
user cache directory. Seeds ending in .gz or .zip are unpacked first.
Note: the sqlite3 driver needs a CGO_ENABLED=1 build.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, _ := cmd.Flags().GetString("seed")
		schemaOnly, _ := cmd.Flags().GetBool("schema-only")
		cacheDir, _ := cmd.Flags().GetString("cache-dir")
		noCache, _ := cmd.Flags().GetBool("no-cache")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log, err := logging.NewLogger(cfg)
		if err != nil {
			return err
		}
		_, cleanup, err := app.NewStores(cfg, log)
		if err != nil {
			return fmt.Errorf("prepare %s store: %w", cfg.Store.Driver, err)
		}
		cleanup()
		log.WithField("driver", cfg.Store.Driver).Info("schema ready")

		if schemaOnly || seed == "" {
			return nil
		}

		seedPath, err := resolveSeed(cmd.Context(), seed, cacheDir, noCache)
		if err != nil {
			return err
		}
		tmpDir, err := os.MkdirTemp("", "conceptgraph-seed-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmpDir)
		if strings.HasSuffix(strings.ToLower(seedPath), ".zip") {
			if seedPath, err = unzipSingle(isExportDocument, seedPath, tmpDir); err != nil {
				return err
			}
		}
		gzipped := strings.HasSuffix(strings.ToLower(seedPath), ".gz")

		return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
			result, err := importFile(ctx, cmd, c.Backup, seedPath, gzipped, false)
			if result != nil {
				if perr := printJSON(cmd, result); perr != nil && err == nil {
					err = perr
				}
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().String("seed", "", "graph export to import after migrating (path or http(s) URL)")
	dbInitCmd.Flags().Bool("schema-only", false, "only create the schema, skip the seed import")
	dbInitCmd.Flags().String("cache-dir", "", "seed download cache (default: user cache dir/conceptgraph)")
	dbInitCmd.Flags().Bool("no-cache", false, "ignore the local cache and download again")
}

func isExportDocument(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".json.gz")
}

func isRemote(seed string) bool {
	return strings.HasPrefix(seed, "http://") || strings.HasPrefix(seed, "https://")
}

// resolveSeed returns a local path for seed, downloading remote seeds into the cache.
func resolveSeed(ctx context.Context, seed, cacheDirFlag string, noCache bool) (string, error) {
	if !isRemote(seed) {
		return seed, nil
	}
	cacheDir, cachedPath, fromCache, err := prepareCachePath(seed, cacheDirFlag, noCache)
	if err != nil {
		return "", err
	}
	if fromCache {
		fmt.Fprintf(os.Stderr, "using cached seed %s\n", cachedPath)
		return cachedPath, nil
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache directory: %w", err)
	}
	fmt.Fprintf(os.Stderr, "downloading seed to %s\n", cachedPath)
	if err := downloadFile(ctx, seed, cachedPath); err != nil {
		return "", err
	}
	return cachedPath, nil
}

func downloadFile(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: %s", url, resp.Status)
	}
	// Write to a temp name so an interrupted download never looks cached.
	tmp := dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func unzipSingle(match func(string) bool, zipPath, dstDir string) (string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", err
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !match(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		outPath := filepath.Join(dstDir, filepath.Base(f.Name))
		out, err := os.Create(outPath)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			return "", err
		}
		if err := out.Close(); err != nil {
			return "", err
		}
		return outPath, nil
	}
	return "", errors.New("no graph export found in zip archive")
}

// prepareCachePath decides the cache location and returns (cacheDir, filePath, fromCache, error).
func prepareCachePath(url, cacheDirFlag string, noCache bool) (string, string, bool, error) {
	base := cacheDirFlag
	if base == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return "", "", false, fmt.Errorf("resolve user cache directory: %w", err)
		}
		base = filepath.Join(userCache, "conceptgraph")
	}
	ext := path.Ext(strings.SplitN(url, "?", 2)[0])
	if strings.HasSuffix(strings.ToLower(url), ".json.gz") {
		ext = ".json.gz"
	}
	if ext == "" {
		ext = ".json"
	}
	name := fmt.Sprintf("seed-%08x%s", crc32.ChecksumIEEE([]byte(url)), ext)
	filePath := filepath.Join(base, name)
	if !noCache {
		if st, err := os.Stat(filePath); err == nil && st.Size() > 0 {
			return base, filePath, true, nil
		}
	}
	return base, filePath, false, nil
}
