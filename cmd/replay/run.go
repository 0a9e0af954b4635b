package main

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ottermap/internal/config"
	"ottermap/internal/replay"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	copyResult  bool
	snapshotDir string
	snapshotExt string
	compact     bool
)

var runCmd = &cobra.Command{
	Use:   "run <pattern>...",
	Short: "Run scenario files and print their features",
	Long: `Run expands each pattern (** matches nested directories), plays every
matching scenario and prints one GeoJSON FeatureCollection per scenario.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var encodeSnapshot func(io.Writer, image.Image) error
		if snapshotDir != "" {
			enc, err := replay.SnapshotEncoder(snapshotExt)
			if err != nil {
				return err
			}
			encodeSnapshot = enc
		}
		matches, err := replay.Expand(args)
		if err != nil {
			return err
		}
		snapshots, err := snapshotPaths(matches)
		if err != nil {
			return err
		}

		opts := replay.Options{Logger: logger}
		if configPath != "" {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			if opts.Engine, err = cfg.EngineOptions(); err != nil {
				return err
			}
		}
		runner := replay.NewRunner(opts)

		var outputs []string
		for _, m := range matches {
			path := m.Path
			sc, err := replay.Load(path)
			if err != nil {
				return err
			}
			res, err := runner.Run(cmd.Context(), sc)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out, err := encode(res)
			if err != nil {
				return err
			}
			outputs = append(outputs, out)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d features\n", sc.Name, res.Count)

			if snap, ok := snapshots[path]; ok {
				if err := writeSnapshot(snap, res.Snapshot, encodeSnapshot); err != nil {
					return err
				}
			}
		}

		if copyResult {
			if err := clipboard.WriteAll(strings.Join(outputs, "\n")); err != nil {
				return fmt.Errorf("copying to clipboard: %w", err)
			}
		}
		return nil
	},
}

func encode(res *replay.Result) (string, error) {
	var (
		data []byte
		err  error
	)
	if compact {
		data, err = json.Marshal(res.Features)
	} else {
		data, err = json.MarshalIndent(res.Features, "", "  ")
	}
	return string(data), err
}

// snapshotPaths maps each scenario to its snapshot file, keeping the
// directories below the pattern root so equal base names do not collide.
func snapshotPaths(matches []replay.Match) (map[string]string, error) {
	if snapshotDir == "" {
		return nil, nil
	}
	ext := "." + strings.ToLower(strings.TrimPrefix(snapshotExt, "."))
	paths := make(map[string]string, len(matches))
	owner := make(map[string]string, len(matches))
	for _, m := range matches {
		out := filepath.Join(snapshotDir, strings.TrimSuffix(m.Rel, filepath.Ext(m.Rel))+ext)
		if prev, ok := owner[out]; ok {
			return nil, fmt.Errorf("snapshot %s would be written for both %s and %s", out, prev, m.Path)
		}
		owner[out] = m.Path
		paths[m.Path] = out
	}
	return paths, nil
}

func writeSnapshot(out string, img image.Image, encode func(io.Writer, image.Image) error) error {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		os.Remove(out)
		return fmt.Errorf("snapshot %s: %w", out, err)
	}
	return f.Close()
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config supplying style and snap tolerance")
	runCmd.Flags().BoolVar(&copyResult, "copy", false, "Copy the GeoJSON output to the clipboard")
	runCmd.Flags().StringVar(&snapshotDir, "snapshot-dir", "", "Write a rendering of each final map to this directory")
	runCmd.Flags().StringVar(&snapshotExt, "snapshot-format", "png", "Snapshot format: png, bmp, tiff")
	runCmd.Flags().BoolVar(&compact, "compact", false, "Print GeoJSON on a single line")
	rootCmd.AddCommand(runCmd)
}
