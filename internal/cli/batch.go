package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/merchdesk/internal/importer"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// Manifest is an ordered list of imports run by the batch command.
//
//	stop_on_error: true
//	imports:
//	  - kind: catalog
//	    file: products_export.csv
//	  - kind: venue-sales
//	    file: night1.xlsx
//	    sheet: Items
//	    tour: 6f1c3a7e-...
type Manifest struct {
	StopOnError bool            `yaml:"stop_on_error"`
	Imports     []ManifestEntry `yaml:"imports"`
}

type ManifestEntry struct {
	Kind  string `yaml:"kind"`
	File  string `yaml:"file"`
	Sheet string `yaml:"sheet,omitempty"`
	Tour  string `yaml:"tour,omitempty"`
	Show  string `yaml:"show,omitempty"`
}

// LoadManifest reads a manifest. Relative file paths are resolved against
// the manifest's directory.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Imports) == 0 {
		return Manifest{}, fmt.Errorf("manifest %s lists no imports", path)
	}

	dir := filepath.Dir(path)
	for i, e := range m.Imports {
		if _, err := importer.ParseKind(e.Kind); err != nil {
			return Manifest{}, fmt.Errorf("import %d: %w", i+1, err)
		}
		if e.File == "" {
			return Manifest{}, fmt.Errorf("import %d: file is required", i+1)
		}
		if !filepath.IsAbs(e.File) {
			m.Imports[i].File = filepath.Join(dir, e.File)
		}
	}
	return m, nil
}

func newBatchCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "batch MANIFEST.yaml",
		Short: "Run the imports listed in a manifest, in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := LoadManifest(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), deps, func(st store.Store) error {
				runner := importer.NewRunner(st, nil, deps.Timeout)
				out := cmd.OutOrStdout()

				failed := 0
				for i, e := range m.Imports {
					j := job{Kind: importer.Kind(e.Kind), File: e.File, Sheet: e.Sheet, Tour: e.Tour, Show: e.Show}
					res, err := runJob(cmd.Context(), runner, deps.MaxFileSize, j)
					switch {
					case err != nil:
						failed++
						fmt.Fprintf(out, "%s %s: FAILED: %v\n", j.Kind, j.File, err)
					default:
						printReport(out, j.Kind, j.File, res)
						if !res.Summary().Success {
							failed++
						}
					}
					if failed > 0 && m.StopOnError {
						if rest := len(m.Imports) - i - 1; rest > 0 {
							fmt.Fprintf(out, "stopping, %d imports skipped\n", rest)
						}
						break
					}
				}

				if failed > 0 {
					return fmt.Errorf("%d of %d imports failed", failed, len(m.Imports))
				}
				return nil
			})
		},
	}
}
