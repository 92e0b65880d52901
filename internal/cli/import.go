package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/merchdesk/internal/importer"
	"github.com/JonMunkholm/merchdesk/internal/sheet"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

var importShort = map[importer.Kind]string{
	importer.KindCatalog:     "Import a storefront product export",
	importer.KindSales:       "Import an online sales report",
	importer.KindVenueSales:  "Import a venue point-of-sale item report for one show",
	importer.KindVenueTotals: "Import per-night venue totals for a tour",
	importer.KindMetadata:    "Import merch cost and supplier metadata",
}

// job is one import: a file, the importer to run and its tour scope.
type job struct {
	Kind  importer.Kind
	File  string
	Sheet string
	Tour  string
	Show  string
}

func importCommands(deps Deps) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(importer.Kinds))
	for _, kind := range importer.Kinds {
		cmds = append(cmds, newImportCmd(deps, kind))
	}
	return cmds
}

func newImportCmd(deps Deps, kind importer.Kind) *cobra.Command {
	j := job{Kind: kind}

	cmd := &cobra.Command{
		Use:   string(kind) + " FILE",
		Short: importShort[kind],
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j.File = args[0]
			return withStore(cmd.Context(), deps, func(st store.Store) error {
				runner := importer.NewRunner(st, nil, deps.Timeout)
				res, err := runJob(cmd.Context(), runner, deps.MaxFileSize, j)
				if err != nil {
					return err
				}
				printReport(cmd.OutOrStdout(), kind, j.File, res)
				if !res.Summary().Success {
					return errImportFailed
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&j.Sheet, "sheet", "", "worksheet to read from an XLSX file (default: first)")
	if kind.NeedsTour() {
		cmd.Flags().StringVar(&j.Tour, "tour", "", "tour id (required)")
		cmd.MarkFlagRequired("tour")
	}
	if kind == importer.KindVenueSales {
		cmd.Flags().StringVar(&j.Show, "show", "", "show id (default: the tour's first show)")
	}
	return cmd
}

// runJob decodes the job's file and runs it. Request problems are errors;
// row problems are in the result.
func runJob(ctx context.Context, runner *importer.Runner, maxSize int64, j job) (importer.Result, error) {
	req := importer.Request{Kind: j.Kind}

	var err error
	if req.TourID, err = optionalID("tour", j.Tour); err != nil {
		return nil, err
	}
	if req.ShowID, err = optionalID("show", j.Show); err != nil {
		return nil, err
	}

	f, err := os.Open(j.File)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", j.File, err)
	}
	defer f.Close()

	req.Rows, err = sheet.Read(f, j.File, maxSize, sheet.Options{Sheet: j.Sheet})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", j.File, err)
	}
	return runner.Run(ctx, req)
}

func optionalID(name, s string) (uuid.NullUUID, error) {
	if s == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.NullUUID{}, fmt.Errorf("invalid %s id %q: %w", name, s, err)
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}
