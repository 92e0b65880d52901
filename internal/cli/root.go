// Package cli implements the merchimport command line: one-shot imports,
// manifest-driven batches, SKU match reports, stock lookups and the tour
// list.
package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/merchdesk/internal/mastertour"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

// TourLister is the part of the tour API the CLI uses.
type TourLister interface {
	Tours(ctx context.Context) ([]mastertour.Tour, error)
}

// Deps are the collaborators the commands run against. OpenStore is called
// once per command that needs data; the returned func releases it.
type Deps struct {
	OpenStore   func(ctx context.Context) (store.Store, func(), error)
	Tours       TourLister
	Timeout     time.Duration
	MaxFileSize int64
}

// errImportFailed is returned when an import ran but reported errors.
var errImportFailed = errors.New("import finished with errors")

func NewRootCmd(deps Deps) *cobra.Command {
	if deps.MaxFileSize <= 0 {
		deps.MaxFileSize = 20 << 20
	}

	cmd := &cobra.Command{
		Use:   "merchimport",
		Short: "Import merch reports into the inventory database",
		Long: `merchimport loads vendor and venue reports (CSV or XLSX) into the
merch inventory database.

Examples:
  merchimport catalog products_export.csv
  merchimport venue-sales night1.xlsx --tour 6f1c... --show 0b2e...
  merchimport batch imports.yaml
  merchimport match sales.csv --column SKU`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, c := range importCommands(deps) {
		cmd.AddCommand(c)
	}
	cmd.AddCommand(newBatchCmd(deps))
	cmd.AddCommand(newMatchCmd(deps))
	cmd.AddCommand(newStockCmd(deps))
	cmd.AddCommand(newToursCmd(deps))
	return cmd
}

// withStore opens the store, runs fn and releases the store.
func withStore(ctx context.Context, deps Deps, fn func(store.Store) error) error {
	if deps.OpenStore == nil {
		return errors.New("no database configured")
	}
	st, release, err := deps.OpenStore(ctx)
	if err != nil {
		return err
	}
	if release != nil {
		defer release()
	}
	return fn(st)
}
