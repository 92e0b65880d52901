package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/merchdesk/internal/domain"
	"github.com/JonMunkholm/merchdesk/internal/ledger"
	"github.com/JonMunkholm/merchdesk/internal/mastertour"
	"github.com/JonMunkholm/merchdesk/internal/sheet"
	"github.com/JonMunkholm/merchdesk/internal/skumatch"
	"github.com/JonMunkholm/merchdesk/internal/store"
)

func newMatchCmd(deps Deps) *cobra.Command {
	var column, source, sheetName string

	cmd := &cobra.Command{
		Use:   "match FILE",
		Short: "Report how the SKUs in a file resolve against the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			rows, err := sheet.Read(f, args[0], deps.MaxFileSize, sheet.Options{Sheet: sheetName})
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			skus := make([]string, 0, len(rows))
			for _, r := range rows {
				skus = append(skus, r.Get(column))
			}

			return withStore(cmd.Context(), deps, func(st store.Store) error {
				batch, err := skumatch.New(st).ResolveAll(cmd.Context(), skus, domain.Source(source))
				if err != nil {
					return err
				}
				printMatches(cmd, batch)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&column, "column", "SKU", "column holding the SKUs")
	cmd.Flags().StringVar(&source, "source", string(domain.SourceUnknown), "source system of the file")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "worksheet to read from an XLSX file (default: first)")
	return cmd
}

func printMatches(cmd *cobra.Command, batch skumatch.Batch) {
	out := cmd.OutOrStdout()
	s := batch.Stats
	fmt.Fprintf(out, "SKUs: %d  exact: %d  identifier: %d  fuzzy: %d  none: %d  match rate: %.1f%%\n",
		s.Total, s.Exact, s.Identifier, s.Fuzzy, s.None, s.MatchRate)

	var unresolved []string
	for sku, m := range batch.Matches {
		if !m.Resolved() {
			unresolved = append(unresolved, sku)
		}
	}
	if len(unresolved) == 0 {
		return
	}
	slices.Sort(unresolved)
	fmt.Fprintln(out, "Unresolved:")
	for _, sku := range unresolved {
		line := "  " + sku
		if sug := batch.Matches[sku].Suggestions; len(sug) > 0 {
			line += " (did you mean " + strings.Join(sug, ", ") + "?)"
		}
		fmt.Fprintln(out, line)
	}
}

func newStockCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "stock SKU",
		Short: "Show on-hand quantities for a SKU by inventory state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), deps, func(st store.Store) error {
				m, err := skumatch.New(st).Resolve(cmd.Context(), args[0], domain.SourceManual)
				if err != nil {
					return err
				}
				if !m.Resolved() {
					msg := fmt.Sprintf("SKU not found: %s", args[0])
					if len(m.Suggestions) > 0 {
						msg += " (did you mean " + strings.Join(m.Suggestions, ", ") + "?)"
					}
					return errors.New(msg)
				}

				stock, err := ledger.New(st).Summary(cmd.Context(), m.VariantID.UUID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s match)\n", m.MatchedSKU, m.Confidence)
				for _, state := range domain.InventoryStates {
					fmt.Fprintf(out, "  %-12s %d\n", state, stock.ByState[state])
				}
				fmt.Fprintf(out, "  %-12s %d\n", "total", stock.Total)
				return nil
			})
		},
	}
}

func newToursCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "tours",
		Short: "List tours from the tour management API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.Tours == nil {
				return mastertour.ErrNotConfigured
			}
			tours, err := deps.Tours.Tours(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tours) == 0 {
				fmt.Fprintln(out, "no tours")
				return nil
			}
			for _, t := range tours {
				dates := strings.Trim(t.StartDate+" - "+t.EndDate, " -")
				fmt.Fprintf(out, "%s  %s  %s\n", t.ID, t.Name, dates)
			}
			return nil
		},
	}
}
