package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/footfall/internal/loader"
)

var (
	loadVenuesPath     string
	loadVenuesClear    bool
	loadVenuesDryRun   bool
	loadVenuesEncoding string
)

var loadVenuesCmd = &cobra.Command{
	Use:   "loadvenues",
	Short: "Bulk-load the venue catalog from a CSV or XLSX file",
	Long: `Reads the 24-column venue metrics export and inserts it into the
configured store.

Examples:
  # Preview the first rows without writing
  footfall loadvenues --file "Bigbox Stores Metrics.csv" --dry-run

  # Replace the current catalog
  footfall loadvenues --file "Bigbox Stores Metrics.csv" --clear

  # Legacy export in Windows-1252
  footfall loadvenues --file stores.csv --encoding windows-1252`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		venues, rowErrs, err := loader.ReadVenues(loadVenuesPath, loader.Options{Encoding: loadVenuesEncoding})
		if err != nil {
			return eris.Wrap(err, "loadvenues: read file")
		}

		zap.L().Info("read venue file",
			zap.String("file", loadVenuesPath),
			zap.Int("rows", len(venues)),
			zap.Int("errors", len(rowErrs)),
		)
		for i, re := range rowErrs {
			if i >= 5 {
				break
			}
			zap.L().Warn("bad row", zap.Int("line", re.Line), zap.Error(re.Err))
		}

		if loadVenuesDryRun {
			preview := venues
			if len(preview) > 10 {
				preview = preview[:10]
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(preview)
		}

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "loadvenues: open store")
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "loadvenues: migrate")
		}

		if loadVenuesClear {
			if err := st.ClearVenues(ctx); err != nil {
				return eris.Wrap(err, "loadvenues: clear")
			}
			zap.L().Info("cleared venues table")
		}

		inserted, err := st.InsertVenues(ctx, venues)
		if err != nil {
			return eris.Wrap(err, "loadvenues: insert")
		}

		zap.L().Info("load complete", zap.Int("inserted", inserted))
		return nil
	},
}

func init() {
	loadVenuesCmd.Flags().StringVar(&loadVenuesPath, "file", "", "path to venue CSV or XLSX (required)")
	loadVenuesCmd.Flags().BoolVar(&loadVenuesClear, "clear", false, "clear the venues table before inserting")
	loadVenuesCmd.Flags().BoolVar(&loadVenuesDryRun, "dry-run", false, "parse and preview rows, insert nothing")
	loadVenuesCmd.Flags().StringVar(&loadVenuesEncoding, "encoding", "", "source charset for CSV input (default UTF-8)")
	_ = loadVenuesCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(loadVenuesCmd)
}
