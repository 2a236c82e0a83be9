package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tonasket-wiki/directory-cli/internal/dedup"
	"github.com/tonasket-wiki/directory-cli/internal/directory"
	"github.com/tonasket-wiki/directory-cli/internal/ingest"
	"github.com/tonasket-wiki/directory-cli/internal/model"
	"github.com/tonasket-wiki/directory-cli/internal/normalize"
	"github.com/tonasket-wiki/directory-cli/internal/store"
)

var (
	importPath   string
	importSheet  string
	importDirect bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import listings from a CSV or XLSX file",
	Long: "Reads business listings from a file and submits each row through the normal submission flow. " +
		"With --direct, rows skip review and are written straight to the business table. " +
		"Duplicates and invalid rows are skipped and counted, never aborting the import.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		handle := func(in directory.Input) error {
			_, err := env.Service.Submit(ctx, in)
			return err
		}
		var direct *directImporter
		if importDirect {
			direct = newDirectImporter(env.Service, env.Store)
			handle = func(in directory.Input) error {
				return direct.add(ctx, in)
			}
		}

		var counts importCounts
		switch strings.ToLower(filepath.Ext(importPath)) {
		case ".csv":
			counts, err = importCSV(ctx, importPath, handle)
		case ".xlsx":
			counts, err = importXLSX(importPath, importSheet, handle)
		default:
			return eris.Errorf("unsupported file type: %s", importPath)
		}
		if err != nil {
			return err
		}
		if direct != nil {
			if err := direct.flush(ctx); err != nil {
				return err
			}
		}

		zap.L().Info("import complete",
			zap.String("file", importPath),
			zap.Bool("direct", importDirect),
			zap.Int("accepted", counts.accepted),
			zap.Int("duplicates", counts.duplicates),
			zap.Int("invalid", counts.invalid),
		)
		return nil
	},
}

type importCounts struct {
	accepted   int
	duplicates int
	invalid    int
}

func importCSV(ctx context.Context, path string, handle func(directory.Input) error) (importCounts, error) {
	f, err := os.Open(path)
	if err != nil {
		return importCounts{}, eris.Wrap(err, "open csv")
	}
	defer f.Close()

	var counts importCounts
	rowCh, errCh := ingest.StreamCSV(ctx, f, ingest.CSVOptions{})
	for in := range rowCh {
		counts.tally(handle(in))
	}
	if err := <-errCh; err != nil {
		return counts, err
	}
	return counts, nil
}

func importXLSX(path, sheet string, handle func(directory.Input) error) (importCounts, error) {
	inputs, err := ingest.ReadXLSX(path, ingest.XLSXOptions{SheetName: sheet})
	if err != nil {
		return importCounts{}, err
	}

	var counts importCounts
	for _, in := range inputs {
		counts.tally(handle(in))
	}
	return counts, nil
}

// directImporter collects dedup-checked rows and persists them as
// approved businesses in one write at the end. Rows whose identity key
// repeats within the file count as duplicates.
type directImporter struct {
	svc     *directory.Service
	st      store.Store
	seen    map[string]bool
	pending []model.Business
}

func newDirectImporter(svc *directory.Service, st store.Store) *directImporter {
	return &directImporter{svc: svc, st: st, seen: make(map[string]bool)}
}

func (d *directImporter) add(ctx context.Context, in directory.Input) error {
	b, err := d.svc.Import(ctx, in)
	if err != nil {
		return err
	}
	if d.seen[b.ID] {
		return &dedup.DuplicateError{Rule: dedup.RuleID, ExistingID: b.ID}
	}
	d.seen[b.ID] = true
	d.pending = append(d.pending, *b)
	return nil
}

func (d *directImporter) flush(ctx context.Context) error {
	if len(d.pending) == 0 {
		return nil
	}
	if bulk, ok := d.st.(store.BulkImporter); ok {
		n, err := bulk.BulkImportBusinesses(ctx, d.pending)
		if err != nil {
			return eris.Wrap(err, "bulk import")
		}
		zap.L().Debug("bulk write complete", zap.Int64("rows", n))
		return nil
	}
	for i := range d.pending {
		if err := d.st.CreateBusiness(ctx, &d.pending[i]); err != nil {
			return eris.Wrap(err, "import business")
		}
	}
	return nil
}

func (c *importCounts) tally(err error) {
	switch {
	case err == nil:
		c.accepted++
	case isDuplicate(err):
		c.duplicates++
		zap.L().Debug("skipping duplicate row", zap.Error(err))
	case isInvalid(err):
		c.invalid++
		zap.L().Debug("skipping invalid row", zap.Error(err))
	default:
		// Store failures and the like still count as invalid rows so
		// one bad write does not abort a long import.
		c.invalid++
		zap.L().Warn("row import failed", zap.Error(err))
	}
}

func isDuplicate(err error) bool {
	var derr *dedup.DuplicateError
	return errors.As(err, &derr)
}

func isInvalid(err error) bool {
	var verr *normalize.ValidationError
	return errors.As(err, &verr)
}

func init() {
	importCmd.Flags().StringVar(&importPath, "file", "", "path to CSV or XLSX file (required)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	importCmd.Flags().BoolVar(&importDirect, "direct", false, "write businesses directly, bypassing review")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
