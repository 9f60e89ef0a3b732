// Package importcmd handles the import command
package importcmd

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"fjacquet/finances/cmd/root"
	"fjacquet/finances/internal/fileutils"
	"fjacquet/finances/internal/ledger"
	"fjacquet/finances/internal/logging"
	"fjacquet/finances/internal/models"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Options holds the import command flags
type Options struct {
	Dir            string
	KeepSource     bool
	EnforceBalance bool
	SkipInvalid    bool
	Delimiter      string
	Concurrency    int
}

// Result is the outcome of importing one source.
type Result struct {
	Source   string `json:"source"`
	Imported int    `json:"imported"`
	Error    string `json:"error,omitempty"`
}

var opts Options

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "Bulk import transactions from CSV files",
	Long: `Bulk import transactions from CSV files with the columns title,type,value,category.
The first line of every file is a header and is skipped. Rows without a title, type
or value are ignored. Missing categories are created once per import. Imported files
are deleted unless --keep-source is given. Use "-" to read from stdin.

Example:
  finances import january.csv february.csv
  finances import --dir statements/ --concurrency 4`,
	RunE: importFunc,
}

func init() {
	Cmd.Flags().StringVarP(&opts.Dir, "dir", "d", "", "Import every .csv file in a directory")
	Cmd.Flags().BoolVar(&opts.KeepSource, "keep-source", false, "Keep source files after a successful import")
	Cmd.Flags().BoolVar(&opts.EnforceBalance, "enforce-balance", false, "Reject imports whose running balance would go negative")
	Cmd.Flags().BoolVar(&opts.SkipInvalid, "skip-invalid", false, "Skip rows with an invalid type, value or category instead of failing")
	Cmd.Flags().StringVar(&opts.Delimiter, "delimiter", "", "Field delimiter (default from configuration)")
	Cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "j", 0, "Number of files parsed in parallel (default from configuration)")
}

func importFunc(cmd *cobra.Command, args []string) error {
	l, err := root.GetLedger()
	if err != nil {
		return err
	}
	logger := root.GetLogger().WithField(logging.FieldComponent, logging.ComponentCLI)

	sources := slices.Clone(args)
	if opts.Dir != "" {
		files, err := fileutils.ListFilesWithExtension(opts.Dir, ".csv")
		if err != nil {
			return err
		}
		sources = append(sources, files...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no import source given: pass files, - for stdin or --dir")
	}
	if stdin := slices.Index(sources, "-"); stdin >= 0 && slices.Index(sources[stdin+1:], "-") >= 0 {
		return fmt.Errorf("stdin can only be imported once")
	}

	results := make([]Result, len(sources))
	var g errgroup.Group
	g.SetLimit(root.GetContainer().GetConfig().Import.Concurrency)

	var mu sync.Mutex
	var errs []error
	for i, source := range sources {
		g.Go(func() error {
			saved, err := importSource(cmd, l, source)
			results[i] = Result{Source: source, Imported: len(saved)}
			if err != nil {
				results[i].Error = err.Error()
				logger.WithError(err).WithField(logging.FieldFile, source).Error("Import failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", source, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := root.PrintJSON(cmd, results); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func importSource(cmd *cobra.Command, l *ledger.Ledger, source string) ([]models.Transaction, error) {
	if source == "-" {
		return l.Import(cmd.Context(), cmd.InOrStdin())
	}
	return l.ImportFile(cmd.Context(), source)
}
