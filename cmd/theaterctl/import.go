package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/iliyamo/theater-seat-booking/internal/importer"
)

var importTheater uint64

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk import bookings or sections from files",
	Long: `Import rows from .csv, .json or .txt files.  PATHS is a single file,
a directory (its supported files, not recursive) or a comma separated list.`,
}

var importBookingsCmd = &cobra.Command{
	Use:   "bookings PATHS",
	Short: "Book every row of the given files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if importTheater == 0 {
			return errNoTheater
		}
		paths, err := importer.ResolvePaths(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Bookings.ImportFiles(cmd.Context(), importTheater, paths)
		if err != nil {
			return err
		}
		renderResult("Bookings", res)
		return nil
	},
}

var importSectionsCmd = &cobra.Command{
	Use:   "sections PATHS",
	Short: "Create one single-row section per line of the given files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if importTheater == 0 {
			return errNoTheater
		}
		paths, err := importer.ResolvePaths(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Sections.ImportFiles(cmd.Context(), importTheater, paths)
		if err != nil {
			return err
		}
		renderResult("Sections", res)
		return nil
	},
}

func init() {
	importCmd.PersistentFlags().Uint64Var(&importTheater, "theater", 0, "theater id to import into")
	_ = importCmd.MarkPersistentFlagRequired("theater")
	importCmd.AddCommand(importBookingsCmd, importSectionsCmd)
}

// renderResult prints one row per file and the batch totals.
func renderResult(title string, res *importer.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("%s import %s", title, res.BatchID))
	t.AppendHeader(table.Row{"File", "Rows", "Created", "Skipped", "Errors", "Note"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: 40},
		{Number: 6, WidthMax: 50},
	})
	for _, f := range res.Files {
		t.AppendRow(table.Row{filepath.Base(f.Path), f.Rows, f.Created, f.Skipped, f.Errors, f.Error})
	}
	t.AppendFooter(table.Row{"TOTAL", "", res.Created, res.Skipped, res.Errors, ""})
	t.Render()
}

// errNoTheater guards commands that need --theater.
var errNoTheater = errors.New("--theater must be a positive id")
