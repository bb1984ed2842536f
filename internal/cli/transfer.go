package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/reviewsched/internal/database"
	"github.com/example/reviewsched/internal/excel"
)

func newExportCmd() *cobra.Command {
	var learnerID, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a learner's review progress to an .xlsx or .csv file",
		Example: `  reviewsched export --learner alice --out alice.xlsx
  reviewsched export --learner alice --out alice.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			n, err := excel.ExportProgress(cmd.Context(), database.NewProgressRepository(db), learnerID, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", n, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&learnerID, "learner", "", "learner whose progress is exported")
	cmd.Flags().StringVar(&out, "out", "", "output file (.xlsx or .csv)")
	_ = cmd.MarkFlagRequired("learner")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		file  string
		sheet string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load review progress from an .xlsx or .csv file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			cfg := excel.DefaultImportConfig(file)
			cfg.SheetName = sheet
			res, err := excel.ImportProgress(cmd.Context(), database.NewProgressRepository(db), cfg)
			if err != nil {
				return err
			}
			for _, e := range res.Errors {
				log.Warn(e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d rows: %d imported, %d rejected\n",
				res.TotalProcessed, res.Imported, len(res.Errors))
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "input file (.xlsx or .csv)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet to read from an .xlsx file (default: first sheet)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
