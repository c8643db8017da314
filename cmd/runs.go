package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/portfolio-scout/internal/model"
	"github.com/sells-group/portfolio-scout/internal/store"
)

var (
	runsSeedURL string
	runsLimit   int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List scrape run history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, store.RunFilter{
			SeedURL: runsSeedURL,
			Limit:   runsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func formatRunsList(w io.Writer, runs []model.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEED\tSTATUS\tINVESTMENTS\tSTARTED")
	for _, r := range runs {
		investments := "-"
		if r.Result != nil {
			investments = fmt.Sprintf("%d", len(r.Result.Investments))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.SeedURL, r.Status, investments, r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = tw.Flush()
}

func init() {
	runsCmd.Flags().StringVar(&runsSeedURL, "seed", "", "filter by seed URL")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 50, "maximum rows to show")
	rootCmd.AddCommand(runsCmd)
}
