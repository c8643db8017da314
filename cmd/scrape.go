package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/portfolio-scout/internal/pipeline"
)

var (
	scrapeURL      string
	scrapeDepth    int
	scrapeMaxPages int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape portfolio companies from a single investment firm site",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Run(ctx, scrapeURL, scrapeDepth, scrapeMaxPages)
		if err != nil {
			if pipeline.IsValidation(err) {
				return err
			}
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("scrape complete",
			zap.String("seed", result.SeedURL),
			zap.Bool("partial", result.Partial),
			zap.Int("investments", len(result.Investments)),
			zap.Float64("avg_confidence", result.Quality.AverageConfidence),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "seed URL of the investment firm (required)")
	scrapeCmd.Flags().IntVar(&scrapeDepth, "depth", 0, "requested crawl depth (0 = config default; the planner may adjust)")
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "page cap override (0 = config default)")
	_ = scrapeCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(scrapeCmd)
}
