package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"newsletter-scrapers/internal/curation"
	"newsletter-scrapers/internal/di"
	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/usecase"
)

var (
	curateInput        *string
	curateOutput       *string
	curateMinRelevance *float64
	curatePoolSize     *int
	curatePublish      *int
	curatePreview      *bool
	curateNotify       *bool
)

func init() {
	curateInput = curateCmd.Flags().String("input", "", "Raw batch to curate (default: latest newsletter_enhanced_*.json).")
	curateOutput = curateCmd.Flags().String("output", "", "Curated output path (default: newsletter_curated_<ts>.json).")
	curateMinRelevance = curateCmd.Flags().Float64("min-relevance", -1, "Minimum relevance score 0..1 (default $MIN_RELEVANCE).")
	curatePoolSize = curateCmd.Flags().Int("pool-size", 0, "Candidate pool size (default $POOL_SIZE).")
	curatePublish = curateCmd.Flags().Int("publish", 0, "Items to publish (default $PUBLISH_COUNT).")
	curatePreview = curateCmd.Flags().Bool("preview", false, "Print a markdown preview.")
	curateNotify = curateCmd.Flags().Bool("notify", false, "Post the published items to DISCORD_WEBHOOK_URL.")
	rootCmd.AddCommand(curateCmd)
}

var curateCmd = &cobra.Command{
	Use:   "curate [--input file] [--output file] [--min-relevance x] [--pool-size n] [--publish n] [--preview]",
	Short: "Filters, ranks and groups a HackerNews batch into a newsletter.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if *curateMinRelevance >= 0 {
			cfg.MinRelevance = *curateMinRelevance
		}
		if *curatePoolSize > 0 {
			cfg.PoolSize = *curatePoolSize
		}
		if *curatePublish > 0 {
			cfg.PublishCount = *curatePublish
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		curate, err := di.InitializeCurate(cfg)
		if err != nil {
			return err
		}

		res, err := curate.Run(cmd.Context(), usecase.CurateRequest{
			InputPath:  *curateInput,
			OutputPath: *curateOutput,
			Notify:     *curateNotify,
		})
		if errors.Is(err, model.ErrNotFound) && *curateInput == "" {
			return withHint(err, "run `scraper hn newsletter` first or pass --input")
		}
		if err != nil {
			return err
		}

		printCuration(res)
		if *curatePreview {
			fmt.Fprintln(os.Stdout)
			fmt.Fprint(os.Stdout, curation.Markdown(res.Newsletter))
		}
		return nil
	},
}

func printCuration(res *usecase.CurateResult) {
	stats := res.Newsletter.Stats

	t := newTable(os.Stdout)
	t.SetTitle("Curation of " + res.InputPath)
	t.AppendRows([]table.Row{
		{"input items", stats.InputItems},
		{"filtered: noise", stats.FilteredNoise},
		{"filtered: flamewar", stats.FilteredFlamewar},
		{"filtered: low relevance", stats.FilteredLowRelevance},
		{"hidden: low quality", stats.FilteredLowQuality},
		{"pool", stats.PoolItems},
		{"published", stats.PublishedItems},
	})
	t.AppendSeparator()
	for _, theme := range res.Newsletter.Themes {
		t.AppendRow(table.Row{theme.Name, len(theme.Items)})
	}
	t.Render()
	fmt.Fprintf(os.Stdout, "✅ Saved curated newsletter to %s\n", res.OutputPath)
}
