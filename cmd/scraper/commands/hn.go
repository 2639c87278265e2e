package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"newsletter-scrapers/internal/adapter/hackernews"
	"newsletter-scrapers/internal/di"
	"newsletter-scrapers/internal/usecase"
)

var (
	hnNoContent *bool
	hnLimit     *int
	hnSearchMax *int
)

func init() {
	hnNoContent = hnCmd.PersistentFlags().Bool("no-content", false, "Skip fetching linked article content.")
	hnLimit = hnSectionCmd.Flags().Int("limit", 30, "Number of stories to fetch.")
	hnSearchMax = hnSearchCmd.Flags().Int("limit", 50, "Maximum search hits (capped at 100).")
	hnTopCmd.Flags().AddFlag(hnSectionCmd.Flags().Lookup("limit"))

	hnCmd.AddCommand(hnNewsletterCmd, hnTopCmd, hnSectionCmd, hnSearchCmd)
	rootCmd.AddCommand(hnCmd)
}

var hnCmd = &cobra.Command{
	Use:   "hn",
	Short: "Scrapes HackerNews through the Firebase and Algolia APIs.",
}

var hnNewsletterCmd = &cobra.Command{
	Use:   "newsletter [--no-content]",
	Short: "Scrapes every newsletter section, merges duplicates and tags AI relevance.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		scrape, cleanup, err := di.InitializeHackerNews(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := scrape.Newsletter(cmd.Context(), !*hnNoContent)
		if err != nil {
			return err
		}

		t := newTable(os.Stdout)
		t.AppendHeader(table.Row{"Section", "Stories"})
		for _, section := range usecase.NewsletterSections {
			t.AppendRow(table.Row{section.Key, res.Batch.Stats.ItemsBySection[section.Key]})
		}
		t.AppendFooter(table.Row{"unique", res.Batch.Stats.TotalItems})
		t.Render()
		printSaved(res)
		return nil
	},
}

var hnTopCmd = &cobra.Command{
	Use:   "top [--limit N]",
	Short: "Scrapes the front page.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runListing(cmd, "top")
	},
}

var hnSectionCmd = &cobra.Command{
	Use:       "section <top|best|new|ask|show|jobs> [--limit N]",
	Short:     "Scrapes a single listing.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: listingNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := hackernews.Listings[args[0]]; !ok {
			return fmt.Errorf("unknown section %q, expected one of %s", args[0], strings.Join(listingNames(), ", "))
		}
		return runListing(cmd, args[0])
	},
}

var hnSearchCmd = &cobra.Command{
	Use:   "search <query> [--limit N]",
	Short: "Searches stories through Algolia.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkLimit(*hnSearchMax); err != nil {
			return err
		}
		scrape, cleanup, err := di.InitializeHackerNews(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := scrape.Search(cmd.Context(), strings.Join(args, " "), *hnSearchMax)
		if err != nil {
			return err
		}
		printItems(os.Stdout, res.Batch.Items)
		printSaved(res)
		return nil
	},
}

func runListing(cmd *cobra.Command, listing string) error {
	if err := checkLimit(*hnLimit); err != nil {
		return err
	}
	scrape, cleanup, err := di.InitializeHackerNews(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := scrape.Listing(cmd.Context(), listing, *hnLimit, !*hnNoContent)
	if err != nil {
		return err
	}
	printItems(os.Stdout, res.Batch.Items)
	printSaved(res)
	return nil
}

func listingNames() []string {
	names := make([]string, 0, len(hackernews.Listings))
	for name := range hackernews.Listings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
