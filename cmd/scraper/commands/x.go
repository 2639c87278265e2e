package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"newsletter-scrapers/internal/di"
	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/usecase"
)

var xLimit *int

func init() {
	xLimit = xCmd.PersistentFlags().Int("limit", 20, "Maximum number of tweets.")
	xCmd.AddCommand(xTestCmd, xUserCmd, xSearchCmd)
	rootCmd.AddCommand(xCmd)
}

var xCmd = &cobra.Command{
	Use:   "x",
	Short: "Reads X timelines with cookies exported from a logged-in browser.",
}

var xTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Checks that the exported cookies still log in.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withX(cmd.Context(), func(x *usecase.XScrape) error {
			account, err := x.Verify(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "✅ Logged in as @%s\n", account.ScreenName)
			return nil
		})
	},
}

var xUserCmd = &cobra.Command{
	Use:   "user <handle> [--limit N]",
	Short: "Saves the latest tweets of a user.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkLimit(*xLimit); err != nil {
			return err
		}
		return withX(cmd.Context(), func(x *usecase.XScrape) error {
			res, err := x.User(cmd.Context(), args[0], *xLimit)
			return printTweets(res, err)
		})
	},
}

var xSearchCmd = &cobra.Command{
	Use:   "search <query> [--limit N]",
	Short: "Saves the latest tweets matching a query.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkLimit(*xLimit); err != nil {
			return err
		}
		return withX(cmd.Context(), func(x *usecase.XScrape) error {
			res, err := x.Search(cmd.Context(), strings.Join(args, " "), *xLimit)
			return printTweets(res, err)
		})
	},
}

func withX(ctx context.Context, run func(*usecase.XScrape) error) error {
	x, cleanup, err := di.InitializeXScrape(ctx, cfg)
	if err != nil {
		return withHint(err, xHint(err))
	}
	defer cleanup()
	err = run(x)
	return withHint(err, xHint(err))
}

func xHint(err error) string {
	switch {
	case errors.Is(err, model.ErrMissingCredentials), errors.Is(err, model.ErrAuthentication):
		return fmt.Sprintf("log in to x.com in a browser, export the cookies with Cookie-Editor (auth_token and ct0 are required) and save them to %s", cfg.XCookiesFile)
	case errors.Is(err, model.ErrNotFound):
		return "check the handle; suspended and renamed accounts are not found"
	}
	return ""
}

func printTweets(res *usecase.Result, err error) error {
	if err != nil {
		return err
	}
	if res == nil {
		fmt.Fprintln(os.Stdout, "⚠️  No tweets found, nothing saved")
		return nil
	}
	printItems(os.Stdout, res.Batch.Items)
	printSaved(res)
	return nil
}
