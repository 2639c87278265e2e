package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"newsletter-scrapers/internal/adapter/wechat"
	"newsletter-scrapers/internal/config"
	"newsletter-scrapers/internal/di"
	"newsletter-scrapers/internal/domain/model"
	"newsletter-scrapers/internal/usecase"
)

var (
	captureListen *string
	captureOnce   *bool
)

func init() {
	captureListen = wechatCaptureCmd.Flags().String("listen", ":8080", "Proxy listen address.")
	captureOnce = wechatCaptureCmd.Flags().Bool("once", false, "Exit after the first credentials are saved.")
	wechatCmd.AddCommand(wechatTestCmd, wechatArticleCmd, wechatCaptureCmd)
	rootCmd.AddCommand(wechatCmd)
}

var wechatCmd = &cobra.Command{
	Use:   "wechat",
	Short: "Fetches 公众号 articles with credentials captured from the WeChat app.",
}

var wechatTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Checks that the captured credentials are still accepted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withWeChat(cmd.Context(), func(w *usecase.WeChatScrape) error {
			err := w.Verify(cmd.Context())
			if errors.Is(err, model.ErrUnverified) {
				fmt.Fprintf(os.Stdout, "⚠️  WeChat credentials present but not verified: %v\n", err)
				fmt.Fprintln(os.Stdout, "👉 open an article through `scraper wechat capture` to also capture appmsg_token")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "✅ WeChat credentials accepted")
			return nil
		})
	},
}

var wechatArticleCmd = &cobra.Command{
	Use:   "article <url>",
	Short: "Saves one article with its read and like counts.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWeChat(cmd.Context(), func(w *usecase.WeChatScrape) error {
			res, err := w.Article(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			item := res.Batch.Items[0]
			fmt.Fprintf(os.Stdout, "📰 %s\n   %s", item.Title, item.AuthorUsername)
			if item.ImpressionsViews != nil {
				fmt.Fprintf(os.Stdout, " · %d reads · %d likes", *item.ImpressionsViews, item.ImpressionsLikes)
			}
			fmt.Fprintln(os.Stdout)
			if msg := item.MetadataString("metrics_error"); msg != "" {
				fmt.Fprintf(os.Stdout, "⚠️  metrics unavailable: %s\n", msg)
			}
			printSaved(res)
			return nil
		})
	},
}

var wechatCaptureCmd = &cobra.Command{
	Use:   "capture [--listen :8080] [--once]",
	Short: "Runs a MITM proxy that captures WeChat credentials from your phone.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		capture, err := wechat.NewCapture(cfg.WeChatConfigFile, logger)
		if err != nil {
			return err
		}
		listener, err := net.Listen("tcp", *captureListen)
		if err != nil {
			return fmt.Errorf("listen %s: %w", *captureListen, err)
		}
		server := &http.Server{Handler: capture.Handler(), ReadHeaderTimeout: 30 * time.Second}

		errCh := make(chan error, 1)
		go func() { errCh <- server.Serve(listener) }()

		fmt.Fprintf(os.Stdout, "🔌 Proxy listening on %s\n", listener.Addr())
		fmt.Fprintln(os.Stdout, "1. Point your phone's Wi-Fi HTTP proxy at this machine and port")
		fmt.Fprintf(os.Stdout, "2. Open http://<this machine>%s/ca.pem on the phone and trust the certificate\n", portOf(listener.Addr()))
		fmt.Fprintln(os.Stdout, "3. Open any 公众号 article in WeChat")
		fmt.Fprintf(os.Stdout, "The CA is unique to this install (%s); remove its trust from the phone when done\n", capture.CAPath())
		fmt.Fprintf(os.Stdout, "Credentials are written to %s\n", config.LocalPath(cfg.WeChatConfigFile))

		err = waitForCapture(cmd.Context(), capture, errCh)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return err
	},
}

func waitForCapture(ctx context.Context, capture *wechat.Capture, errCh <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case creds := <-capture.Saved():
			fmt.Fprintf(os.Stdout, "✅ Captured credentials (fetch: %t, metrics: %t)\n", creds.CanFetch(), creds.CanReadMetrics())
			if *captureOnce && creds.CanFetch() {
				return nil
			}
		}
	}
}

func portOf(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return fmt.Sprintf(":%d", tcp.Port)
	}
	return ""
}

func withWeChat(ctx context.Context, run func(*usecase.WeChatScrape) error) error {
	w, cleanup, err := di.InitializeWeChatScrape(ctx, cfg)
	if err != nil {
		return withHint(err, wechatHint(err))
	}
	defer cleanup()
	err = run(w)
	return withHint(err, wechatHint(err))
}

func wechatHint(err error) string {
	switch {
	case errors.Is(err, model.ErrAuthentication):
		return "the captured key expires within hours; run `scraper wechat capture --once` and open an article again"
	case errors.Is(err, model.ErrNotFound):
		return "the article was deleted or the link is incomplete"
	}
	return ""
}
