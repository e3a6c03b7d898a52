// Command parse prints the feed items of a URL using the same pipeline as the API.
// Usage: parse <url> [--limit N] [--format json|rss|atom|jsonfeed] [--no-ai] [--discover]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"parserapi/internal/app"
	hhttp "parserapi/internal/handler/http"
	"parserapi/internal/observability/logging"
	"parserapi/internal/usecase/parse"
)

type options struct {
	limit    int
	format   string
	noAI     bool
	discover bool
	timeout  time.Duration
	logLevel string
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "parse <url>",
		Short: "Parse a URL into feed items",
		Long: "Fetches the URL and prints its entries. RSS, Atom and JSON Feed documents are decoded directly;\n" +
			"other pages are extracted by the configured LLM, with a heuristic fallback.\n" +
			"Configuration is read from the environment and an optional .env file.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "number of items (default PARSER_MAX_ITEMS)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(hhttp.FormatJSON), "output format: json, rss, atom or jsonfeed")
	cmd.Flags().BoolVar(&opts.noAI, "no-ai", false, "skip AI extraction and use the heuristic parser for HTML pages")
	cmd.Flags().BoolVar(&opts.discover, "discover", false, "follow feed links advertised by HTML pages")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 90*time.Second, "overall time limit; 0 disables it")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	return cmd
}

func run(ctx context.Context, stdout, stderr io.Writer, rawURL string, opts options) error {
	format, err := hhttp.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.limit < 0 {
		return fmt.Errorf("limit must be a positive integer")
	}

	logger := logging.New(logging.Options{Level: opts.logLevel, Format: "text", Writer: stderr})

	a, err := app.New(ctx, logger, app.Options{DisableAI: opts.noAI})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	res, err := a.Parser.Parse(logging.WithLogger(ctx, logger), parse.Request{
		URL:      rawURL,
		Limit:    opts.limit,
		Discover: opts.discover,
		NoAI:     opts.noAI,
	})
	if err != nil {
		return err
	}

	return write(stdout, format, res)
}

func write(w io.Writer, format hhttp.Format, res *parse.Result) error {
	if format == hhttp.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(res)
	}

	body, _, err := hhttp.Render(format, res)
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w)
	return err
}
