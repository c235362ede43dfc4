// Command webinclude expands {{#webinclude ...}} directives in markdown.
//
// Run without arguments it is an mdBook preprocessor: add
//
//	[preprocessor.webinclude]
//	headers = { Authorization = "token ..." }
//
// to book.toml. The expand and build subcommands work on plain files.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dgallion1/webinclude/internal/book"
	"github.com/dgallion1/webinclude/internal/config"
	"github.com/dgallion1/webinclude/internal/fetch"
	"github.com/dgallion1/webinclude/internal/include"
	"github.com/dgallion1/webinclude/internal/mdbook"
	"github.com/dgallion1/webinclude/internal/render"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	logLevel    string
	headersFile string
	cfg         config.Config
}

func (o *options) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(o.logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *options) client() *fetch.Client {
	return fetch.NewClient(o.cfg.FetchTimeout, o.cfg.FetchMaxBytes, o.cfg.FetchUserAgent)
}

func (o *options) expander(f include.Fetcher, log *slog.Logger) (*include.Expander, error) {
	headers, err := config.LoadHeaders(o.headersFile, log)
	if err != nil {
		return nil, err
	}
	return include.NewExpander(include.NewResolver(f, headers), log), nil
}

func rootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{cfg: config.Load()}

	cmd := &cobra.Command{
		Use:   "webinclude",
		Short: "Include remote files in markdown",
		Long: `webinclude replaces {{#webinclude <url> [<lines>|<anchor>]}} directives
with the referenced remote content.

Without a subcommand it runs as an mdBook preprocessor, reading
[context, book] JSON from stdin and writing the expanded book to stdout.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger(stderr)
			client := opts.client()
			defer client.Close()
			return mdbook.New(client, log).Run(cmd.Context(), stdin, stdout)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.DurationVar(&opts.cfg.FetchTimeout, "timeout", opts.cfg.FetchTimeout, "Per-request fetch timeout")
	pf.Int64Var(&opts.cfg.FetchMaxBytes, "max-bytes", opts.cfg.FetchMaxBytes, "Maximum size of a fetched body")
	pf.StringVar(&opts.cfg.FetchUserAgent, "user-agent", opts.cfg.FetchUserAgent, "User-Agent sent with every fetch")

	cmd.AddCommand(
		supportsCmd(),
		expandCmd(opts, stdin, stdout, stderr),
		buildCmd(opts, stderr),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "webinclude version %s\n", Version)
			},
		},
	)
	return cmd
}

func supportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supports <renderer>",
		Short: "Report whether a renderer is supported (exit status 0 if so)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := mdbook.New(nil, slog.Default())
			if !p.SupportsRenderer(args[0]) {
				return fmt.Errorf("renderer %q is not supported", args[0])
			}
			return nil
		},
	}
}

func expandCmd(opts *options, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand [file]",
		Short: "Expand one markdown file (or stdin) to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := stdin
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			log := opts.logger(stderr)
			client := opts.client()
			defer client.Close()
			exp, err := opts.expander(client, log)
			if err != nil {
				return err
			}

			_, err = io.WriteString(stdout, exp.Expand(cmd.Context(), string(data)))
			return err
		},
	}
	cmd.Flags().StringVar(&opts.headersFile, "headers", "", "YAML or JSONC file with a headers: table")
	return cmd
}

func buildCmd(opts *options, stderr io.Writer) *cobra.Command {
	var (
		outDir string
		ignore []string
		html   bool
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "build <dir>",
		Short: "Expand every markdown chapter under dir into an output directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := opts.logger(stderr)
			b, err := book.Load(args[0], ignore...)
			if err != nil {
				return err
			}

			client := opts.client()
			defer client.Close()
			exp, err := opts.expander(client, log)
			if err != nil {
				return err
			}

			var failed int
			var renderErr error
			b.ForEachChapter(func(ch *book.Chapter) {
				content, rep := exp.ExpandReport(cmd.Context(), ch.Content)
				failed += len(rep.Failed)
				if html && renderErr == nil {
					content, renderErr = render.HTML(content)
				}
				ch.Content = content
				log.Debug("expanded chapter", "chapter", ch.Path, "resolved", rep.Resolved, "failed", len(rep.Failed))
			})
			if renderErr != nil {
				return renderErr
			}

			ext := ""
			if html {
				ext = ".html"
			}
			if err := b.Write(outDir, ext); err != nil {
				return err
			}

			stats := client.Stats.Snapshot()
			log.Info("build complete",
				"chapters", len(b.Chapters),
				"failed_links", failed,
				"fetches", stats.Count,
				"fetch_p95_ms", stats.P95Ms,
			)
			if strict && failed > 0 {
				return fmt.Errorf("%d links could not be resolved", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "book-out", "Output directory")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "Glob of chapter paths to skip (repeatable, ** supported)")
	cmd.Flags().BoolVar(&html, "html", false, "Render chapters to HTML")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail if any link could not be resolved")
	cmd.Flags().StringVar(&opts.headersFile, "headers", "", "YAML or JSONC file with a headers: table")
	return cmd
}
