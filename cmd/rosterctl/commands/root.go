package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"rollcall/internal/config"
	"rollcall/internal/hackerrank"
	"rollcall/internal/leetcode"
	"rollcall/internal/logging"
	"rollcall/internal/roster"
)

// options are shared by every subcommand. Unset flags fall back to the loaded config.
type options struct {
	rosterPath    string
	hackerRankURL string
	leetCodeURL   string
	timeout       time.Duration
	verbose       bool

	cfg    config.Config
	logger *slog.Logger
}

var (
	bad  = color.New(color.FgRed)
	good = color.New(color.FgGreen)
	dim  = color.New(color.FgHiBlack)
)

func NewRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "rosterctl",
		Short:         "rosterctl looks up students and their coding-platform stats from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.rosterPath, "roster", "r", "", "roster file (.csv or .xlsx); defaults to ROSTER_PATH")
	flags.StringVar(&opts.hackerRankURL, "hackerrank-url", "", "badge service base URL")
	flags.StringVar(&opts.leetCodeURL, "leetcode-url", "", "LeetCode stats service base URL")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (defaults to the configured platform timeouts)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log fetch failures")

	cmd.AddCommand(
		newLookupCmd(opts),
		newBadgesCmd(opts),
		newLeetCodeCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

func ExecuteContext(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		bad.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *options) load(stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	o.cfg = cfg
	if o.rosterPath == "" {
		o.rosterPath = cfg.RosterPath
	}
	if o.hackerRankURL == "" {
		o.hackerRankURL = cfg.HackerRankBadgeURL
	}
	if o.leetCodeURL == "" {
		o.leetCodeURL = cfg.LeetCodeStatsURL
	}

	level := "error"
	if o.verbose {
		level = "debug"
	}
	o.logger = logging.Setup(stderr, level, "text")
	return nil
}

func (o *options) badgeClient() *hackerrank.Client {
	timeout := o.cfg.BadgeTimeout()
	if o.timeout > 0 {
		timeout = o.timeout
	}
	return hackerrank.NewClient(o.hackerRankURL, timeout, o.logger)
}

func (o *options) statsClient() *leetcode.Client {
	timeout := o.cfg.StatsTimeout()
	if o.timeout > 0 {
		timeout = o.timeout
	}
	return leetcode.NewClient(o.leetCodeURL, timeout, o.logger)
}

func (o *options) loadRoster() (*roster.Store, error) {
	if o.rosterPath == "" {
		return nil, fmt.Errorf("no roster given: pass --roster or set ROSTER_PATH")
	}
	f, err := os.Open(o.rosterPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := roster.ParseFile(o.rosterPath, f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", o.rosterPath, err)
	}
	store := roster.NewStore()
	store.Replace(r, o.rosterPath)
	return store, nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}
