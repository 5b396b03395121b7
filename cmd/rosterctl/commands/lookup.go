package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"rollcall/internal/domain"
	"rollcall/internal/services/export"
	"rollcall/internal/services/students"
)

func newLookupCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup ROLL...",
		Short: "Looks up students by roll number and prints their platform stats.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.loadRoster()
			if err != nil {
				return err
			}
			svc := students.New(store, opts.badgeClient(), opts.statsClient())

			out := cmd.OutOrStdout()
			missing := 0
			for _, roll := range args {
				prof, err := svc.Lookup(cmd.Context(), roll)
				var notFound *students.NotFoundError
				switch {
				case errors.As(err, &notFound):
					missing++
					bad.Fprintf(out, "%s: student not found", notFound.Roll)
					if len(notFound.Suggestions) > 0 {
						dim.Fprintf(out, " (did you mean %s?)", strings.Join(notFound.Suggestions, ", "))
					}
					fmt.Fprintln(out)
					continue
				case err != nil:
					return err
				}
				printProfile(out, prof)
			}
			if missing > 0 {
				return fmt.Errorf("%d of %d roll numbers not found", missing, len(args))
			}
			return nil
		},
	}
}

func printProfile(w io.Writer, prof domain.Profile) {
	good.Fprintf(w, "%s  %s\n", prof.Student.RollNumber, prof.Student.Name)

	t := newTable(w)
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, f := range prof.Student.Fields {
		t.AppendRow(table.Row{f.Column, f.Value})
	}
	t.AppendSeparator()

	if st := prof.LeetCode; st != nil {
		t.AppendRows([]table.Row{
			{"LeetCode", prof.LeetCodeUsername},
			{"Solved (easy/medium/hard)", fmt.Sprintf("%d (%d/%d/%d)", st.TotalSolved, st.EasySolved, st.MediumSolved, st.HardSolved)},
			{"Ranking", st.Ranking},
		})
	} else {
		t.AppendRow(table.Row{"LeetCode", "no data"})
	}

	if prof.Badges != nil {
		t.AppendRow(table.Row{"HackerRank", prof.HackerRankUsername})
		t.AppendRow(table.Row{"Badges", export.FormatBadges(prof.Badges)})
	} else {
		t.AppendRow(table.Row{"HackerRank", "no badges"})
	}
	t.Render()
}
