package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newLeetCodeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "leetcode USERNAME",
		Short: "Fetches a LeetCode user's solve counts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.statsClient().Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Total", "Easy", "Medium", "Hard", "Ranking"})
			t.AppendRow(table.Row{st.TotalSolved, st.EasySolved, st.MediumSolved, st.HardSolved, st.Ranking})
			t.Render()
			return nil
		},
	}
}
