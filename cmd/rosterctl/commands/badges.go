package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"rollcall/internal/hackerrank"
	"rollcall/internal/roster"
)

func newBadgesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "badges USERNAME|PROFILE_URL",
		Short: "Fetches a HackerRank user's badges and star counts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			if strings.Contains(username, "/") {
				user, ok := roster.Username(username, roster.HackerRankDomain)
				if !ok {
					return fmt.Errorf("not a HackerRank profile link: %s", username)
				}
				username = user
			}

			badges, err := opts.badgeClient().Fetch(cmd.Context(), username)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Badge", "Stars", ""})
			for _, b := range badges {
				t.AppendRow(table.Row{b.Name, b.Stars, strings.Repeat("★", b.Stars)})
			}
			t.AppendFooter(table.Row{"Total", hackerrank.TotalStars(badges), ""})
			t.Render()
			return nil
		},
	}
}
