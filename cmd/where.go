package cmd

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/seamui/seamui/color"
	"github.com/seamui/seamui/style"
	"github.com/seamui/seamui/util"
	"github.com/seamui/seamui/where"
	"github.com/spf13/cobra"
)

type location struct {
	name   string
	path   func() string
	hidden bool
}

var locations = []location{
	{name: "config", path: where.Config},
	{name: "anchors", path: where.Anchors},
	{name: "sources", path: where.Sources},
	{name: "logs", path: where.Logs},
	{name: "cache", path: where.Cache, hidden: true},
	{name: "assets", path: where.Assets, hidden: true},
	{name: "temp", path: where.Temp, hidden: true},
}

func locationNames() []string {
	return lo.Map(locations, func(l location, _ int) string { return l.name })
}

func init() {
	rootCmd.AddCommand(whereCmd)
}

var whereCmd = &cobra.Command{
	Use:       "where [" + strings.Join(locationNames(), "|") + "]",
	Short:     "Print the paths seamui reads and writes",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: locationNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			l, ok := lo.Find(locations, func(l location) bool { return l.name == args[0] })
			if !ok {
				return fmt.Errorf("unknown location %q, expected one of %s", args[0], strings.Join(locationNames(), ", "))
			}
			cmd.Println(l.path())
			return nil
		}

		header := style.New().Bold(true).Foreground(color.HiPurple).Render
		shown := lo.Reject(locations, func(l location, _ int) bool { return l.hidden })
		for i, l := range shown {
			if i > 0 {
				cmd.Println()
			}
			cmd.Println(header(util.Capitalize(l.name)))
			cmd.Println(l.path())
		}
		return nil
	},
}
