package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/seamui/seamui/icon"
	"github.com/seamui/seamui/util"
	"github.com/seamui/seamui/where"
	"github.com/spf13/cobra"
)

type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	location func() string
}

var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), where.Cache},
	{"asset cache", "assets", mo.Some("a"), where.Assets},
	{"follow history", "queries", mo.Some("q"), where.Queries},
	{"followed anchors", "anchors", mo.None[string](), where.Anchors},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if short, ok := target.argShort.Get(); ok {
			clearCmd.Flags().BoolP(target.argLong, short, false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached and saved files",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}

			anyCleared = true
			erase := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
			err := util.Delete(target.location())
			erase()

			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				handleErr(err)
			}
			cmd.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
