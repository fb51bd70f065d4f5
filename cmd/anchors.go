package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/color"
	"github.com/seamui/seamui/icon"
	"github.com/seamui/seamui/inline"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/provider"
	"github.com/seamui/seamui/query"
	"github.com/seamui/seamui/style"
	"github.com/spf13/cobra"
)

func platformIDs() []string {
	return lo.Map(anchor.Platforms(), func(p anchor.Platform, _ int) string {
		return p.ID()
	})
}

func completionPlatforms(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return platformIDs(), cobra.ShellCompDirectiveNoFileComp
}

// parsePlatform suggests the closest platform id when s is unknown.
func parsePlatform(s string) (anchor.Platform, error) {
	p, err := anchor.ParsePlatform(s)
	if err == nil {
		return p, nil
	}

	closest := lo.MinBy(platformIDs(), func(a, b string) bool {
		return levenshtein.Distance(s, a) < levenshtein.Distance(s, b)
	})

	return 0, errors.New(fmt.Sprintf(
		"unknown platform %s, did you mean %s?",
		style.Fg(color.Red)(s),
		style.Fg(color.Yellow)(closest),
	))
}

// parseKeyArgs accepts either "platform room" or "platform/room".
func parseKeyArgs(args []string) (anchor.Key, error) {
	if len(args) == 1 {
		platform, room, ok := strings.Cut(args[0], "/")
		if !ok {
			return anchor.Key{}, fmt.Errorf("malformed anchor %q, expected platform/room", args[0])
		}
		args = []string{platform, room}
	}

	p, err := parsePlatform(args[0])
	if err != nil {
		return anchor.Key{}, err
	}
	return anchor.NewKey(p, args[1])
}

func init() {
	rootCmd.AddCommand(followCmd)
}

var followCmd = &cobra.Command{
	Use:               "follow <platform> <room> | <platform/room>",
	Short:             "Look a room up and start following it",
	Example:           "  seamui follow huya 123\n  seamui follow bili/21452505",
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: completionPlatforms,
	Run: func(cmd *cobra.Command, args []string) {
		k, err := parseKeyArgs(args)
		handleErr(err)

		st := openStore(newAssets(nil))

		info, err := provider.Scripts().Check(cmd.Context(), k)
		handleErr(err)

		if info.Status.IsLive() {
			_, err = st.AddOrUpdateLive(cmd.Context(), info)
			handleErr(err)
		} else {
			st.AddConfigOnly(info)
		}
		handleErr(st.Persist())

		if err := query.Remember(k.String(), 1); err != nil {
			log.Warnf("remember %s: %v", k, err)
		}

		stored := st.Get(k).MustGet()
		state := stored.Status.State
		cmd.Printf(
			"%s following %s %s\n",
			icon.Get(icon.Success),
			style.Bold(stored.DisplayName()),
			style.State(state)(state.String()),
		)
	},
}

func init() {
	rootCmd.AddCommand(unfollowCmd)
}

var unfollowCmd = &cobra.Command{
	Use:     "unfollow <platform> <room> | <platform/room>",
	Short:   "Stop following a room",
	Aliases: []string{"remove", "rm"},
	Args:    cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		k, err := parseKeyArgs(args)
		handleErr(err)

		st := openStore(nil)
		if !st.Remove(k) {
			cmd.Printf("%s %s was not followed\n", icon.Get(icon.Warn), k)
			return
		}
		handleErr(st.Persist())

		if err := query.Forget(k.String()); err != nil {
			log.Warnf("forget %s: %v", k, err)
		}

		cmd.Printf("%s unfollowed %s\n", icon.Get(icon.Success), k)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Only list matching anchors: a platform, or @text@ to match names")
	listCmd.Flags().BoolP("json", "j", false, "Print JSON")
	listCmd.SetOut(os.Stdout)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List followed anchors without checking them",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		selector, err := inline.ParseSelector(lo.Must(cmd.Flags().GetString("filter")))
		handleErr(err)

		infos := selector(openStore(nil).SnapshotConfigured())

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(inline.WriteJSON(cmd.OutOrStdout(), infos))
			return
		}

		if len(infos) == 0 {
			cmd.Println(style.Faint("no anchors followed, try " + style.Bold("seamui follow <platform> <room>")))
			return
		}

		for _, info := range infos {
			cmd.Printf("%s\t%s\t%s\n", style.Fg(color.Purple)(info.Key.String()), info.DisplayName(), style.Faint(info.URL()))
		}
	},
}
