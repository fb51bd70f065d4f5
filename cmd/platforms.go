package cmd

import (
	"os"
	"os/user"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/auth"
	"github.com/seamui/seamui/color"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/icon"
	"github.com/seamui/seamui/provider"
	"github.com/seamui/seamui/style"
	"github.com/seamui/seamui/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(platformsCmd)
}

var platformsCmd = &cobra.Command{
	Use:     "platforms",
	Short:   "Manage the lookup scripts of streaming platforms",
	Aliases: []string{"platform"},
}

func init() {
	platformsCmd.AddCommand(platformsListCmd)

	platformsListCmd.Flags().BoolP("raw", "r", false, "Print only platform ids")
	platformsListCmd.Flags().BoolP("installed", "i", false, "Only platforms with a lookup script")
	platformsListCmd.SetOut(os.Stdout)
}

var platformsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List supported platforms and whether their lookup script is installed",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		raw := lo.Must(cmd.Flags().GetBool("raw"))
		platforms := anchor.Platforms()
		if lo.Must(cmd.Flags().GetBool("installed")) {
			platforms = lo.Filter(platforms, func(p anchor.Platform, _ int) bool {
				return provider.Installed(p)
			})
		}

		for _, p := range platforms {
			if raw {
				cmd.Println(p.ID())
				continue
			}

			script := style.Fg(color.Red)("no script")
			if provider.Installed(p) {
				script = style.Fg(color.Green)("script installed")
			}

			var cookie string
			if c, err := auth.Cookie(p); err == nil && c != "" {
				cookie = style.Faint(" cookie set")
			}

			cmd.Printf("%s %s %s%s\n", style.Bold(p.ID()), style.Faint("("+p.Name()+")"), script, cookie)
		}
	},
}

func init() {
	platformsCmd.AddCommand(platformsGenCmd)

	platformsGenCmd.Flags().BoolP("force", "f", false, "Overwrite an existing script")
}

var platformsGenCmd = &cobra.Command{
	Use:               "gen <platform>",
	Short:             "Scaffold a lookup script for a platform",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionPlatforms,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.SetOut(os.Stdout)

		p, err := parsePlatform(args[0])
		handleErr(err)

		target := provider.ScriptPath(p)
		if provider.Installed(p) && !lo.Must(cmd.Flags().GetBool("force")) {
			cmd.Printf("%s %s already exists, use --force to overwrite\n", icon.Get(icon.Warn), target)
			return
		}

		author := "Anonymous"
		if usr, err := user.Current(); err == nil {
			author = usr.Username
		}

		s := struct {
			Platform  string
			URL       string
			Author    string
			GetLiveFn string
		}{
			Platform:  p.ID(),
			URL:       p.RoomURL(""),
			Author:    author,
			GetLiveFn: constant.GetLiveFn,
		}

		funcMap := template.FuncMap{
			"repeat": strings.Repeat,
			"plus":   func(a, b int) int { return a + b },
			"max":    util.Max[int],
		}

		tmpl, err := template.New("script").Funcs(funcMap).Parse(constant.ScriptTemplate)
		handleErr(err)

		var b strings.Builder
		handleErr(tmpl.Execute(&b, s))
		handleErr(filesystem.WriteFileAtomic(target, []byte(b.String()), 0o644))

		cmd.Println(target)
	},
}

func init() {
	platformsCmd.AddCommand(platformsUpdateCmd)
}

var platformsUpdateCmd = &cobra.Command{
	Use:               "update [platform...]",
	Short:             "Download the latest lookup scripts",
	Long:              "Download the latest lookup scripts from platforms.update_url. Without arguments every platform is updated.",
	ValidArgsFunction: completionPlatforms,
	Run: func(cmd *cobra.Command, args []string) {
		platforms := anchor.Platforms()
		if len(args) > 0 {
			platforms = lo.Map(args, func(arg string, _ int) anchor.Platform {
				p, err := parsePlatform(arg)
				handleErr(err)
				return p
			})
		}

		if failed := updateScripts(cmd.Context(), platforms, true); failed > 0 {
			os.Exit(1)
		}
	},
}
