package cmd

import (
	"runtime"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/seamui/seamui/color"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/style"
	"github.com/seamui/seamui/version"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Print only the version")
}

var versionTemplate = lo.Must(template.New("version").Funcs(template.FuncMap{
	"faint":   style.Faint,
	"bold":    style.Bold,
	"magenta": style.Fg(color.Purple),
}).Parse(`{{ magenta "▇▇▇" }} {{ magenta .App }}

  {{ faint "Version" }}     {{ bold .Version }}
  {{ faint "Git Commit" }}  {{ bold .Revision }}
  {{ faint "Build Date" }}  {{ bold .BuiltAt }}
  {{ faint "Built By" }}    {{ bold .BuiltBy }}
  {{ faint "Platform" }}    {{ bold .OS }}/{{ bold .Arch }}
`))

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		defer version.Notify(cmd.Context())

		handleErr(versionTemplate.Execute(cmd.OutOrStdout(), struct {
			App, Version, OS, Arch, BuiltAt, BuiltBy, Revision string
		}{
			App:      constant.App,
			Version:  constant.Version,
			OS:       runtime.GOOS,
			Arch:     runtime.GOARCH,
			BuiltAt:  strings.TrimSpace(constant.BuiltAt),
			BuiltBy:  constant.BuiltBy,
			Revision: constant.Revision,
		}))
	},
}
