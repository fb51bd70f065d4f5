package cmd

import (
	"os"

	"github.com/samber/lo"
	"github.com/seamui/seamui/color"
	"github.com/seamui/seamui/config"
	"github.com/seamui/seamui/style"
	"github.com/seamui/seamui/where"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Only variables that are set")
	envCmd.Flags().BoolP("unset-only", "u", false, "Only variables that are unset")

	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the environment variables seamui reads",
	Long:  "List the environment variables seamui reads and their current values.\nVariables may also be set in the .env file of the config directory.",
	Run: func(cmd *cobra.Command, args []string) {
		setOnly := lo.Must(cmd.Flags().GetBool("set-only"))
		unsetOnly := lo.Must(cmd.Flags().GetBool("unset-only"))

		envs := lo.Map(config.EnvExposed, func(k string, _ int) string {
			field := config.Default[k]
			return field.Env()
		})
		envs = append(envs, where.EnvConfigPath, where.EnvCachePath)
		slices.Sort(envs)

		for _, env := range envs {
			value, present := os.LookupEnv(env)

			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			cmd.Print(style.New().Bold(true).Foreground(color.Purple).Render(env))
			cmd.Print("=")

			if present {
				cmd.Println(style.Fg(color.Green)(value))
			} else {
				cmd.Println(style.Fg(color.Red)("unset"))
			}
		}
	},
}
