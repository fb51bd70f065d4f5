package cmd

import (
	"github.com/AlecAivazis/survey/v2"
	"github.com/seamui/seamui/auth"
	"github.com/seamui/seamui/icon"
	"github.com/seamui/seamui/style"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cookieCmd)
}

var cookieCmd = &cobra.Command{
	Use:   "cookie",
	Short: "Manage platform cookies sent to lookup scripts",
	Long:  "Some platforms only answer lookups with a logged-in cookie. Cookies are kept in the system keyring.",
}

func init() {
	cookieCmd.AddCommand(cookieSetCmd)
	cookieSetCmd.Flags().StringP("value", "v", "", "Cookie value. Prompted for when omitted")
}

var cookieSetCmd = &cobra.Command{
	Use:               "set <platform>",
	Short:             "Store the cookie of a platform",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionPlatforms,
	Run: func(cmd *cobra.Command, args []string) {
		p, err := parsePlatform(args[0])
		handleErr(err)

		value, _ := cmd.Flags().GetString("value")
		if value == "" {
			handleErr(survey.AskOne(&survey.Password{
				Message: "Cookie for " + p.Name() + ":",
			}, &value, survey.WithValidator(survey.Required)))
		}

		handleErr(auth.SetCookie(p, value))
		cmd.Printf("%s stored cookie for %s\n", icon.Get(icon.Success), style.Bold(p.ID()))
	},
}

func init() {
	cookieCmd.AddCommand(cookieDeleteCmd)
}

var cookieDeleteCmd = &cobra.Command{
	Use:               "delete <platform>",
	Short:             "Forget the cookie of a platform",
	Aliases:           []string{"remove", "rm"},
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionPlatforms,
	Run: func(cmd *cobra.Command, args []string) {
		p, err := parsePlatform(args[0])
		handleErr(err)

		handleErr(auth.DeleteCookie(p))
		cmd.Printf("%s deleted cookie for %s\n", icon.Get(icon.Success), style.Bold(p.ID()))
	},
}
