package cmd

import (
	"encoding/json"
	"io"
	"os"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/seamui/seamui/engine"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/inline"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/player"
	"github.com/seamui/seamui/provider"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolP("json", "j", false, "Print JSON")
	statusCmd.Flags().BoolP("urls", "u", false, "Print only the default stream URL of every live anchor")
	statusCmd.Flags().StringP("filter", "f", "", "Select anchors: all, live, offline, failed, a platform or @text@")
	statusCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	statusCmd.MarkFlagsMutuallyExclusive("json", "urls")

	lo.Must0(statusCmd.RegisterFlagCompletionFunc("filter", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return append([]string{"all", "live", "offline", "failed"}, platformIDs()...), cobra.ShellCompDirectiveNoFileComp
	}))
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check every followed anchor once and print the result",
	Long: `Check every followed anchor in parallel and print who is live.

Selectors:
  all        every anchor (default)
  live       live anchors
  offline    anchors that are not live
  failed     anchors whose lookup failed
  <platform> anchors of one platform, e.g. huya or bili
  @text@     anchors whose name, title or room fuzzily matches text`,
	Example: "  seamui status --filter live --urls | head -n1 | xargs mpv",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		options := &inline.Options{
			Json: lo.Must(cmd.Flags().GetBool("json")),
			URLs: lo.Must(cmd.Flags().GetBool("urls")),
		}

		if filter := lo.Must(cmd.Flags().GetString("filter")); filter != "" {
			selector, err := inline.ParseSelector(filter)
			handleErr(err)
			options.Selector = mo.Some(selector)
		}

		var out io.Writer = os.Stdout
		if output := lo.Must(cmd.Flags().GetString("output")); output != "" {
			f, err := filesystem.API().Create(output)
			handleErr(err)
			defer f.Close()
			out = f
		}
		options.Out = out

		st := openStore(newAssets(nil))
		e := engine.New(engine.Options{
			Store:         st,
			Checker:       provider.Scripts(),
			Player:        &player.External{},
			Concurrency:   viper.GetInt(key.PollConcurrency),
			LookupTimeout: seconds(key.PollTimeout),
		})

		handleErr(inline.Run(cmd.Context(), e, options))
	},
}

func init() {
	statusCmd.AddCommand(statusSchemaCmd)
}

var statusSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of status --json",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			if t.Name() == "Output" || t.Name() == "Anchor" {
				return "status." + t.Name()
			}
			return t.Name()
		}

		handleErr(json.NewEncoder(os.Stdout).Encode(reflector.Reflect(&inline.Output{})))
	},
}
