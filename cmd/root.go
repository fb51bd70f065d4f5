// Package cmd is the seamui command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/color"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/engine"
	"github.com/seamui/seamui/icon"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/style"
	"github.com/seamui/seamui/tui"
	"github.com/seamui/seamui/util"
	"github.com/seamui/seamui/version"
	"github.com/seamui/seamui/where"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.SetOut(os.Stdout)
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icons variant (emoji, nerd, plain, kaomoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.Flags().Bool("offline", false, "List offline anchors below live ones")
	lo.Must0(viper.BindPFlag(key.TUIShowOffline, rootCmd.Flags().Lookup("offline")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify(cmd.Context())
	})

	go func() {
		_ = util.Delete(where.Temp())
	}()
}

var rootCmd = &cobra.Command{
	Use:   constant.App,
	Short: "Follow live-stream rooms and play them when they go live",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Follow live-stream rooms and play them when they go live"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		CheckDependencies()

		ctx := cmd.Context()
		if viper.GetBool(key.PlatformsUpdateOnStart) {
			go updateScripts(ctx, anchor.Platforms(), false)
		}

		a := newApp(nil)

		errs := make(chan error, 1)
		go func() { errs <- a.engine.Run(ctx) }()

		handleErr(tui.Run(ctx, &tui.Options{Engine: a.engine}))

		a.engine.Send(engine.Exit{})
		if err := <-errs; err != nil && ctx.Err() == nil {
			log.Error(err)
		}
	},
}

// Execute runs the command line until it finishes or an interrupt arrives.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
