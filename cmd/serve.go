package cmd

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/metrics"
	"github.com/seamui/seamui/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "Listen address")
	lo.Must0(viper.BindPFlag(key.ServeAddr, serveCmd.Flags().Lookup("addr")))

	serveCmd.Flags().Bool("no-metrics", false, "Do not expose /metrics")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll followed anchors headlessly and expose them over HTTP",
	Long: `Poll followed anchors without the TUI and serve a small HTTP API:

  GET    /healthz
  GET    /metrics
  GET    /anchors
  GET    /anchors/live
  POST   /anchors                      {"platform": "huya", "room_id": "123"}
  DELETE /anchors/{platform}/{room}
  POST   /anchors/{platform}/{room}/play
  POST   /refresh`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log.ToStderr()

		var m *metrics.Metrics
		if !lo.Must(cmd.Flags().GetBool("no-metrics")) {
			m = metrics.New()
		}

		a := newApp(m)
		handler := server.NewHandler(a.engine, a.store, m)
		addr := viper.GetString(key.ServeAddr)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			return a.engine.Run(ctx)
		})
		g.Go(func() error {
			return server.ListenAndServe(ctx, addr, handler.Router())
		})
		g.Go(func() error {
			for event := range a.engine.Notifications() {
				log.WithFields(log.Fields{
					"seq":  event.Seq,
					"live": len(event.Live),
				}).Info("live anchors changed")
			}
			return nil
		})

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			handleErr(err)
		}
	},
}
