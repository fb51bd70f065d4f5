package main

import (
	"time"

	"github.com/samber/lo"
	"github.com/seamui/seamui/asset"
	"github.com/seamui/seamui/cmd"
	"github.com/seamui/seamui/config"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/where"
	"github.com/spf13/viper"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go collectGarbage()

	cmd.Execute()
}

func collectGarbage() {
	maxAge := time.Duration(viper.GetInt(key.AssetsMaxAge)) * 24 * time.Hour
	if maxAge <= 0 {
		return
	}

	if _, err := asset.New(asset.Options{Dir: where.Assets()}).CollectGarbage(maxAge); err != nil {
		log.Warnf("asset gc: %v", err)
	}
}
