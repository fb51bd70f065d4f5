package version

import (
	"context"
	"fmt"
	"time"

	"github.com/seamui/seamui/color"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/icon"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/log"
	"github.com/seamui/seamui/style"
	"github.com/seamui/seamui/util"
	"github.com/spf13/viper"
)

// Notify prints a banner when a newer version exists. Failures are only logged.
func Notify(ctx context.Context) {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	erase := util.PrintErasable(fmt.Sprintf("%s Checking for a new version...", icon.Get(icon.Progress)))
	latest, err := Latest(ctx)
	erase()

	if err != nil {
		log.Warnf("version check: %v", err)
		return
	}

	if comp, err := Compare(latest, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/"+constant.Repository+"/releases/tag/v"+latest),
	)
}
