// Package inline renders a one-shot status report for scripts and pipes.
package inline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/engine"
	"github.com/seamui/seamui/icon"
)

// Syncer checks every followed anchor once.
type Syncer interface {
	Sync(ctx context.Context) []engine.Report
}

// Run checks all anchors and writes the report to options.Out.
func Run(ctx context.Context, syncer Syncer, options *Options) error {
	if options.Out == nil {
		options.Out = os.Stdout
	}

	reports := syncer.Sync(ctx)

	if options.Selector.IsPresent() {
		selector := options.Selector.MustGet()
		byKey := lo.KeyBy(reports, func(r engine.Report) anchor.Key { return r.Info.Key })
		selected := selector(lo.Map(reports, func(r engine.Report, _ int) anchor.Info { return r.Info }))
		reports = lo.Map(selected, func(info anchor.Info, _ int) engine.Report { return byKey[info.Key] })
	}

	return write(options.Out, reports, options)
}

func write(out io.Writer, reports []engine.Report, options *Options) error {
	if options.Json {
		data, err := asJson(reports, time.Now())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}

	for _, r := range reports {
		var line string
		if options.URLs {
			source, ok := r.Info.Status.Default()
			if !ok {
				continue
			}
			line = source.URL
		} else {
			line = plain(r)
		}

		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}

	return nil
}

func plain(r engine.Report) string {
	info := r.Info
	parts := []string{stateIcon(info.Status.State), info.Key.String(), info.DisplayName()}

	switch info.Status.State {
	case anchor.Live:
		parts = append(parts, info.Status.Title)
	case anchor.Failed:
		parts = append(parts, info.Status.Message)
	}

	return strings.Join(lo.Compact(parts), "\t")
}

func stateIcon(state anchor.State) string {
	switch state {
	case anchor.Live:
		return icon.Get(icon.Live)
	case anchor.Failed:
		return icon.Get(icon.Fail)
	default:
		return icon.Get(icon.Offline)
	}
}
