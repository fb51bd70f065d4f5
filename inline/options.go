package inline

import (
	"fmt"
	"io"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/seamui/seamui/anchor"
)

// Selector narrows the anchors of a status report.
type Selector func([]anchor.Info) []anchor.Info

type Options struct {
	Out      io.Writer
	Json     bool
	URLs     bool
	Selector mo.Option[Selector]
}

// ParseSelector parses a selector description:
//
//	all | live | offline | failed
//	<platform>   anchors of one platform, aliases accepted
//	@<text>@     fuzzy match on name, title or room
func ParseSelector(description string) (Selector, error) {
	switch description {
	case "", "all":
		return func(infos []anchor.Info) []anchor.Info { return infos }, nil
	case "live", "offline", "failed":
		var state anchor.State
		if err := state.UnmarshalText([]byte(description)); err != nil {
			return nil, err
		}
		return func(infos []anchor.Info) []anchor.Info {
			return lo.Filter(infos, func(info anchor.Info, _ int) bool {
				return info.Status.State == state
			})
		}, nil
	}

	if strings.HasPrefix(description, "@") && strings.HasSuffix(description, "@") && len(description) > 1 {
		sub := strings.ToLower(description[1 : len(description)-1])
		return func(infos []anchor.Info) []anchor.Info {
			return lo.Filter(infos, func(info anchor.Info, _ int) bool {
				return lo.SomeBy([]string{info.Name, info.Title, info.RoomID}, func(s string) bool {
					return fuzzy.MatchNormalized(sub, strings.ToLower(s))
				})
			})
		}, nil
	}

	if platform, err := anchor.ParsePlatform(description); err == nil {
		return func(infos []anchor.Info) []anchor.Info {
			return lo.Filter(infos, func(info anchor.Info, _ int) bool {
				return info.Platform == platform
			})
		}, nil
	}

	return nil, fmt.Errorf("invalid selector: %s", description)
}
