// Package query remembers what was typed into the follow prompt and suggests it back.
package query

import (
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/where"
	"github.com/spf13/viper"
	"golang.org/x/exp/slices"
)

type queryRecord struct {
	Rank  int    `json:"rank"`
	Query string `json:"query"`
}

var cacher = gache.New[map[string]*queryRecord](
	&gache.Options{
		Path:       where.Queries(),
		FileSystem: &filesystem.GacheFs{},
	},
)

var (
	mu              sync.Mutex
	suggestionCache = make(map[string][]*queryRecord)
)

// Remember records a follow input such as "huya/123", raising its rank by weight.
func Remember(q string, weight int) error {
	q = sanitize(q)
	if q == "" {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		cached = make(map[string]*queryRecord)
	}

	if record, ok := cached[q]; ok {
		record.Rank += weight
	} else {
		cached[q] = &queryRecord{Rank: weight, Query: q}
	}

	clear(suggestionCache)
	return cacher.Set(cached)
}

// Forget drops q from the history, e.g. after unfollowing it.
func Forget(q string) error {
	q = sanitize(q)

	mu.Lock()
	defer mu.Unlock()

	cached, expired, err := cacher.Get()
	if expired || err != nil || cached == nil {
		return err
	}

	if _, ok := cached[q]; !ok {
		return nil
	}

	delete(cached, q)
	clear(suggestionCache)
	return cacher.Set(cached)
}

// Suggest returns the best ranked past input matching q.
func Suggest(q string) mo.Option[string] {
	suggestions := SuggestMany(q)
	if len(suggestions) == 0 {
		return mo.None[string]()
	}
	return mo.Some(suggestions[0])
}

// SuggestMany returns past inputs fuzzily matching q, best ranked first.
func SuggestMany(q string) []string {
	if !viper.GetBool(key.FollowShowSuggestions) {
		return []string{}
	}

	q = sanitize(q)

	mu.Lock()
	defer mu.Unlock()

	records, ok := suggestionCache[q]
	if !ok {
		cached, expired, err := cacher.Get()
		if err != nil || expired || cached == nil {
			return []string{}
		}

		for _, record := range cached {
			if fuzzy.Match(q, record.Query) {
				records = append(records, record)
			}
		}

		slices.SortFunc(records, func(a, b *queryRecord) int {
			if a.Rank != b.Rank {
				return b.Rank - a.Rank
			}
			return strings.Compare(a.Query, b.Query)
		})

		suggestionCache[q] = records
	}

	return lo.Map(records, func(r *queryRecord, _ int) string {
		return r.Query
	})
}

func sanitize(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
