// Package icon renders status symbols in the variant chosen by icons.variant.
package icon

import (
	"github.com/samber/lo"
	"github.com/seamui/seamui/key"
	"github.com/spf13/viper"
)

// Icon identifies a symbol.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Live
	Offline
	Warn
	Link
)

// glyphs holds one symbol per variant, in the order of variants.
type glyphs [5]string

var variants = []string{"emoji", "nerd", "plain", "kaomoji", "squares"}

var table = map[Icon]glyphs{
	Fail:     {"💀", "\uf00d", "X", "(╥﹏╥)", "▣"},
	Success:  {"🎉", "\uf00c", "OK", "(ᵔ◡ᵔ)", "■"},
	Progress: {"👾", "\uf110", "...", "(o_o)", "◫"},
	Live:     {"🔴", "\uf111", "LIVE", "(ﾉ◕ヮ◕)ﾉ", "◼"},
	Offline:  {"💤", "\uf186", "off", "(－_－) zzZ", "◻"},
	Warn:     {"⚠️", "\uf071", "!", "(°ロ°)", "◩"},
	Link:     {"🔗", "\uf0c1", "->", "(っ˘ڡ˘ς)", "⬔"},
}

// AvailableVariants lists the accepted icons.variant values.
func AvailableVariants() []string {
	return append([]string(nil), variants...)
}

// Get renders i in the configured variant. Unknown variants render as "".
func Get(i Icon) string {
	idx := lo.IndexOf(variants, viper.GetString(key.IconsVariant))
	if idx < 0 {
		return ""
	}
	return table[i][idx]
}
