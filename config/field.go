package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/seamui/seamui/color"
	"github.com/seamui/seamui/constant"
	"github.com/seamui/seamui/style"
	"github.com/spf13/viper"
)

// Field is a registered configuration key with its default.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Type names the Go type of the default, e.g. "[]string".
func (f *Field) Type() string {
	if f.Value == nil {
		return "unknown"
	}
	return reflect.TypeOf(f.Value).String()
}

// Env is the environment variable bound to the field.
func (f *Field) Env() string {
	prefix := strings.ToUpper(constant.App) + "_"
	return prefix + strings.TrimPrefix(strings.ToUpper(EnvKeyReplacer.Replace(f.Key)), prefix)
}

// Pretty renders the field for `config info`.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(fieldTemplate.Execute(&b, f))
	return b.String()
}

type fieldJSON struct {
	Key         string `json:"key"`
	Type        string `json:"type"`
	Value       any    `json:"value"`
	Default     any    `json:"default"`
	Description string `json:"description"`
}

func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldJSON{
		Key:         f.Key,
		Type:        f.Type(),
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
	})
}

func highlight(v any) string {
	switch v := v.(type) {
	case bool:
		if v {
			return style.Fg(color.Green)("true")
		}
		return style.Fg(color.Red)("false")
	case string:
		return style.Fg(color.Yellow)(fmt.Sprintf("%q", v))
	default:
		return fmt.Sprint(v)
	}
}

var fieldTemplate = template.Must(template.New("field").Funcs(template.FuncMap{
	"title":   style.Fg(color.Purple),
	"label":   style.Fg(color.Cyan),
	"faint":   style.Faint,
	"current": func(k string) string { return highlight(viper.Get(k)) },
	"hl":      highlight,
}).Parse(`{{ title .Key }} {{ faint .Type }}
{{ faint .Description }}
  {{ label "env" }}      {{ .Env }}
  {{ label "current" }}  {{ current .Key }}
  {{ label "default" }}  {{ hl .Value }}
`))
