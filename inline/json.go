package inline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/seamui/seamui/anchor"
	"github.com/seamui/seamui/engine"
)

// Anchor is one anchor of a status report.
type Anchor struct {
	anchor.Info
	// Error is set when the lookup failed.
	Error string `json:"error,omitempty"`
}

type Output struct {
	CheckedAt time.Time `json:"checked_at"`
	Live      int       `json:"live"`
	Anchors   []*Anchor `json:"anchors"`
}

func newOutput(reports []engine.Report, at time.Time) *Output {
	output := &Output{CheckedAt: at, Anchors: make([]*Anchor, len(reports))}
	for i, r := range reports {
		entry := &Anchor{Info: r.Info}
		if r.Err != nil {
			entry.Error = r.Err.Error()
		}
		if r.Info.Status.IsLive() {
			output.Live++
		}
		output.Anchors[i] = entry
	}
	return output
}

func asJson(reports []engine.Report, at time.Time) ([]byte, error) {
	return json.MarshalIndent(newOutput(reports, at), "", "  ")
}

// WriteJSON prints anchors as an indented JSON array.
func WriteJSON(out io.Writer, infos []anchor.Info) error {
	if infos == nil {
		infos = []anchor.Info{}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(infos)
}
