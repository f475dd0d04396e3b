package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rwcarlsen/cpso"
)

// writeResult renders res in the requested format.
func writeResult(w io.Writer, format string, res *cpso.Result) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.View())
	case FormatYAML:
		return encodeYAML(w, res.View())
	case FormatText:
		return res.Report(w)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
