package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/casim/internal/sim"
)

type ExportData struct {
	Run   RunMetadata `json:"run"`
	Steps int         `json:"steps"`
	Trace sim.Trace   `json:"trace"`
}

// ExportJSON writes a run and its trace as one indented JSON document.
// Traces ending in a non-finite state cannot be encoded; use CSV for those.
func ExportJSON(w io.Writer, meta RunMetadata, trace sim.Trace) error {
	data := ExportData{
		Run:   meta,
		Steps: len(trace),
		Trace: trace,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
