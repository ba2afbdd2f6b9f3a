package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/moosim/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
	Controls [][]float64 `json:"controls"`
}

// ExportJSON writes a run as a single JSON document with per-sample state
// and control rows.
func ExportJSON(w io.Writer, meta RunMetadata, traj *dynamo.Trajectory) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       traj.T,
		States:      make([][]float64, traj.Len()),
		Controls:    make([][]float64, traj.Len()),
	}

	for k := range traj.T {
		data.States[k] = traj.State(k)
		data.Controls[k] = traj.Control(k)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
