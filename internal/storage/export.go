package storage

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/san-kum/springz/internal/sim"
)

type ExportData struct {
	Run    *RunMetadata  `json:"run"`
	Frames []ExportFrame `json:"frames"`
}

type ExportFrame struct {
	Step  int                   `json:"step"`
	Nodes map[string][2]float64 `json:"nodes"`
}

// ExportJSON writes a run and its frames with positions keyed by label.
func ExportJSON(w io.Writer, meta *RunMetadata, frames []sim.Frame) error {
	data := ExportData{
		Run:    meta,
		Frames: make([]ExportFrame, len(frames)),
	}

	for i, f := range frames {
		ef := ExportFrame{Step: f.Step, Nodes: make(map[string][2]float64, len(f.X))}
		for j := range f.X {
			ef.Nodes[labelAt(meta.Labels, j)] = [2]float64{f.X[j], f.Y[j]}
		}
		data.Frames[i] = ef
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return "n" + strconv.Itoa(i)
}
