// Package render turns a clustered corpus into HTML, JSON or terminal output.
package render

import (
	"fmt"
	"math/rand/v2"

	"github.com/thebtf/logcluster/pkg/similarity"
)

// DefaultSeed seeds component colors so they are stable across runs.
const DefaultSeed = 1234

// Comp is one component with its display color.
type Comp struct {
	CompID    int    `json:"comp_id"`
	CompColor string `json:"comp_color"`
}

// LogLine is one input line annotated with its component.
type LogLine struct {
	LogID   int    `json:"log_id"`
	CompID  int    `json:"comp_id"`
	Content string `json:"content"`
}

// Report is the rendering context shared by every output format.
type Report struct {
	Comps    []Comp    `json:"comps"`
	NumComps int       `json:"num_comps"`
	NumLines int       `json:"num_lines"`
	LogLines []LogLine `json:"log_lines"`
}

// NewReport annotates lines with the component ids in set. Every line must
// belong to exactly one component.
func NewReport(lines []string, set similarity.ClusterSet, seed uint64) (*Report, error) {
	if err := set.Validate(len(lines)); err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	colors := Colors(set.IDs(), seed)
	comps := make([]Comp, 0, len(colors))
	for _, id := range set.IDs() {
		comps = append(comps, Comp{CompID: id, CompColor: colors[id]})
	}

	assign := set.Assignments()
	logLines := make([]LogLine, len(lines))
	for i, content := range lines {
		logLines[i] = LogLine{LogID: i, CompID: assign[i], Content: content}
	}

	return &Report{
		Comps:    comps,
		NumComps: len(comps),
		NumLines: len(lines),
		LogLines: logLines,
	}, nil
}

// Colors assigns a "#rrggbb" color to each id, drawing from a PRNG seeded
// with seed in the order ids are given. Equal id sequences get equal colors.
func Colors(ids []int, seed uint64) map[int]string {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make(map[int]string, len(ids))
	for _, id := range ids {
		out[id] = fmt.Sprintf("#%06x", rng.IntN(0x1000000))
	}
	return out
}
