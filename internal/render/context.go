package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// ErrInvalidContext is returned when a decoded context is not self-consistent.
var ErrInvalidContext = errors.New("invalid report context")

// WriteContext dumps r as indented JSON, the same context the HTML page is
// rendered from.
func WriteContext(w io.Writer, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write context: %w", err)
	}
	return nil
}

// ReadContext decodes a context previously written by WriteContext.
func ReadContext(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	if err := rep.Validate(); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Validate checks that the counts match their lists, that log lines are
// numbered 0..num_lines-1 in order, and that every line refers to a listed
// component with a non-negative id.
func (r *Report) Validate() error {
	if r.NumComps != len(r.Comps) {
		return fmt.Errorf("%w: num_comps %d but %d comps", ErrInvalidContext, r.NumComps, len(r.Comps))
	}
	if r.NumLines != len(r.LogLines) {
		return fmt.Errorf("%w: num_lines %d but %d log lines", ErrInvalidContext, r.NumLines, len(r.LogLines))
	}

	known := make(map[int]struct{}, len(r.Comps))
	for _, c := range r.Comps {
		if c.CompID < 0 {
			return fmt.Errorf("%w: negative comp_id %d", ErrInvalidContext, c.CompID)
		}
		if _, dup := known[c.CompID]; dup {
			return fmt.Errorf("%w: duplicate comp_id %d", ErrInvalidContext, c.CompID)
		}
		known[c.CompID] = struct{}{}
	}

	for i, l := range r.LogLines {
		if l.LogID != i {
			return fmt.Errorf("%w: log line %d has log_id %d", ErrInvalidContext, i, l.LogID)
		}
		if _, ok := known[l.CompID]; !ok {
			return fmt.Errorf("%w: log line %d has unknown comp_id %d", ErrInvalidContext, i, l.CompID)
		}
	}
	return nil
}
