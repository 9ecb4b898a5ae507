// Package similarity provides text similarity and clustering utilities.
package similarity

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns the difflib similarity ratio of a and b: twice the total size
// of the matching blocks divided by the combined length, counted in code points.
// Two empty strings have a ratio of 1.
// The ratio is not strictly symmetric; a is the reference line and b the candidate.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(symbols(a), symbols(b)).Ratio()
}

// ValidateThreshold reports whether threshold lies in (0, 1].
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold <= 0 || threshold > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// symbols splits s into one element per code point. The elements are
// substrings of s, so no per-symbol allocation happens.
func symbols(s string) []string {
	out := make([]string, 0, len(s))
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		out = append(out, s[i:i+size])
		i += size
	}
	return out
}

// comparer answers "is line i similar to the current target line" for a fixed
// corpus and threshold. The target sits in the matcher's second sequence so
// its index is built once and reused for every reference line.
type comparer struct {
	lines     []string
	threshold float64
	seqs      map[int][]string
	matcher   *difflib.SequenceMatcher
}

func newComparer(lines []string, threshold float64) *comparer {
	return &comparer{
		lines:     lines,
		threshold: threshold,
		seqs:      make(map[int][]string),
	}
}

func (c *comparer) seq(i int) []string {
	s, ok := c.seqs[i]
	if !ok {
		s = symbols(c.lines[i])
		c.seqs[i] = s
	}
	return s
}

// target makes line i the candidate for the following similar calls.
func (c *comparer) target(i int) {
	if c.matcher == nil {
		c.matcher = difflib.NewMatcher(nil, c.seq(i))
		return
	}
	c.matcher.SetSeq2(c.seq(i))
}

// similar reports whether Ratio(lines[ref], target) >= threshold.
// The cheap upper bounds only ever reject; they never accept.
func (c *comparer) similar(ref int) bool {
	c.matcher.SetSeq1(c.seq(ref))
	if c.matcher.RealQuickRatio() < c.threshold {
		return false
	}
	if c.matcher.QuickRatio() < c.threshold {
		return false
	}
	return c.matcher.Ratio() >= c.threshold
}

// matches applies the first-then-last rule against one cluster.
func (c *comparer) matches(members Cluster) bool {
	if len(members) == 0 {
		return false
	}
	first, last := members[0], members[len(members)-1]
	if c.similar(first) {
		return true
	}
	return last != first && c.similar(last)
}
