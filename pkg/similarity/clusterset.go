package similarity

import (
	"fmt"
	"slices"
)

// Cluster is an ordered list of line indices in append order.
type Cluster []int

// ClusterSet maps cluster id to its members. Ids are dense from 0 and only
// meaningful inside the set that produced them.
type ClusterSet map[int]Cluster

// IDs returns the cluster ids in ascending order.
func (s ClusterSet) IDs() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clone returns a deep copy. Appending to a cloned cluster never touches the
// original backing array.
func (s ClusterSet) Clone() ClusterSet {
	out := make(ClusterSet, len(s))
	for id, members := range s {
		out[id] = slices.Clip(slices.Clone(members))
	}
	return out
}

// Size returns the total number of members across all clusters.
func (s ClusterSet) Size() int {
	n := 0
	for _, members := range s {
		n += len(members)
	}
	return n
}

// Assignments returns the reverse mapping from line index to cluster id.
func (s ClusterSet) Assignments() map[int]int {
	out := make(map[int]int, s.Size())
	for id, members := range s {
		for _, i := range members {
			out[i] = id
		}
	}
	return out
}

// Validate checks that the set partitions {0, ..., n-1}: every index appears
// in exactly one cluster exactly once and no cluster is empty.
func (s ClusterSet) Validate(n int) error {
	seen := make([]bool, n)
	count := 0
	for _, id := range s.IDs() {
		members := s[id]
		if len(members) == 0 {
			return fmt.Errorf("%w: cluster %d is empty", ErrPartition, id)
		}
		for _, i := range members {
			if i < 0 || i >= n {
				return fmt.Errorf("%w: cluster %d holds out-of-range index %d", ErrPartition, id, i)
			}
			if seen[i] {
				return fmt.Errorf("%w: index %d appears more than once", ErrPartition, i)
			}
			seen[i] = true
			count++
		}
	}
	if count != n {
		return fmt.Errorf("%w: %d of %d indices covered", ErrPartition, count, n)
	}
	return nil
}

// Equal reports whether two sets hold the same ids with identical member order.
func (s ClusterSet) Equal(other ClusterSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id, members := range s {
		o, ok := other[id]
		if !ok || !slices.Equal(members, o) {
			return false
		}
	}
	return true
}
