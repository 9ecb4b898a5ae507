package similarity

import "slices"

// Group clusters the lines named by indices, visiting them in the given order.
// Each line joins the lowest-id cluster whose first or last member is similar
// to it (ratio >= threshold), checking first before last. A line that matches
// nothing opens a new cluster with the next dense id.
//
// Membership is a chain, not a clique: a member only had to match the cluster's
// first or last line at the moment it was added.
func Group(indices []int, lines []string, threshold float64) ClusterSet {
	set := make(ClusterSet)
	c := newComparer(lines, threshold)

	for _, i := range indices {
		c.target(i)

		placed := false
		for id := 0; id < len(set); id++ {
			if c.matches(set[id]) {
				set[id] = append(set[id], i)
				placed = true
				break
			}
		}
		if !placed {
			set[len(set)] = Cluster{i}
		}
	}

	return set
}

// Merge folds b into a copy of a. Clusters of b are visited in ascending id;
// each is compared, through its first line, against the clusters of a in
// ascending id using the first and last lines a had before the merge began.
// A matched b cluster is appended whole to the a cluster; an unmatched one is
// added under max(result ids)+1, or 0 when the result is empty.
//
// Neither a nor b is modified. Merge is order sensitive and not associative.
func Merge(a, b ClusterSet, lines []string, threshold float64) ClusterSet {
	result := a.Clone()
	aIDs := a.IDs()

	next := 0
	if len(aIDs) > 0 {
		next = aIDs[len(aIDs)-1] + 1
	}

	c := newComparer(lines, threshold)
	for _, bID := range b.IDs() {
		members := b[bID]
		if len(members) == 0 {
			continue
		}
		c.target(members[0])

		matched := -1
		for _, aID := range aIDs {
			if c.matches(a[aID]) {
				matched = aID
				break
			}
		}

		if matched >= 0 {
			result[matched] = append(result[matched], members...)
			continue
		}
		result[next] = slices.Clip(slices.Clone(members))
		next++
	}

	return result
}
