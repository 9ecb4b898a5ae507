package similarity

import "errors"

var (
	// ErrInvalidThreshold is returned when a threshold falls outside (0, 1].
	ErrInvalidThreshold = errors.New("similarity threshold must be in (0, 1]")

	// ErrPartition is returned when a ClusterSet does not cover its input
	// indices exactly once each.
	ErrPartition = errors.New("cluster set is not a partition of its input")
)
