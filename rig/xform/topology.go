package xform

import (
	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/rig"
)

const NoParent = -1

// ValidateForest checks that parents describes a forest: every entry is
// NoParent or an in-range index other than itself, and following parents
// always ends at a root.
func ValidateForest(what string, parents []int32) error {
	_, err := TopologicalOrder(what, parents)
	return err
}

// TopologicalOrder returns node indices with every parent before its
// children. Roots keep their relative order.
func TopologicalOrder(what string, parents []int32) ([]int, error) {
	n := len(parents)
	for i, p := range parents {
		if p == NoParent {
			continue
		}
		if p < 0 || int(p) >= n {
			return nil, errors.Wrapf(rig.ErrInconsistentTopology, "%s %d: parent %d out of range [0,%d)", what, i, p, n)
		}
		if int(p) == i {
			return nil, errors.Wrapf(rig.ErrInconsistentTopology, "%s %d is its own parent", what, i)
		}
	}

	const (
		unvisited = iota
		inProgress
		done
	)
	state := make([]byte, n)
	order := make([]int, 0, n)
	chain := make([]int, 0, 16)

	for start := 0; start < n; start++ {
		if state[start] == done {
			continue
		}
		// climb to the first finished ancestor or root, then emit top-down
		chain = chain[:0]
		for cur := start; cur != NoParent && state[cur] != done; cur = int(parents[cur]) {
			if state[cur] == inProgress {
				return nil, errors.Wrapf(rig.ErrInconsistentTopology, "%s %d: parent cycle", what, cur)
			}
			state[cur] = inProgress
			chain = append(chain, cur)
		}
		for i := len(chain) - 1; i >= 0; i-- {
			state[chain[i]] = done
			order = append(order, chain[i])
		}
	}
	return order, nil
}
