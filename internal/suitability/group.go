package suitability

// Group is an ordered set of layer positions that enter the
// multiplicative chain as one term. Positions are indices into the input
// sequence. A group of size 1 multiplies in directly; a larger group is
// reduced to its cellwise maximum first.
type Group struct {
	Members []int
}

// BuildGroups partitions the ordered combine-flag sequence into groups
// by run-length scanning: every No opens a new group, every Yes joins
// the group opened by the preceding No. The first flag is treated as No
// regardless of its value (first-layer invariant).
//
// Grouping is positional: layers are only grouped when adjacent in input
// order, so reordering the input changes the result. That is part of the
// user-facing contract.
func BuildGroups(flags []Combine) []Group {
	if len(flags) == 0 {
		return nil
	}

	groups := []Group{{Members: []int{0}}}
	for i := 1; i < len(flags); i++ {
		if flags[i] == CombineYes {
			last := &groups[len(groups)-1]
			last.Members = append(last.Members, i)
			continue
		}
		groups = append(groups, Group{Members: []int{i}})
	}
	return groups
}
