package reshape

import "github.com/foospace/sprintsync/internal/types"

// ParentIndex maps a parent task id to the ids of its direct children, in
// record order.
type ParentIndex map[string][]string

// BuildParentIndex reads the parent relation of every record. Only the first
// related id counts as the parent.
func BuildParentIndex(records []types.Record, names types.PropertyNames) ParentIndex {
	idx := make(ParentIndex)
	for i := range records {
		parent := records[i].Prop(names.ParentTask).FirstRelation()
		if !parent.OK {
			continue
		}
		idx[parent.Value] = append(idx[parent.Value], records[i].ID)
	}
	return idx
}

// IsParent reports whether any record names id as its parent.
func (p ParentIndex) IsParent(id string) bool {
	_, ok := p[id]
	return ok
}
