package filter

import (
	"strings"

	"github.com/xandr001/josh/internal/gitobj"
)

// unionFilter overlays the results of its sub-filters into a single
// tree, earlier entries winning on conflict.
type unionFilter struct {
	Subs []Filter
}

func newUnionFilter(subs []Filter) Filter {
	return &unionFilter{Subs: subs}
}

func (f *unionFilter) ApplyTree(db *gitobj.Database, treeID []byte) ([]byte, error) {
	result := gitobj.ZeroOid
	for _, sub := range f.Subs {
		sub_, err := sub.ApplyTree(db, treeID)
		if err != nil {
			return nil, err
		}
		result, err = mergeTrees(db, result, sub_)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Unapply is, for a union, ambiguous in general (a given filtered path
// might have come from any of several sub-filters). josh resolves it the
// same way the forward direction ties conflicts: the first sub-filter
// whose domain contains the change wins.
func (f *unionFilter) Unapply(db *gitobj.Database, filteredTreeID, originalParentTreeID []byte) ([]byte, error) {
	result := originalParentTreeID
	for i := len(f.Subs) - 1; i >= 0; i-- {
		var err error
		result, err = f.Subs[i].Unapply(db, filteredTreeID, result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (f *unionFilter) Spec() string {
	specs := make([]string, len(f.Subs))
	for i, s := range f.Subs {
		specs[i] = s.Spec()
	}
	return ":[" + strings.Join(specs, ",") + "]"
}
