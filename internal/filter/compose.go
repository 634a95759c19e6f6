package filter

import (
	"strings"

	"github.com/xandr001/josh/internal/gitobj"
)

// composeFilter applies its Filters in order, left to right (`:a:b`
// means "apply a, then b").
type composeFilter struct {
	Filters []Filter
}

func newComposeFilter(fs []Filter) Filter {
	return &composeFilter{Filters: fs}
}

func (f *composeFilter) ApplyTree(db *gitobj.Database, treeID []byte) ([]byte, error) {
	cur := treeID
	for _, sub := range f.Filters {
		var err error
		cur, err = sub.ApplyTree(db, cur)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (f *composeFilter) Unapply(db *gitobj.Database, filteredTreeID, originalParentTreeID []byte) ([]byte, error) {
	cur := filteredTreeID
	for i := len(f.Filters) - 1; i >= 0; i-- {
		var err error
		cur, err = f.Filters[i].Unapply(db, cur, originalParentTreeID)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func (f *composeFilter) Spec() string {
	var b strings.Builder
	for _, sub := range f.Filters {
		b.WriteString(sub.Spec())
	}
	return b.String()
}
