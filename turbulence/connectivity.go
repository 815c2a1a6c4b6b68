package turbulence

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
)

// ConnectivityTable maps a residual name to the ordered lists of state
// variable names that residual depends on. It is pure metadata: populated at
// registration time, never mutated afterwards. The outer adjoint engine
// merges the turbulence contribution with the flow-equation entries to build
// global sparsity.
type ConnectivityTable map[string][][]string

// Add merges one keyed entry. A duplicate key indicates two models claiming
// the same residual and is rejected, never silently overwritten.
func (t ConnectivityTable) Add(key string, con [][]string) (err error) {
	if _, exists := t[key]; exists {
		err = fmt.Errorf("%w: %s", ErrDuplicateConnectivity, key)
		return
	}
	deep := make([][]string, len(con))
	for i, row := range con {
		deep[i] = append([]string(nil), row...)
	}
	t[key] = deep
	return
}

// ResidualNames returns the keyed residual names in sorted order, so
// downstream ordering never depends on map iteration.
func (t ConnectivityTable) ResidualNames() (names []string) {
	names = make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// SparsityPattern builds the residual-by-state incidence matrix from the
// table: entry (i,j) is 1 when residual i depends on state j. Rows follow
// ResidualNames order, columns follow the supplied state index map.
func (t ConnectivityTable) SparsityPattern(stateIndex map[string]int) (csr *sparse.CSR, err error) {
	var (
		names = t.ResidualNames()
		dok   = sparse.NewDOK(len(names), len(stateIndex))
	)
	for i, name := range names {
		for _, row := range t[name] {
			for _, state := range row {
				j, ok := stateIndex[state]
				if !ok {
					err = fmt.Errorf("%w: residual %s depends on unindexed state %s",
						ErrInvalidArgument, name, state)
					return
				}
				dok.Set(i, j, 1)
			}
		}
	}
	csr = dok.ToCSR()
	return
}
