package expr

import (
	"fmt"
	"sync/atomic"
)

// Index is a symbolic summation/component index. Every index created by
// NewIndex is distinct; indices are transient objects scoped to the
// construction of one sub-expression and are never reused across calls.
type Index struct {
	id int64
}

var indexCounter atomic.Int64

// NewIndex returns a fresh index, distinct from all others in this process.
func NewIndex() Index {
	return Index{id: indexCounter.Add(1)}
}

// NewIndices returns n fresh indices.
func NewIndices(n int) []Index {
	out := make([]Index, n)
	for i := range out {
		out[i] = NewIndex()
	}
	return out
}

func (i Index) String() string {
	return fmt.Sprintf("i%d", i.id)
}

// Idx is one slot of a component tuple: either a symbolic Index or a fixed
// integer component.
type Idx struct {
	index   Index
	fixed   int
	isFixed bool
}

// FixedIdx returns an Idx selecting the fixed component i.
func FixedIdx(i int) Idx {
	return Idx{fixed: i, isFixed: true}
}

// FreeIdx returns an Idx holding the symbolic index i.
func FreeIdx(i Index) Idx {
	return Idx{index: i}
}

// IsFixed reports whether the slot is a fixed component.
func (x Idx) IsFixed() bool { return x.isFixed }

// Fixed returns the fixed component value.
func (x Idx) Fixed() int { return x.fixed }

// Index returns the symbolic index held by the slot.
func (x Idx) Index() Index { return x.index }

func (x Idx) String() string {
	if x.isFixed {
		return fmt.Sprintf("%d", x.fixed)
	}
	return x.index.String()
}

// FreeIndex is a symbolic index together with the dimension it ranges over,
// as recorded on nodes that have it free.
type FreeIndex struct {
	Index Index
	Dim   int
}

// free-index set helpers; sets are kept sorted by index id

// insertFree returns a new set; the input is never mutated, since free-index
// slices are shared between nodes.
func insertFree(set []FreeIndex, fi FreeIndex) []FreeIndex {
	at := len(set)
	for k, e := range set {
		if e.Index == fi.Index {
			if e.Dim != fi.Dim {
				panic(fmt.Sprintf("index %s used with dimensions %d and %d", fi.Index, e.Dim, fi.Dim))
			}
			return set
		}
		if e.Index.id > fi.Index.id {
			at = k
			break
		}
	}
	out := make([]FreeIndex, 0, len(set)+1)
	out = append(out, set[:at]...)
	out = append(out, fi)
	out = append(out, set[at:]...)
	return out
}

func unionFree(a, b []FreeIndex) []FreeIndex {
	out := make([]FreeIndex, len(a))
	copy(out, a)
	for _, fi := range b {
		out = insertFree(out, fi)
	}
	return out
}

func intersectFree(a, b []FreeIndex) []FreeIndex {
	var out []FreeIndex
	for _, fa := range a {
		for _, fb := range b {
			if fa.Index == fb.Index {
				out = append(out, fa)
			}
		}
	}
	return out
}

func removeFree(set []FreeIndex, i Index) ([]FreeIndex, FreeIndex, bool) {
	for k, e := range set {
		if e.Index == i {
			out := make([]FreeIndex, 0, len(set)-1)
			out = append(out, set[:k]...)
			out = append(out, set[k+1:]...)
			return out, e, true
		}
	}
	return set, FreeIndex{}, false
}

func sameFree(a, b []FreeIndex) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}
