package expr

import (
	"fmt"
	"strings"
)

// Shape is the tensor shape of an expression value. A scalar has the empty
// shape.
type Shape []int

// Rank returns the number of axes.
func (s Shape) Rank() int { return len(s) }

// Size returns the total number of scalar components.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal reports whether two shapes are identical.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if s[k] != o[k] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for k, d := range s {
		parts[k] = fmt.Sprintf("%d", d)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Side selects one of the two cell-sided values of a quantity at an
// interior facet.
type Side uint8

const (
	PositiveSide Side = iota
	NegativeSide
)

func (s Side) String() string {
	if s == PositiveSide {
		return "+"
	}
	return "-"
}

// Node is one immutable expression node. Operands are shared, never copied
// and never mutated; two nodes may reference the same operand, making the
// expression a DAG.
type Node struct {
	kind     Kind
	shape    Shape
	operands []*Node
	domain   *Domain
	free     []FreeIndex

	// payloads, valid depending on kind
	value    float64   // ScalarValue
	indices  []Idx     // Indexed, ComponentTensor
	sumIndex FreeIndex // IndexSum
	side     Side      // Restricted
	element  *Element  // Coefficient
}

// Kind returns the node's kind tag.
func (n *Node) Kind() Kind { return n.kind }

// Shape returns the tensor shape of the node's value.
func (n *Node) Shape() Shape { return n.shape }

// Operands returns the operand nodes. Callers must not modify the slice.
func (n *Node) Operands() []*Node { return n.operands }

// Domain returns the domain the node is defined over, or nil.
func (n *Node) Domain() *Domain { return n.domain }

// FreeIndices returns the free symbolic indices of the node.
func (n *Node) FreeIndices() []FreeIndex { return n.free }

// Value returns the literal value of a ScalarValue node.
func (n *Node) Value() float64 { return n.value }

// Indices returns the component tuple of an Indexed node or the bound
// indices of a ComponentTensor node.
func (n *Node) Indices() []Idx { return n.indices }

// SumIndex returns the index an IndexSum node sums over.
func (n *Node) SumIndex() FreeIndex { return n.sumIndex }

// Side returns the side tag of a Restricted node.
func (n *Node) Side() Side { return n.side }

// Element returns the finite element of a Coefficient node.
func (n *Node) Element() *Element { return n.element }

func (n *Node) String() string {
	if n.kind.IsTerminal() {
		if n.kind == ScalarValue {
			return fmt.Sprintf("%g", n.value)
		}
		return n.kind.String()
	}
	parts := make([]string, len(n.operands))
	for k, op := range n.operands {
		parts[k] = op.String()
	}
	return n.kind.String() + "(" + strings.Join(parts, ", ") + ")"
}

// Reconstruct returns a node of the same kind, shape and payload with the
// given operands. The operand count must match.
func (n *Node) Reconstruct(operands []*Node) *Node {
	if len(operands) != len(n.operands) {
		panic(fmt.Sprintf("reconstructing %s with %d operands, want %d",
			n.kind, len(operands), len(n.operands)))
	}
	m := *n
	m.operands = operands
	return &m
}

// domainOf returns the domain of the first operand that has one.
func domainOf(operands ...*Node) *Domain {
	for _, op := range operands {
		if op != nil && op.domain != nil {
			return op.domain
		}
	}
	return nil
}
