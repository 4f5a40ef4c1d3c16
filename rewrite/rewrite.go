// Package rewrite provides the memoized DAG rewriter: a bottom-up traversal
// that applies a per-kind handler exactly once per distinct node identity,
// caching results so shared sub-expressions are rewritten once and stay
// shared in the output.
package rewrite

import "github.com/notargets/symform/expr"

// Handler rewrites one node. Handlers are applied as cutoffs: the rewriter
// does not descend into the operands of a handled node, the handler owns the
// whole subtree.
type Handler func(*expr.Node) (*expr.Node, error)

// Rewriter applies a handler table over an expression DAG. The result cache
// is keyed by node identity (pointer), never by structural equality, and
// lives for the lifetime of the Rewriter; construct a fresh Rewriter per
// rewrite invocation.
type Rewriter struct {
	handlers [expr.NumKinds]Handler
	cache    map[*expr.Node]*expr.Node
}

// New constructs a rewriter from a kind-to-handler mapping. The mapping is
// copied into a dense table indexed by kind.
func New(handlers map[expr.Kind]Handler) *Rewriter {
	r := &Rewriter{cache: make(map[*expr.Node]*expr.Node)}
	for k, h := range handlers {
		r.handlers[k] = h
	}
	return r
}

// Rewrite traverses the DAG below root in post order, children before
// parents, and returns the rewritten root. A node whose kind has a handler
// is replaced by the handler result; any other node is returned as-is when
// its operands are unchanged, or reconstructed from the rewritten operands
// otherwise. Traversal is iterative, so DAG depth is not limited by the call
// stack.
func (r *Rewriter) Rewrite(root *expr.Node) (*expr.Node, error) {
	type frame struct {
		node *expr.Node
		next int
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := top.node
		if _, ok := r.cache[n]; ok {
			stack = stack[:len(stack)-1]
			continue
		}
		if h := r.handlers[n.Kind()]; h != nil {
			res, err := h(n)
			if err != nil {
				return nil, err
			}
			r.cache[n] = res
			stack = stack[:len(stack)-1]
			continue
		}
		ops := n.Operands()
		if top.next < len(ops) {
			child := ops[top.next]
			top.next++
			if _, ok := r.cache[child]; !ok {
				stack = append(stack, frame{node: child})
			}
			continue
		}
		res := n
		if len(ops) > 0 {
			changed := false
			newOps := make([]*expr.Node, len(ops))
			for k, op := range ops {
				newOps[k] = r.cache[op]
				if newOps[k] != op {
					changed = true
				}
			}
			if changed {
				res = n.Reconstruct(newOps)
			}
		}
		r.cache[n] = res
		stack = stack[:len(stack)-1]
	}
	return r.cache[root], nil
}
