package expr

import "fmt"

// Scalar returns a literal scalar value node.
func Scalar(v float64) *Node {
	return &Node{kind: ScalarValue, value: v}
}

// NewCoefficient returns a coefficient field node on the given domain.
func NewCoefficient(d *Domain, element Element) *Node {
	return &Node{kind: Coefficient, shape: element.Value, domain: d, element: &element}
}

// Add returns the sum of two expressions of identical shape and free
// indices.
func Add(a, b *Node) *Node {
	if !a.shape.Equal(b.shape) {
		panic(fmt.Sprintf("adding shapes %s and %s", a.shape, b.shape))
	}
	if !sameFree(a.free, b.free) {
		panic("adding expressions with different free indices")
	}
	return &Node{
		kind:     Sum,
		shape:    a.shape,
		operands: []*Node{a, b},
		domain:   domainOf(a, b),
		free:     a.free,
	}
}

// Sub returns a - b.
func Sub(a, b *Node) *Node {
	return Add(a, Neg(b))
}

// Neg returns the negation of an expression.
func Neg(a *Node) *Node {
	return Mul(Scalar(-1), a)
}

// Mul returns the product of two expressions. At least one operand must be
// scalar shaped. A free index occurring in both operands is summed over,
// wrapping the product in an IndexSum per repeated index.
func Mul(a, b *Node) *Node {
	var shape Shape
	switch {
	case a.shape.Rank() == 0:
		shape = b.shape
	case b.shape.Rank() == 0:
		shape = a.shape
	default:
		panic(fmt.Sprintf("multiplying shapes %s and %s", a.shape, b.shape))
	}
	shared := intersectFree(a.free, b.free)
	n := &Node{
		kind:     Product,
		shape:    shape,
		operands: []*Node{a, b},
		domain:   domainOf(a, b),
		free:     unionFree(a.free, b.free),
	}
	for _, fi := range shared {
		n = newIndexSum(n, fi.Index)
	}
	return n
}

// Div returns a divided by the scalar expression b.
func Div(a, b *Node) *Node {
	if b.shape.Rank() != 0 {
		panic(fmt.Sprintf("dividing by shape %s", b.shape))
	}
	if len(b.free) != 0 {
		panic("dividing by expression with free indices")
	}
	return &Node{
		kind:     Division,
		shape:    a.shape,
		operands: []*Node{a, b},
		domain:   domainOf(a, b),
		free:     a.free,
	}
}

// AbsValue returns the absolute value of a scalar expression.
func AbsValue(a *Node) *Node {
	return scalarUnary(Abs, a)
}

// SqrtValue returns the square root of a scalar expression.
func SqrtValue(a *Node) *Node {
	return scalarUnary(Sqrt, a)
}

func scalarUnary(k Kind, a *Node) *Node {
	if a.shape.Rank() != 0 {
		panic(fmt.Sprintf("%s of shape %s", k, a.shape))
	}
	return &Node{kind: k, operands: []*Node{a}, domain: a.domain, free: a.free}
}

// Min returns the smaller of two scalar expressions.
func Min(a, b *Node) *Node {
	return scalarPair(MinValue, a, b)
}

// Max returns the larger of two scalar expressions.
func Max(a, b *Node) *Node {
	return scalarPair(MaxValue, a, b)
}

func scalarPair(k Kind, a, b *Node) *Node {
	if a.shape.Rank() != 0 || b.shape.Rank() != 0 {
		panic(fmt.Sprintf("%s of shapes %s and %s", k, a.shape, b.shape))
	}
	return &Node{kind: k, operands: []*Node{a, b}, domain: domainOf(a, b)}
}

// At returns the component of a tensor expression selected by the given
// index tuple, which must match the tensor's rank. Symbolic indices in the
// tuple become free indices of the result.
func At(a *Node, indices ...Idx) *Node {
	if len(indices) != a.shape.Rank() {
		panic(fmt.Sprintf("indexing shape %s with %d indices", a.shape, len(indices)))
	}
	free := a.free
	for pos, ix := range indices {
		if ix.IsFixed() {
			if ix.Fixed() < 0 || ix.Fixed() >= a.shape[pos] {
				panic(fmt.Sprintf("component %d out of range for axis of size %d",
					ix.Fixed(), a.shape[pos]))
			}
			continue
		}
		free = insertFree(free, FreeIndex{Index: ix.Index(), Dim: a.shape[pos]})
	}
	idxs := make([]Idx, len(indices))
	copy(idxs, indices)
	return &Node{
		kind:     Indexed,
		operands: []*Node{a},
		domain:   a.domain,
		free:     free,
		indices:  idxs,
	}
}

func newIndexSum(a *Node, i Index) *Node {
	free, fi, ok := removeFree(a.free, i)
	if !ok {
		panic(fmt.Sprintf("summing over index %s not free in expression", i))
	}
	return &Node{
		kind:     IndexSum,
		shape:    a.shape,
		operands: []*Node{a},
		domain:   a.domain,
		free:     free,
		sumIndex: fi,
	}
}

// AsTensor binds free indices of a scalar expression into tensor axes, in
// the given order.
func AsTensor(a *Node, indices ...Index) *Node {
	if a.shape.Rank() != 0 {
		panic(fmt.Sprintf("AsTensor over shape %s", a.shape))
	}
	free := a.free
	shape := make(Shape, len(indices))
	idxs := make([]Idx, len(indices))
	for pos, i := range indices {
		var fi FreeIndex
		var ok bool
		free, fi, ok = removeFree(free, i)
		if !ok {
			panic(fmt.Sprintf("AsTensor index %s not free in expression", i))
		}
		shape[pos] = fi.Dim
		idxs[pos] = FreeIdx(i)
	}
	return &Node{
		kind:     ComponentTensor,
		shape:    shape,
		operands: []*Node{a},
		domain:   a.domain,
		free:     free,
		indices:  idxs,
	}
}

// AsVector assembles scalar components into a vector expression.
func AsVector(components ...*Node) *Node {
	for _, c := range components {
		if c.shape.Rank() != 0 {
			panic(fmt.Sprintf("vector component of shape %s", c.shape))
		}
		if len(c.free) != 0 {
			panic("vector component with free indices")
		}
	}
	return &Node{
		kind:     ListTensor,
		shape:    Shape{len(components)},
		operands: components,
		domain:   domainOf(components...),
	}
}

// AsMatrix assembles rows of scalar components into a matrix expression.
func AsMatrix(rows [][]*Node) *Node {
	cols := len(rows[0])
	operands := make([]*Node, len(rows))
	for r, row := range rows {
		if len(row) != cols {
			panic("ragged matrix rows")
		}
		operands[r] = AsVector(row...)
	}
	return &Node{
		kind:     ListTensor,
		shape:    Shape{len(rows), cols},
		operands: operands,
		domain:   domainOf(operands...),
	}
}

// NewReferenceGrad returns the derivative of an expression with respect to
// reference-cell coordinates, appending an axis of the topological
// dimension.
func NewReferenceGrad(f *Node) *Node {
	d := f.domain
	if d == nil {
		panic("reference gradient of expression without domain")
	}
	shape := make(Shape, 0, f.shape.Rank()+1)
	shape = append(shape, f.shape...)
	shape = append(shape, d.TopologicalDimension())
	return &Node{kind: ReferenceGrad, shape: shape, operands: []*Node{f}, domain: d, free: f.free}
}

// NewReferenceValue returns the reference-space value of a coefficient
// field, undoing its mapping to physical space.
func NewReferenceValue(f *Node) *Node {
	if f.kind != Coefficient {
		panic("reference value of non-coefficient")
	}
	return &Node{kind: ReferenceValue, shape: f.shape, operands: []*Node{f}, domain: f.domain}
}

// NewRestricted returns the given expression restricted to one side of an
// interior facet.
func NewRestricted(f *Node, side Side) *Node {
	return &Node{kind: Restricted, shape: f.shape, operands: []*Node{f}, domain: f.domain, side: side, free: f.free}
}
