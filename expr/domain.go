package expr

import (
	"fmt"

	"github.com/notargets/symform/cell"
)

// Element describes the finite element of a coefficient field. Only the
// properties the lowering rules consult are modelled.
type Element struct {
	Family  string
	Degree  int
	Mapping string // "identity" for affine-compatible fields
	Value   Shape  // value shape of the field
}

// Domain describes the geometric and topological context a quantity is
// defined over. The geometric dimension may exceed the cell's topological
// dimension for manifold embeddings (a surface in 3-space).
type Domain struct {
	cellKind    cell.Kind
	gdim        int
	coordinates *Node // vector-valued Coefficient, or nil for affine domains
}

// NewDomain returns a domain without a coordinate field ("old-style" affine
// domain). The geometric dimension must be at least the cell's topological
// dimension.
func NewDomain(ck cell.Kind, gdim int) *Domain {
	if gdim < ck.Dim() {
		panic(fmt.Sprintf("geometric dimension %d below topological dimension %d of %s",
			gdim, ck.Dim(), ck))
	}
	return &Domain{cellKind: ck, gdim: gdim}
}

// NewDomainWithCoordinates returns a domain whose geometry is carried by a
// coordinate field of the given element. The element must be vector valued;
// the geometric dimension is taken from its value shape. The coordinate
// field is constructed on the domain itself, so the two reference each
// other.
func NewDomainWithCoordinates(ck cell.Kind, element Element) *Domain {
	if element.Value.Rank() != 1 {
		panic(fmt.Sprintf("domain coordinates must be vector valued, got shape %s",
			element.Value))
	}
	gdim := element.Value[0]
	if gdim < ck.Dim() {
		panic(fmt.Sprintf("geometric dimension %d below topological dimension %d of %s",
			gdim, ck.Dim(), ck))
	}
	d := &Domain{cellKind: ck, gdim: gdim}
	d.coordinates = NewCoefficient(d, element)
	return d
}

// CellKind returns the cell kind of the domain.
func (d *Domain) CellKind() cell.Kind { return d.cellKind }

// GeometricDimension returns the dimension of the embedding space.
func (d *Domain) GeometricDimension() int { return d.gdim }

// TopologicalDimension returns the dimension of the cell.
func (d *Domain) TopologicalDimension() int { return d.cellKind.Dim() }

// Coordinates returns the coordinate field of the domain, or nil.
func (d *Domain) Coordinates() *Node { return d.coordinates }

// IsPiecewiseLinearSimplex reports whether the coordinate map is exactly
// linear per cell: the cell is a simplex and the coordinate field, if any,
// is a degree-1 Lagrange field.
func (d *Domain) IsPiecewiseLinearSimplex() bool {
	if !d.cellKind.IsSimplex() {
		return false
	}
	if d.coordinates == nil {
		return true
	}
	e := d.coordinates.Element()
	return e.Family == "Lagrange" && e.Degree == 1
}

func (d *Domain) String() string {
	return fmt.Sprintf("Domain(%s, gdim=%d, tdim=%d)", d.cellKind, d.gdim, d.TopologicalDimension())
}
