// Package eval evaluates lowered expressions numerically for one affine
// cell. It supplies the canonical geometric terminals (Jacobian family,
// reference-cell data, coordinates) from the cell's physical vertex
// coordinates and walks the expression structurally, so the closed-form
// geometry produced by the lowering pass can be checked against direct
// linear-algebra computations.
package eval

import (
	"fmt"
	"math"

	"github.com/notargets/symform/cell"
	"github.com/notargets/symform/expr"
	"gonum.org/v1/gonum/mat"
)

// Context is one affine cell to evaluate on.
type Context struct {
	Domain   *expr.Domain
	Vertices [][]float64 // physical vertex coordinates, cell vertex order

	// Facet is the local facet index for facet quantities; -1 when the
	// expression contains none.
	Facet int

	// Orientation is the +-1 cell orientation sign for manifold cells.
	// Zero means +1.
	Orientation float64

	// Point is the reference-cell coordinate at which coordinate-valued
	// expressions are evaluated. May be nil when the expression contains
	// no coordinates.
	Point []float64
}

func (c *Context) orientation() float64 {
	if c.Orientation == 0 {
		return 1
	}
	return c.Orientation
}

// geometry lazily derives the Jacobian family of the context's cell.
type geometry struct {
	ctx *Context
	jac *mat.Dense
}

func newGeometry(ctx *Context) (*geometry, error) {
	d := ctx.Domain
	if d == nil {
		return nil, fmt.Errorf("evaluation context has no domain")
	}
	if len(ctx.Vertices) != d.CellKind().NumVertices() {
		return nil, fmt.Errorf("%d vertices for cell kind %s, want %d",
			len(ctx.Vertices), d.CellKind(), d.CellKind().NumVertices())
	}
	for _, v := range ctx.Vertices {
		if len(v) != d.GeometricDimension() {
			return nil, fmt.Errorf("vertex coordinate length %d, want gdim %d",
				len(v), d.GeometricDimension())
		}
	}
	return &geometry{ctx: ctx}, nil
}

// jacobian returns the constant Jacobian of the affine cell: column k is
// vertex k+1 minus vertex 0, matching the unit reference simplex.
func (g *geometry) jacobian() *mat.Dense {
	if g.jac != nil {
		return g.jac
	}
	d := g.ctx.Domain
	gdim := d.GeometricDimension()
	tdim := d.TopologicalDimension()
	g.jac = mat.NewDense(gdim, tdim, nil)
	for k := 0; k < tdim; k++ {
		for i := 0; i < gdim; i++ {
			g.jac.Set(i, k, g.ctx.Vertices[k+1][i]-g.ctx.Vertices[0][i])
		}
	}
	return g.jac
}

// pseudoDeterminant returns det(A) for a square matrix and the unsigned
// pseudo-determinant sqrt(det(A^T A)) for a tall one.
func pseudoDeterminant(a mat.Matrix) float64 {
	m, n := a.Dims()
	if m == n {
		return mat.Det(a)
	}
	var ata mat.Dense
	ata.Mul(a.T(), a)
	return math.Sqrt(mat.Det(&ata))
}

// pseudoInverse returns A^-1 for a square matrix and the left pseudo-inverse
// (A^T A)^-1 A^T for a tall one.
func pseudoInverse(a mat.Matrix) (*mat.Dense, error) {
	m, n := a.Dims()
	if m == n {
		var inv mat.Dense
		if err := inv.Inverse(a); err != nil {
			return nil, fmt.Errorf("inverting %dx%d Jacobian: %w", m, n, err)
		}
		return &inv, nil
	}
	var ata mat.Dense
	ata.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("inverting %dx%d Gram matrix: %w", n, n, err)
	}
	var pinv mat.Dense
	pinv.Mul(&inv, a.T())
	return &pinv, nil
}

// facetJacobian returns J times the cell-to-facet Jacobian of the context's
// facet.
func (g *geometry) facetJacobian() (*mat.Dense, error) {
	d := g.ctx.Domain
	if g.ctx.Facet < 0 {
		return nil, fmt.Errorf("facet quantity evaluated without a facet in the context")
	}
	tdim := d.TopologicalDimension()
	if tdim < 2 {
		return nil, fmt.Errorf("facets of %s cells have no jacobian", d.CellKind())
	}
	cfj := cell.CellFacetJacobian(d.CellKind(), g.ctx.Facet)
	rfj := mat.NewDense(tdim, tdim-1, nil)
	for i := 0; i < tdim; i++ {
		for j := 0; j < tdim-1; j++ {
			rfj.Set(i, j, cfj[i][j])
		}
	}
	var fj mat.Dense
	fj.Mul(g.jacobian(), rfj)
	return &fj, nil
}

func matrixValue(a mat.Matrix) Value {
	m, n := a.Dims()
	data := make([]float64, 0, m*n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			data = append(data, a.At(i, j))
		}
	}
	return Value{Shape: expr.Shape{m, n}, Data: data}
}

func vectorValue(v []float64) Value {
	data := make([]float64, len(v))
	copy(data, v)
	return Value{Shape: expr.Shape{len(v)}, Data: data}
}

func rowsValue(rows [][]float64) Value {
	m := len(rows)
	n := len(rows[0])
	data := make([]float64, 0, m*n)
	for _, r := range rows {
		data = append(data, r...)
	}
	return Value{Shape: expr.Shape{m, n}, Data: data}
}

func scalarValue(v float64) Value {
	return Value{Data: []float64{v}}
}

// terminal evaluates a geometric terminal from the context.
func (g *geometry) terminal(n *expr.Node) (Value, error) {
	d := g.ctx.Domain
	ck := d.CellKind()
	switch n.Kind() {
	case expr.Jacobian:
		return matrixValue(g.jacobian()), nil

	case expr.JacobianDeterminant:
		return scalarValue(pseudoDeterminant(g.jacobian())), nil

	case expr.JacobianInverse:
		inv, err := pseudoInverse(g.jacobian())
		if err != nil {
			return Value{}, err
		}
		return matrixValue(inv), nil

	case expr.FacetJacobian:
		fj, err := g.facetJacobian()
		if err != nil {
			return Value{}, err
		}
		return matrixValue(fj), nil

	case expr.FacetJacobianDeterminant:
		fj, err := g.facetJacobian()
		if err != nil {
			return Value{}, err
		}
		return scalarValue(pseudoDeterminant(fj)), nil

	case expr.FacetJacobianInverse:
		fj, err := g.facetJacobian()
		if err != nil {
			return Value{}, err
		}
		inv, err := pseudoInverse(fj)
		if err != nil {
			return Value{}, err
		}
		return matrixValue(inv), nil

	case expr.CellFacetJacobian:
		if g.ctx.Facet < 0 {
			return Value{}, fmt.Errorf("facet quantity evaluated without a facet in the context")
		}
		return rowsValue(cell.CellFacetJacobian(ck, g.ctx.Facet)), nil

	case expr.CellOrigin:
		return vectorValue(g.ctx.Vertices[0]), nil

	case expr.CellOrientation:
		return scalarValue(g.ctx.orientation()), nil

	case expr.CellEdgeVectors:
		return rowsValue(cell.ReferenceEdgeVectors(ck)), nil

	case expr.FacetEdgeVectors:
		if g.ctx.Facet < 0 {
			return Value{}, fmt.Errorf("facet quantity evaluated without a facet in the context")
		}
		return rowsValue(cell.FacetEdgeVectors(ck, g.ctx.Facet)), nil

	case expr.ReferenceNormal:
		if g.ctx.Facet < 0 {
			return Value{}, fmt.Errorf("facet quantity evaluated without a facet in the context")
		}
		return vectorValue(cell.ReferenceNormal(ck, g.ctx.Facet)), nil

	case expr.ReferenceCellVolume:
		return scalarValue(cell.ReferenceCellVolume(ck)), nil

	case expr.ReferenceFacetVolume:
		return scalarValue(cell.ReferenceFacetVolume(ck)), nil

	case expr.CellVolume:
		return scalarValue(math.Abs(pseudoDeterminant(g.jacobian())) * cell.ReferenceCellVolume(ck)), nil

	case expr.FacetArea:
		fj, err := g.facetJacobian()
		if err != nil {
			return Value{}, err
		}
		return scalarValue(math.Abs(pseudoDeterminant(fj)) * cell.ReferenceFacetVolume(ck)), nil

	case expr.CellCoordinate:
		if g.ctx.Point == nil {
			return Value{}, fmt.Errorf("coordinate evaluated without a point in the context")
		}
		return vectorValue(g.ctx.Point), nil

	case expr.SpatialCoordinate:
		return g.spatialCoordinate()
	}
	return Value{}, fmt.Errorf("cannot evaluate terminal %s; lower the expression first", n.Kind())
}

// spatialCoordinate maps the context point through the affine coordinate
// map: x = v0 + J X.
func (g *geometry) spatialCoordinate() (Value, error) {
	if g.ctx.Point == nil {
		return Value{}, fmt.Errorf("coordinate evaluated without a point in the context")
	}
	d := g.ctx.Domain
	gdim := d.GeometricDimension()
	tdim := d.TopologicalDimension()
	if len(g.ctx.Point) != tdim {
		return Value{}, fmt.Errorf("point length %d, want tdim %d", len(g.ctx.Point), tdim)
	}
	J := g.jacobian()
	x := make([]float64, gdim)
	for i := 0; i < gdim; i++ {
		x[i] = g.ctx.Vertices[0][i]
		for k := 0; k < tdim; k++ {
			x[i] += J.At(i, k) * g.ctx.Point[k]
		}
	}
	return vectorValue(x), nil
}
