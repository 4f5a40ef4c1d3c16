// Package lowering implements the geometry-lowering rewrite pass: it
// replaces high-level geometric quantities (normals, volumes, circumradius,
// edge lengths, ...) in an expression, integral or form with expressions of
// the Jacobian, its inverse and determinant, and reference-cell data.
//
// Lowering is purely functional: inputs are never mutated and every call
// builds its own memoization caches. Quantities whose preconditions are not
// met split two ways: configurations the downstream form compiler may still
// handle (non-affine cell volumes and friends) log a warning and pass the
// node through unchanged, while inputs the pass must reject (unsupported
// cell kinds, Piola-mapped coordinates) fail with a typed error.
package lowering

import (
	"github.com/notargets/symform/cell"
	"github.com/notargets/symform/expr"
	"github.com/notargets/symform/rewrite"
	"github.com/sirupsen/logrus"
)

// applier holds the state of one lowering invocation: the preserve set, the
// warning sink, and the per-domain memo that keeps quantities derived more
// than once (the Jacobian above all) shared in the output DAG.
type applier struct {
	preserve PreserveSet
	log      logrus.FieldLogger
	memo     map[memoKey]*expr.Node
}

// memoKey identifies a geometric quantity up to its domain. Two
// independently constructed nodes of the same quantity on the same domain
// lower to the identical result node.
type memoKey struct {
	kind   expr.Kind
	domain *expr.Domain
}

func newApplier(preserve PreserveSet, log logrus.FieldLogger) *applier {
	return &applier{
		preserve: preserve,
		log:      log,
		memo:     make(map[memoKey]*expr.Node),
	}
}

// handlers returns the rewrite handler table, one entry per geometric
// quantity this pass lowers.
func (a *applier) handlers() map[expr.Kind]rewrite.Handler {
	return map[expr.Kind]rewrite.Handler{
		expr.Jacobian:                 a.jacobian,
		expr.JacobianInverse:          a.jacobianInverse,
		expr.JacobianDeterminant:      a.jacobianDeterminant,
		expr.FacetJacobian:            a.facetJacobian,
		expr.FacetJacobianInverse:     a.facetJacobianInverse,
		expr.FacetJacobianDeterminant: a.facetJacobianDeterminant,
		expr.SpatialCoordinate:        a.spatialCoordinate,
		expr.CellCoordinate:           a.cellCoordinate,
		expr.FacetCellCoordinate:      a.facetCellCoordinate,
		expr.CellVolume:               a.cellVolume,
		expr.FacetArea:                a.facetArea,
		expr.Circumradius:             a.circumradius,
		expr.MinCellEdgeLength:        a.minCellEdgeLength,
		expr.MaxCellEdgeLength:        a.maxCellEdgeLength,
		expr.MinFacetEdgeLength:       a.minFacetEdgeLength,
		expr.MaxFacetEdgeLength:       a.maxFacetEdgeLength,
		expr.CellNormal:               a.cellNormal,
		expr.FacetNormal:              a.facetNormal,
	}
}

// memoized runs compute at most once per (kind, domain) pair, so internal
// re-derivations of the same quantity resolve to one shared node.
func (a *applier) memoized(o *expr.Node, compute func(*expr.Node) (*expr.Node, error)) (*expr.Node, error) {
	key := memoKey{kind: o.Kind(), domain: o.Domain()}
	if r, ok := a.memo[key]; ok {
		return r, nil
	}
	r, err := compute(o)
	if err != nil {
		return nil, err
	}
	a.memo[key] = r
	return r, nil
}

func (a *applier) jacobian(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		d := o.Domain()
		if d.Coordinates() == nil {
			// Affine case: nothing to differentiate without a coordinate field
			return o, nil
		}
		x, err := a.spatialCoordinate(expr.NewSpatialCoordinate(d))
		if err != nil {
			return nil, err
		}
		return expr.NewReferenceGrad(x), nil
	})
}

func (a *applier) jacobianInverse(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		J, err := a.jacobian(expr.NewJacobian(o.Domain()))
		if err != nil {
			return nil, err
		}
		return expr.InverseExpr(J), nil
	})
}

func (a *applier) jacobianDeterminant(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		d := o.Domain()
		J, err := a.jacobian(expr.NewJacobian(d))
		if err != nil {
			return nil, err
		}
		detJ := expr.DeterminantExpr(J)
		// The pseudo-determinant of a non-square Jacobian is unsigned; the
		// cell orientation carries the sign on manifolds.
		if d.TopologicalDimension() < d.GeometricDimension() {
			detJ = expr.Mul(expr.NewCellOrientation(d), detJ)
		}
		return detJ, nil
	})
}

func (a *applier) facetJacobian(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		d := o.Domain()
		J, err := a.jacobian(expr.NewJacobian(d))
		if err != nil {
			return nil, err
		}
		rfj := expr.NewCellFacetJacobian(d)
		idx := expr.NewIndices(3)
		i, j, k := idx[0], idx[1], idx[2]
		return expr.AsTensor(
			expr.Mul(
				expr.At(J, expr.FreeIdx(i), expr.FreeIdx(k)),
				expr.At(rfj, expr.FreeIdx(k), expr.FreeIdx(j)),
			),
			i, j), nil
	})
}

func (a *applier) facetJacobianInverse(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		FJ, err := a.facetJacobian(expr.NewFacetJacobian(o.Domain()))
		if err != nil {
			return nil, err
		}
		return expr.InverseExpr(FJ), nil
	})
}

func (a *applier) facetJacobianDeterminant(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		FJ, err := a.facetJacobian(expr.NewFacetJacobian(o.Domain()))
		if err != nil {
			return nil, err
		}
		return expr.DeterminantExpr(FJ), nil
	})
}

func (a *applier) spatialCoordinate(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		x := o.Domain().Coordinates()
		if x == nil {
			// Old-style affine domain: the coordinate stays a terminal
			return o, nil
		}
		if x.Element().Mapping != "identity" {
			return nil, &UnsupportedMappingError{Mapping: x.Element().Mapping}
		}
		return expr.NewReferenceValue(x), nil
	})
}

func (a *applier) cellCoordinate(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		d := o.Domain()
		K, err := a.jacobianInverse(expr.NewJacobianInverse(d))
		if err != nil {
			return nil, err
		}
		x, err := a.spatialCoordinate(expr.NewSpatialCoordinate(d))
		if err != nil {
			return nil, err
		}
		x0 := expr.NewCellOrigin(d)
		idx := expr.NewIndices(2)
		i, j := idx[0], idx[1]
		return expr.AsTensor(
			expr.Mul(
				expr.At(K, expr.FreeIdx(i), expr.FreeIdx(j)),
				expr.Sub(expr.At(x, expr.FreeIdx(j)), expr.At(x0, expr.FreeIdx(j))),
			),
			i), nil
	})
}

func (a *applier) facetCellCoordinate(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return nil, &NotImplementedError{
		What: "computation of facet reference coordinates from physical coordinates",
	}
}

func (a *applier) cellVolume(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		d := o.Domain()
		if !d.IsPiecewiseLinearSimplex() {
			a.log.Warnf("only know how to compute the cell volume of an affine simplex cell, leaving %s on %s to the form compiler", o.Kind(), d)
			return o, nil
		}
		detJ, err := a.jacobianDeterminant(expr.NewJacobianDeterminant(d))
		if err != nil {
			return nil, err
		}
		return expr.AbsValue(expr.Mul(detJ, expr.NewReferenceCellVolume(d))), nil
	})
}

func (a *applier) facetArea(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		d := o.Domain()
		if !d.IsPiecewiseLinearSimplex() {
			a.log.Warnf("only know how to compute the facet area of an affine simplex cell, leaving %s on %s to the form compiler", o.Kind(), d)
			return o, nil
		}
		detFJ, err := a.facetJacobianDeterminant(expr.NewFacetJacobianDeterminant(d))
		if err != nil {
			return nil, err
		}
		return expr.AbsValue(expr.Mul(detFJ, expr.NewReferenceFacetVolume(d))), nil
	})
}

// edgeLengths builds the physical length of each reference edge vector in
// vectors, mapped through the lowered Jacobian.
func (a *applier) edgeLengths(d *expr.Domain, vectors *expr.Node, numEdges int) ([]*expr.Node, error) {
	J, err := a.jacobian(expr.NewJacobian(d))
	if err != nil {
		return nil, err
	}
	elen := make([]*expr.Node, numEdges)
	for e := 0; e < numEdges; e++ {
		idx := expr.NewIndices(3)
		i, j, k := idx[0], idx[1], idx[2]
		ej := expr.Mul(
			expr.At(J, expr.FreeIdx(i), expr.FreeIdx(j)),
			expr.At(vectors, expr.FixedIdx(e), expr.FreeIdx(j)),
		)
		ek := expr.Mul(
			expr.At(J, expr.FreeIdx(i), expr.FreeIdx(k)),
			expr.At(vectors, expr.FixedIdx(e), expr.FreeIdx(k)),
		)
		elen[e] = expr.SqrtValue(expr.Mul(ej, ek))
	}
	return elen, nil
}

func (a *applier) circumradius(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		d := o.Domain()
		if !d.IsPiecewiseLinearSimplex() {
			a.log.Warnf("only know how to compute the circumradius of an affine simplex cell, leaving %s on %s to the form compiler", o.Kind(), d)
			return o, nil
		}
		volume, err := a.cellVolume(expr.NewCellVolume(d))
		if err != nil {
			return nil, err
		}
		switch d.CellKind() {
		case cell.Interval:
			return expr.Mul(expr.Scalar(0.5), volume), nil

		case cell.Triangle:
			elen, err := a.edgeLengths(d, expr.NewCellEdgeVectors(d), 3)
			if err != nil {
				return nil, err
			}
			return expr.Div(
				expr.Mul(expr.Mul(elen[0], elen[1]), elen[2]),
				expr.Mul(expr.Scalar(4), volume)), nil

		case cell.Tetrahedron:
			elen, err := a.edgeLengths(d, expr.NewCellEdgeVectors(d), 6)
			if err != nil {
				return nil, err
			}
			// Products of opposite edge lengths form the sides of an
			// auxiliary triangle whose area gives the circumradius
			// (Crelle's formula): R = area / (6 V).
			la := expr.Mul(elen[3], elen[2])
			lb := expr.Mul(elen[4], elen[1])
			lc := expr.Mul(elen[5], elen[0])
			s := expr.Div(expr.Add(expr.Add(la, lb), lc), expr.Scalar(2))
			area := expr.SqrtValue(expr.Mul(
				expr.Mul(expr.Mul(s, expr.Sub(s, la)), expr.Sub(s, lb)),
				expr.Sub(s, lc)))
			return expr.Div(area, expr.Mul(expr.Scalar(6), volume)), nil
		}
		return nil, a.unsupportedCell("circumradius", d)
	})
}

func (a *applier) minCellEdgeLength(o *expr.Node) (*expr.Node, error) {
	return a.cellEdgeLengthReduction(o, expr.Min, "min cell edge length")
}

func (a *applier) maxCellEdgeLength(o *expr.Node) (*expr.Node, error) {
	return a.cellEdgeLengthReduction(o, expr.Max, "max cell edge length")
}

func (a *applier) cellEdgeLengthReduction(o *expr.Node, reduce func(x, y *expr.Node) *expr.Node, what string) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		d := o.Domain()
		if !d.IsPiecewiseLinearSimplex() {
			a.log.Warnf("only know how to compute the %s of an affine simplex cell, leaving %s on %s to the form compiler", what, o.Kind(), d)
			return o, nil
		}
		switch d.CellKind() {
		case cell.Triangle:
			elen, err := a.edgeLengths(d, expr.NewCellEdgeVectors(d), 3)
			if err != nil {
				return nil, err
			}
			return reduce(elen[0], reduce(elen[1], elen[2])), nil
		case cell.Tetrahedron:
			elen, err := a.edgeLengths(d, expr.NewCellEdgeVectors(d), 6)
			if err != nil {
				return nil, err
			}
			r1 := reduce(elen[0], reduce(elen[1], elen[2]))
			r2 := reduce(elen[3], reduce(elen[4], elen[5]))
			return reduce(r1, r2), nil
		}
		return nil, a.unsupportedCell(what, d)
	})
}

func (a *applier) minFacetEdgeLength(o *expr.Node) (*expr.Node, error) {
	return a.facetEdgeLengthReduction(o, expr.Min, "min facet edge length")
}

func (a *applier) maxFacetEdgeLength(o *expr.Node) (*expr.Node, error) {
	return a.facetEdgeLengthReduction(o, expr.Max, "max facet edge length")
}

func (a *applier) facetEdgeLengthReduction(o *expr.Node, reduce func(x, y *expr.Node) *expr.Node, what string) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		d := o.Domain()
		if !d.IsPiecewiseLinearSimplex() {
			a.log.Warnf("only know how to compute the %s of an affine simplex cell, leaving %s on %s to the form compiler", what, o.Kind(), d)
			return o, nil
		}
		switch d.CellKind() {
		case cell.Triangle:
			// A facet of a triangle is a single edge, so its only edge
			// length is the facet area itself.
			return a.facetArea(expr.NewFacetArea(d))
		case cell.Tetrahedron:
			elen, err := a.edgeLengths(d, expr.NewFacetEdgeVectors(d), 3)
			if err != nil {
				return nil, err
			}
			return reduce(elen[0], reduce(elen[1], elen[2])), nil
		}
		return nil, a.unsupportedCell(what, d)
	})
}

func (a *applier) cellNormal(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		d := o.Domain()
		gdim := d.GeometricDimension()
		tdim := d.TopologicalDimension()
		if tdim != gdim-1 {
			return nil, a.unsupportedCell("cell normal", d)
		}
		J, err := a.jacobian(expr.NewJacobian(d))
		if err != nil {
			return nil, err
		}
		var cn *expr.Node
		switch tdim {
		case 2:
			// Surface in 3D: normal direction from the tangent columns
			i := expr.NewIndex()
			t0 := expr.AsTensor(expr.At(J, expr.FreeIdx(i), expr.FixedIdx(0)), i)
			i = expr.NewIndex()
			t1 := expr.AsTensor(expr.At(J, expr.FreeIdx(i), expr.FixedIdx(1)), i)
			cn = expr.CrossExpr(t0, t1)
		case 1:
			// Line in 2D: rotate the single column 90 degrees
			cn = expr.AsVector(
				expr.Neg(expr.At(J, expr.FixedIdx(1), expr.FixedIdx(0))),
				expr.At(J, expr.FixedIdx(0), expr.FixedIdx(0)))
		default:
			return nil, a.unsupportedCell("cell normal", d)
		}
		co := expr.NewCellOrientation(d)
		i := expr.NewIndex()
		norm := expr.SqrtValue(expr.Mul(
			expr.At(cn, expr.FreeIdx(i)), expr.At(cn, expr.FreeIdx(i))))
		return expr.Div(expr.Mul(co, cn), norm), nil
	})
}

func (a *applier) facetNormal(o *expr.Node) (*expr.Node, error) {
	if a.preserve.Contains(o.Kind()) {
		return o, nil
	}
	return a.memoized(o, func(o *expr.Node) (*expr.Node, error) {
		d := o.Domain()
		gdim := d.GeometricDimension()
		tdim := d.TopologicalDimension()
		rn := expr.NewReferenceNormal(d)

		var r *expr.Node
		if tdim == 1 {
			// A facet of an interval is a vertex; the normal is parallel
			// to the (possibly immersed) Jacobian column, signed by the
			// reference normal.
			J, err := a.jacobian(expr.NewJacobian(d))
			if err != nil {
				return nil, err
			}
			i := expr.NewIndex()
			ndir := expr.AsTensor(expr.At(J, expr.FreeIdx(i), expr.FixedIdx(0)), i)
			var nlen *expr.Node
			if gdim == 1 {
				nlen = expr.AbsValue(expr.At(ndir, expr.FixedIdx(0)))
			} else {
				k := expr.NewIndex()
				nlen = expr.SqrtValue(expr.Mul(
					expr.At(ndir, expr.FreeIdx(k)), expr.At(ndir, expr.FreeIdx(k))))
			}
			r = expr.Div(expr.Mul(expr.At(rn, expr.FixedIdx(0)), ndir), nlen)
		} else {
			// The covariant transform J^-T preserves tangential
			// components, so it maps the reference normal to the physical
			// normal direction.
			Jinv, err := a.jacobianInverse(expr.NewJacobianInverse(d))
			if err != nil {
				return nil, err
			}
			idx := expr.NewIndices(2)
			i, j := idx[0], idx[1]
			ndir := expr.AsTensor(
				expr.Mul(
					expr.At(Jinv, expr.FreeIdx(j), expr.FreeIdx(i)),
					expr.At(rn, expr.FreeIdx(j)),
				),
				i)
			k := expr.NewIndex()
			nlen := expr.SqrtValue(expr.Mul(
				expr.At(ndir, expr.FreeIdx(k)), expr.At(ndir, expr.FreeIdx(k))))
			r = expr.Div(ndir, nlen)
		}
		if !r.Shape().Equal(o.Shape()) {
			return nil, &ConsistencyError{Quantity: "facet normal", Want: o.Shape(), Got: r.Shape()}
		}
		return r, nil
	})
}

func (a *applier) unsupportedCell(quantity string, d *expr.Domain) error {
	return &UnsupportedCellError{
		Quantity: quantity,
		Cell:     d.CellKind(),
		Gdim:     d.GeometricDimension(),
		Tdim:     d.TopologicalDimension(),
	}
}
