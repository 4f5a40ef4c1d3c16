package eval

import (
	"math"
	"testing"

	"github.com/notargets/symform/cell"
	"github.com/notargets/symform/expr"
	"github.com/notargets/symform/lowering"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lower(t *testing.T, n *expr.Node) *expr.Node {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	out, err := lowering.ApplyToExpr(n, lowering.Config{Log: log})
	require.NoError(t, err)
	return out
}

func evalScalar(t *testing.T, n *expr.Node, ctx *Context) float64 {
	t.Helper()
	v, err := Evaluate(n, ctx)
	require.NoError(t, err)
	return v.Scalar()
}

func evalVector(t *testing.T, n *expr.Node, ctx *Context) []float64 {
	t.Helper()
	v, err := Evaluate(n, ctx)
	require.NoError(t, err)
	require.Equal(t, 1, v.Shape.Rank())
	return v.Data
}

// A 3-4-5 right triangle: legs on the axes, hypotenuse opposite the origin.
func rightTriangle() (*expr.Domain, *Context) {
	d := expr.NewDomain(cell.Triangle, 2)
	return d, &Context{
		Domain:   d,
		Vertices: [][]float64{{0, 0}, {3, 0}, {0, 4}},
		Facet:    -1,
	}
}

func TestTriangleGeometry(t *testing.T) {
	d, ctx := rightTriangle()

	t.Run("cell volume", func(t *testing.T) {
		assert.InDelta(t, 6.0, evalScalar(t, lower(t, expr.NewCellVolume(d)), ctx), 1e-12)
	})

	t.Run("circumradius is half the hypotenuse", func(t *testing.T) {
		assert.InDelta(t, 2.5, evalScalar(t, lower(t, expr.NewCircumradius(d)), ctx), 1e-12)
	})

	t.Run("edge length extremes", func(t *testing.T) {
		assert.InDelta(t, 3.0, evalScalar(t, lower(t, expr.NewMinCellEdgeLength(d)), ctx), 1e-12)
		assert.InDelta(t, 5.0, evalScalar(t, lower(t, expr.NewMaxCellEdgeLength(d)), ctx), 1e-12)
	})

	t.Run("facet areas are the edge lengths", func(t *testing.T) {
		area := lower(t, expr.NewFacetArea(d))
		want := []float64{5, 4, 3}
		for f, w := range want {
			fctx := *ctx
			fctx.Facet = f
			assert.InDelta(t, w, evalScalar(t, area, &fctx), 1e-12, "facet %d", f)
		}
	})

	t.Run("facet edge length of an edge is its length", func(t *testing.T) {
		minLen := lower(t, expr.NewMinFacetEdgeLength(d))
		fctx := *ctx
		fctx.Facet = 0
		assert.InDelta(t, 5.0, evalScalar(t, minLen, &fctx), 1e-12)
	})

	t.Run("facet normals are outward units", func(t *testing.T) {
		normal := lower(t, expr.NewFacetNormal(d))
		want := [][]float64{{0.8, 0.6}, {-1, 0}, {0, -1}}
		for f, w := range want {
			fctx := *ctx
			fctx.Facet = f
			got := evalVector(t, normal, &fctx)
			for i := range w {
				assert.InDelta(t, w[i], got[i], 1e-12, "facet %d component %d", f, i)
			}
		}
	})
}

func TestTetrahedronGeometry(t *testing.T) {
	d := expr.NewDomain(cell.Tetrahedron, 3)
	ctx := &Context{
		Domain:   d,
		Vertices: [][]float64{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {0, 0, 2}},
		Facet:    -1,
	}

	t.Run("jacobian determinant", func(t *testing.T) {
		assert.InDelta(t, 8.0, evalScalar(t, lower(t, expr.NewJacobianDeterminant(d)), ctx), 1e-12)
	})

	t.Run("cell volume", func(t *testing.T) {
		assert.InDelta(t, 8.0/6.0, evalScalar(t, lower(t, expr.NewCellVolume(d)), ctx), 1e-12)
	})

	t.Run("circumradius", func(t *testing.T) {
		// The circumcenter of this corner tetrahedron is (1,1,1).
		assert.InDelta(t, math.Sqrt(3), evalScalar(t, lower(t, expr.NewCircumradius(d)), ctx), 1e-12)
	})

	t.Run("edge length extremes", func(t *testing.T) {
		assert.InDelta(t, 2.0, evalScalar(t, lower(t, expr.NewMinCellEdgeLength(d)), ctx), 1e-12)
		assert.InDelta(t, 2*math.Sqrt2, evalScalar(t, lower(t, expr.NewMaxCellEdgeLength(d)), ctx), 1e-12)
	})

	t.Run("facet area of the oblique face", func(t *testing.T) {
		fctx := *ctx
		fctx.Facet = 0
		assert.InDelta(t, 2*math.Sqrt(3), evalScalar(t, lower(t, expr.NewFacetArea(d)), &fctx), 1e-12)
	})

	t.Run("facet edge lengths on the oblique face", func(t *testing.T) {
		fctx := *ctx
		fctx.Facet = 0
		assert.InDelta(t, 2*math.Sqrt2, evalScalar(t, lower(t, expr.NewMinFacetEdgeLength(d)), &fctx), 1e-12)
		assert.InDelta(t, 2*math.Sqrt2, evalScalar(t, lower(t, expr.NewMaxFacetEdgeLength(d)), &fctx), 1e-12)
	})

	t.Run("facet normals", func(t *testing.T) {
		normal := lower(t, expr.NewFacetNormal(d))
		s := 1 / math.Sqrt(3)
		want := [][]float64{{s, s, s}, {-1, 0, 0}, {0, -1, 0}, {0, 0, -1}}
		for f, w := range want {
			fctx := *ctx
			fctx.Facet = f
			got := evalVector(t, normal, &fctx)
			for i := range w {
				assert.InDelta(t, w[i], got[i], 1e-12, "facet %d component %d", f, i)
			}
		}
	})
}

func TestIntervalGeometry(t *testing.T) {
	d := expr.NewDomain(cell.Interval, 1)
	ctx := &Context{
		Domain:   d,
		Vertices: [][]float64{{2}, {5}},
		Facet:    -1,
	}

	assert.InDelta(t, 3.0, evalScalar(t, lower(t, expr.NewCellVolume(d)), ctx), 1e-12)
	assert.InDelta(t, 1.5, evalScalar(t, lower(t, expr.NewCircumradius(d)), ctx), 1e-12)

	normal := lower(t, expr.NewFacetNormal(d))
	for f, w := range []float64{1, -1} {
		fctx := *ctx
		fctx.Facet = f
		got := evalVector(t, normal, &fctx)
		assert.InDelta(t, w, got[0], 1e-12, "facet %d", f)
	}
}

func TestManifoldGeometry(t *testing.T) {
	t.Run("line in the plane", func(t *testing.T) {
		d := expr.NewDomain(cell.Interval, 2)
		ctx := &Context{
			Domain:   d,
			Vertices: [][]float64{{0, 0}, {3, 4}},
			Facet:    -1,
		}

		detJ := lower(t, expr.NewJacobianDeterminant(d))
		assert.InDelta(t, 5.0, evalScalar(t, detJ, ctx), 1e-12)

		flipped := *ctx
		flipped.Orientation = -1
		assert.InDelta(t, -5.0, evalScalar(t, detJ, &flipped), 1e-12,
			"the orientation signs the pseudo-determinant")

		assert.InDelta(t, 5.0, evalScalar(t, lower(t, expr.NewCellVolume(d)), &flipped), 1e-12,
			"the volume is unsigned either way")

		cn := evalVector(t, lower(t, expr.NewCellNormal(d)), ctx)
		assert.InDelta(t, -0.8, cn[0], 1e-12)
		assert.InDelta(t, 0.6, cn[1], 1e-12)

		fn := lower(t, expr.NewFacetNormal(d))
		fctx := *ctx
		fctx.Facet = 0
		got := evalVector(t, fn, &fctx)
		assert.InDelta(t, 0.6, got[0], 1e-12)
		assert.InDelta(t, 0.8, got[1], 1e-12)
	})

	t.Run("surface in space", func(t *testing.T) {
		d := expr.NewDomain(cell.Triangle, 3)
		ctx := &Context{
			Domain:   d,
			Vertices: [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Facet:    -1,
		}

		assert.InDelta(t, 1.0, evalScalar(t, lower(t, expr.NewJacobianDeterminant(d)), ctx), 1e-12)
		assert.InDelta(t, 0.5, evalScalar(t, lower(t, expr.NewCellVolume(d)), ctx), 1e-12)

		cn := evalVector(t, lower(t, expr.NewCellNormal(d)), ctx)
		assert.InDelta(t, 0.0, cn[0], 1e-12)
		assert.InDelta(t, 0.0, cn[1], 1e-12)
		assert.InDelta(t, 1.0, cn[2], 1e-12)
	})
}

func TestCoordinateFieldLowering(t *testing.T) {
	d := expr.NewDomainWithCoordinates(cell.Triangle, expr.Element{
		Family:  "Lagrange",
		Degree:  1,
		Mapping: "identity",
		Value:   expr.Shape{2},
	})
	ctx := &Context{
		Domain:   d,
		Vertices: [][]float64{{1, 1}, {3, 1}, {1, 3}},
		Facet:    -1,
		Point:    []float64{0.25, 0.5},
	}

	t.Run("spatial coordinate", func(t *testing.T) {
		x := evalVector(t, lower(t, expr.NewSpatialCoordinate(d)), ctx)
		assert.InDelta(t, 1.5, x[0], 1e-12)
		assert.InDelta(t, 2.0, x[1], 1e-12)
	})

	t.Run("cell coordinate round trip", func(t *testing.T) {
		X := evalVector(t, lower(t, expr.NewCellCoordinate(d)), ctx)
		assert.InDelta(t, 0.25, X[0], 1e-12)
		assert.InDelta(t, 0.5, X[1], 1e-12)
	})

	t.Run("jacobian from the coordinate field", func(t *testing.T) {
		J, err := Evaluate(lower(t, expr.NewJacobian(d)), ctx)
		require.NoError(t, err)
		require.True(t, J.Shape.Equal(expr.Shape{2, 2}))
		assert.InDelta(t, 2.0, J.At(0, 0), 1e-12)
		assert.InDelta(t, 0.0, J.At(0, 1), 1e-12)
		assert.InDelta(t, 0.0, J.At(1, 0), 1e-12)
		assert.InDelta(t, 2.0, J.At(1, 1), 1e-12)
	})

	t.Run("cell volume through the coordinate field", func(t *testing.T) {
		assert.InDelta(t, 2.0, evalScalar(t, lower(t, expr.NewCellVolume(d)), ctx), 1e-12)
	})
}

func TestCompoundBuilders(t *testing.T) {
	t.Run("determinant and inverse of a triangular jacobian", func(t *testing.T) {
		d := expr.NewDomain(cell.Tetrahedron, 3)
		ctx := &Context{
			Domain:   d,
			Vertices: [][]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}},
			Facet:    -1,
		}
		J := expr.NewJacobian(d)
		assert.InDelta(t, 1.0, evalScalar(t, expr.DeterminantExpr(J), ctx), 1e-12)

		inv, err := Evaluate(expr.InverseExpr(J), ctx)
		require.NoError(t, err)
		want := [][]float64{{1, -1, 0}, {0, 1, -1}, {0, 0, 1}}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				assert.InDelta(t, want[i][j], inv.At(i, j), 1e-12, "entry (%d,%d)", i, j)
			}
		}
	})

	t.Run("two by two inverse", func(t *testing.T) {
		d, ctx := rightTriangle()
		inv, err := Evaluate(expr.InverseExpr(expr.NewJacobian(d)), ctx)
		require.NoError(t, err)
		assert.InDelta(t, 1.0/3, inv.At(0, 0), 1e-12)
		assert.InDelta(t, 0.0, inv.At(0, 1), 1e-12)
		assert.InDelta(t, 0.0, inv.At(1, 0), 1e-12)
		assert.InDelta(t, 1.0/4, inv.At(1, 1), 1e-12)
	})

	t.Run("pseudo-determinant and pseudo-inverse", func(t *testing.T) {
		d := expr.NewDomain(cell.Interval, 2)
		ctx := &Context{
			Domain:   d,
			Vertices: [][]float64{{0, 0}, {3, 4}},
			Facet:    -1,
		}
		J := expr.NewJacobian(d)
		assert.InDelta(t, 5.0, evalScalar(t, expr.DeterminantExpr(J), ctx), 1e-12)

		pinv, err := Evaluate(expr.InverseExpr(J), ctx)
		require.NoError(t, err)
		require.True(t, pinv.Shape.Equal(expr.Shape{1, 2}))
		assert.InDelta(t, 3.0/25, pinv.At(0, 0), 1e-12)
		assert.InDelta(t, 4.0/25, pinv.At(0, 1), 1e-12)
	})

	t.Run("cross product", func(t *testing.T) {
		ex := expr.AsVector(expr.Scalar(1), expr.Scalar(0), expr.Scalar(0))
		ey := expr.AsVector(expr.Scalar(0), expr.Scalar(1), expr.Scalar(0))
		d := expr.NewDomain(cell.Tetrahedron, 3)
		ctx := &Context{
			Domain:   d,
			Vertices: [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			Facet:    -1,
		}
		got := evalVector(t, expr.CrossExpr(ex, ey), ctx)
		assert.InDelta(t, 0.0, got[0], 1e-12)
		assert.InDelta(t, 0.0, got[1], 1e-12)
		assert.InDelta(t, 1.0, got[2], 1e-12)
	})
}

func TestEvaluateOperators(t *testing.T) {
	d, ctx := rightTriangle()
	pctx := *ctx
	pctx.Point = []float64{1, 0}

	t.Run("implicit summation", func(t *testing.T) {
		x := expr.NewSpatialCoordinate(d)
		i := expr.NewIndex()
		normSq := expr.Mul(expr.At(x, expr.FreeIdx(i)), expr.At(x, expr.FreeIdx(i)))
		assert.InDelta(t, 9.0, evalScalar(t, normSq, &pctx), 1e-12)
	})

	t.Run("min max abs sqrt", func(t *testing.T) {
		assert.Equal(t, 2.0, evalScalar(t, expr.Min(expr.Scalar(2), expr.Scalar(3)), ctx))
		assert.Equal(t, 3.0, evalScalar(t, expr.Max(expr.Scalar(2), expr.Scalar(3)), ctx))
		assert.Equal(t, 2.0, evalScalar(t, expr.AbsValue(expr.Scalar(-2)), ctx))
		assert.Equal(t, 3.0, evalScalar(t, expr.SqrtValue(expr.Scalar(9)), ctx))
	})

	t.Run("component tensor transpose", func(t *testing.T) {
		J := expr.NewJacobian(d)
		idx := expr.NewIndices(2)
		i, j := idx[0], idx[1]
		Jt := expr.AsTensor(expr.At(J, expr.FreeIdx(i), expr.FreeIdx(j)), j, i)
		v, err := Evaluate(Jt, ctx)
		require.NoError(t, err)
		assert.InDelta(t, 3.0, v.At(0, 0), 1e-12)
		assert.InDelta(t, 0.0, v.At(0, 1), 1e-12)
		assert.InDelta(t, 0.0, v.At(1, 0), 1e-12)
		assert.InDelta(t, 4.0, v.At(1, 1), 1e-12)
	})

	t.Run("unlowered quantities are rejected", func(t *testing.T) {
		_, err := Evaluate(expr.NewCircumradius(d), ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lower the expression first")
	})

	t.Run("coefficients are rejected", func(t *testing.T) {
		f := expr.NewCoefficient(d, expr.Element{Family: "Lagrange", Degree: 1, Mapping: "identity"})
		_, err := Evaluate(f, ctx)
		assert.Error(t, err)
	})
}
