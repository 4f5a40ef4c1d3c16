package lowering

import (
	"testing"

	"github.com/notargets/symform/cell"
	"github.com/notargets/symform/expr"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func affineDomain(ck cell.Kind) *expr.Domain {
	return expr.NewDomain(ck, ck.Dim())
}

func coordsDomain(ck cell.Kind, gdim int) *expr.Domain {
	return expr.NewDomainWithCoordinates(ck, expr.Element{
		Family:  "Lagrange",
		Degree:  1,
		Mapping: "identity",
		Value:   expr.Shape{gdim},
	})
}

func nullLog() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}

func lowerExpr(t *testing.T, e *expr.Node, preserve ...expr.Kind) *expr.Node {
	t.Helper()
	out, err := ApplyToExpr(e, Config{Preserve: preserve, Log: nullLog()})
	require.NoError(t, err)
	return out
}

// collectKind returns the distinct nodes of the given kind in the DAG,
// counting shared nodes once.
func collectKind(root *expr.Node, k expr.Kind) []*expr.Node {
	seen := make(map[*expr.Node]bool)
	var out []*expr.Node
	var walk func(n *expr.Node)
	walk = func(n *expr.Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		if n.Kind() == k {
			out = append(out, n)
		}
		for _, op := range n.Operands() {
			walk(op)
		}
	}
	walk(root)
	return out
}

func containsKind(root *expr.Node, k expr.Kind) bool {
	return len(collectKind(root, k)) > 0
}

func TestPreservedKindsPassThrough(t *testing.T) {
	d := coordsDomain(cell.Triangle, 2)
	cases := []struct {
		name string
		node *expr.Node
	}{
		{"jacobian", expr.NewJacobian(d)},
		{"jacobian determinant", expr.NewJacobianDeterminant(d)},
		{"spatial coordinate", expr.NewSpatialCoordinate(d)},
		{"cell volume", expr.NewCellVolume(d)},
		{"circumradius", expr.NewCircumradius(d)},
		{"facet normal", expr.NewFacetNormal(d)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := lowerExpr(t, tc.node, tc.node.Kind())
			assert.Same(t, tc.node, out)
		})
	}
}

func TestUntouchedExpressionKeepsIdentity(t *testing.T) {
	d := affineDomain(cell.Triangle)

	t.Run("non-geometric expression", func(t *testing.T) {
		f := expr.NewCoefficient(d, expr.Element{Family: "Lagrange", Degree: 1, Mapping: "identity"})
		e := expr.Add(expr.Mul(f, expr.Scalar(2)), expr.Scalar(1))
		assert.Same(t, e, lowerExpr(t, e))
	})

	t.Run("affine jacobian stays terminal", func(t *testing.T) {
		J := expr.NewJacobian(d)
		assert.Same(t, J, lowerExpr(t, J))
	})
}

func TestJacobianLowering(t *testing.T) {
	d := coordsDomain(cell.Triangle, 2)
	out := lowerExpr(t, expr.NewJacobian(d))

	require.Equal(t, expr.ReferenceGrad, out.Kind())
	rv := out.Operands()[0]
	require.Equal(t, expr.ReferenceValue, rv.Kind())
	assert.Same(t, d.Coordinates(), rv.Operands()[0])
	assert.True(t, out.Shape().Equal(expr.Shape{2, 2}))
}

func TestSpatialCoordinateLowering(t *testing.T) {
	t.Run("affine domain passes through", func(t *testing.T) {
		x := expr.NewSpatialCoordinate(affineDomain(cell.Triangle))
		assert.Same(t, x, lowerExpr(t, x))
	})

	t.Run("coordinate field becomes reference value", func(t *testing.T) {
		d := coordsDomain(cell.Triangle, 2)
		out := lowerExpr(t, expr.NewSpatialCoordinate(d))
		require.Equal(t, expr.ReferenceValue, out.Kind())
		assert.Same(t, d.Coordinates(), out.Operands()[0])
	})

	t.Run("piola mapped coordinates are rejected", func(t *testing.T) {
		d := expr.NewDomainWithCoordinates(cell.Triangle, expr.Element{
			Family:  "Lagrange",
			Degree:  1,
			Mapping: "contravariant Piola",
			Value:   expr.Shape{2},
		})
		_, err := ApplyToExpr(expr.NewSpatialCoordinate(d), Config{Log: nullLog()})
		var mapErr *UnsupportedMappingError
		require.ErrorAs(t, err, &mapErr)
		assert.Equal(t, "contravariant Piola", mapErr.Mapping)
	})
}

func TestFacetCellCoordinateNotImplemented(t *testing.T) {
	d := coordsDomain(cell.Triangle, 2)
	_, err := ApplyToExpr(expr.NewFacetCellCoordinate(d), Config{Log: nullLog()})
	var niErr *NotImplementedError
	assert.ErrorAs(t, err, &niErr)
}

func TestCellCoordinateLowering(t *testing.T) {
	d := coordsDomain(cell.Triangle, 2)
	X := expr.NewCellCoordinate(d)
	out := lowerExpr(t, X)

	require.NotSame(t, X, out)
	assert.True(t, out.Shape().Equal(X.Shape()))
	assert.Equal(t, expr.ComponentTensor, out.Kind())
	assert.True(t, containsKind(out, expr.CellOrigin))
	assert.True(t, containsKind(out, expr.ReferenceValue))
	assert.False(t, containsKind(out, expr.SpatialCoordinate))
}

func TestManifoldDeterminantCarriesOrientation(t *testing.T) {
	t.Run("flat cell has no orientation factor", func(t *testing.T) {
		d := affineDomain(cell.Triangle)
		out := lowerExpr(t, expr.NewJacobianDeterminant(d))
		assert.False(t, containsKind(out, expr.CellOrientation))
	})

	t.Run("immersed cell is signed by the orientation", func(t *testing.T) {
		d := expr.NewDomain(cell.Triangle, 3)
		out := lowerExpr(t, expr.NewJacobianDeterminant(d))
		assert.True(t, containsKind(out, expr.CellOrientation))
		assert.True(t, containsKind(out, expr.Sqrt), "pseudo-determinant of a tall jacobian")
	})
}

func TestLoweringPreservesShape(t *testing.T) {
	domains := map[string]*expr.Domain{
		"affine tetrahedron": affineDomain(cell.Tetrahedron),
		"coords tetrahedron": coordsDomain(cell.Tetrahedron, 3),
		"immersed triangle":  expr.NewDomain(cell.Triangle, 3),
	}
	for name, d := range domains {
		t.Run(name, func(t *testing.T) {
			nodes := []*expr.Node{
				expr.NewJacobianInverse(d),
				expr.NewJacobianDeterminant(d),
				expr.NewFacetJacobian(d),
				expr.NewFacetJacobianDeterminant(d),
				expr.NewCellVolume(d),
				expr.NewFacetArea(d),
				expr.NewCircumradius(d),
				expr.NewMinCellEdgeLength(d),
				expr.NewMaxCellEdgeLength(d),
				expr.NewFacetNormal(d),
			}
			for _, n := range nodes {
				out := lowerExpr(t, n)
				assert.True(t, out.Shape().Equal(n.Shape()),
					"%s: shape %s became %s", n.Kind(), n.Shape(), out.Shape())
			}
		})
	}
}

func TestLoweringIsIdempotent(t *testing.T) {
	d := coordsDomain(cell.Triangle, 2)
	nodes := []*expr.Node{
		expr.NewFacetNormal(d),
		expr.NewCircumradius(d),
		expr.NewCellCoordinate(d),
		expr.NewCellVolume(affineDomain(cell.Tetrahedron)),
	}
	for _, n := range nodes {
		once := lowerExpr(t, n)
		twice := lowerExpr(t, once)
		assert.Same(t, once, twice, "%s: re-lowering must be a fixed point", n.Kind())
	}
}

func TestDerivedJacobianIsShared(t *testing.T) {
	d := coordsDomain(cell.Triangle, 2)

	t.Run("within one quantity", func(t *testing.T) {
		out := lowerExpr(t, expr.NewJacobianInverse(d))
		assert.Len(t, collectKind(out, expr.ReferenceGrad), 1,
			"every inverse entry must reference one jacobian node")
	})

	t.Run("across quantities in one pass", func(t *testing.T) {
		e := expr.Mul(expr.NewJacobianDeterminant(d), expr.NewCellVolume(d))
		out := lowerExpr(t, e)
		assert.Len(t, collectKind(out, expr.ReferenceGrad), 1)
	})
}

func TestNonAffineCellWarnsAndPassesThrough(t *testing.T) {
	cases := []struct {
		name string
		d    *expr.Domain
		node func(*expr.Domain) *expr.Node
	}{
		{"quadrilateral cell volume", affineDomain(cell.Quadrilateral), expr.NewCellVolume},
		{"hexahedron circumradius", affineDomain(cell.Hexahedron), expr.NewCircumradius},
		{"quadrilateral facet area", affineDomain(cell.Quadrilateral), expr.NewFacetArea},
		{"curved triangle min edge length", expr.NewDomainWithCoordinates(cell.Triangle, expr.Element{
			Family:  "Lagrange",
			Degree:  2,
			Mapping: "identity",
			Value:   expr.Shape{2},
		}), expr.NewMinCellEdgeLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, hook := logtest.NewNullLogger()
			n := tc.node(tc.d)
			out, err := ApplyToExpr(n, Config{Log: log})
			require.NoError(t, err)
			assert.Same(t, n, out)
			require.Len(t, hook.AllEntries(), 1, "exactly one warning per quantity")
			assert.Equal(t, logrus.WarnLevel, hook.AllEntries()[0].Level)
		})
	}
}

func TestEdgeLengthUnsupportedCell(t *testing.T) {
	d := affineDomain(cell.Interval)

	t.Run("min cell edge length", func(t *testing.T) {
		_, err := ApplyToExpr(expr.NewMinCellEdgeLength(d), Config{Log: nullLog()})
		var cellErr *UnsupportedCellError
		require.ErrorAs(t, err, &cellErr)
		assert.Equal(t, cell.Interval, cellErr.Cell)
	})

	t.Run("max facet edge length", func(t *testing.T) {
		_, err := ApplyToExpr(expr.NewMaxFacetEdgeLength(d), Config{Log: nullLog()})
		var cellErr *UnsupportedCellError
		assert.ErrorAs(t, err, &cellErr)
	})
}

func TestMinMaxEdgeLengthStructure(t *testing.T) {
	d := affineDomain(cell.Tetrahedron)

	minLen := lowerExpr(t, expr.NewMinCellEdgeLength(d))
	assert.True(t, containsKind(minLen, expr.MinValue))
	assert.False(t, containsKind(minLen, expr.MaxValue))

	maxLen := lowerExpr(t, expr.NewMaxCellEdgeLength(d))
	assert.True(t, containsKind(maxLen, expr.MaxValue))

	// A facet of a triangle is one edge, so both reductions degenerate to
	// the facet area.
	tri := affineDomain(cell.Triangle)
	facetMin := lowerExpr(t, expr.NewMinFacetEdgeLength(tri))
	assert.False(t, containsKind(facetMin, expr.MinValue))
	assert.True(t, containsKind(facetMin, expr.CellFacetJacobian))
}

func TestCellNormalRequiresCodimensionOne(t *testing.T) {
	t.Run("flat triangle has no cell normal", func(t *testing.T) {
		_, err := ApplyToExpr(expr.NewCellNormal(affineDomain(cell.Triangle)), Config{Log: nullLog()})
		var cellErr *UnsupportedCellError
		assert.ErrorAs(t, err, &cellErr)
	})

	t.Run("surface in 3d", func(t *testing.T) {
		d := expr.NewDomain(cell.Triangle, 3)
		out := lowerExpr(t, expr.NewCellNormal(d))
		assert.True(t, out.Shape().Equal(expr.Shape{3}))
		assert.True(t, containsKind(out, expr.CellOrientation))
	})

	t.Run("line in 2d", func(t *testing.T) {
		d := expr.NewDomain(cell.Interval, 2)
		out := lowerExpr(t, expr.NewCellNormal(d))
		assert.True(t, out.Shape().Equal(expr.Shape{2}))
	})
}

func TestFacetNormalStructure(t *testing.T) {
	t.Run("tetrahedron", func(t *testing.T) {
		d := affineDomain(cell.Tetrahedron)
		out := lowerExpr(t, expr.NewFacetNormal(d))
		assert.True(t, out.Shape().Equal(expr.Shape{3}))
		assert.True(t, containsKind(out, expr.ReferenceNormal))
		assert.False(t, containsKind(out, expr.FacetNormal))
	})

	t.Run("interval", func(t *testing.T) {
		d := affineDomain(cell.Interval)
		out := lowerExpr(t, expr.NewFacetNormal(d))
		assert.True(t, out.Shape().Equal(expr.Shape{1}))
		assert.True(t, containsKind(out, expr.Abs))
	})
}

func TestCircumradiusStructure(t *testing.T) {
	t.Run("interval is half the length", func(t *testing.T) {
		out := lowerExpr(t, expr.NewCircumradius(affineDomain(cell.Interval)))
		require.Equal(t, expr.Product, out.Kind())
		assert.Equal(t, 0.5, out.Operands()[0].Value())
	})

	t.Run("triangle uses edge lengths", func(t *testing.T) {
		out := lowerExpr(t, expr.NewCircumradius(affineDomain(cell.Triangle)))
		assert.Equal(t, expr.Division, out.Kind())
		assert.True(t, containsKind(out, expr.CellEdgeVectors))
	})

	t.Run("tetrahedron uses edge lengths", func(t *testing.T) {
		out := lowerExpr(t, expr.NewCircumradius(affineDomain(cell.Tetrahedron)))
		assert.Equal(t, expr.Division, out.Kind())
		assert.True(t, containsKind(out, expr.Sqrt))
	})
}
