package cell

import "fmt"

// ReferenceVertices returns the vertex coordinates of the reference cell,
// one row per vertex. Simplex cells use the unit simplex; tensor-product
// cells use the unit cube.
func ReferenceVertices(k Kind) [][]float64 {
	switch k {
	case Vertex:
		return [][]float64{{}}
	case Interval:
		return [][]float64{{0}, {1}}
	case Triangle:
		return [][]float64{{0, 0}, {1, 0}, {0, 1}}
	case Tetrahedron:
		return [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	case Quadrilateral:
		return [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	case Hexahedron:
		return [][]float64{
			{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0},
			{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1},
		}
	}
	panic(fmt.Sprintf("unknown cell kind %s", k))
}

// EdgeVertices returns the vertex index pair of each edge of a simplex cell.
// An edge of a triangle is numbered by the vertex it does not contain;
// tetrahedron edges are ordered so that e and 5-e are opposite pairs.
func EdgeVertices(k Kind) [][2]int {
	switch k {
	case Interval:
		return [][2]int{{0, 1}}
	case Triangle:
		return [][2]int{{1, 2}, {0, 2}, {0, 1}}
	case Tetrahedron:
		return [][2]int{{2, 3}, {1, 3}, {1, 2}, {0, 3}, {0, 2}, {0, 1}}
	}
	panic(fmt.Sprintf("no edge table for cell kind %s", k))
}

// ReferenceEdgeVectors returns the direction vector of each reference edge,
// one row per edge, each of length Dim().
func ReferenceEdgeVectors(k Kind) [][]float64 {
	verts := ReferenceVertices(k)
	edges := EdgeVertices(k)
	tdim := k.Dim()
	vectors := make([][]float64, len(edges))
	for e, ev := range edges {
		v := make([]float64, tdim)
		for j := 0; j < tdim; j++ {
			v[j] = verts[ev[1]][j] - verts[ev[0]][j]
		}
		vectors[e] = v
	}
	return vectors
}

// FacetVertices returns the vertex indices of each facet of a simplex cell.
// Facet f is the facet opposite vertex f, with vertices in increasing order.
func FacetVertices(k Kind) [][]int {
	switch k {
	case Interval:
		return [][]int{{1}, {0}}
	case Triangle:
		return [][]int{{1, 2}, {0, 2}, {0, 1}}
	case Tetrahedron:
		return [][]int{{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2}}
	}
	panic(fmt.Sprintf("no facet table for cell kind %s", k))
}

// CellFacetJacobian returns the constant Jacobian of the map from facet
// reference coordinates to cell reference coordinates for the given local
// facet, as a Dim() x (Dim()-1) matrix in row-major rows.
func CellFacetJacobian(k Kind, facet int) [][]float64 {
	verts := ReferenceVertices(k)
	fv := FacetVertices(k)[facet]
	tdim := k.Dim()
	jac := make([][]float64, tdim)
	for i := 0; i < tdim; i++ {
		row := make([]float64, tdim-1)
		for j := 0; j < tdim-1; j++ {
			row[j] = verts[fv[j+1]][i] - verts[fv[0]][i]
		}
		jac[i] = row
	}
	return jac
}

// ReferenceNormal returns the outward unit normal of the given local facet
// in reference-cell coordinates.
func ReferenceNormal(k Kind, facet int) []float64 {
	switch k {
	case Interval:
		return [][]float64{{1}, {-1}}[facet]
	case Triangle:
		const s = 0.7071067811865476 // 1/sqrt(2)
		return [][]float64{{s, s}, {-1, 0}, {0, -1}}[facet]
	case Tetrahedron:
		const s = 0.5773502691896258 // 1/sqrt(3)
		return [][]float64{{s, s, s}, {-1, 0, 0}, {0, -1, 0}, {0, 0, -1}}[facet]
	}
	panic(fmt.Sprintf("no reference normal table for cell kind %s", k))
}

// ReferenceCellVolume returns the volume of the reference cell.
func ReferenceCellVolume(k Kind) float64 {
	switch k {
	case Vertex:
		return 1.0
	case Interval:
		return 1.0
	case Triangle:
		return 0.5
	case Tetrahedron:
		return 1.0 / 6.0
	case Quadrilateral:
		return 1.0
	case Hexahedron:
		return 1.0
	}
	panic(fmt.Sprintf("unknown cell kind %s", k))
}

// ReferenceFacetVolume returns the volume of the reference cell of the
// facets, i.e. the reference measure the facet Jacobian determinant is
// scaled by.
func ReferenceFacetVolume(k Kind) float64 {
	return ReferenceCellVolume(k.FacetKind())
}

// FacetEdgeVectors returns the direction vectors of the edges of the given
// local facet, expressed in cell reference coordinates. Facet-local edge e
// is the edge opposite facet-local vertex e.
func FacetEdgeVectors(k Kind, facet int) [][]float64 {
	if k != Tetrahedron && k != Triangle {
		panic(fmt.Sprintf("no facet edge table for cell kind %s", k))
	}
	verts := ReferenceVertices(k)
	fv := FacetVertices(k)[facet]
	tdim := k.Dim()
	n := len(fv)
	var pairs [][2]int
	if n == 2 {
		pairs = [][2]int{{0, 1}}
	} else {
		pairs = [][2]int{{1, 2}, {0, 2}, {0, 1}}
	}
	vectors := make([][]float64, len(pairs))
	for e, p := range pairs {
		v := make([]float64, tdim)
		for j := 0; j < tdim; j++ {
			v[j] = verts[fv[p[1]]][j] - verts[fv[p[0]]][j]
		}
		vectors[e] = v
	}
	return vectors
}
