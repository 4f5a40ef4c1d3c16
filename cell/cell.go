// Package cell provides reference-cell definitions for the symbolic form
// language: cell kinds, their topological entity counts, and the fixed
// reference-space tables (vertices, edge vectors, facet normals) that the
// geometry-lowering rules and the numeric evaluator consume.
//
// Simplex tables follow the FIAT/UFC numbering convention: the reference
// interval is [0,1], the reference triangle has vertices (0,0), (1,0), (0,1),
// and the reference tetrahedron has vertices at the origin and the three unit
// axis points. Edge e of a triangle is the edge opposite vertex e; tetrahedron
// edges are numbered so that edges (0,5), (1,4) and (2,3) are opposite pairs.
package cell

import "fmt"

// Kind identifies the shape of a cell
type Kind uint8

const (
	Vertex Kind = iota
	Interval
	Triangle
	Tetrahedron
	Quadrilateral
	Hexahedron
)

func (k Kind) String() string {
	switch k {
	case Vertex:
		return "vertex"
	case Interval:
		return "interval"
	case Triangle:
		return "triangle"
	case Tetrahedron:
		return "tetrahedron"
	case Quadrilateral:
		return "quadrilateral"
	case Hexahedron:
		return "hexahedron"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Dim returns the topological dimension of the cell.
func (k Kind) Dim() int {
	switch k {
	case Vertex:
		return 0
	case Interval:
		return 1
	case Triangle, Quadrilateral:
		return 2
	case Tetrahedron, Hexahedron:
		return 3
	}
	panic(fmt.Sprintf("unknown cell kind %s", k))
}

// NumVertices returns the number of vertices of the cell.
func (k Kind) NumVertices() int {
	switch k {
	case Vertex:
		return 1
	case Interval:
		return 2
	case Triangle:
		return 3
	case Tetrahedron, Quadrilateral:
		return 4
	case Hexahedron:
		return 8
	}
	panic(fmt.Sprintf("unknown cell kind %s", k))
}

// NumEdges returns the number of edges of the cell.
func (k Kind) NumEdges() int {
	switch k {
	case Vertex:
		return 0
	case Interval:
		return 1
	case Triangle:
		return 3
	case Quadrilateral:
		return 4
	case Tetrahedron:
		return 6
	case Hexahedron:
		return 12
	}
	panic(fmt.Sprintf("unknown cell kind %s", k))
}

// NumFacets returns the number of codimension-1 entities of the cell.
func (k Kind) NumFacets() int {
	switch k {
	case Vertex:
		return 0
	case Interval:
		return 2
	case Triangle:
		return 3
	case Quadrilateral, Tetrahedron:
		return 4
	case Hexahedron:
		return 6
	}
	panic(fmt.Sprintf("unknown cell kind %s", k))
}

// FacetKind returns the cell kind of the facets of this cell.
func (k Kind) FacetKind() Kind {
	switch k {
	case Interval:
		return Vertex
	case Triangle, Quadrilateral:
		return Interval
	case Tetrahedron:
		return Triangle
	case Hexahedron:
		return Quadrilateral
	}
	panic(fmt.Sprintf("cell kind %s has no facets", k))
}

// IsSimplex reports whether the cell is a simplex.
func (k Kind) IsSimplex() bool {
	switch k {
	case Vertex, Interval, Triangle, Tetrahedron:
		return true
	}
	return false
}
