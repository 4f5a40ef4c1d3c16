package expr

// Geometric quantities are terminals whose value is determined entirely by
// the domain (and, for facet quantities, the facet the integrand is being
// evaluated on). Their shapes follow from the domain's geometric dimension
// gdim, topological dimension tdim and cell kind.

func geometric(k Kind, d *Domain, shape Shape) *Node {
	return &Node{kind: k, shape: shape, domain: d}
}

// NewSpatialCoordinate returns the physical coordinate x, shape (gdim).
func NewSpatialCoordinate(d *Domain) *Node {
	return geometric(SpatialCoordinate, d, Shape{d.gdim})
}

// NewCellCoordinate returns the reference-cell coordinate X, shape (tdim).
func NewCellCoordinate(d *Domain) *Node {
	return geometric(CellCoordinate, d, Shape{d.TopologicalDimension()})
}

// NewFacetCellCoordinate returns the facet reference coordinate, shape
// (tdim-1).
func NewFacetCellCoordinate(d *Domain) *Node {
	return geometric(FacetCellCoordinate, d, Shape{d.TopologicalDimension() - 1})
}

// NewCellOrigin returns the physical coordinate of the cell's first vertex,
// shape (gdim).
func NewCellOrigin(d *Domain) *Node {
	return geometric(CellOrigin, d, Shape{d.gdim})
}

// NewCellOrientation returns the +-1 orientation of a manifold cell.
func NewCellOrientation(d *Domain) *Node {
	return geometric(CellOrientation, d, nil)
}

// NewJacobian returns the Jacobian dx/dX, shape (gdim, tdim).
func NewJacobian(d *Domain) *Node {
	return geometric(Jacobian, d, Shape{d.gdim, d.TopologicalDimension()})
}

// NewJacobianInverse returns the (pseudo-)inverse of the Jacobian, shape
// (tdim, gdim).
func NewJacobianInverse(d *Domain) *Node {
	return geometric(JacobianInverse, d, Shape{d.TopologicalDimension(), d.gdim})
}

// NewJacobianDeterminant returns the (pseudo-)determinant of the Jacobian.
func NewJacobianDeterminant(d *Domain) *Node {
	return geometric(JacobianDeterminant, d, nil)
}

// NewFacetJacobian returns the Jacobian of the facet coordinate map, shape
// (gdim, tdim-1).
func NewFacetJacobian(d *Domain) *Node {
	return geometric(FacetJacobian, d, Shape{d.gdim, d.TopologicalDimension() - 1})
}

// NewFacetJacobianInverse returns the pseudo-inverse of the facet Jacobian,
// shape (tdim-1, gdim).
func NewFacetJacobianInverse(d *Domain) *Node {
	return geometric(FacetJacobianInverse, d, Shape{d.TopologicalDimension() - 1, d.gdim})
}

// NewFacetJacobianDeterminant returns the pseudo-determinant of the facet
// Jacobian.
func NewFacetJacobianDeterminant(d *Domain) *Node {
	return geometric(FacetJacobianDeterminant, d, nil)
}

// NewCellFacetJacobian returns the constant Jacobian of the map from facet
// reference to cell reference coordinates, shape (tdim, tdim-1).
func NewCellFacetJacobian(d *Domain) *Node {
	tdim := d.TopologicalDimension()
	return geometric(CellFacetJacobian, d, Shape{tdim, tdim - 1})
}

// NewCellVolume returns the volume of the cell.
func NewCellVolume(d *Domain) *Node {
	return geometric(CellVolume, d, nil)
}

// NewFacetArea returns the area of the facet.
func NewFacetArea(d *Domain) *Node {
	return geometric(FacetArea, d, nil)
}

// NewCircumradius returns the circumradius of the cell.
func NewCircumradius(d *Domain) *Node {
	return geometric(Circumradius, d, nil)
}

// NewMinCellEdgeLength returns the length of the shortest edge of the cell.
func NewMinCellEdgeLength(d *Domain) *Node {
	return geometric(MinCellEdgeLength, d, nil)
}

// NewMaxCellEdgeLength returns the length of the longest edge of the cell.
func NewMaxCellEdgeLength(d *Domain) *Node {
	return geometric(MaxCellEdgeLength, d, nil)
}

// NewMinFacetEdgeLength returns the length of the shortest edge of the
// facet.
func NewMinFacetEdgeLength(d *Domain) *Node {
	return geometric(MinFacetEdgeLength, d, nil)
}

// NewMaxFacetEdgeLength returns the length of the longest edge of the
// facet.
func NewMaxFacetEdgeLength(d *Domain) *Node {
	return geometric(MaxFacetEdgeLength, d, nil)
}

// NewCellNormal returns the unit normal of a codimension-1 manifold cell,
// shape (gdim).
func NewCellNormal(d *Domain) *Node {
	return geometric(CellNormal, d, Shape{d.gdim})
}

// NewFacetNormal returns the outward unit normal of the facet, shape (gdim).
func NewFacetNormal(d *Domain) *Node {
	return geometric(FacetNormal, d, Shape{d.gdim})
}

// NewReferenceNormal returns the outward unit normal of the facet in
// reference-cell coordinates, shape (tdim).
func NewReferenceNormal(d *Domain) *Node {
	return geometric(ReferenceNormal, d, Shape{d.TopologicalDimension()})
}

// NewCellEdgeVectors returns the reference edge vectors of the cell, shape
// (num_edges, tdim).
func NewCellEdgeVectors(d *Domain) *Node {
	return geometric(CellEdgeVectors, d, Shape{d.cellKind.NumEdges(), d.TopologicalDimension()})
}

// NewFacetEdgeVectors returns the reference edge vectors of the facet in
// cell reference coordinates, shape (num_facet_edges, tdim).
func NewFacetEdgeVectors(d *Domain) *Node {
	return geometric(FacetEdgeVectors, d, Shape{d.cellKind.FacetKind().NumEdges(), d.TopologicalDimension()})
}

// NewReferenceCellVolume returns the volume of the reference cell.
func NewReferenceCellVolume(d *Domain) *Node {
	return geometric(ReferenceCellVolume, d, nil)
}

// NewReferenceFacetVolume returns the volume of the reference facet cell.
func NewReferenceFacetVolume(d *Domain) *Node {
	return geometric(ReferenceFacetVolume, d, nil)
}

// NewQuadratureWeight returns the quadrature weight terminal.
func NewQuadratureWeight(d *Domain) *Node {
	return geometric(QuadratureWeight, d, nil)
}
