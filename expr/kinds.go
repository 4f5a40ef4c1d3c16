// Package expr implements the immutable tensor-expression DAG underlying the
// symbolic form language: a closed set of node kinds, geometric-quantity
// terminals tied to a Domain, an index algebra with implicit summation over
// repeated indices, and generic compound builders for small-matrix
// determinants, inverses and cross products.
//
// Nodes are immutable after construction and share operands freely, so an
// expression is a DAG rather than a tree. Node identity (the pointer) is the
// unit of memoization in the rewrite machinery; structurally equal nodes
// built separately are distinct identities.
package expr

import "fmt"

// Kind identifies the operation or terminal a node represents
type Kind uint8

const (
	// Non-geometric terminals
	ScalarValue Kind = iota
	Coefficient

	// Geometric quantities (terminals defined on a Domain)
	SpatialCoordinate
	CellCoordinate
	FacetCellCoordinate
	CellOrigin
	CellOrientation
	Jacobian
	JacobianInverse
	JacobianDeterminant
	FacetJacobian
	FacetJacobianInverse
	FacetJacobianDeterminant
	CellFacetJacobian
	CellVolume
	FacetArea
	Circumradius
	CellNormal
	FacetNormal
	ReferenceNormal
	CellEdgeVectors
	FacetEdgeVectors
	MinCellEdgeLength
	MaxCellEdgeLength
	MinFacetEdgeLength
	MaxFacetEdgeLength
	ReferenceCellVolume
	ReferenceFacetVolume
	QuadratureWeight

	// Operators
	Sum
	Product
	Division
	Abs
	Sqrt
	MinValue
	MaxValue
	Indexed
	IndexSum
	ComponentTensor
	ListTensor
	ReferenceGrad
	ReferenceValue
	Restricted

	// NumKinds is the size of dense per-kind lookup tables.
	NumKinds
)

var kindNames = [NumKinds]string{
	ScalarValue:              "ScalarValue",
	Coefficient:              "Coefficient",
	SpatialCoordinate:        "SpatialCoordinate",
	CellCoordinate:           "CellCoordinate",
	FacetCellCoordinate:      "FacetCellCoordinate",
	CellOrigin:               "CellOrigin",
	CellOrientation:          "CellOrientation",
	Jacobian:                 "Jacobian",
	JacobianInverse:          "JacobianInverse",
	JacobianDeterminant:      "JacobianDeterminant",
	FacetJacobian:            "FacetJacobian",
	FacetJacobianInverse:     "FacetJacobianInverse",
	FacetJacobianDeterminant: "FacetJacobianDeterminant",
	CellFacetJacobian:        "CellFacetJacobian",
	CellVolume:               "CellVolume",
	FacetArea:                "FacetArea",
	Circumradius:             "Circumradius",
	CellNormal:               "CellNormal",
	FacetNormal:              "FacetNormal",
	ReferenceNormal:          "ReferenceNormal",
	CellEdgeVectors:          "CellEdgeVectors",
	FacetEdgeVectors:         "FacetEdgeVectors",
	MinCellEdgeLength:        "MinCellEdgeLength",
	MaxCellEdgeLength:        "MaxCellEdgeLength",
	MinFacetEdgeLength:       "MinFacetEdgeLength",
	MaxFacetEdgeLength:       "MaxFacetEdgeLength",
	ReferenceCellVolume:      "ReferenceCellVolume",
	ReferenceFacetVolume:     "ReferenceFacetVolume",
	QuadratureWeight:         "QuadratureWeight",
	Sum:                      "Sum",
	Product:                  "Product",
	Division:                 "Division",
	Abs:                      "Abs",
	Sqrt:                     "Sqrt",
	MinValue:                 "MinValue",
	MaxValue:                 "MaxValue",
	Indexed:                  "Indexed",
	IndexSum:                 "IndexSum",
	ComponentTensor:          "ComponentTensor",
	ListTensor:               "ListTensor",
	ReferenceGrad:            "ReferenceGrad",
	ReferenceValue:           "ReferenceValue",
	Restricted:               "Restricted",
}

func (k Kind) String() string {
	if k < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsGeometricQuantity reports whether the kind is a geometric terminal
// defined on a domain.
func (k Kind) IsGeometricQuantity() bool {
	return k >= SpatialCoordinate && k <= QuadratureWeight
}

// IsTerminal reports whether nodes of this kind have no operands.
func (k Kind) IsTerminal() bool {
	return k < Sum
}
