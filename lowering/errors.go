package lowering

import (
	"fmt"

	"github.com/notargets/symform/cell"
	"github.com/notargets/symform/expr"
)

// UnsupportedCellError reports a cell-kind-dispatching rule applied to a
// cell kind outside its supported enumeration.
type UnsupportedCellError struct {
	Quantity string
	Cell     cell.Kind
	Gdim     int
	Tdim     int
}

func (e *UnsupportedCellError) Error() string {
	return fmt.Sprintf("cannot lower %s for cell kind %s (gdim=%d, tdim=%d)",
		e.Quantity, e.Cell, e.Gdim, e.Tdim)
}

// UnsupportedMappingError reports a coordinate field whose element mapping
// is not the identity; Piola-mapped coordinate fields cannot be lowered.
type UnsupportedMappingError struct {
	Mapping string
}

func (e *UnsupportedMappingError) Error() string {
	return fmt.Sprintf("coordinate fields with %q mapping are not supported, only \"identity\"", e.Mapping)
}

// NotImplementedError reports a lowering that has no implementation.
type NotImplementedError struct {
	What string
}

func (e *NotImplementedError) Error() string {
	return "missing implementation: " + e.What
}

// ConsistencyError reports an internal invariant violation: a rule produced
// a result whose shape differs from the node it replaces.
type ConsistencyError struct {
	Quantity string
	Want     expr.Shape
	Got      expr.Shape
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent %s shapes: replaced %s, produced %s",
		e.Quantity, e.Want, e.Got)
}

// InvalidArgumentError reports a driver input that is not an expression,
// integral or form.
type InvalidArgumentError struct {
	Value any
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("cannot apply geometry lowering to %T", e.Value)
}
