package eval

import (
	"fmt"
	"math"

	"github.com/notargets/symform/expr"
)

// Value is a flat tensor value: Data holds the components in row-major
// order, Size(Shape) entries.
type Value struct {
	Shape expr.Shape
	Data  []float64
}

// Scalar returns the value of a scalar result.
func (v Value) Scalar() float64 {
	if v.Shape.Rank() != 0 {
		panic(fmt.Sprintf("Scalar() on value of shape %s", v.Shape))
	}
	return v.Data[0]
}

// At returns one component of the value.
func (v Value) At(indices ...int) float64 {
	if len(indices) != v.Shape.Rank() {
		panic(fmt.Sprintf("indexing shape %s with %d indices", v.Shape, len(indices)))
	}
	flat := 0
	for pos, i := range indices {
		flat = flat*v.Shape[pos] + i
	}
	return v.Data[flat]
}

// Evaluate computes the numeric value of an expression on the context's
// cell. High-level geometric quantities other than volumes and areas are
// not evaluated directly; run the expression through geometry lowering
// first.
func Evaluate(n *expr.Node, ctx *Context) (Value, error) {
	geom, err := newGeometry(ctx)
	if err != nil {
		return Value{}, err
	}
	e := &evaluator{geom: geom, env: make(map[expr.Index]int)}
	return e.eval(n)
}

type evaluator struct {
	geom *geometry
	env  map[expr.Index]int
}

func (e *evaluator) eval(n *expr.Node) (Value, error) {
	switch n.Kind() {
	case expr.ScalarValue:
		return scalarValue(n.Value()), nil

	case expr.Sum:
		return e.elementwise(n, func(a, b float64) float64 { return a + b })

	case expr.Product:
		a, err := e.eval(n.Operands()[0])
		if err != nil {
			return Value{}, err
		}
		b, err := e.eval(n.Operands()[1])
		if err != nil {
			return Value{}, err
		}
		switch {
		case a.Shape.Rank() == 0:
			return scale(b, a.Data[0]), nil
		case b.Shape.Rank() == 0:
			return scale(a, b.Data[0]), nil
		}
		return Value{}, fmt.Errorf("product of shapes %s and %s", a.Shape, b.Shape)

	case expr.Division:
		a, err := e.eval(n.Operands()[0])
		if err != nil {
			return Value{}, err
		}
		b, err := e.eval(n.Operands()[1])
		if err != nil {
			return Value{}, err
		}
		return scale(a, 1/b.Scalar()), nil

	case expr.Abs:
		return e.scalarUnary(n, math.Abs)

	case expr.Sqrt:
		return e.scalarUnary(n, math.Sqrt)

	case expr.MinValue:
		return e.scalarPair(n, math.Min)

	case expr.MaxValue:
		return e.scalarPair(n, math.Max)

	case expr.Indexed:
		a, err := e.eval(n.Operands()[0])
		if err != nil {
			return Value{}, err
		}
		components := make([]int, len(n.Indices()))
		for pos, ix := range n.Indices() {
			if ix.IsFixed() {
				components[pos] = ix.Fixed()
				continue
			}
			v, ok := e.env[ix.Index()]
			if !ok {
				return Value{}, fmt.Errorf("unbound index %s", ix.Index())
			}
			components[pos] = v
		}
		return scalarValue(a.At(components...)), nil

	case expr.IndexSum:
		fi := n.SumIndex()
		total := 0.0
		for v := 0; v < fi.Dim; v++ {
			e.env[fi.Index] = v
			s, err := e.eval(n.Operands()[0])
			if err != nil {
				delete(e.env, fi.Index)
				return Value{}, err
			}
			total += s.Scalar()
		}
		delete(e.env, fi.Index)
		return scalarValue(total), nil

	case expr.ComponentTensor:
		return e.componentTensor(n)

	case expr.ListTensor:
		return e.listTensor(n)

	case expr.ReferenceGrad:
		// After lowering, a reference gradient appears only around the
		// reference value of the domain's coordinate field, which is the
		// Jacobian by definition.
		op := n.Operands()[0]
		if op.Kind() == expr.ReferenceValue && e.isDomainCoordinates(op.Operands()[0]) {
			return e.geom.terminal(expr.NewJacobian(n.Domain()))
		}
		return Value{}, fmt.Errorf("cannot evaluate reference gradient of %s", op.Kind())

	case expr.ReferenceValue:
		if e.isDomainCoordinates(n.Operands()[0]) {
			return e.geom.spatialCoordinate()
		}
		return Value{}, fmt.Errorf("cannot evaluate reference value of non-coordinate coefficient")

	case expr.Restricted:
		// A single-cell context has no sides; both restrictions see the
		// same cell data.
		return e.eval(n.Operands()[0])

	case expr.Coefficient:
		return Value{}, fmt.Errorf("cannot evaluate coefficient field without nodal values")

	case expr.QuadratureWeight:
		return Value{}, fmt.Errorf("cannot evaluate quadrature weight without a quadrature rule")
	}

	if n.Kind().IsGeometricQuantity() {
		return e.geom.terminal(n)
	}
	return Value{}, fmt.Errorf("cannot evaluate node kind %s", n.Kind())
}

func (e *evaluator) isDomainCoordinates(f *expr.Node) bool {
	d := e.geom.ctx.Domain
	return d != nil && d.Coordinates() == f
}

func (e *evaluator) elementwise(n *expr.Node, op func(a, b float64) float64) (Value, error) {
	a, err := e.eval(n.Operands()[0])
	if err != nil {
		return Value{}, err
	}
	b, err := e.eval(n.Operands()[1])
	if err != nil {
		return Value{}, err
	}
	if !a.Shape.Equal(b.Shape) {
		return Value{}, fmt.Errorf("elementwise %s of shapes %s and %s", n.Kind(), a.Shape, b.Shape)
	}
	data := make([]float64, len(a.Data))
	for k := range data {
		data[k] = op(a.Data[k], b.Data[k])
	}
	return Value{Shape: a.Shape, Data: data}, nil
}

func (e *evaluator) scalarUnary(n *expr.Node, op func(float64) float64) (Value, error) {
	a, err := e.eval(n.Operands()[0])
	if err != nil {
		return Value{}, err
	}
	return scalarValue(op(a.Scalar())), nil
}

func (e *evaluator) scalarPair(n *expr.Node, op func(a, b float64) float64) (Value, error) {
	a, err := e.eval(n.Operands()[0])
	if err != nil {
		return Value{}, err
	}
	b, err := e.eval(n.Operands()[1])
	if err != nil {
		return Value{}, err
	}
	return scalarValue(op(a.Scalar(), b.Scalar())), nil
}

func (e *evaluator) componentTensor(n *expr.Node) (Value, error) {
	shape := n.Shape()
	indices := n.Indices()
	data := make([]float64, 0, shape.Size())
	components := make([]int, len(indices))
	var walk func(axis int) error
	walk = func(axis int) error {
		if axis == len(indices) {
			for pos, ix := range indices {
				e.env[ix.Index()] = components[pos]
			}
			s, err := e.eval(n.Operands()[0])
			if err != nil {
				return err
			}
			data = append(data, s.Scalar())
			return nil
		}
		for v := 0; v < shape[axis]; v++ {
			components[axis] = v
			if err := walk(axis + 1); err != nil {
				return err
			}
		}
		return nil
	}
	err := walk(0)
	for _, ix := range indices {
		delete(e.env, ix.Index())
	}
	if err != nil {
		return Value{}, err
	}
	return Value{Shape: shape, Data: data}, nil
}

func (e *evaluator) listTensor(n *expr.Node) (Value, error) {
	shape := n.Shape()
	data := make([]float64, 0, shape.Size())
	for _, op := range n.Operands() {
		v, err := e.eval(op)
		if err != nil {
			return Value{}, err
		}
		data = append(data, v.Data...)
	}
	return Value{Shape: shape, Data: data}, nil
}

func scale(v Value, s float64) Value {
	data := make([]float64, len(v.Data))
	for k, x := range v.Data {
		data[k] = x * s
	}
	return Value{Shape: v.Shape, Data: data}
}
