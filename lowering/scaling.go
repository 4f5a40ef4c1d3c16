package lowering

import (
	"fmt"
	"strings"

	"github.com/notargets/symform/expr"
	"github.com/notargets/symform/form"
)

// ScalingFactor returns the factor that scales an integrand from the
// physical to the reference frame for the integral's type: |detJ| times the
// quadrature weight for cell integrals, the facet Jacobian determinant
// times the weight for facet integrals (restricted to the positive side on
// interior facets), the bare weight for custom-family integrals, and one
// for point-like integrals.
func ScalingFactor(i *form.Integral) (*expr.Node, error) {
	d := i.Domain()
	tdim := d.TopologicalDimension()
	weight := expr.NewQuadratureWeight(d)

	t := i.IntegralType()
	switch {
	case t == form.CellIntegral:
		return expr.Mul(expr.AbsValue(expr.NewJacobianDeterminant(d)), weight), nil

	case strings.HasPrefix(t, form.ExteriorFacetIntegral):
		if tdim > 1 {
			return expr.Mul(expr.NewFacetJacobianDeterminant(d), weight), nil
		}
		// A facet of an interval is a vertex; nothing to scale
		return expr.Scalar(1), nil

	case strings.HasPrefix(t, form.InteriorFacetIntegral):
		if tdim > 1 {
			detFJ := expr.NewRestricted(expr.NewFacetJacobianDeterminant(d), expr.PositiveSide)
			return expr.Mul(detFJ, weight), nil
		}
		return expr.Scalar(1), nil

	case t == form.CustomIntegral || t == "interface" || t == "overlap" || t == "cutcell":
		// Custom weights include any volume scaling already
		return weight, nil

	case t == form.VertexIntegral || t == form.PointIntegral:
		return expr.Scalar(1), nil
	}
	return nil, fmt.Errorf("unknown integral type %q, don't know how to scale", t)
}

// ApplyIntegralScaling multiplies each integrand of the form by its scaling
// factor, returning a new form with the same integral order and metadata.
func ApplyIntegralScaling(f *form.Form) (*form.Form, error) {
	integrals := make([]*form.Integral, len(f.Integrals()))
	for k, integral := range f.Integrals() {
		scaled, err := ApplyIntegralScalingToIntegral(integral)
		if err != nil {
			return nil, err
		}
		integrals[k] = scaled
	}
	return form.NewForm(integrals...), nil
}

// ApplyIntegralScalingToIntegral scales one integral. Integrals whose
// scaling factor is the literal one are returned unchanged.
func ApplyIntegralScalingToIntegral(i *form.Integral) (*form.Integral, error) {
	scale, err := ScalingFactor(i)
	if err != nil {
		return nil, err
	}
	if scale.Kind() == expr.ScalarValue && scale.Value() == 1 {
		return i, nil
	}
	return i.Reconstruct(expr.Mul(scale, i.Integrand())), nil
}
