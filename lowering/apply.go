package lowering

import (
	"github.com/notargets/symform/expr"
	"github.com/notargets/symform/form"
	"github.com/notargets/symform/rewrite"
	"github.com/sirupsen/logrus"
)

// PreserveSet is the set of node kinds that must pass through the lowering
// unmodified. Membership is a dense table indexed by kind.
type PreserveSet struct {
	table [expr.NumKinds]bool
}

// NewPreserveSet builds a preserve set from the given kinds.
func NewPreserveSet(kinds ...expr.Kind) PreserveSet {
	var p PreserveSet
	for _, k := range kinds {
		p.table[k] = true
	}
	return p
}

// Contains reports whether the kind is preserved.
func (p PreserveSet) Contains(k expr.Kind) bool {
	return p.table[k]
}

// With returns a preserve set extended by the given kinds.
func (p PreserveSet) With(kinds ...expr.Kind) PreserveSet {
	for _, k := range kinds {
		p.table[k] = true
	}
	return p
}

// EffectivePreserveSet returns the preserve set used when lowering an
// integral of the given type: the caller-supplied kinds plus the automatic
// kinds for that integral type. Custom and vertex integrals are handled by
// the form compiler in physical coordinates, so the spatial coordinate and
// Jacobian stay unlowered; everywhere else the cell coordinate stays.
func EffectivePreserveSet(integralType string, kinds ...expr.Kind) PreserveSet {
	p := NewPreserveSet(kinds...)
	switch integralType {
	case form.CustomIntegral, form.VertexIntegral:
		return p.With(expr.SpatialCoordinate, expr.Jacobian)
	default:
		return p.With(expr.CellCoordinate)
	}
}

// Config configures one lowering invocation.
type Config struct {
	// Preserve lists node kinds to pass through unlowered, in addition to
	// the automatic kinds derived from the integral type.
	Preserve []expr.Kind
	// Log receives the warnings of the non-affine soft-fail paths. Defaults
	// to the logrus standard logger.
	Log logrus.FieldLogger
}

func (c Config) logger() logrus.FieldLogger {
	if c.Log != nil {
		return c.Log
	}
	return logrus.StandardLogger()
}

// Apply lowers the geometric quantities of a *form.Form, *form.Integral or
// *expr.Node and returns a value of the same type. Any other input fails
// with an InvalidArgumentError.
func Apply(input any, preserve ...expr.Kind) (any, error) {
	return ApplyWithConfig(input, Config{Preserve: preserve})
}

// ApplyWithConfig is Apply with an explicit configuration.
func ApplyWithConfig(input any, cfg Config) (any, error) {
	switch v := input.(type) {
	case *form.Form:
		return ApplyToForm(v, cfg)
	case *form.Integral:
		return ApplyToIntegral(v, cfg)
	case *expr.Node:
		return ApplyToExpr(v, cfg)
	}
	return nil, &InvalidArgumentError{Value: input}
}

// ApplyToForm lowers each integral of the form independently and returns a
// new form with the same integral order. Integrals do not share rewrite
// caches: different integral types imply different automatic preserve sets.
func ApplyToForm(f *form.Form, cfg Config) (*form.Form, error) {
	integrals := make([]*form.Integral, len(f.Integrals()))
	for k, integral := range f.Integrals() {
		lowered, err := ApplyToIntegral(integral, cfg)
		if err != nil {
			return nil, err
		}
		integrals[k] = lowered
	}
	return form.NewForm(integrals...), nil
}

// ApplyToIntegral lowers the integrand and returns a new integral with all
// other metadata unchanged.
func ApplyToIntegral(i *form.Integral, cfg Config) (*form.Integral, error) {
	preserve := EffectivePreserveSet(i.IntegralType(), cfg.Preserve...)
	integrand, err := lower(i.Integrand(), preserve, cfg.logger())
	if err != nil {
		return nil, err
	}
	return i.Reconstruct(integrand), nil
}

// ApplyToExpr lowers a bare expression with only the caller-supplied
// preserve set.
func ApplyToExpr(e *expr.Node, cfg Config) (*expr.Node, error) {
	return lower(e, NewPreserveSet(cfg.Preserve...), cfg.logger())
}

func lower(e *expr.Node, preserve PreserveSet, log logrus.FieldLogger) (*expr.Node, error) {
	a := newApplier(preserve, log)
	return rewrite.New(a.handlers()).Rewrite(e)
}
