// Package form defines integrals and forms: an Integral is one integrand
// expression with its integration metadata, and a Form is an ordered
// collection of integrals. Both are immutable; algorithms produce new
// values via Reconstruct.
package form

import (
	"fmt"

	"github.com/notargets/symform/expr"
)

// Integral types understood by the lowering driver. Integral types are
// open-ended strings; these are the ones with dedicated behaviour.
const (
	CellIntegral          = "cell"
	ExteriorFacetIntegral = "exterior_facet"
	InteriorFacetIntegral = "interior_facet"
	CustomIntegral        = "custom"
	VertexIntegral        = "vertex"
	PointIntegral         = "point"
)

// Integral is one integrand over one subdomain of one domain.
type Integral struct {
	integrand    *expr.Node
	integralType string
	domain       *expr.Domain
	subdomainID  int
	metadata     map[string]any
}

// NewIntegral constructs an integral. The metadata map is opaque compiler
// configuration, passed through all algorithms unchanged.
func NewIntegral(integrand *expr.Node, integralType string, domain *expr.Domain,
	subdomainID int, metadata map[string]any) *Integral {
	if integrand == nil {
		panic("nil integrand")
	}
	if integrand.Domain() != nil && domain != nil && integrand.Domain() != domain {
		panic(fmt.Sprintf("integrand domain %s does not match integral domain %s",
			integrand.Domain(), domain))
	}
	return &Integral{
		integrand:    integrand,
		integralType: integralType,
		domain:       domain,
		subdomainID:  subdomainID,
		metadata:     metadata,
	}
}

// Integrand returns the integrand expression.
func (i *Integral) Integrand() *expr.Node { return i.integrand }

// IntegralType returns the integral type tag.
func (i *Integral) IntegralType() string { return i.integralType }

// Domain returns the integration domain.
func (i *Integral) Domain() *expr.Domain { return i.domain }

// SubdomainID returns the subdomain identifier.
func (i *Integral) SubdomainID() int { return i.subdomainID }

// Metadata returns the opaque compiler metadata.
func (i *Integral) Metadata() map[string]any { return i.metadata }

// Reconstruct returns an integral with the given integrand and all other
// metadata unchanged.
func (i *Integral) Reconstruct(integrand *expr.Node) *Integral {
	j := *i
	j.integrand = integrand
	return &j
}

func (i *Integral) String() string {
	return fmt.Sprintf("Integral(%s, subdomain=%d)", i.integralType, i.subdomainID)
}

// Form is an ordered collection of integrals.
type Form struct {
	integrals []*Integral
}

// NewForm constructs a form from the given integrals, preserving order.
func NewForm(integrals ...*Integral) *Form {
	out := make([]*Integral, len(integrals))
	copy(out, integrals)
	return &Form{integrals: out}
}

// Integrals returns the integrals in order. Callers must not modify the
// slice.
func (f *Form) Integrals() []*Integral { return f.integrals }

func (f *Form) String() string {
	return fmt.Sprintf("Form(%d integrals)", len(f.integrals))
}
