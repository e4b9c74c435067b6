package units

import (
	"cmp"
	"fmt"
	"slices"
)

// BarType names a bar variant.
type BarType string

const (
	BarStandard BarType = "standard"
	BarWomens   BarType = "womens"
)

// BarSpec describes a bar variant in its native unit.
type BarSpec struct {
	Type   BarType `json:"type" yaml:"-"`
	Weight float64 `json:"weight" yaml:"weight"`
	Unit   Unit    `json:"unit" yaml:"unit"`
}

// ReferenceWeight returns the bar weight in kilograms.
func (b BarSpec) ReferenceWeight() float64 {
	return ToReference(b.Weight, b.Unit)
}

// BarCatalog maps bar variants to their weight and unit.
type BarCatalog map[BarType]BarSpec

var defaultBars = BarCatalog{
	BarStandard: {Type: BarStandard, Weight: 45, Unit: Pound},
	BarWomens:   {Type: BarWomens, Weight: 35, Unit: Pound},
}

// DefaultBars returns a copy of the built-in bar catalog.
func DefaultBars() BarCatalog {
	return defaultBars.Clone()
}

// BarWeight returns the kilogram weight of a bar from the default catalog.
func BarWeight(bar BarType) (float64, error) {
	return defaultBars.Weight(bar)
}

// Weight returns the kilogram weight of bar.
func (c BarCatalog) Weight(bar BarType) (float64, error) {
	spec, ok := c[bar]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownBarType, bar)
	}
	return spec.ReferenceWeight(), nil
}

// Validate checks that the catalog is non-empty and every weight is positive.
func (c BarCatalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: catalog is empty", ErrInvalidBar)
	}
	for name, spec := range c {
		if name == "" {
			return fmt.Errorf("%w: empty bar name", ErrInvalidBar)
		}
		if spec.Weight <= 0 || !spec.Unit.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidBar, name)
		}
	}
	return nil
}

// Sorted returns the catalog entries ordered by bar name.
func (c BarCatalog) Sorted() []BarSpec {
	out := make([]BarSpec, 0, len(c))
	for name, spec := range c {
		spec.Type = name
		out = append(out, spec)
	}
	slices.SortFunc(out, func(a, b BarSpec) int {
		return cmp.Compare(a.Type, b.Type)
	})
	return out
}

// Clone returns a copy of the catalog with Type populated from the map keys.
func (c BarCatalog) Clone() BarCatalog {
	out := make(BarCatalog, len(c))
	for name, spec := range c {
		spec.Type = name
		out[name] = spec
	}
	return out
}
