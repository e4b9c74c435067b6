package calculator

import (
	"fmt"
	"slices"

	"github.com/eugenenazirov/barbell-plates/internal/units"
)

var (
	defaultPoundPlates    = []float64{45, 35, 25, 15, 10}
	defaultKilogramPlates = []float64{2.5, 2, 1.5, 1, 0.5}
)

// DefaultInventories returns pound plates as the coarse set and kilogram change plates as the fine set.
func DefaultInventories() Inventories {
	return Inventories{
		Coarse: Inventory{Unit: units.Pound, Plates: slices.Clone(defaultPoundPlates)},
		Fine:   Inventory{Unit: units.Kilogram, Plates: slices.Clone(defaultKilogramPlates)},
	}
}

// DefaultSetup returns the default inventories together with the default bar catalog.
func DefaultSetup() Setup {
	return Setup{
		Inventories: DefaultInventories(),
		Bars:        units.DefaultBars(),
	}
}

// Validate checks the inventory preconditions the distributor relies on to terminate.
func (inv Inventory) Validate() error {
	if !inv.Unit.Valid() {
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidInventory, inv.Unit)
	}
	if len(inv.Plates) == 0 {
		return fmt.Errorf("%w: no %s plates", ErrInvalidInventory, inv.Unit)
	}
	for i, plate := range inv.Plates {
		if !(plate > 0) {
			return fmt.Errorf("%w: %s plate %v is not positive", ErrInvalidInventory, inv.Unit, plate)
		}
		if i > 0 && plate >= inv.Plates[i-1] {
			return fmt.Errorf("%w: %s plates are not strictly descending at %v", ErrInvalidInventory, inv.Unit, plate)
		}
	}
	return nil
}

// Clone returns a deep copy of the inventory.
func (inv Inventory) Clone() Inventory {
	return Inventory{Unit: inv.Unit, Plates: slices.Clone(inv.Plates)}
}

// Smallest returns the lightest plate in kilograms, or zero for an empty inventory.
func (inv Inventory) Smallest() float64 {
	if len(inv.Plates) == 0 {
		return 0
	}
	return units.ToReference(inv.Plates[len(inv.Plates)-1], inv.Unit)
}

// Validate checks both inventories and that they use different units.
func (i Inventories) Validate() error {
	if err := i.Coarse.Validate(); err != nil {
		return fmt.Errorf("coarse: %w", err)
	}
	if err := i.Fine.Validate(); err != nil {
		return fmt.Errorf("fine: %w", err)
	}
	if i.Coarse.Unit == i.Fine.Unit {
		return fmt.Errorf("%w: both inventories use %s", ErrInvalidInventory, i.Coarse.Unit)
	}
	return nil
}

// Clone returns a deep copy of both inventories.
func (i Inventories) Clone() Inventories {
	return Inventories{Coarse: i.Coarse.Clone(), Fine: i.Fine.Clone()}
}

// Validate checks the inventories and the bar catalog.
func (s Setup) Validate() error {
	if err := s.Inventories.Validate(); err != nil {
		return err
	}
	return s.Bars.Validate()
}

// NormalizePlates removes duplicates and sorts plates heaviest first.
// It does not reject invalid values; call Validate on the resulting Inventory.
func NormalizePlates(plates []float64) []float64 {
	out := slices.Clone(plates)
	slices.Sort(out)
	out = slices.Compact(out)
	slices.Reverse(out)
	return out
}
