package calculator

import "github.com/eugenenazirov/barbell-plates/internal/units"

// Inventory is an ordered set of plate denominations expressed in a single unit.
type Inventory struct {
	Unit   units.Unit `json:"unit"`
	Plates []float64  `json:"plates"`
}

// Inventories holds the two plate sets a calculation draws from. Coarse plates are
// loaded first with an exact fit test; Fine plates top up the remainder within Tolerance.
type Inventories struct {
	Coarse Inventory `json:"coarse"`
	Fine   Inventory `json:"fine"`
}

// Setup is everything a single calculation runs against.
type Setup struct {
	Inventories
	Bars units.BarCatalog
}

// Selection lists the plates picked from one inventory, in native units and selection order.
type Selection struct {
	Unit   units.Unit `json:"unit"`
	Plates []float64  `json:"plates"`
}

// Distribution is the per-side plate loadout for one calculation.
// PerSide is the exact per-side target before decomposition, in kilograms.
type Distribution struct {
	Coarse  Selection `json:"coarse"`
	Fine    Selection `json:"fine"`
	PerSide float64   `json:"perSide"`
}

// PlateCount returns the number of plates loaded on each side.
func (d Distribution) PlateCount() int {
	return len(d.Coarse.Plates) + len(d.Fine.Plates)
}

// Empty reports whether the bar is loaded without plates.
func (d Distribution) Empty() bool {
	return d.PlateCount() == 0
}

// Request describes a working-set calculation.
type Request struct {
	OneRepMax  float64
	Unit       units.Unit
	Percentage float64
	Bar        units.BarType
}

// Plan is the full result of a Request. All weights are in kilograms.
// Achieved is derived from the emitted plates, and Delta is Achieved minus Target.
type Plan struct {
	Request      Request
	Target       float64
	BarWeight    float64
	Distribution Distribution
	Achieved     float64
	Delta        float64
}

// Calculator describes the behaviour required from a plate calculator.
type Calculator interface {
	Distribute(target float64, bar units.BarType, setup Setup) (Distribution, error)
	AchievedWeight(dist Distribution, bar units.BarType, setup Setup) (float64, error)
	Plan(req Request, setup Setup) (Plan, error)
}
