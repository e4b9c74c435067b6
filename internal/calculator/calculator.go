package calculator

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/barbell-plates/internal/units"
)

// Tolerance is the fit allowance, in kilograms, applied to the fine inventory only.
// It absorbs floating-point drift accumulated while converting coarse plates.
const Tolerance = 0.01

// MaxTargetWeight bounds the target, in kilograms, a single calculation accepts.
const MaxTargetWeight = 1_000_000

type greedyCalculator struct{}

// New creates a Calculator that decomposes the per-side load greedily,
// coarse inventory first and fine inventory second.
func New() Calculator {
	return &greedyCalculator{}
}

// ComputeTarget returns the working weight in kilograms for percentage of oneRepMax.
// Percentage is not clamped; NaN inputs yield zero.
func ComputeTarget(oneRepMax float64, unit units.Unit, percentage float64) float64 {
	if math.IsNaN(oneRepMax) || math.IsNaN(percentage) {
		return 0
	}
	return units.ToReference(oneRepMax, unit) * percentage / 100
}

// ParseWeight parses user input such as "102.5". Blank, unparseable, or
// non-finite input yields zero.
func ParseWeight(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0
	}
	v, _ := d.Float64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

func (c *greedyCalculator) Distribute(target float64, bar units.BarType, setup Setup) (Distribution, error) {
	barWeight, err := setup.Bars.Weight(bar)
	if err != nil {
		return Distribution{}, err
	}
	if err := setup.Inventories.Validate(); err != nil {
		return Distribution{}, err
	}
	if math.IsInf(target, 0) || target > MaxTargetWeight {
		return Distribution{}, fmt.Errorf("%w: %v kg", ErrTargetOutOfRange, target)
	}
	return distribute(target, barWeight, setup.Inventories), nil
}

func (c *greedyCalculator) AchievedWeight(dist Distribution, bar units.BarType, setup Setup) (float64, error) {
	barWeight, err := setup.Bars.Weight(bar)
	if err != nil {
		return 0, err
	}
	return barWeight + 2*selectionWeight(dist.Coarse) + 2*selectionWeight(dist.Fine), nil
}

func (c *greedyCalculator) Plan(req Request, setup Setup) (Plan, error) {
	target := ComputeTarget(req.OneRepMax, req.Unit, req.Percentage)

	dist, err := c.Distribute(target, req.Bar, setup)
	if err != nil {
		return Plan{}, err
	}
	achieved, err := c.AchievedWeight(dist, req.Bar, setup)
	if err != nil {
		return Plan{}, err
	}
	barWeight, err := setup.Bars.Weight(req.Bar)
	if err != nil {
		return Plan{}, err
	}

	return Plan{
		Request:      req,
		Target:       target,
		BarWeight:    barWeight,
		Distribution: dist,
		Achieved:     achieved,
		Delta:        achieved - target,
	}, nil
}

func distribute(target, barWeight float64, inv Inventories) Distribution {
	dist := Distribution{
		Coarse: Selection{Unit: inv.Coarse.Unit, Plates: []float64{}},
		Fine:   Selection{Unit: inv.Fine.Unit, Plates: []float64{}},
	}

	// NaN fails the comparison and is treated like a missing target.
	load := target - barWeight
	if !(load > 0) {
		return dist
	}

	dist.PerSide = load / 2
	remaining := fill(&dist.Coarse, inv.Coarse, dist.PerSide, 0)
	fill(&dist.Fine, inv.Fine, remaining, Tolerance)

	return dist
}

// fill appends plates heaviest first while they fit within remaining+tolerance
// and returns what is left.
func fill(sel *Selection, inv Inventory, remaining, tolerance float64) float64 {
	for _, plate := range inv.Plates {
		weight := units.ToReference(plate, inv.Unit)
		for remaining >= weight-tolerance {
			sel.Plates = append(sel.Plates, plate)
			remaining -= weight
		}
	}
	return remaining
}

func selectionWeight(sel Selection) float64 {
	total := 0.0
	for _, plate := range sel.Plates {
		total += units.ToReference(plate, sel.Unit)
	}
	return total
}
