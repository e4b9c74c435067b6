// Package report renders calculator plans for people and API clients.
package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eugenenazirov/barbell-plates/internal/calculator"
	"github.com/eugenenazirov/barbell-plates/internal/units"
)

// Weight is a display weight in both units, rounded to two decimals.
type Weight struct {
	Kg float64 `json:"kg"`
	Lb float64 `json:"lb"`
}

// NewWeight converts a kilogram value into a rounded Weight.
func NewWeight(kg float64) Weight {
	return Weight{
		Kg: Round(kg),
		Lb: Round(units.FromReference(kg, units.Pound)),
	}
}

// Round rounds v to two decimal places, half away from zero.
func Round(v float64) float64 {
	rounded, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return rounded
}

// Report is the display form of a calculator.Plan.
type Report struct {
	OneRepMax       float64                `json:"oneRepMax"`
	Unit            units.Unit             `json:"unit"`
	OneRepMaxWeight Weight                 `json:"oneRepMaxWeight"`
	Percentage      float64                `json:"percentage"`
	Bar             units.BarType          `json:"bar"`
	Target          Weight                 `json:"target"`
	BarWeight       Weight                 `json:"barWeight"`
	PerSide         Weight                 `json:"perSide"`
	Plates          []calculator.Selection `json:"plates"`
	PlatesPerSide   int                    `json:"platesPerSide"`
	Achieved        Weight                 `json:"achieved"`
	Delta           Weight                 `json:"delta"`
}

// New builds a Report from plan. Plates list the coarse selection before the fine one.
func New(plan calculator.Plan) Report {
	dist := plan.Distribution
	return Report{
		OneRepMax:       plan.Request.OneRepMax,
		Unit:            plan.Request.Unit,
		OneRepMaxWeight: NewWeight(units.ToReference(plan.Request.OneRepMax, plan.Request.Unit)),
		Percentage:      plan.Request.Percentage,
		Bar:             plan.Request.Bar,
		Target:          NewWeight(plan.Target),
		BarWeight:       NewWeight(plan.BarWeight),
		PerSide:         NewWeight(dist.PerSide),
		Plates:          []calculator.Selection{dist.Coarse, dist.Fine},
		PlatesPerSide:   dist.PlateCount(),
		Achieved:        NewWeight(plan.Achieved),
		Delta:           NewWeight(plan.Delta),
	}
}

// Text renders the report as a short plain-text summary.
func (r Report) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "1RM:       %s %s (%s)\n", decimal.NewFromFloat(r.OneRepMax).String(), r.Unit, formatWeight(r.OneRepMaxWeight))
	fmt.Fprintf(&b, "Target:    %s (%s%%)\n", formatWeight(r.Target), decimal.NewFromFloat(r.Percentage).String())
	fmt.Fprintf(&b, "Bar:       %s, %s\n", r.Bar, formatWeight(r.BarWeight))
	b.WriteString("Per side:\n")
	if r.PlatesPerSide == 0 {
		b.WriteString("  bar only\n")
	}
	for _, sel := range r.Plates {
		if len(sel.Plates) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s: %s\n", sel.Unit, joinPlates(sel.Plates))
	}
	fmt.Fprintf(&b, "Achieved:  %s (delta %s kg)\n", formatWeight(r.Achieved), decimal.NewFromFloat(r.Delta.Kg).StringFixed(2))

	return b.String()
}

func formatWeight(w Weight) string {
	return fmt.Sprintf("%s kg / %s lb",
		decimal.NewFromFloat(w.Kg).StringFixed(2),
		decimal.NewFromFloat(w.Lb).StringFixed(2),
	)
}

func joinPlates(plates []float64) string {
	parts := make([]string, len(plates))
	for i, p := range plates {
		parts[i] = decimal.NewFromFloat(p).String()
	}
	return strings.Join(parts, ", ")
}
