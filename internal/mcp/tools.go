package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/eugenenazirov/barbell-plates/internal/calculator"
	"github.com/eugenenazirov/barbell-plates/internal/report"
	"github.com/eugenenazirov/barbell-plates/internal/units"
)

const defaultPercentage = 75

// --- Tool definitions ---

var toolCalculatePlates = mcp.NewTool("calculate_plates",
	mcp.WithDescription("Compute the per-side plate loadout for a percentage of a one-rep max. Returns the target, the bar weight, the selected plates per inventory, and the achieved weight."),
	mcp.WithNumber("one_rep_max", mcp.Description("One-rep max in the given unit. Numeric strings are accepted; missing or unparseable input counts as zero.")),
	mcp.WithString("unit", mcp.Description("Unit of one_rep_max. Defaults to kg."), mcp.Enum("kg", "lb")),
	mcp.WithNumber("percentage", mcp.Description("Percentage of the one-rep max to load. Defaults to 75.")),
	mcp.WithString("bar", mcp.Description("Bar type. Defaults to standard.")),
)

var toolListBars = mcp.NewTool("list_bars",
	mcp.WithDescription("List the available bar types and their weights."),
)

var toolGetPlates = mcp.NewTool("get_plates",
	mcp.WithDescription("Return the coarse and fine plate inventories currently used for calculations."),
)

// --- Tool handlers ---

func (h *handlers) calculatePlates(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unit, err := units.ParseUnit(req.GetString("unit", string(units.Kilogram)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calcReq := calculator.Request{
		OneRepMax:  weightArgument(req.GetArguments()["one_rep_max"]),
		Unit:       unit,
		Percentage: req.GetFloat("percentage", defaultPercentage),
		Bar:        units.BarType(req.GetString("bar", string(units.BarStandard))),
	}

	setup, err := h.setup()
	if err != nil {
		h.log.Error("mcp calculate_plates setup", zap.Error(err))
		return mcp.NewToolResultError("loading plates failed: " + err.Error()), nil
	}

	plan, err := h.calc.Plan(calcReq, setup)
	if err != nil {
		if !errors.Is(err, units.ErrUnknownBarType) && !errors.Is(err, calculator.ErrTargetOutOfRange) {
			h.log.Error("mcp calculate_plates", zap.Error(err))
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(report.New(plan))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listBars(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(map[string]any{
		"bars": h.bars.Sorted(),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPlates(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inv, err := h.store.GetInventories()
	if err != nil {
		h.log.Error("mcp get_plates", zap.Error(err))
		return mcp.NewToolResultError("loading plates failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(inv)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// weightArgument accepts a JSON number or a numeric string.
func weightArgument(v any) float64 {
	switch w := v.(type) {
	case float64:
		return w
	case int:
		return float64(w)
	case string:
		return calculator.ParseWeight(strings.TrimSpace(w))
	default:
		return 0
	}
}
