// Package mcp exposes the plate calculator as Model Context Protocol tools.
package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/eugenenazirov/barbell-plates/internal/calculator"
	"github.com/eugenenazirov/barbell-plates/internal/storage"
	"github.com/eugenenazirov/barbell-plates/internal/units"
)

const serverName = "barbell-plates"

// New creates an MCP server with all calculator tools registered.
func New(calc calculator.Calculator, store storage.Storage, bars units.BarCatalog, version string, log *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Barbell plate calculator. Given a one-rep max and a percentage, returns the plates to load on each side of the bar. Heavy plates come from the coarse inventory, small plates from the fine inventory. All computed weights are reported in kilograms and pounds."),
	)

	if log == nil {
		log = zap.NewNop()
	}
	h := &handlers{calc: calc, store: store, bars: bars.Clone(), log: log}

	s.AddTools(
		server.ServerTool{Tool: toolCalculatePlates, Handler: h.calculatePlates},
		server.ServerTool{Tool: toolListBars, Handler: h.listBars},
		server.ServerTool{Tool: toolGetPlates, Handler: h.getPlates},
	)

	return s
}

// NewHTTPHandler wraps s in the streamable HTTP transport.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}

// handlers holds dependencies for MCP tool handlers.
type handlers struct {
	calc  calculator.Calculator
	store storage.Storage
	bars  units.BarCatalog
	log   *zap.Logger
}

func (h *handlers) setup() (calculator.Setup, error) {
	inv, err := h.store.GetInventories()
	if err != nil {
		return calculator.Setup{}, err
	}
	return calculator.Setup{Inventories: inv, Bars: h.bars}, nil
}
