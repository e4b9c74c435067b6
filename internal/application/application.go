package application

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/eugenenazirov/barbell-plates/internal/api"
	"github.com/eugenenazirov/barbell-plates/internal/calculator"
	"github.com/eugenenazirov/barbell-plates/internal/config"
	"github.com/eugenenazirov/barbell-plates/internal/mcp"
	"github.com/eugenenazirov/barbell-plates/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage    storage.Storage
	closer     io.Closer
	calculator calculator.Calculator
	handler    *api.Handler
	mcp        *server.MCPServer
	router     http.Handler
	logger     *zap.Logger
	server     *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger, version string) (*App, error) {
	store, closer, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	calc := calculator.New()
	handler := api.NewHandler(calc, store, api.WithBars(cfg.Bars))

	routerOpts := []api.RouterOption{
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}

	var mcpServer *server.MCPServer
	if cfg.EnableMCP {
		mcpServer = mcp.New(calc, store, cfg.Bars, version, logger.Named("mcp"))
		routerOpts = append(routerOpts, api.WithMCP(mcp.NewHTTPHandler(mcpServer)))
	}

	router := api.NewRouter(handler, logger, routerOpts...)

	return &App{
		storage:    store,
		closer:     closer,
		calculator: calc,
		handler:    handler,
		mcp:        mcpServer,
		router:     router,
		logger:     logger,
		server:     NewServer(cfg, BuildRootHandler(router, version, cfg.EnableMCP)),
	}, nil
}

// newStorage picks SQLite when a storage path is configured and memory otherwise.
// Either backend starts from the configured inventories.
func newStorage(cfg config.Config) (storage.Storage, io.Closer, error) {
	if cfg.StoragePath == "" {
		store := storage.NewMemoryStorage()
		if err := store.SetInventories(cfg.Inventories); err != nil {
			return nil, nil, fmt.Errorf("failed to apply initial plates: %w", err)
		}
		return store, nil, nil
	}

	store, err := storage.OpenSQLiteWithSeed(cfg.StoragePath, cfg.Inventories)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open plate storage: %w", err)
	}
	return store, store, nil
}

type serviceIndex struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// BuildRootHandler serves a service index at "/" and forwards everything else to apiHandler.
func BuildRootHandler(apiHandler http.Handler, version string, withMCP bool) http.Handler {
	index := serviceIndex{
		Name:    "barbell-plates",
		Version: version,
		Endpoints: []string{
			"GET /api/health",
			"GET /api/bars",
			"GET /api/plates",
			"PUT /api/plates",
			"POST /api/calculate",
		},
	}
	if withMCP {
		index.Endpoints = append(index.Endpoints, "POST /mcp")
	}

	mux := http.NewServeMux()
	mux.Handle("/", apiHandler)
	mux.Handle("GET /{$}", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(index)
	}))

	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.Bool("mcp", a.mcp != nil),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Close releases the storage backend. It is safe to call on memory-backed apps.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}
