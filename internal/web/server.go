package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/state"
	"github.com/tokenherd/engine/internal/types"
	"github.com/tokenherd/engine/internal/utils"
	"github.com/tokenherd/engine/internal/wallets"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes engine state over HTTP for monitoring.
type WebServer struct {
	router     *mux.Router
	port       string
	pool       *wallets.PoolManager
	precision  int
	configName string
}

// NewWebServer creates a new web server instance. The pool is optional; when
// nil the wallet summary endpoint reports an empty pool.
func NewWebServer(port string, pool *wallets.PoolManager, precision int, configName string) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:     mux.NewRouter(),
		port:       port,
		pool:       pool,
		precision:  precision,
		configName: configName,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/cycles", ws.handleGetCycles).Methods("GET")
	api.HandleFunc("/cycles/latest", ws.handleGetLatestCycle).Methods("GET")
	api.HandleFunc("/cycles/{id}", ws.handleGetCycle).Methods("GET")
	api.HandleFunc("/parameters", ws.handleGetParameters).Methods("GET")
	api.HandleFunc("/metrics", ws.handleGetDirectiveMetrics).Methods("GET")
	api.HandleFunc("/summary", ws.handleGetEngineSummary).Methods("GET")
	api.HandleFunc("/wallets/summary", ws.handleGetWalletSummary).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns comprehensive server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	// Get runtime memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	// Get latest cycle information
	latestCycle, cycleErr := state.GetRecentCycles(1)
	var cycleInfo map[string]interface{}
	var hasErrors bool
	var lastCycleTime *time.Time

	if cycleErr == nil && len(latestCycle) > 0 {
		cycle := latestCycle[0]
		cycleInfo = map[string]interface{}{
			"current_cycle":      cycle.CycleNumber,
			"last_cycle_time":    cycle.Timestamp,
			"last_directive":     cycle.Directive.Action,
			"last_risk_level":    cycle.RiskLevel,
			"dispatches_in_last": len(cycle.Outcomes),
		}
		lastCycleTime = &cycle.Timestamp
	} else {
		cycleInfo = map[string]interface{}{
			"current_cycle":      0,
			"last_cycle_time":    nil,
			"last_directive":     "unknown",
			"last_risk_level":    "unknown",
			"dispatches_in_last": 0,
		}
		hasErrors = true // No cycle data available indicates an issue
	}

	// Get database connection status
	dbHealthy := true
	dbErr := state.TestDBConnection()
	if dbErr != nil {
		dbHealthy = false
		hasErrors = true
	}

	// Determine overall status
	overallStatus := "OK"
	if hasErrors {
		overallStatus = "DEGRADED"
	}

	// Approximate liveness from the last cycle time
	var secondsSinceLastCycle int64
	if lastCycleTime != nil {
		secondsSinceLastCycle = int64(time.Since(*lastCycleTime).Seconds())
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":            runtime.Version(),
			"goroutines_count":   runtime.NumGoroutine(),
			"total_alloc_bytes":  memStats.TotalAlloc,
			"heap_objects_count": memStats.HeapObjects,
			"alloc_bytes":        memStats.Alloc,
			"sys_bytes":          memStats.Sys,
			"gc_cycles":          memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "tokenherd-engine",
			"version": "1.0.0",
		},
		"engine_status": map[string]interface{}{
			"database_healthy":         dbHealthy,
			"has_recent_errors":        hasErrors,
			"seconds_since_last_cycle": secondsSinceLastCycle,
			"cycle_info":               cycleInfo,
		},
	}

	// Set appropriate HTTP status code
	statusCode := http.StatusOK
	if hasErrors {
		statusCode = http.StatusServiceUnavailable
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetCycles returns paginated cycle data
func (ws *WebServer) handleGetCycles(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	cycles, err := state.GetRecentCycles(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent cycles")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve cycles")
		return
	}

	response := map[string]interface{}{
		"cycles": cycles,
		"count":  len(cycles),
		"limit":  limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetCycle returns a specific cycle by snapshot ID
func (ws *WebServer) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	idStr := vars["id"]

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid cycle ID")
		return
	}

	cycle, err := state.GetCycleByID(id)
	if err != nil {
		webLogger.Error().Err(err).Int64("cycleId", id).Msg("Failed to get cycle")
		ws.writeErrorResponse(w, http.StatusNotFound, "Cycle not found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, cycle)
}

// handleGetLatestCycle returns the most recent cycle
func (ws *WebServer) handleGetLatestCycle(w http.ResponseWriter, r *http.Request) {
	cycles, err := state.GetRecentCycles(1)
	if err != nil || len(cycles) == 0 {
		webLogger.Error().Err(err).Msg("Failed to get latest cycle")
		ws.writeErrorResponse(w, http.StatusNotFound, "No cycles found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, cycles[0])
}

// handleGetParameters returns the active strategy parameters
func (ws *WebServer) handleGetParameters(w http.ResponseWriter, r *http.Request) {
	params, err := state.LoadActiveStrategyParameters(ws.configName)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get strategy parameters")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve strategy parameters")
		return
	}

	response := map[string]interface{}{
		"parameters": params,
		"timestamp":  time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetEngineSummary returns engine summary statistics
func (ws *WebServer) handleGetEngineSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := state.GetEngineSummary()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get engine summary")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve engine summary")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, summary)
}

// handleGetDirectiveMetrics returns aggregated decision metrics
func (ws *WebServer) handleGetDirectiveMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := state.GetDirectiveMetrics()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get directive metrics")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve directive metrics")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, metrics)
}

// walletSummaryEntry is the redacted per-actor view: keys and exact balances
// never cross this boundary.
type walletSummaryEntry struct {
	Address       string           `json:"address"`
	Role          types.WalletRole `json:"role"`
	BalanceTokens float64          `json:"balance_tokens"`
	Reserved      bool             `json:"reserved"`
	TradeCount    int              `json:"trade_count"`
	TradesToday   int              `json:"trades_today"`
	LastUsed      *time.Time       `json:"last_used,omitempty"`
}

// handleGetWalletSummary returns the current actor pool state
func (ws *WebServer) handleGetWalletSummary(w http.ResponseWriter, r *http.Request) {
	if ws.pool == nil {
		ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"wallets": []walletSummaryEntry{},
			"count":   0,
		})
		return
	}

	records := ws.pool.Snapshot()
	entries := make([]walletSummaryEntry, 0, len(records))
	reservedCount := 0
	for _, rec := range records {
		balance, err := utils.BaseToTokens(rec.Balance, ws.precision)
		if err != nil {
			webLogger.Warn().Err(err).Str("wallet", rec.Address).Msg("Skipping wallet with unreadable balance")
			continue
		}

		entry := walletSummaryEntry{
			Address:       rec.Address,
			Role:          rec.Role,
			BalanceTokens: balance,
			Reserved:      rec.Reserved,
			TradeCount:    rec.TradeCount,
			TradesToday:   rec.TradesToday,
		}
		if !rec.LastUsed.IsZero() {
			lastUsed := rec.LastUsed
			entry.LastUsed = &lastUsed
		}
		if rec.Reserved {
			reservedCount++
		}
		entries = append(entries, entry)
	}

	response := map[string]interface{}{
		"wallets":  entries,
		"count":    len(entries),
		"reserved": reservedCount,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
