package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/optiondesk/internal/api/handlers"
	"github.com/wonny/optiondesk/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(tickerHandler *handlers.TickerHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Ticker snapshot endpoints
	api.HandleFunc("/tickers/{symbol}", tickerHandler.GetSnapshot).Methods("GET")
	api.HandleFunc("/tickers/{symbol}/details", tickerHandler.GetDetails).Methods("GET")
	api.HandleFunc("/tickers/{symbol}/chain", tickerHandler.GetChain).Methods("GET")
	api.HandleFunc("/tickers/{symbol}/expirations", tickerHandler.GetExpirations).Methods("GET")
	api.HandleFunc("/tickers/{symbol}/strikes", tickerHandler.GetStrikes).Methods("GET")
	api.HandleFunc("/tickers/{symbol}/skew", tickerHandler.GetSkew).Methods("GET")

	// Symbol utilities
	api.HandleFunc("/symbols/{identifier}/decode", handlers.DecodeSymbol).Methods("GET")

	// Apply middleware (먼저 등록한 것이 바깥쪽)
	r.Use(loggingMiddleware(log))
	r.Use(compressionMiddleware)
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "optiondesk-api",
	})
}
