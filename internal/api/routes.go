package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Ingestion
	api.HandleFunc("/sync", handler.SyncDay).Methods("POST")
	api.HandleFunc("/sync/upload", handler.UploadDay).Methods("POST")
	api.HandleFunc("/sync/paste", handler.PasteDay).Methods("POST")

	// Market data
	api.HandleFunc("/market-data", handler.AddMarketData).Methods("POST")
	api.HandleFunc("/market-data/{id:[0-9]+}", handler.DeleteMarketData).Methods("DELETE")
	api.HandleFunc("/market-data/{symbol}", handler.GetHistory).Methods("GET")
	api.HandleFunc("/market-data/{symbol}/latest", handler.GetLatest).Methods("GET")
	api.HandleFunc("/symbols", handler.GetSymbols).Methods("GET")
	api.HandleFunc("/days/{date}", handler.GetDay).Methods("GET")
	api.HandleFunc("/days/{date}", handler.DeleteDay).Methods("DELETE")

	// Derived reads
	api.HandleFunc("/indicators/{symbol}", handler.GetIndicators).Methods("GET")
	api.HandleFunc("/concentration", handler.GetConcentration).Methods("GET")

	return r
}
