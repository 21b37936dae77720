package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/coindelisi66/token-hunger-arena/internal/auth"
)

const banner = "Token Hunger Arena backend is running"

// Router wires the WebSocket endpoint, the public REST routes and the
// operator routes guarded by authCfg.
func (gs *GameServer) Router(authCfg *auth.Config, corsOrigin string) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware(corsOrigin))

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(banner))
	}).Methods("GET")

	// Health check endpoint (no auth required) - after CORS middleware
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Simple ping endpoint for basic connectivity
	r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	}).Methods("GET")

	r.HandleFunc("/ws", gs.HandleWS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", gs.HandleState).Methods("GET")
	api.HandleFunc("/history", gs.HandleHistory).Methods("GET")

	// Operator routes
	api.Handle("/start", authCfg.AuthMiddleware(http.HandlerFunc(gs.HandleStart))).Methods("POST", "OPTIONS")
	api.Handle("/reset", authCfg.AuthMiddleware(http.HandlerFunc(gs.HandleReset))).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(origin string) mux.MiddlewareFunc {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
