package handlers

import (
	"net/http"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/api/v1/handlers/websocket"
	v1mware "github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/api/v1/middleware"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/api/v1/models"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/connections"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterV1Routes(router *mux.Router, runner models.Runner, manager *connections.Manager) {
	router.Use(v1mware.CountRequests)

	// Public routes (no auth required)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// v1 routes
	v1 := router.PathPrefix("/v1").Subrouter()

	// Protected v1 routes (require auth)
	v1protectedRouter := v1.NewRoute().Subrouter()
	v1protectedRouter.Use(v1mware.RequireAuth())
	v1protectedRouter.Use(v1mware.RequireScope(config.RunsScope))

	v1protectedRouter.Handle("/runs", v1mware.RateLimit("runs")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleCreateRun(runner, w, r)
	}))).Methods("POST")

	v1protectedRouter.Handle("/files/{id}", v1mware.RateLimit("files")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleGetFile(runner, w, r)
	}))).Methods("GET")

	v1protectedRouter.HandleFunc("/threads/{id}", func(w http.ResponseWriter, r *http.Request) {
		HandleDeleteThread(runner, w, r)
	}).Methods("DELETE")

	v1protectedRouter.Handle("/ws", v1mware.RateLimit("ws")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		websocket.HandleRunWebSocket(runner, manager, w, r)
	}))).Methods("GET")
}
