package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1handlers "github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/api/v1/handlers"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/api/v1/models"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/connections"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/agents"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/httpext"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const shutdownTimeout = 30 * time.Second

func runServe(args []string) error {
	var addr string

	flagSet := pflag.NewFlagSet("foundry serve", pflag.ContinueOnError)
	flagSet.StringVar(&addr, "addr", "", "listen address (default: LISTEN_ADDR)")
	if done, err := parseFlags(flagSet, args); done || err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.ListenAddr = addr
	}
	if len(config.GetJWTSecret()) == 0 {
		return errors.New("JWT_SECRET must be set to serve")
	}

	def, err := config.LoadAgentDefinition(cfg.AgentDefinitionPath)
	if err != nil {
		return err
	}

	svcs, err := services.InitializeServices(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agentService := svcs.GetAgentService()
	created, err := agentService.CreateAgent(ctx, def)
	if err != nil {
		return errors.Join(err, svcs.Shutdown(context.Background(), nil, nil))
	}
	agent := agents.NewAgent(agentService, created)
	manager := connections.NewManager(connections.DefaultTimeouts)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           setupRouter(agents.NewRunner(agentService, agent), manager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("agent_id", created.ID).Msg("Server starting")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn().Err(shutdownErr).Msg("HTTP server did not shut down cleanly")
	}
	manager.CloseAll()
	if waitErr := manager.Wait(shutdownCtx); waitErr != nil {
		log.Warn().Err(waitErr).Msg("WebSocket connections did not finish cleaning up")
	}
	return errors.Join(err, svcs.Shutdown(shutdownCtx, nil, agent))
}

// setupRouter builds the serve-mode handler. The request id wraps the whole
// router so unmatched routes get one too.
func setupRouter(runner models.Runner, manager *connections.Manager) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	v1handlers.RegisterV1Routes(r, runner, manager)
	return httpext.WithRequestID(r)
}
