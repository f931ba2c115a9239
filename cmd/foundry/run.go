package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/agents"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const (
	defaultPrompt = "Create a bar chart of the populations of the five largest cities in the United States. " +
		"Save the chart as a PNG file and the underlying data as a CSV file."

	cleanupTimeout = time.Minute
)

func runAgent(args []string, stdout io.Writer) error {
	var prompt, outputDir string

	flagSet := pflag.NewFlagSet("foundry run", pflag.ContinueOnError)
	flagSet.StringVarP(&prompt, "prompt", "p", defaultPrompt, "prompt to send to the agent")
	flagSet.StringVarP(&outputDir, "output-dir", "o", "", "directory for downloaded files (default: OUTPUT_DIR)")
	if done, err := parseFlags(flagSet, args); done || err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
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

	return runSession(ctx, svcs, def, prompt, cfg.OutputDir, stdout)
}

// runSession is the whole tutorial flow. Cleanup always runs, on a fresh
// context so an interrupt does not prevent it.
func runSession(ctx context.Context, svcs *services.Services, def *config.AgentDefinition, prompt, outputDir string, stdout io.Writer) (err error) {
	agentService := svcs.GetAgentService()
	thread := agentService.NewThread()
	var agent *agents.Agent

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		if cleanupErr := svcs.Shutdown(cleanupCtx, thread, agent); cleanupErr != nil {
			log.Error().Err(cleanupErr).Msg("Cleanup finished with errors")
			err = errors.Join(err, cleanupErr)
		}
	}()

	created, err := agentService.CreateAgent(ctx, def)
	if err != nil {
		return err
	}
	agent = agents.NewAgent(agentService, created)
	fmt.Fprintf(stdout, "Agent %s (%s)\n", created.Name, created.ID)

	items, err := agent.Invoke(ctx, thread, prompt)
	if err != nil {
		return err
	}

	for _, item := range items {
		if text := item.Text(); text != "" {
			fmt.Fprintf(stdout, "\n[%s] %s\n", item.Role, text)
		}
	}

	files, err := agentService.DownloadAll(ctx, items, outputDir)
	for _, f := range files {
		fmt.Fprintf(stdout, "Saved %s (%d bytes)\n", f.Path, f.Bytes)
	}
	if len(files) == 0 && err == nil {
		fmt.Fprintln(stdout, "The agent did not generate any files")
	}
	return err
}
