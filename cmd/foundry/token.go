package main

import (
	"fmt"
	"io"
	"time"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/services/oauth"
	"github.com/spf13/pflag"
)

func runToken(args []string, stdout io.Writer) error {
	var subject string
	var ttl time.Duration
	var scopes []string

	flagSet := pflag.NewFlagSet("foundry token", pflag.ContinueOnError)
	flagSet.StringVar(&subject, "subject", "", "token subject (required)")
	flagSet.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	flagSet.StringSliceVar(&scopes, "scope", []string{config.RunsScope}, "scopes to grant")
	if done, err := parseFlags(flagSet, args); done || err != nil {
		return err
	}

	if subject == "" {
		return fmt.Errorf("--subject is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	config.LoadEnvFile()
	token, err := oauth.IssueToken(subject, scopes, ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, token)
	return nil
}
