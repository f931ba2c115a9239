package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultAgentInstructions = `You are a data analyst with a Python code interpreter.
Write and run code to answer the user's request.
When you produce a chart, table or dataset, save it as a file (PNG for charts, CSV for tables)
so it can be downloaded, and mention the file in your answer.`

// AgentDefinition describes the agent to create on the service.
type AgentDefinition struct {
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description,omitempty"`
	Instructions string            `yaml:"instructions"`
	Model        string            `yaml:"model,omitempty"`
	Temperature  *float32          `yaml:"temperature,omitempty"`
	Metadata     map[string]string `yaml:"metadata,omitempty"`
}

// DefaultAgentDefinition returns the code interpreter agent used when no definition file is configured.
func DefaultAgentDefinition() *AgentDefinition {
	return &AgentDefinition{
		Name:         "code-interpreter-agent",
		Description:  "Runs Python in a sandbox and returns generated files",
		Instructions: defaultAgentInstructions,
	}
}

// LoadAgentDefinition reads an agent definition from a YAML file.
// An empty path yields the default definition.
func LoadAgentDefinition(path string) (*AgentDefinition, error) {
	if path == "" {
		return DefaultAgentDefinition(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent definition: %w", err)
	}

	var def AgentDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse agent definition: %w", err)
	}

	if def.Name == "" {
		return nil, fmt.Errorf("agent definition %s: name is required", path)
	}
	if def.Instructions == "" {
		def.Instructions = defaultAgentInstructions
	}

	return &def, nil
}

// ModelOr returns the definition's model override, or fallback when none is set.
func (d *AgentDefinition) ModelOr(fallback string) string {
	if d.Model != "" {
		return d.Model
	}
	return fallback
}
