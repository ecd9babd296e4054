package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/config/provider"
)

// ValidateCmd validates a configuration file.
type ValidateCmd struct {
	Config string `arg:"" name:"config" help:"Configuration file path." placeholder:"PATH"`

	// PrintConfig prints the expanded configuration with defaults
	// applied and env vars resolved.
	PrintConfig bool `short:"p" name:"print-config" help:"Print the expanded configuration."`
}

func (c *ValidateCmd) Run() error {
	ctx := context.Background()

	p, err := provider.NewFileProvider(c.Config)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	loader := config.NewLoader(p)
	defer func() { _ = loader.Close() }()

	cfg, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	if c.PrintConfig {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(cfg)
	}

	fmt.Printf("%s: configuration is valid\n", c.Config)
	return nil
}
