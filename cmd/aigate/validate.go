package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmon302/DSATrain-sub000/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long:  `Load and validate the configuration file without starting the server.`,
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	configPath := cfgFile
	if configPath == "" {
		configPath = findConfigFile()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			fmt.Printf("✗ %s is invalid:\n", configPath)
			for _, msg := range verr.Errors {
				fmt.Printf("  - %s\n", msg)
			}
			return err
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	provider := cfg.AI.Provider
	if provider == "" {
		provider = "local"
	}

	fmt.Printf("✓ %s is valid\n", configPath)
	fmt.Printf("  provider: %s\n", provider)
	fmt.Printf("  listen:   %s\n", cfg.Server.Listen)

	return nil
}
