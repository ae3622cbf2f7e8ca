// Package main is the entry point for aigate.
package main

import (
	"context"
	"os"
	"path/filepath"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "config.yaml"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "aigate",
	Short: "Admission gateway for DSATrain AI features",
	Long: `aigate sits between DSATrain clients and AI providers (Anthropic or a
local heuristic model), enforcing rate limits, per-session action budgets,
and a monthly cost cap, with response caching for repeated requests.`,
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file path (default: ./"+defaultConfigFile+" or ~/.config/aigate/"+defaultConfigFile+")")
}

// findConfigFile searches for config.yaml in default locations.
func findConfigFile() string {
	return findConfigIn(".")
}

// findConfigIn checks dir, then ~/.config/aigate/, for the default config file.
func findConfigIn(dir string) string {
	if _, err := os.Stat(filepath.Join(dir, defaultConfigFile)); err == nil {
		return filepath.Join(dir, defaultConfigFile)
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		p := filepath.Join(home, ".config", "aigate", defaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return defaultConfigFile // Default, will error if not found
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}
