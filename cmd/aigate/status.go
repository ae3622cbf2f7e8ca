package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/salmon302/DSATrain-sub000/internal/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check a running aigate server",
	Long: `Query a running aigate server for its admission state: whether AI features
are enabled, the active provider, rate limit usage, and monthly spend.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	// Load config to get server listen address
	configPath := cfgFile
	if configPath == "" {
		configPath = findConfigFile()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	statusURL := fmt.Sprintf("http://%s/v1/ai/status", cfg.Server.Listen)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	//nolint:noctx // Simple status check doesn't need context propagation
	resp, err := client.Get(statusURL)
	if err != nil {
		fmt.Printf("✗ aigate is not running (%s)\n", cfg.Server.Listen)
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read status response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("✗ aigate returned unexpected status: %d\n", resp.StatusCode)
		return fmt.Errorf("status check failed with status %d", resp.StatusCode)
	}

	snap := gjson.ParseBytes(body)
	fmt.Printf("✓ aigate is running (%s)\n", cfg.Server.Listen)
	fmt.Printf("  ai enabled: %v\n", snap.Get("enabled").Bool())
	fmt.Printf("  provider:   %s (%s)\n", snap.Get("provider").String(), snap.Get("model").String())
	fmt.Printf("  rate limit: %d/%d in %ds window\n",
		snap.Get("rate_limit.used").Int(),
		snap.Get("rate_limit.limit").Int(),
		snap.Get("rate_limit.window_seconds").Int())

	capUSD := snap.Get("ledger.cap_usd").Float()
	if capUSD > 0 {
		fmt.Printf("  spend:      $%.4f of $%.2f (%s)\n",
			snap.Get("ledger.used_usd").Float(), capUSD, snap.Get("ledger.period").String())
	} else {
		fmt.Printf("  spend:      $%.4f, no cap (%s)\n",
			snap.Get("ledger.used_usd").Float(), snap.Get("ledger.period").String())
	}

	return nil
}
