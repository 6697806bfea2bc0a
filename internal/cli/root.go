package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "tallyctl",
		Short: "CLI tool for the tallydeck scoresheet API",
		Long: `tallyctl is a CLI tool for interacting with the tallydeck JSON API.

It supports account management, session lifecycle operations, score
writes, and a polling watch mode that follows a session's event log.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load credentials from files if not provided via flag/env
			if err := cfg.LoadCredentials(); err != nil {
				return err
			}

			// Create HTTP client
			client = NewClient(cfg.ServerURL, cfg.Token, cfg.GuestID)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: TALLYCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Bearer token (env: TALLYCTL_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.GuestID, "guest-id", cfg.GuestID, "Guest identifier (env: TALLYCTL_GUEST_ID)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
