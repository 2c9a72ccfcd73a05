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
		Use:   "farkle",
		Short: "CLI tool for the farkle game server",
		Long: `farkle is a CLI tool for interacting with the farkle game server.

It covers the REST API (rooms, profile), interactive play and event streaming
over the room websocket, and local admin commands that write straight to the
server's store.

Every global flag has an environment fallback: FARKLE_SERVER, FARKLE_TOKEN,
FARKLE_TOKEN_FILE, FARKLE_OUTPUT and FARKLE_VERBOSE.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL, cfg.Token)
			client.SetVerbose(cfg.Verbose)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL")
	flags.StringVar(&cfg.Token, "token", cfg.Token, "Bearer token")
	flags.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path")
	flags.StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Trace HTTP requests to stderr")

	rootCmd.AddCommand(
		newPlayerCmd(),
		newRoomCmd(),
		newEventsCmd(),
		newPlayCmd(),
		newHealthCmd(),
	)

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		NewOutput(cfg.Output).PrintError(err)
		os.Exit(1)
	}
}
