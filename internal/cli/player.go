package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/farklegame/internal/config"
	"github.com/mcoot/farklegame/internal/factory"
	"github.com/mcoot/farklegame/internal/model"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player management commands",
	}

	cmd.AddCommand(newPlayerMeCmd())
	cmd.AddCommand(newPlayerAddCmd())
	cmd.AddCommand(newPlayerTokenCmd())

	return cmd
}

func newPlayerMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the profile the current token belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile

			if err := client.Get(cmd.Context(), "/api/v1/players/me", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

// openLocalApp wires the application against the store named by the
// FARKLE_* server environment, bypassing the HTTP API
func openLocalApp(ctx context.Context) (*factory.App, error) {
	env, err := config.Load()
	if err != nil {
		return nil, err
	}
	if env.StorageType == config.StorageMemory {
		return nil, fmt.Errorf("local commands need a persistent store: set FARKLE_STORAGE_TYPE")
	}
	return factory.New(ctx, factory.ConfigFromEnv(env, nil))
}

func newPlayerAddCmd() *cobra.Command {
	var email, name string
	var exp int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a player profile in the server's store",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if name == "" {
				name = strings.Split(email, "@")[0]
			}

			app, err := openLocalApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			profile := &model.PlayerProfile{ID: model.PlayerID(email), Email: email, Name: name, Exp: exp}
			if err := app.Storage.SaveProfile(cmd.Context(), profile); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(Profile{ID: string(profile.ID), Email: profile.Email, Name: profile.Name, Exp: profile.Exp})
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email, also the player ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (default: email local part)")
	cmd.Flags().IntVar(&exp, "exp", 0, "Experience points")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newPlayerTokenCmd() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Sign a development token for a stored profile",
		Long: `Sign a bearer token with FARKLE_JWT_SECRET for a profile in the server's store.
With --save the token is written to the token file for later commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openLocalApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			profile, err := app.Storage.GetProfile(cmd.Context(), model.PlayerID(args[0]))
			if err != nil {
				return err
			}
			token, err := app.AuthService.Issue(profile)
			if err != nil {
				return err
			}

			if save {
				if err := cfg.SaveToken(token); err != nil {
					return fmt.Errorf("failed to save token: %w", err)
				}
				client.SetToken(token)
			}

			out := NewOutput(cfg.Output)
			out.Print(TokenResult{Token: token})
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the token to the token file")

	return cmd
}
