package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomEnterCmd())
	cmd.AddCommand(newRoomGetCmd())

	return cmd
}

func newRoomCreateCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new room and take the first seat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": args[0], "password": password}
			var result Room

			if err := client.Post(cmd.Context(), "/api/v1/rooms", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Room password (optional)")

	return cmd
}

func newRoomEnterCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "enter <name>",
		Short: "Take a seat in a room by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": args[0], "password": password}
			var result Room

			if err := client.Post(cmd.Context(), "/api/v1/rooms/enter", req, &result); err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.Code == "INVALID_PASSWORD" && password == "" {
					return fmt.Errorf("%w: the room is protected, pass --password", err)
				}
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Room password")

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get room details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room

			if err := client.Get(cmd.Context(), "/api/v1/rooms/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
