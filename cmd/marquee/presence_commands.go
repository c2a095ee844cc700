package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/ipc"
)

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a presence refresh on the next poll",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Refresh()
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing refresh response")
				}
				if !resp.Scheduled {
					if resp.Message != "" {
						return errors.New(resp.Message)
					}
					return errors.New("refresh not scheduled")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Presence refresh scheduled")
				return nil
			})
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the Discord rich presence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ClearPresence()
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing clear response")
				}
				if !resp.Cleared {
					if resp.Message != "" {
						return errors.New(resp.Message)
					}
					return errors.New("presence not cleared")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Presence cleared")
				return nil
			})
		},
	}
}
