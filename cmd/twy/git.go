package main

import (
	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	var remote string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Put the data directory under git, optionally with a remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.git().Init(cmd.Context(), remote); err != nil {
				return err
			}
			if remote == "" {
				a.println("No remote specified. Use --remote <url> to set one.")
			}
			a.printf("Data directory: %s\n", a.cfg.Dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&remote, "remote", "", "Remote URL for 'twy sync'")
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Commit local changes, pull and push",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.git().Sync(cmd.Context())
		},
	}
}
