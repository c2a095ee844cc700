package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/updates"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the marquee version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "marquee %s\n", updates.Version)
			fmt.Fprintln(out, updates.ProjectURL)
			return nil
		},
	}
}
