package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mofox-ui/internal/appversion"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "mofox-ui %s\n", appversion.String())
			return err
		},
	}
}
