package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonhull/mqaid"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := mqaid.GetVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "mqaid %s (commit %s, built %s, %s)\n",
				info.Version, info.GitCommit, info.BuildTime, info.GoVersion)
			return nil
		},
	}
}
