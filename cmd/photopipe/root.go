package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	debug bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "photopipe",
		Short:         "Run images, GIFs and videos through a staged image processing pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Log everything as text instead of JSON")

	rootCmd.AddCommand(newRunCommand(flags))
	rootCmd.AddCommand(newWatchCommand(flags))

	return rootCmd
}
