package main

import "github.com/spf13/cobra"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "edachat",
		Short:         "Chat with your CSV data",
		Long:          "edachat routes questions about a dataset to a team of analysis agents, runs the charts they write and keeps the conversation per session.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newSessionsCmd(),
		newConfigCmd(),
	)
	return rootCmd
}
