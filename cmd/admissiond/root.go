package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var envFiles []string

	rootCmd := &cobra.Command{
		Use:           "admissiond",
		Short:         "Admission and usage metering service",
		Long:          "admissiond decides whether a caller may run a metered document operation, charges its monthly quota and records operation logs.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files applied before reading the environment (default .env)")

	withApp := func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(cmd.Context(), envFiles...)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd, a, args)
		}
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(withApp),
		newMigrateCmd(withApp),
		newPlansCmd(withApp),
		newAccountCmd(withApp),
		newAPIKeyCmd(withApp),
		newSubscriptionCmd(withApp),
		newSessionCmd(withApp),
	)

	return rootCmd
}

type appRunner func(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version := "devel"
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
				version = info.Main.Version
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "admissiond", version)
		},
	}
}
