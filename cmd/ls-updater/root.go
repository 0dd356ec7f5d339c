package main

import (
	"github.com/spf13/cobra"

	"github.com/xenago/ls-updater/internal/config"
	"github.com/xenago/ls-updater/internal/messages"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, messages.RootFlagConfig)

	cmd.AddCommand(newUpgradeCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	return cmd
}
