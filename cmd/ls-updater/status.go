package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xenago/ls-updater/internal/config"
	"github.com/xenago/ls-updater/internal/execx"
	"github.com/xenago/ls-updater/internal/messages"
	"github.com/xenago/ls-updater/internal/service"
)

// newStatusCmd asks the configured init system for the web server's
// status. Read-only; useful after an aborted run.
func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.StatusUse,
		Short: messages.StatusShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			controller, err := service.ForInitSystem(cfg.Service.InitSystem, cfg.Service.Name, execx.SystemRunner{})
			if err != nil {
				return err
			}
			status, err := controller.Status(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
}
