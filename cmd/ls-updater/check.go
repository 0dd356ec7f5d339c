package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xenago/ls-updater/internal/catalog"
	"github.com/xenago/ls-updater/internal/config"
	"github.com/xenago/ls-updater/internal/logging"
	"github.com/xenago/ls-updater/internal/lsversion"
	"github.com/xenago/ls-updater/internal/messages"
)

// newCheckCmd reports what an upgrade would do without mutating anything:
// the installed version, every release on the page, and the target the
// configured branch would select.
func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   messages.CheckUse,
		Short: messages.CheckShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logger, closeLog, err := logging.New(logging.Options{Stdout: false})
			if err != nil {
				return err
			}
			defer closeLog()

			out := cmd.OutOrStdout()
			current, err := lsversion.ReadInstalled(cfg.Install.Path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, messages.CheckCurrentFmt, current.String())

			page, err := catalog.Fetch(cmd.Context(), catalog.DownloadsURL)
			if err != nil {
				return err
			}
			releases, err := catalog.Parse(page, logger)
			if err != nil {
				return err
			}
			for _, rel := range releases {
				_, _ = fmt.Fprintf(out, messages.CheckReleaseFmt, rel.Branch, rel.Code.String())
			}

			target, err := catalog.SelectTarget(releases, cfg.Branch)
			if errors.Is(err, catalog.ErrNoRelease) {
				return fmt.Errorf(messages.CheckNoTargetFmt, cfg.Branch)
			}
			if err != nil {
				return err
			}
			if target.Code.Compare(current) <= 0 {
				_, _ = fmt.Fprintf(out, messages.CheckUpToDateFmt, cfg.Branch)
				return nil
			}
			_, _ = color.New(color.FgGreen).Fprintf(out, messages.CheckTargetFmt, cfg.Branch, target.Code.String())
			return nil
		},
	}
}
