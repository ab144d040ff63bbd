package main

import (
	"fmt"

	"hotspotgate/internal/services"

	"github.com/spf13/cobra"
)

type cmdSetup struct {
	global *cmdGlobal

	flagDryRun bool
}

func (c *cmdSetup) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "setup"
	cmd.Short = "Install the capture topology"
	cmd.Long = `Install the capture topology

Creates the nat table chains and base rules unless the passlist chain
already exists. With --dry-run the statements are printed instead.`
	cmd.Args = cobra.NoArgs
	cmd.Flags().BoolVar(&c.flagDryRun, "dry-run", false, "Print the statements without running them")
	cmd.RunE = c.Run
	return cmd
}

func (c *cmdSetup) Run(cmd *cobra.Command, args []string) error {
	if err := c.global.cfg.Gate.Validate(); err != nil {
		return err
	}

	if c.flagDryRun {
		for _, statement := range services.TopologyCommands(c.global.cfg.Gate) {
			fmt.Fprintln(cmd.OutOrStdout(), statement)
		}
		return nil
	}

	nf, err := c.global.netfilter()
	if err != nil {
		return err
	}
	return report(cmd, nf.InitialSetup(), "setup")
}
