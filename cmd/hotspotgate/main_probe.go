package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type cmdActive struct {
	global *cmdGlobal
}

func (c *cmdActive) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "active <ip>"
	cmd.Short = "Tell whether a client has an established connection"
	cmd.Long = "Exits 0 when the client has an established TCP connection, 1 otherwise."
	cmd.Args = cobra.ExactArgs(1)
	cmd.RunE = c.Run
	return cmd
}

func (c *cmdActive) Run(cmd *cobra.Command, args []string) error {
	nf, err := c.global.netfilter()
	if err != nil {
		return err
	}

	active := nf.IsClientActive(args[0])
	fmt.Fprintln(cmd.OutOrStdout(), active)
	if !active {
		return errFailed
	}
	return nil
}

type cmdHWAddr struct {
	global *cmdGlobal
}

func (c *cmdHWAddr) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "hwaddr <ip>"
	cmd.Short = "Print a client's hardware address"
	cmd.Args = cobra.ExactArgs(1)
	cmd.RunE = c.Run
	return cmd
}

func (c *cmdHWAddr) Run(cmd *cobra.Command, args []string) error {
	nf, err := c.global.netfilter()
	if err != nil {
		return err
	}

	nf.WarmUp()
	fmt.Fprintln(cmd.OutOrStdout(), nf.GetIdentifierFor(args[0]))
	return nil
}
