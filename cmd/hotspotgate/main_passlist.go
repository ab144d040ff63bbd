package main

import (
	"fmt"

	"hotspotgate/internal/filter"

	"github.com/spf13/cobra"
)

func (g *cmdGlobal) netfilter() (*filter.Netfilter, error) {
	return filter.NewNetfilter(g.cfg, g.log, nil)
}

// report prints the outcome of a gate operation; false becomes exit code 1.
func report(cmd *cobra.Command, ok bool, what string) error {
	if !ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: failed\n", what)
		return errFailed
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", what)
	return nil
}

type cmdGrant struct {
	global *cmdGlobal
}

func (c *cmdGrant) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "grant <ip>"
	cmd.Short = "Let a client through the gate"
	cmd.Args = cobra.ExactArgs(1)
	cmd.RunE = c.Run
	return cmd
}

func (c *cmdGrant) Run(cmd *cobra.Command, args []string) error {
	nf, err := c.global.netfilter()
	if err != nil {
		return err
	}
	return report(cmd, nf.AckClientRegistration(args[0]), "grant "+args[0])
}

type cmdRevoke struct {
	global *cmdGlobal
}

func (c *cmdRevoke) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "revoke <ip>"
	cmd.Short = "Remove a client from the passlist"
	cmd.Args = cobra.ExactArgs(1)
	cmd.RunE = c.Run
	return cmd
}

func (c *cmdRevoke) Run(cmd *cobra.Command, args []string) error {
	nf, err := c.global.netfilter()
	if err != nil {
		return err
	}
	return report(cmd, nf.Revoke(args[0]), "revoke "+args[0])
}

type cmdLookup struct {
	global *cmdGlobal
}

func (c *cmdLookup) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "lookup <ip>"
	cmd.Short = "Print the rule handle of a client's passlist entry"
	cmd.Args = cobra.ExactArgs(1)
	cmd.RunE = c.Run
	return cmd
}

func (c *cmdLookup) Run(cmd *cobra.Command, args []string) error {
	nf, err := c.global.netfilter()
	if err != nil {
		return err
	}

	handle := nf.Lookup(args[0])
	if handle == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s is not in the passlist\n", args[0])
		return errFailed
	}
	fmt.Fprintln(cmd.OutOrStdout(), handle)
	return nil
}

type cmdList struct {
	global *cmdGlobal

	flagActive bool
}

func (c *cmdList) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "list"
	cmd.Short = "List passlist entries"
	cmd.Args = cobra.NoArgs
	cmd.Flags().BoolVar(&c.flagActive, "active", false, "Also check each client's liveness")
	cmd.RunE = c.Run
	return cmd
}

func (c *cmdList) Run(cmd *cobra.Command, args []string) error {
	nf, err := c.global.netfilter()
	if err != nil {
		return err
	}

	entries, err := nf.Entries()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		if c.flagActive {
			fmt.Fprintf(out, "%s\t%s\t%t\n", e.IP, e.Handle, nf.IsClientActive(e.IP))
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", e.IP, e.Handle)
	}
	return nil
}

type cmdPrune struct {
	global *cmdGlobal

	flagAll bool
}

func (c *cmdPrune) Command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "prune"
	cmd.Short = "Remove passlist entries of inactive clients"
	cmd.Args = cobra.NoArgs
	cmd.Flags().BoolVar(&c.flagAll, "all", false, "Remove every entry, active or not")
	cmd.RunE = c.Run
	return cmd
}

func (c *cmdPrune) Run(cmd *cobra.Command, args []string) error {
	nf, err := c.global.netfilter()
	if err != nil {
		return err
	}
	return report(cmd, nf.Prune(!c.flagAll), "prune")
}
