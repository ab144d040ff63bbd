package main

import (
	"errors"
	"fmt"
	"os"

	"hotspotgate/internal/config"
	"hotspotgate/internal/logging"
	"hotspotgate/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// errFailed makes the process exit non-zero after the failure was reported.
var errFailed = errors.New("operation failed")

type cmdGlobal struct {
	cfg *config.Config
	log *logrus.Logger

	flagDebug bool
}

// Setup reads the environment once for the invoked command.
func (g *cmdGlobal) Setup() error {
	g.cfg = config.Load()
	if g.flagDebug {
		g.cfg.Debug = true
	}
	g.log = logging.New(g.cfg.Debug, g.cfg.LogFormat)
	services.SetARPTimeout(g.cfg.ARPTimeout)
	return nil
}

func main() {
	app := newApp()
	if err := app.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newApp() *cobra.Command {
	globalCmd := cmdGlobal{}

	app := &cobra.Command{}
	app.Use = "hotspotgate"
	app.Short = "Captive-portal traffic gate"
	app.Long = `Captive-portal traffic gate

Redirects web traffic of unregistered clients to the portal and lets
registered clients through, using nftables rules in the ip nat table.`
	app.SilenceUsage = true
	app.SilenceErrors = true
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}
	app.PersistentFlags().BoolVar(&globalCmd.flagDebug, "debug", false, "Enable debug logging")
	app.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return globalCmd.Setup()
	}

	serveCmd := cmdServe{global: &globalCmd}
	app.AddCommand(serveCmd.Command())

	setupCmd := cmdSetup{global: &globalCmd}
	app.AddCommand(setupCmd.Command())

	grantCmd := cmdGrant{global: &globalCmd}
	app.AddCommand(grantCmd.Command())

	revokeCmd := cmdRevoke{global: &globalCmd}
	app.AddCommand(revokeCmd.Command())

	lookupCmd := cmdLookup{global: &globalCmd}
	app.AddCommand(lookupCmd.Command())

	listCmd := cmdList{global: &globalCmd}
	app.AddCommand(listCmd.Command())

	pruneCmd := cmdPrune{global: &globalCmd}
	app.AddCommand(pruneCmd.Command())

	activeCmd := cmdActive{global: &globalCmd}
	app.AddCommand(activeCmd.Command())

	hwaddrCmd := cmdHWAddr{global: &globalCmd}
	app.AddCommand(hwaddrCmd.Command())

	return app
}
