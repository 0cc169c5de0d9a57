package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/karust/driveverify/core"
	"github.com/karust/driveverify/scenario"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCMD = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"listen"},
	Short:   "Start HTTP server, to trigger verification runs via API",
	Args:    cobra.MatchAll(cobra.NoArgs),
	RunE:    serve,
}

func serve(cmd *cobra.Command, args []string) error {
	browser, err := core.NewBrowser(browserOpts())
	if err != nil {
		return err
	}
	defer browser.Close()

	drive := scenario.New(browser, config.Target)
	serv := core.NewServer(config.App.Host, config.App.Port, drive)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logrus.Info("Shutting down")
		if err := serv.Shutdown(); err != nil {
			logrus.Error(err)
		}
	}()

	logrus.Infof("Listening on %s:%d", config.App.Host, config.App.Port)
	return serv.Listen()
}

func init() {
	RootCmd.AddCommand(serveCMD)
}
