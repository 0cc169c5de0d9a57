package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/karust/driveverify/core"
	"github.com/karust/driveverify/scenario"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verifyCMD = &cobra.Command{
	Use:     "verify",
	Aliases: []string{"check"},
	Short:   "Run the Google Drive check once and print the report",
	Args:    cobra.NoArgs,
	RunE:    verify,
}

func verify(cmd *cobra.Command, args []string) error {
	var report core.Report
	var err error

	if config.App.IsRawRequests {
		report, err = scenario.Probe(cmd.Context(), config.Target)
	} else {
		report, err = verifyBrowser(cmd.Context())
	}

	b, mErr := json.MarshalIndent(report, "", " ")
	if mErr != nil {
		logrus.Error(mErr)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
	}

	return err
}

func verifyBrowser(ctx context.Context) (core.Report, error) {
	browser, err := core.NewBrowser(browserOpts())
	if err != nil {
		target := config.Target
		target.Init()
		report := core.NewReport(target)
		report.Fail(err)
		return report, err
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logrus.Error(err)
		}
	}()

	return scenario.New(browser, config.Target).Verify(ctx)
}

func init() {
	RootCmd.AddCommand(verifyCMD)
}
