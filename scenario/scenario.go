package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/rod/lib/utils"
	"github.com/karust/driveverify/core"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Scenario opens the target, checks the Google Drive button is visible and captures a screenshot
type Scenario struct {
	core.TargetOptions
	browser *core.Browser
}

func New(browser *core.Browser, opts core.TargetOptions) *Scenario {
	opts.Init()
	return &Scenario{TargetOptions: opts, browser: browser}
}

func (s *Scenario) Name() string {
	return "drive"
}

func (s *Scenario) GetRateLimiter() *rate.Limiter {
	ratelimit := rate.Every(s.GetRatelimit())
	return rate.NewLimiter(ratelimit, s.RateBurst)
}

// Verify runs the scenario on a page borrowed from the browser harness
func (s *Scenario) Verify(ctx context.Context) (core.Report, error) {
	var report core.Report
	err := s.browser.WithPage(ctx, func(page *rod.Page) error {
		var err error
		report, err = s.Run(page.GetContext(), page)
		return err
	})
	if err != nil && report.RunID == "" {
		// Page could not be acquired, the scenario never started
		report = s.newReport()
		report.Fail(err)
		return report, err
	}
	return report, err
}

func (s *Scenario) newReport() core.Report {
	return core.NewReport(s.TargetOptions)
}

// Run performs navigate, assert and capture on page. The page is not closed.
func (s *Scenario) Run(ctx context.Context, page *rod.Page) (report core.Report, err error) {
	report = s.newReport()
	started := time.Now()
	defer func() { report.Duration = time.Since(started) }()

	log := logrus.WithField("run", report.RunID)
	log.Tracef("Start scenario: %+v", s.TargetOptions)

	page = page.Context(ctx)

	if err = s.navigate(page); err != nil {
		log.Errorf("Cannot open %s: %s", s.URL, err)
		report.Fail(err)
		return report, err
	}
	report.Stage = core.StageNavigated
	log.Debugf("Navigated to %s", s.URL)

	if err = s.assertVisible(ctx, page); err != nil {
		log.Errorf("%s %q is not visible: %s", s.Role, s.TargetOptions.Name, err)
		report.Fail(err)
		return report, err
	}
	report.Stage = core.StageVerified
	log.Infof("%s %q is visible", s.Role, s.TargetOptions.Name)

	if err = s.capture(page); err != nil {
		log.Errorf("Cannot capture %s: %s", s.ScreenshotPath, err)
		report.Fail(err)
		return report, err
	}
	report.Stage = core.StageCaptured
	report.Screenshot = s.ScreenshotPath
	log.Infof("Screenshot saved: %s", s.ScreenshotPath)

	return report, nil
}

func (s *Scenario) navigate(page *rod.Page) error {
	nav := page.Timeout(s.GetNavTimeout())
	defer nav.CancelTimeout()

	if err := nav.Navigate(s.URL); err != nil {
		return fmt.Errorf("%w: %w", core.ErrNavigation, err)
	}
	if err := nav.WaitLoad(); err != nil {
		return fmt.Errorf("%w: page never loaded: %w", core.ErrNavigation, err)
	}
	return nil
}

func (s *Scenario) assertVisible(ctx context.Context, page *rod.Page) error {
	ctx, cancel := context.WithTimeout(ctx, s.GetSelectorTimeout())
	defer cancel()

	_, err := waitVisible(ctx, page, s.Role, s.TargetOptions.Name, s.Exact, s.GetPollInterval())
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrAssertion, err)
	}
	return nil
}

func (s *Scenario) capture(page *rod.Page) error {
	data, err := page.Screenshot(s.FullPage, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrCapture, err)
	}

	// Creates missing parent directories and truncates any previous capture
	if err := utils.OutputFile(s.ScreenshotPath, data); err != nil {
		return fmt.Errorf("%w: %w", core.ErrCapture, err)
	}
	return nil
}
