package scenario

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/corpix/uarand"
	"github.com/karust/driveverify/core"
	"github.com/sirupsen/logrus"
)

func rawRequest(ctx context.Context, targetURL string) (*http.Response, error) {
	baseClient := &http.Client{}
	req, err := http.NewRequestWithContext(ctx, "GET", targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", uarand.GetRandom())

	res, err := baseClient.Do(req)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// accessibleName approximates the name a browser computes for a button from its markup
func accessibleName(sel *goquery.Selection) string {
	if label, ok := sel.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
		return label
	}
	if text := strings.TrimSpace(sel.Text()); text != "" {
		return text
	}
	if title, ok := sel.Attr("title"); ok {
		return title
	}
	return ""
}

func findInMarkup(doc *goquery.Document, role, name string, exact bool) int {
	selector := fmt.Sprintf("[role=%q]", role)
	if role == "button" {
		selector = `button, input[type="button"], input[type="submit"], ` + selector
	}

	found := 0
	doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
		if _, hidden := sel.Attr("hidden"); hidden {
			return
		}
		if v, _ := sel.Attr("aria-hidden"); v == "true" {
			return
		}
		label := accessibleName(sel)
		if label == "" {
			label, _ = sel.Attr("value")
		}
		if matchName(label, name, exact) {
			found++
		}
	})
	return found
}

// Probe checks the served markup over plain HTTP. No screenshot is taken
func Probe(ctx context.Context, opts core.TargetOptions) (report core.Report, err error) {
	opts.Init()
	logrus.Warn("Browserless probe only sees server rendered markup, client rendered apps will fail it")

	report = core.NewReport(opts)
	started := time.Now()
	defer func() { report.Duration = time.Since(started) }()
	log := logrus.WithField("run", report.RunID)

	navCtx, cancel := context.WithTimeout(ctx, opts.GetNavTimeout())
	defer cancel()

	res, err := rawRequest(navCtx, opts.URL)
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrNavigation, err)
		report.Fail(err)
		return report, err
	}
	defer res.Body.Close()
	log.Debugf("Raw response: code=%d", res.StatusCode)

	if res.StatusCode >= 400 {
		err = fmt.Errorf("%w: HTTP %s", core.ErrNavigation, res.Status)
		report.Fail(err)
		return report, err
	}
	report.Stage = core.StageNavigated

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrNavigation, err)
		report.Fail(err)
		return report, err
	}
	logrus.Tracef("Probe document size: %d", len(doc.Text()))

	switch found := findInMarkup(doc, opts.Role, opts.Name, opts.Exact); {
	case found == 0:
		err = fmt.Errorf("%w: %w", core.ErrAssertion, errNotFound)
		report.Fail(err)
		return report, err
	case found > 1:
		err = fmt.Errorf("%w: %w: %d elements", core.ErrAssertion, core.ErrAmbiguous, found)
		report.Fail(err)
		return report, err
	}

	report.Stage = core.StageVerified
	log.Infof("%s %q found in markup", opts.Role, opts.Name)
	return report, nil
}
