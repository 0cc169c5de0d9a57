package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/karust/driveverify/core"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var errNotFound = errors.New("no element matches")
var errHidden = errors.New("element is not visible")

func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// matchName compares accessible names the way role locators do:
// case-insensitive substring unless exact is set
func matchName(got, want string, exact bool) bool {
	got, want = normalizeName(got), normalizeName(want)
	if exact {
		return got == want
	}
	return strings.Contains(strings.ToLower(got), strings.ToLower(want))
}

func axString(v *proto.AccessibilityAXValue) string {
	if v == nil {
		return ""
	}
	return v.Value.Str()
}

// locateByRole finds the single element exposed in the accessibility tree with role and a matching name
func locateByRole(page *rod.Page, role, name string, exact bool) (*rod.Element, error) {
	root, err := page.Element("html")
	if err != nil {
		return nil, err
	}

	res, err := proto.AccessibilityQueryAXTree{
		ObjectID: root.Object.ObjectID,
		Role:     role,
	}.Call(page)
	if err != nil {
		return nil, err
	}

	matched := []*proto.AccessibilityAXNode{}
	for _, node := range res.Nodes {
		if node.Ignored || node.BackendDOMNodeID == 0 {
			continue
		}
		if matchName(axString(node.Name), name, exact) {
			matched = append(matched, node)
		}
	}

	switch len(matched) {
	case 0:
		return nil, errNotFound
	case 1:
	default:
		return nil, fmt.Errorf("%w: %d elements with role %q and name %q", core.ErrAmbiguous, len(matched), role, name)
	}

	return page.ElementFromNode(&proto.DOMNode{BackendNodeID: matched[0].BackendDOMNodeID})
}

// waitVisible retries the lookup until the element is visible or ctx is done
func waitVisible(ctx context.Context, page *rod.Page, role, name string, exact bool, interval time.Duration) (*rod.Element, error) {
	page = page.Context(ctx)
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	if err := (proto.AccessibilityEnable{}).Call(page); err != nil {
		logrus.Debugf("Cannot enable accessibility domain: %s", err)
	}

	lastErr := errNotFound
	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w after %d attempts", lastErr, attempt-1)
		}

		el, err := locateByRole(page, role, name, exact)
		if errors.Is(err, core.ErrAmbiguous) {
			return nil, err
		}
		if err != nil {
			if ctx.Err() == nil {
				lastErr = err
			}
			logrus.Tracef("Locate %s %q, attempt %d: %s", role, name, attempt, err)
			continue
		}

		visible, err := el.Visible()
		if err != nil {
			if ctx.Err() == nil {
				lastErr = err
			}
			continue
		}
		if visible {
			return el, nil
		}
		lastErr = errHidden
	}
}
