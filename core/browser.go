package core

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/sirupsen/logrus"
)

type BrowserOpts struct {
	IsHeadless     bool          // Use browser interface
	IsLeakless     bool          // Force to kill browser
	NoSandbox      bool          // Needed inside most containers
	Timeout        time.Duration // Upper bound for one page lease
	LanguageCode   string
	LeavePageOpen  bool   // Leave pages and browser open
	IsStealth      bool   // Open pages through the stealth plugin
	ProxyURL       string // Proxy URL
	Insecure       bool   // Allow insecure TLS connections
	BinPath        string // Browser executable, looked up when empty
	ViewportWidth  int
	ViewportHeight int
}

// Initialize browser parameters with default values if they are not set
func (o *BrowserOpts) Check() {
	if o.Timeout == 0 {
		o.Timeout = time.Second * 60
	}

	if o.ViewportWidth == 0 {
		o.ViewportWidth = 1280
	}

	if o.ViewportHeight == 0 {
		o.ViewportHeight = 720
	}
}

// BrowserAvailable reports whether a local Chromium build can be launched without downloading one
func BrowserAvailable() bool {
	_, has := launcher.LookPath()
	return has
}

type Browser struct {
	BrowserOpts
	launcher    *launcher.Launcher
	browserAddr string

	mu      sync.Mutex
	browser *rod.Browser
}

func NewBrowser(opts BrowserOpts) (*Browser, error) {
	opts.Check()
	logrus.Debugf("Browser options: %+v", opts)

	path := opts.BinPath
	if path == "" {
		var has bool
		path, has = launcher.LookPath()
		logrus.Debug("Browser found: ", has)
	}

	// Create launcher
	l := launcher.New().Bin(path).Leakless(opts.IsLeakless).Headless(opts.IsHeadless).NoSandbox(opts.NoSandbox)

	// Configure proxy if specified
	if opts.ProxyURL != "" {
		proxyUrl, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %v", err)
		}

		proxyStr := proxyUrl.String()
		logrus.Debugf("Setting up proxy: %s", proxyStr)
		l = l.Proxy(proxyStr)
	}

	addr, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("cannot launch browser: %w", err)
	}

	return &Browser{BrowserOpts: opts, launcher: l, browserAddr: addr}, nil
}

// Check whether browser instance is already created
func (b *Browser) IsInitialized() bool {
	return b.browserAddr != ""
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	browser := rod.New().ControlURL(b.browserAddr)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("cannot connect to browser: %w", err)
	}

	// Handle proxy authentication before any navigations
	if b.ProxyURL != "" {
		proxyUrl, _ := url.Parse(b.ProxyURL)

		// Proxies commonly re-sign TLS traffic
		if err := browser.IgnoreCertErrors(true); err != nil {
			return nil, err
		}

		if proxyUrl.User != nil {
			username := proxyUrl.User.Username()
			password, _ := proxyUrl.User.Password()
			logrus.Debugf("Using proxy authentication: %s:****", username)
			go func() {
				if err := browser.HandleAuth(username, password)(); err != nil {
					logrus.Errorf("Proxy authentication failed: %s", err)
				}
			}()
		}
	} else if b.Insecure {
		if err := browser.IgnoreCertErrors(true); err != nil {
			return nil, err
		}
	}

	b.browser = browser
	return browser, nil
}

// newPage opens a page bound to ctx, so the lease deadline covers page setup too
func (b *Browser) newPage(ctx context.Context) (*rod.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("cannot open page: %w", err)
	}

	browser, err := b.connect()
	if err != nil {
		return nil, err
	}
	browser = browser.Context(ctx)

	var page *rod.Page
	if b.IsStealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open page: %w", err)
	}

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.ViewportWidth,
		Height:            b.ViewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		b.closePage(page)
		return nil, fmt.Errorf("cannot set viewport: %w", err)
	}

	if b.LanguageCode != "" {
		if _, err = page.SetExtraHeaders([]string{"Accept-Language", b.LanguageCode}); err != nil {
			b.closePage(page)
			return nil, fmt.Errorf("cannot set language: %w", err)
		}
	}

	return page, nil
}

// WithPage lends a fresh page to fn and releases it afterwards, whatever fn returns.
// Pages are left open when LeavePageOpen is set.
func (b *Browser) WithPage(ctx context.Context, fn func(page *rod.Page) error) error {
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()

	page, err := b.newPage(ctx)
	if err != nil {
		return err
	}
	defer b.close(page)

	return fn(page)
}

func (b *Browser) close(page *rod.Page) {
	if !b.LeavePageOpen {
		b.closePage(page)
	}
}

// closePage detaches page from the lease context, an expired lease must still close it
func (b *Browser) closePage(page *rod.Page) {
	if err := page.Context(context.Background()).Close(); err != nil {
		logrus.Error(err)
	}
}

func (b *Browser) Close() error {
	if b.LeavePageOpen {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}
