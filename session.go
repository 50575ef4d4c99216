package main

import (
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// userAgents is a small pool of current desktop user agents; each
// session picks one at random so concurrent sessions do not share an
// identity string.
var userAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
}

// Session is one isolated browsing context, used for exactly one login
// attempt and released on every exit path of that attempt.
type Session struct {
	config   *Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
	closed   bool
}

// OpenSession launches a browser with the given proxy (nil for a direct
// connection), creates a stealth page with a randomized identity string
// and installs the request filter that drops heavy resource classes.
func OpenSession(config *Config, proxy *ProxyConfig) (*Session, error) {
	s := &Session{config: config}

	// Disable leakless mode on Windows to prevent deadlock
	// See: https://github.com/go-rod/rod/issues/853
	useLeakless := runtime.GOOS != "windows"

	s.launcher = launcher.New().
		Leakless(useLeakless).
		Headless(config.Headless).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	if proxy != nil && proxy.Server != "" {
		s.launcher = s.launcher.Proxy(proxy.Server)
	}

	url, err := s.launcher.Launch()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s.browser = rod.New().ControlURL(url)
	if err := s.browser.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	if proxy != nil && proxy.Username != "" {
		go s.browser.HandleAuth(proxy.Username, proxy.Password)()
	}

	s.page, err = stealth.Page(s.browser)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create stealth page: %w", err)
	}

	userAgent := userAgents[rand.Intn(len(userAgents))]
	err = s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent: userAgent,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to set user agent: %w", err)
	}

	if err := s.installRequestFilter(); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// installRequestFilter aborts image, media, font and stylesheet
// requests. The login widget works without them and every dropped
// request is one less round trip through the proxy.
func (s *Session) installRequestFilter() error {
	s.router = s.page.HijackRequests()

	err := s.router.Add("*", "", func(ctx *rod.Hijack) {
		switch ctx.Request.Type() {
		case proto.NetworkResourceTypeImage,
			proto.NetworkResourceTypeMedia,
			proto.NetworkResourceTypeFont,
			proto.NetworkResourceTypeStylesheet:
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		default:
			ctx.ContinueRequest(&proto.FetchContinueRequest{})
		}
	})
	if err != nil {
		return fmt.Errorf("failed to install request filter: %w", err)
	}

	go s.router.Run()
	return nil
}

// Page exposes the session's page to the login and lookup steps.
func (s *Session) Page() *rod.Page {
	return s.page
}

// Navigate opens the given URL and waits for the page to load, bounded
// by the configured page load timeout.
func (s *Session) Navigate(url string) error {
	timeout := time.Duration(s.config.PageLoadTimeoutSeconds) * time.Second
	page := s.page.Timeout(timeout)

	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("page failed to load: %w", err)
	}

	return nil
}

// Close releases the page, browser and launcher. Safe on a partially
// initialized session and on repeated calls.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.router != nil {
		s.router.Stop()
	}

	if s.page != nil {
		s.page.Close()
	}

	if s.browser != nil {
		s.browser.Close()
	}

	if s.launcher != nil {
		s.launcher.Cleanup()
	}
}
