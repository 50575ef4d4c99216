package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-rod/rod"
)

const entryURL = "https://reportaproblem.apple.com/"

const maxAttempts = 2

// Names for the post-login race between credential capture and a
// page-level error.
const (
	authCaptured  = "captured"
	authPageError = "page_error"
)

// processAccount runs the full per-account lifecycle: proxy, session,
// login, credential capture, purchase lookup, retries. Every path ends
// with a populated check field, timing bookkeeping and a store record;
// no error escapes to the caller.
func processAccount(config *Config, pool *ProxyPool, store *ResultStore, acc *Account) *Account {
	start := time.Now()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	appID := acc.SearchApp
	if appID == "" {
		appID = config.SearchAppID
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if !runAttempt(config, pool, acc, appID, attempt == maxAttempts) {
			break
		}
		sleepBackoff(config, rng)
	}

	acc.ProcessTime = fmt.Sprintf("%.2f秒", time.Since(start).Seconds())
	acc.Timestamp = time.Now().Format("2006-01-02 15:04:05")

	store.Record(acc)
	return acc
}

// runAttempt performs one attempt against a fresh proxy and session.
// It returns true when the attempt should be retried; otherwise
// acc.Check holds the terminal outcome. The session is released before
// returning on every path.
func runAttempt(config *Config, pool *ProxyPool, acc *Account, appID string, final bool) (retry bool) {
	var proxy *ProxyConfig
	if config.UseProxies() {
		proxy = pool.Next()
		if proxy != nil {
			fmt.Printf(T("proxy_in_use")+"\n", acc.ID, proxy.Server)
		}
	}

	session, err := OpenSession(config, proxy)
	if err != nil {
		return failOrRetry(acc, err, final)
	}
	defer session.Close()

	// The interceptor must be in place before navigation or the login
	// exchange slips past it.
	capture := NewLoginCapture()
	capture.Attach(session.Page())

	if err := session.Navigate(entryURL); err != nil {
		return failOrRetry(acc, err, final)
	}

	outcome := performLogin(session.Page(), acc.ID, acc.Password, config)
	if !outcome.OK {
		if isIdentityVerificationError(outcome.Message) && !final {
			fmt.Printf(T("retry_identity")+"\n", acc.ID)
			return true
		}
		acc.Check = CheckMessage(checkLoginFailed, outcome.Message)
		return false
	}

	fmt.Printf(T("login_ok_capturing")+"\n", acc.ID)

	authTimeout := time.Duration(config.AuthTimeoutSeconds) * time.Second
	authCtx, cancelAuth := context.WithTimeout(context.Background(), authTimeout)
	winner := raceFirst(authCtx,
		raceBranch{name: authCaptured, wait: waitSignal(capture.Captured())},
		raceBranch{name: authPageError, wait: waitVisible(session.Page(), selPageError)},
	)
	cancelAuth()

	switch winner {
	case authPageError:
		acc.Check = CheckMessage(checkPageError, readPageError(session.Page()))

	case authCaptured:
		info := capture.Info()
		if !info.Complete() {
			acc.Check = CheckMessage(checkInfoIncomplete, strings.Join(info.Missing(), ", "))
			return false
		}

		fmt.Printf(T("auth_captured")+"\n", acc.ID)
		runSearch(config, session, acc, appID, info)

	default:
		acc.Check = CheckMessage(checkAuthTimeout)
	}

	return false
}

// runSearch executes the bounded purchase lookup and maps its four
// outcomes onto the account.
func runSearch(config *Config, session *Session, acc *Account, appID string, info LoginInfo) {
	timeout := time.Duration(config.SearchTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	items, found, err := findPurchases(ctx, session.Page(), appID, info)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		acc.Check = CheckMessage(checkSearchTimeout)
	case err != nil:
		acc.Check = CheckMessage(checkSearchError, err)
	case found:
		acc.Check = CheckFound()
		acc.Details = items
	default:
		acc.Check = CheckNotFound()
	}
}

// failOrRetry handles an unexpected fault during an attempt: retry on a
// non-final attempt, terminal failure string on the last one.
func failOrRetry(acc *Account, err error, final bool) (retry bool) {
	if !final {
		fmt.Printf(T("retry_generic")+"\n", acc.ID, err)
		return true
	}
	acc.Check = CheckMessage(checkProcessFailed, err)
	return false
}

// isIdentityVerificationError matches the one login failure signature
// that is worth a retry through a different proxy.
func isIdentityVerificationError(message string) bool {
	return strings.Contains(message, retrySignature)
}

// readPageError grabs the visible text of the page-level error element.
// The element already won a visibility race, so a short timeout is
// plenty.
func readPageError(page *rod.Page) string {
	var text string
	err := rod.Try(func() {
		text = page.Timeout(2 * time.Second).MustElement(selPageError).MustText()
	})
	if err != nil {
		return "unknown"
	}
	return text
}

// sleepBackoff waits a randomized delay inside the configured window
// before the next attempt.
func sleepBackoff(config *Config, rng *rand.Rand) {
	time.Sleep(backoffDelay(config, rng))
}

func backoffDelay(config *Config, rng *rand.Rand) time.Duration {
	min := config.MinDelaySeconds
	max := config.MaxDelaySeconds
	seconds := min + rng.Float64()*(max-min)
	return time.Duration(seconds * float64(time.Second))
}
