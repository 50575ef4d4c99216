package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// Selectors for the hosted auth widget. The widget lives inside its own
// iframe; only the purchase page indicator is evaluated against the
// outer page.
const (
	selAuthFrame    = "iframe#aid-auth-widget-iFrame"
	selAccountName  = "#account_name_text_field"
	selSignIn       = "button#sign-in"
	selContinue     = "button#continue-password"
	selPassword     = `input#password_text_field:not([tabindex="-1"])`
	selErrIdms      = ".idms-error"
	selErrMsg       = "#errMsg"
	selRepairFrame  = "iframe#repairFrame"
	selRepairCancel = "button.nav-cancel"
	selVerifyPhone  = "div.verify-phone"
	selVerifyDevice = "div.verify-device"
	selAccLocked    = "div#acc-locked"
	selPurchasePage = ".app"
	selPageError    = ".error-content"
)

// Terminal indicator names for the post-submit race.
const (
	statusError        = "error_login"
	statusErrorAlt     = "error_login_alt"
	statusRepair       = "repair_iframe"
	statusPhone        = "phone_verification"
	statusDevice       = "device_verification"
	statusLocked       = "account_locked"
	statusPurchasePage = "purchase_page"
)

// LoginOutcome is the terminal result of one login attempt. Failure is
// always a value here, never an error: every outcome, including an
// internal fault, maps to a reportable message.
type LoginOutcome struct {
	OK      bool
	Message string
}

// performLogin drives one account through the auth widget and
// classifies the terminal state. Any fault inside the sequence is
// converted into a descriptive failure message.
func performLogin(page *rod.Page, id, password string, config *Config) LoginOutcome {
	var outcome LoginOutcome

	err := rod.Try(func() {
		outcome = runLogin(page, id, password, config)
	})
	if err != nil {
		return LoginOutcome{Message: fmt.Sprintf(msgLoginFault, err)}
	}

	return outcome
}

func runLogin(page *rod.Page, id, password string, config *Config) LoginOutcome {
	timeout := time.Duration(config.PageLoadTimeoutSeconds) * time.Second

	frame := page.Timeout(timeout).MustElement(selAuthFrame).MustFrame().CancelTimeout()

	frame.Timeout(timeout).MustElement(selAccountName).MustInput(id)
	frame.Timeout(timeout).MustElement(selSignIn).MustClick()

	// The flow is either two-step (a continue affordance shows up
	// before the password field) or single-step. Whichever indicator
	// becomes observable first decides; the losing wait is cancelled
	// without having touched the page.
	stepCtx, cancelStep := context.WithTimeout(context.Background(), timeout)
	step := raceFirst(stepCtx,
		raceBranch{name: "continue", wait: waitVisible(frame, selContinue)},
		raceBranch{name: "password", wait: waitVisible(frame, selPassword)},
	)
	cancelStep()

	if step == "" {
		panic(fmt.Errorf("login form did not advance past the username step"))
	}
	if step == "continue" {
		frame.Timeout(timeout).MustElement(selContinue).MustClick()
		frame.Timeout(timeout).MustElement(selPassword).MustWaitVisible()
	}

	frame.Timeout(timeout).MustElement(selPassword).MustInput(password)
	frame.Timeout(timeout).MustElement(selSignIn).MustClick()

	termCtx, cancelTerm := context.WithTimeout(context.Background(), timeout)
	status := raceFirst(termCtx,
		raceBranch{name: statusError, wait: waitVisible(frame, selErrIdms)},
		raceBranch{name: statusErrorAlt, wait: waitVisible(frame, selErrMsg)},
		raceBranch{name: statusRepair, wait: waitVisible(frame, selRepairFrame)},
		raceBranch{name: statusPhone, wait: waitVisible(frame, selVerifyPhone)},
		raceBranch{name: statusDevice, wait: waitVisible(frame, selVerifyDevice)},
		raceBranch{name: statusLocked, wait: waitVisible(frame, selAccLocked)},
		raceBranch{name: statusPurchasePage, wait: waitVisible(page, selPurchasePage)},
	)
	cancelTerm()

	return resolveLoginStatus(status, page, frame, timeout)
}

// resolveLoginStatus maps the winning terminal indicator to an outcome,
// performing the one follow-up action a repairable challenge needs.
func resolveLoginStatus(status string, page, frame *rod.Page, timeout time.Duration) LoginOutcome {
	switch status {
	case statusPurchasePage:
		return LoginOutcome{OK: true}

	case statusRepair:
		// The repair flow is dismissable. The cancel control needs two
		// clicks: the first may only reveal a confirmation step.
		cancel := frame.Timeout(timeout).MustElement(selRepairFrame).MustFrame().
			Timeout(timeout).MustElement(selRepairCancel)
		cancel.MustClick()
		cancel.MustClick()
		return LoginOutcome{OK: true}

	case statusError, statusErrorAlt:
		return LoginOutcome{Message: extractLoginError(frame)}

	case statusPhone:
		return LoginOutcome{Message: msgChallengePhone}

	case statusDevice:
		return LoginOutcome{Message: msgChallengeDevice}

	case statusLocked:
		return LoginOutcome{Message: msgAccountLocked}

	default:
		return LoginOutcome{Message: msgNothingMatched}
	}
}

// extractLoginError pulls the visible error text out of the widget,
// trying both known error containers.
func extractLoginError(frame *rod.Page) string {
	for _, selector := range []string{selErrIdms, selErrMsg} {
		elements, err := frame.Elements(selector)
		if err != nil || len(elements) == 0 {
			continue
		}
		text, err := elements.First().Text()
		if err != nil || text == "" {
			continue
		}
		return fmt.Sprintf(msgErrorBanner, text)
	}
	return msgErrorBannerUnknown
}
