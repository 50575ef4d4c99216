package main

import (
	"context"
	"sync"

	"github.com/go-rod/rod"
)

// raceBranch is one awaited condition in a first-wins race. The wait
// function must be side-effect free: it only observes, any action on
// the winning condition happens after the race resolves.
type raceBranch struct {
	name string
	wait func(ctx context.Context) error
}

// raceFirst runs every branch concurrently and returns the name of the
// first to complete successfully. All other branches are cancelled the
// moment a winner is known. Returns "" when no branch succeeds before
// ctx expires or all branches fail.
func raceFirst(ctx context.Context, branches ...raceBranch) string {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wins := make(chan string, len(branches))

	var wg sync.WaitGroup
	for _, branch := range branches {
		branch := branch
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := branch.wait(ctx); err == nil {
				select {
				case wins <- branch.name:
				default:
				}
			}
		}()
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	select {
	case name := <-wins:
		return name
	case <-allDone:
		// Every branch finished; one may still have won in the same
		// instant the last loser gave up.
		select {
		case name := <-wins:
			return name
		default:
			return ""
		}
	case <-ctx.Done():
		return ""
	}
}

// waitVisible waits for the selector to match a visible element in the
// given page scope, honoring ctx cancellation.
func waitVisible(page *rod.Page, selector string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		el, err := page.Context(ctx).Element(selector)
		if err != nil {
			return err
		}
		return el.WaitVisible()
	}
}

// waitSignal adapts a closed-channel signal into a race branch.
func waitSignal(ch <-chan struct{}) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		select {
		case <-ch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
