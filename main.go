package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBlue   = "\033[34m"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	input := flag.String("input", "", "Account list file (overrides config)")
	output := flag.String("output", "", "Final output file (overrides config)")
	appID := flag.String("app-id", "", "App ID to search for (overrides config)")
	visible := flag.Bool("visible", false, "Run browser windows visibly instead of headless")
	debug := flag.Bool("debug", false, "Enable detailed debug logging")
	flag.Parse()

	if err := InitMessages(); err != nil && *debug {
		fmt.Fprintf(os.Stderr, "[DEBUG] locale overrides not loaded: %v\n", err)
	}

	config := LoadConfig(*configPath)

	if *input != "" {
		config.InputFile = *input
	}
	if *output != "" {
		config.OutputFile = *output
	}
	if *appID != "" {
		config.SearchAppID = *appID
	}
	if *visible {
		config.Headless = false
	}
	if *debug {
		config.DebugMode = true
	}

	if err := run(config); err != nil {
		if os.IsNotExist(err) {
			fmt.Println(colorRed + T("input_missing", config.InputFile) + colorReset)
		} else {
			fmt.Println(colorRed + T("run_error", err) + colorReset)
		}
		if config.DebugMode {
			fmt.Fprintf(os.Stderr, "[DEBUG] %+v\n", err)
		}
		os.Exit(1)
	}
}

func run(config *Config) error {
	store := NewResultStore(config.TempOutputFile, config.OutputFile)
	store.LoadPrior()

	accounts, err := LoadAccounts(config.InputFile)
	if err != nil {
		return err
	}

	for _, acc := range accounts {
		if acc.SearchApp == "" {
			acc.SearchApp = config.SearchAppID
		}
	}

	// An account is only skipped when a prior run pinned it with an
	// exact boolean; failure strings stay in the queue.
	var pending []*Account
	for _, acc := range accounts {
		if store.Done(acc.ID) {
			fmt.Printf(T("skip_done")+"\n", acc.ID)
			continue
		}
		pending = append(pending, acc)
	}

	if len(pending) == 0 {
		fmt.Println(colorGreen + T("all_done") + colorReset)
		store.Finalize(accounts)
		return nil
	}

	printBanner(config, len(pending), len(accounts))

	pool := NewProxyPool(config.Proxies)

	var completed int64
	group := new(errgroup.Group)
	group.SetLimit(config.EffectiveConcurrency())

	for _, acc := range pending {
		acc := acc
		group.Go(func() error {
			result := processAccount(config, pool, store, acc)
			done := atomic.AddInt64(&completed, 1)
			printProgress(int(done), len(pending), result)
			return nil
		})
	}

	// Processors never return errors; Wait only fences completion.
	group.Wait()

	final := store.Finalize(accounts)
	printSummary(config, final)
	return nil
}

func printBanner(config *Config, pending, total int) {
	mode := T("mode_direct")
	if config.UseProxies() {
		mode = T("mode_proxy")
	}

	fmt.Println()
	fmt.Println(colorCyan + "╔═══════════════════════════════════════════════════════════╗" + colorReset)
	fmt.Println(colorCyan + "  " + T("banner_title") + colorReset)
	fmt.Println(colorCyan + "╚═══════════════════════════════════════════════════════════╝" + colorReset)
	fmt.Println(colorCyan + T("banner_queue", pending, total) + colorReset)
	fmt.Println(colorCyan + T("banner_app", config.SearchAppID) + colorReset)
	fmt.Println(colorCyan + T("banner_mode", mode) + colorReset)
	fmt.Println(colorCyan + T("banner_limit", config.EffectiveConcurrency()) + colorReset)
	fmt.Println()
}

func printProgress(done, total int, acc *Account) {
	label := fmt.Sprintf("[%d/%d]", done, total)

	switch {
	case acc.Check.IsTrue():
		fmt.Printf("%s%s ✅ %s - true (%s)%s\n", colorGreen, label, acc.ID, acc.ProcessTime, colorReset)
	case acc.Check.IsFalse():
		fmt.Printf("%s%s ⛔ %s - false (%s)%s\n", colorRed, label, acc.ID, acc.ProcessTime, colorReset)
	default:
		fmt.Printf("%s%s ❗ %s - %s (%s)%s\n", colorYellow, label, acc.ID, acc.Check.String(), acc.ProcessTime, colorReset)
	}
}

// summarize tallies the final output into the four reported buckets.
func summarize(final []*Account) (found, missing, failed, skipped int) {
	for _, acc := range final {
		switch {
		case acc.Check.IsTrue():
			found++
		case acc.Check.IsFalse():
			missing++
		case strings.HasPrefix(acc.Check.Message(), checkSkipped):
			skipped++
		case acc.Check != nil:
			failed++
		}
	}
	return found, missing, failed, skipped
}

func printSummary(config *Config, final []*Account) {
	found, missing, failed, skipped := summarize(final)

	fmt.Println()
	fmt.Println(colorGreen + T("done_banner") + colorReset)
	fmt.Println(colorCyan + T("result_file", config.OutputFile) + colorReset)
	fmt.Println()
	fmt.Println(colorCyan + T("stats_header") + colorReset)

	stats := []struct {
		key   string
		count int
	}{
		{"stat_found", found},
		{"stat_missing", missing},
		{"stat_failed", failed},
		{"stat_skipped", skipped},
	}
	for _, stat := range stats {
		if stat.count > 0 {
			fmt.Printf(colorCyan+"  %s: %d\n"+colorReset, T(stat.key), stat.count)
		}
	}
	fmt.Println()
}
