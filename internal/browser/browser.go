// Package browser manages a headless Chrome instance over the DevTools
// protocol and exposes it as a page the replay engine can drive.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/webloop/webloop/internal/config"
)

// Browser owns the allocator and the root browser context. One Browser
// hosts one tab; Close tears down the whole process tree.
type Browser struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
}

// Launch starts the browser process and verifies it responds before
// returning.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Browser{cfg: cfg, logger: logger.Named("browser")}

	opts := buildAllocatorOptions(cfg)
	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	b.tabCtx, b.tabCancel = chromedp.NewContext(b.allocCtx)

	// Confirm the browser is alive before handing it out.
	probeCtx, cancel := context.WithTimeout(b.tabCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(probeCtx, chromedp.Navigate("about:blank")); err != nil {
		b.Close()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	b.logger.Info("Browser launched", zap.Bool("headless", cfg.Headless))
	return b, nil
}

// Page returns the drivable page bound to the browser's tab.
func (b *Browser) Page() *ChromePage {
	return newChromePage(b.tabCtx, b.cfg, b.logger)
}

// Close shuts the tab and the browser process down.
func (b *Browser) Close() {
	if b.tabCancel != nil {
		b.tabCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}

// buildAllocatorOptions translates the browser config into chromedp
// allocator options.
func buildAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		// Needed for stability in containers and headless environments.
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
	)

	if cfg.Headless {
		opts = append(opts, chromedp.Headless, chromedp.DisableGPU)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	for _, arg := range cfg.Args {
		name, value := flagFromArg(arg)
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// flagFromArg converts a raw command line argument ("--foo", "foo",
// "--foo=bar") into a chromedp flag name and value.
func flagFromArg(arg string) (string, any) {
	arg = strings.TrimPrefix(arg, "--")
	if name, value, ok := strings.Cut(arg, "="); ok {
		return name, value
	}
	return arg, true
}
