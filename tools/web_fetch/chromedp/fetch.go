package chromedp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/mohammad-safakhou/stockscout/tools/web_fetch/models"
)

// Fetch renders a page in a throwaway headless browser and returns the
// markup after scripts ran.
type Fetch struct {
	Timeout   time.Duration
	UserAgent string
	ExecPath  string // empty lets chromedp locate the browser
}

// ErrUnavailable is returned when the configured browser binary is missing.
var ErrUnavailable = errors.New("browser unavailable")

var browserNames = []string{
	"headless-shell", "chromium", "chromium-browser",
	"google-chrome", "google-chrome-stable", "chrome",
}

var macBrowser = "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"

// Available reports whether a browser binary can be found.
func (f Fetch) Available() bool {
	if f.ExecPath != "" {
		_, err := os.Stat(f.ExecPath)
		return err == nil
	}
	for _, name := range browserNames {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	_, err := os.Stat(macBrowser)
	return err == nil
}

func (f Fetch) Name() models.Strategy { return models.StrategyDynamic }

// Fetch navigates to url, waits for the body and returns the document's
// outer HTML. The browser is shut down on every path.
func (f Fetch) Fetch(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", errors.New("invalid url")
	}
	if f.ExecPath != "" {
		if _, err := os.Stat(f.ExecPath); err != nil {
			return "", fmt.Errorf("%w: %s", ErrUnavailable, f.ExecPath)
		}
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if f.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.UserAgent))
	}
	if f.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.ExecPath))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return html, nil
}
