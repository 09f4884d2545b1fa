package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/phrazzld/imagine-api/internal/config"
	"github.com/phrazzld/imagine-api/internal/generation"
	"github.com/phrazzld/imagine-api/internal/platform/logger"
)

// Driver implements generation.Driver with a headless Chrome controlled over
// the DevTools protocol. One browser process is shared by all attempts; every
// attempt gets its own tab which is closed before Imagine returns.
type Driver struct {
	config    config.BrowserConfig
	cookies   *CookieJar
	validator *URLValidator
	logger    *slog.Logger

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

var _ generation.Driver = (*Driver)(nil)

// NewDriver creates a Driver. The browser itself is started on first use.
func NewDriver(cfg config.BrowserConfig, logger *slog.Logger) (*Driver, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "browser")

	return &Driver{
		config:    cfg,
		cookies:   NewCookieJar(cfg.CookieFile),
		validator: NewURLValidator(&http.Client{Timeout: cfg.ValidateTimeout}, logger),
		logger:    logger,
	}, nil
}

func validateConfig(cfg config.BrowserConfig) error {
	switch {
	case cfg.TargetURL == "":
		return fmt.Errorf("%w: target url is required", generation.ErrInvalidConfig)
	case cfg.InputSelector == "" || cfg.SubmitSelector == "" || cfg.ResultSelector == "":
		return fmt.Errorf("%w: input, submit and result selectors are required", generation.ErrInvalidConfig)
	case len(cfg.ImageHostMarkers) == 0:
		return fmt.Errorf("%w: at least one image host marker is required", generation.ErrInvalidConfig)
	case cfg.MaxImages <= 0:
		return fmt.Errorf("%w: max images must be positive", generation.ErrInvalidConfig)
	case cfg.NavigationTimeout <= 0 || cfg.SelectorTimeout <= 0 || cfg.GenerationTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be positive", generation.ErrInvalidConfig)
	}
	return nil
}

// allocatorOptions returns the Chrome flags for the shared browser.
func (d *Driver) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.config.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.WindowSize(d.config.WindowWidth, d.config.WindowHeight),
	)
	if d.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(d.config.UserAgent))
	}
	if d.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(d.config.ExecPath))
	}
	return opts
}

// browser returns the shared browser context, launching Chrome if it is not
// running or has gone away since the last attempt.
func (d *Driver) browser() (context.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browserCtx != nil && d.browserCtx.Err() == nil {
		return d.browserCtx, nil
	}
	d.shutdownLocked()

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), d.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			d.logger.Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			d.logger.Warn(fmt.Sprintf(format, args...))
		}),
	)

	// An empty Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	d.browserCtx = browserCtx
	d.browserCancel = browserCancel
	d.allocCancel = allocCancel
	d.logger.Info("browser launched",
		"headless", d.config.Headless,
		"window", fmt.Sprintf("%dx%d", d.config.WindowWidth, d.config.WindowHeight))
	return browserCtx, nil
}

// Close shuts the shared browser down.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shutdownLocked()
	return nil
}

func (d *Driver) shutdownLocked() {
	if d.browserCancel != nil {
		d.browserCancel()
		d.browserCancel = nil
	}
	if d.allocCancel != nil {
		d.allocCancel()
		d.allocCancel = nil
	}
	d.browserCtx = nil
}

// Imagine performs one end-to-end attempt: open a tab, restore the session
// cookies, submit the prompt, wait for the result, extract and validate the
// image URLs and save the session cookies.
func (d *Driver) Imagine(ctx context.Context, prompt string) (generation.Output, error) {
	log := logger.FromContextOrDefault(ctx, d.logger)

	browserCtx, err := d.browser()
	if err != nil {
		return generation.Output{}, err
	}

	tabCtx, closeTab := chromedp.NewContext(browserCtx)
	defer closeTab()
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	if err := chromedp.Run(tabCtx); err != nil {
		return generation.Output{}, d.stepError(ctx, generation.ErrNavigationTimeout, "open tab", err)
	}

	d.restoreCookies(tabCtx, log)

	full := fullPrompt(prompt, d.config.PromptSuffix)
	log.InfoContext(ctx, "submitting prompt", "url", d.config.TargetURL, "prompt", full)

	if err := runStep(tabCtx, d.config.NavigationTimeout,
		chromedp.Navigate(d.config.TargetURL),
	); err != nil {
		return generation.Output{}, d.stepError(ctx, generation.ErrNavigationTimeout, "navigate", err)
	}

	if err := runStep(tabCtx, d.config.SelectorTimeout,
		chromedp.WaitVisible(d.config.InputSelector, chromedp.ByQuery),
		chromedp.SendKeys(d.config.InputSelector, full, chromedp.ByQuery),
		chromedp.Click(d.config.SubmitSelector, chromedp.ByQuery),
	); err != nil {
		return generation.Output{}, d.stepError(ctx, generation.ErrSelectorTimeout, "enter prompt", err)
	}

	log.InfoContext(ctx, "waiting for generation", "timeout", d.config.GenerationTimeout.String())
	if err := runStep(tabCtx, d.config.GenerationTimeout,
		chromedp.WaitVisible(d.config.ResultSelector, chromedp.ByQuery),
	); err != nil {
		return generation.Output{}, d.stepError(ctx, generation.ErrSelectorTimeout, "wait for result", err)
	}

	var sources []string
	if err := chromedp.Run(tabCtx,
		chromedp.Sleep(d.config.SettleDelay),
		chromedp.Evaluate(imageSourcesScript, &sources),
	); err != nil {
		return generation.Output{}, d.stepError(ctx, generation.ErrExtractionFailure, "extract images", err)
	}

	images := FilterImages(sources, d.config.ImageHostMarkers, d.config.MaxImages)
	if len(images) == 0 {
		return generation.Output{}, fmt.Errorf("%w: %d images on page, none from %v",
			generation.ErrExtractionFailure, len(sources), d.config.ImageHostMarkers)
	}

	valid, err := d.validator.Validate(ctx, images)
	if err != nil {
		return generation.Output{}, err
	}

	d.saveCookies(tabCtx, log)

	log.InfoContext(ctx, "images extracted", "count", len(valid))
	return generation.Output{Images: valid, Prompt: full}, nil
}

// runStep runs actions with their own deadline derived from the tab context.
func runStep(tabCtx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// stepError classifies a failed step. Cancellation by the caller is reported
// as such so the worker stops retrying.
func (d *Driver) stepError(ctx context.Context, kind error, step string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", step, ctxErr)
	}
	return fmt.Errorf("%w: %s: %v", kind, step, err)
}

func (d *Driver) restoreCookies(tabCtx context.Context, log *slog.Logger) {
	params, err := d.cookies.Load()
	if err != nil {
		log.Warn("failed to load cookies", "error", err)
		return
	}
	if len(params) == 0 {
		return
	}
	if err := chromedp.Run(tabCtx, network.SetCookies(params)); err != nil {
		log.Warn("failed to restore cookies", "error", err)
		return
	}
	log.Debug("cookies restored", "count", len(params))
}

func (d *Driver) saveCookies(tabCtx context.Context, log *slog.Logger) {
	var cookies []*network.Cookie
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		log.Warn("failed to read cookies", "error", err)
		return
	}
	if err := d.cookies.Save(cookies); err != nil {
		log.Warn("failed to save cookies", "error", err)
		return
	}
	log.Debug("cookies saved", "count", len(cookies))
}
