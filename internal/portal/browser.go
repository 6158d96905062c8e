package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/config"
	"github.com/t77yq/uni-helper/internal/model"
)

var errPageUnavailable = errors.New("support page is not available")

// Browser owns the hidden Chromium window holding the portal session and
// implements Driver by executing guarded in-page scripts.
type Browser struct {
	cfg    config.PortalConfig
	logger *zap.Logger

	mu      sync.Mutex
	kill    func()
	browser *rod.Browser
	page    *rod.Page
}

// NewBrowser creates a portal browser. Call Open before use.
func NewBrowser(cfg config.PortalConfig, logger *zap.Logger) *Browser {
	return &Browser{
		cfg:    cfg,
		logger: logger.Named("portal"),
	}
}

// Open launches the browser and navigates the support page to the portal's
// base URL. Navigation errors are tolerated; a page that failed to load
// simply produces structured scrape failures until it recovers.
func (b *Browser) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return nil
	}

	l := launcher.New().Headless(b.cfg.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: b.cfg.URL})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return fmt.Errorf("failed to open support page: %w", err)
	}

	b.kill = l.Kill
	b.browser = browser
	b.page = page

	b.logger.Info("Support page opened",
		zap.String("url", b.cfg.URL),
		zap.Bool("headless", b.cfg.Headless))

	return nil
}

// Close shuts down the hidden browser.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
		b.page = nil
	}
	if b.kill != nil {
		b.kill()
		b.kill = nil
	}
	return err
}

// eval runs an in-page script under the configured timeout and decodes its
// resolved value into out.
func (b *Browser) eval(ctx context.Context, out interface{}, js string, args ...interface{}) error {
	b.mu.Lock()
	page := b.page
	b.mu.Unlock()

	if page == nil {
		return errPageUnavailable
	}

	res, err := page.Context(ctx).Timeout(b.cfg.ScriptTimeout).Evaluate(&rod.EvalOptions{
		JS:           js,
		JSArgs:       args,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return fmt.Errorf("script execution failed: %w", err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to read script result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode script result: %w", err)
	}
	return nil
}

// reload navigates the support page back to the base URL. Used as the
// recovery action when the portal reports a logged-out session.
func (b *Browser) reload(ctx context.Context) {
	b.mu.Lock()
	page := b.page
	b.mu.Unlock()

	if page == nil {
		return
	}
	if err := page.Context(ctx).Timeout(b.cfg.ScriptTimeout).Navigate(b.cfg.URL); err != nil {
		b.logger.Error("Failed to reload support page", zap.Error(err))
	}
}

type scriptResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CheckSession implements Driver.
func (b *Browser) CheckSession(ctx context.Context) model.Result {
	var res scriptResult
	if err := b.eval(ctx, &res, sessionCheckScript); err != nil {
		return model.Fail("session check failed: " + err.Error())
	}

	if !res.Success && strings.Contains(res.Message, model.MarkerLoggedOut) {
		b.logger.Warn("Portal reported a logged-out session, reloading support page",
			zap.String("detail", res.Message))
		b.reload(ctx)
	}

	if res.Success {
		return model.OK(res.Message)
	}
	return model.Fail(res.Message)
}

// Login implements Driver.
func (b *Browser) Login(ctx context.Context, username, password string) model.Result {
	var res scriptResult
	if err := b.eval(ctx, &res, loginScript, username, password); err != nil {
		return model.Fail("login failed: " + err.Error())
	}
	if !res.Success {
		return model.Fail(res.Message)
	}

	// Give the portal time to process the redirect before verifying.
	select {
	case <-ctx.Done():
		return model.Fail("login cancelled: " + ctx.Err().Error())
	case <-time.After(b.cfg.LoginSettleDelay):
	}

	return b.CheckSession(ctx)
}

type scrapeScriptResult struct {
	Success              bool          `json:"success"`
	Message              string        `json:"message"`
	AllRequestsData      []model.Alert `json:"allRequestsData"`
	PersonalRequestsData []model.Alert `json:"personalRequestsData"`
}

// Scrape implements Driver.
func (b *Browser) Scrape(ctx context.Context) ScrapeResult {
	var res scrapeScriptResult
	if err := b.eval(ctx, &res, scrapeScript); err != nil {
		b.logger.Error("Scrape execution failed", zap.Error(err))
		return ScrapeResult{Message: err.Error()}
	}
	if !res.Success {
		b.logger.Error("Scrape reported failure", zap.String("message", res.Message))
		return ScrapeResult{Message: res.Message}
	}

	return ScrapeResult{
		Success:          true,
		AllRequests:      res.AllRequestsData,
		PersonalRequests: res.PersonalRequestsData,
	}
}
