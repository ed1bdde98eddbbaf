package website

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pribylovaa/go-business-finder/internal/models"

	logctx "github.com/pribylovaa/go-business-finder/pkg/log"
)

const (
	defaultNavTimeout = 10 * time.Second
	// settleWindow — сколько число загруженных ресурсов должно не меняться,
	// чтобы считать сеть «успокоившейся».
	settleWindow = 500 * time.Millisecond
	settlePoll   = 100 * time.Millisecond
)

const (
	jsResourceCount = `performance.getEntriesByType("resource").length`
	jsSnapshot      = `({
		title: document.title || "",
		lastModified: document.lastModified || "",
		html: document.documentElement ? document.documentElement.outerHTML : "",
		body: document.body ? document.body.innerHTML : ""
	})`
)

// TabSource — источник вкладок (Pool).
type TabSource interface {
	Acquire(ctx context.Context) (*Tab, error)
}

// Extractor — второй этап пробы: рендер страницы и снятие сигналов.
type Extractor struct {
	tabs       TabSource
	navTimeout time.Duration
	now        func() time.Time
}

// NewExtractor собирает Extractor поверх общего пула вкладок.
func NewExtractor(tabs TabSource, navTimeout time.Duration) *Extractor {
	if navTimeout <= 0 {
		navTimeout = defaultNavTimeout
	}

	return &Extractor{tabs: tabs, navTimeout: navTimeout, now: time.Now}
}

type pageSnapshot struct {
	Title        string `json:"title"`
	LastModified string `json:"lastModified"`
	HTML         string `json:"html"`
	Body         string `json:"body"`
}

// Extract открывает вкладку, переходит по url с жёстким таймаутом,
// ждёт затишья сети и снимает сигналы. Вкладка освобождается на любом выходе.
func (e *Extractor) Extract(ctx context.Context, url string) (sig models.PageSignals, err error) {
	const op = "website/extractor/Extract"

	log := logctx.From(ctx).With(slog.String("op", op))

	tab, err := e.tabs.Acquire(ctx)
	if err != nil {
		return models.PageSignals{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tab.Release()

	defer func() {
		if r := recover(); r != nil {
			log.Error("extract_panic", slog.Any("panic", r))
			sig, err = models.PageSignals{}, fmt.Errorf("%s: panic: %v", op, r)
		}
	}()

	runCtx, cancel := context.WithTimeout(tab.Ctx, e.navTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var snap pageSnapshot
	err = chromedp.Run(runCtx,
		chromedp.Navigate(url),
		waitNetworkIdle(settleWindow),
		chromedp.Evaluate(jsSnapshot, &snap),
	)
	if err != nil {
		log.Debug("extract_failed", slog.String("error", err.Error()))
		return models.PageSignals{}, fmt.Errorf("%s: %w", op, err)
	}

	sig, err = ParseSignals(Snapshot{
		Title:        snap.Title,
		LastModified: snap.LastModified,
		HTML:         snap.HTML,
		BodyHTML:     snap.Body,
	}, e.now())
	if err != nil {
		return models.PageSignals{}, fmt.Errorf("%s: %w", op, err)
	}

	return sig, nil
}

// waitNetworkIdle ждёт, пока число загруженных ресурсов не меняется window.
// Ограничено контекстом задачи (таймаут навигации).
func waitNetworkIdle(window time.Duration) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var (
			last        = -1
			stableSince time.Time
		)

		ticker := time.NewTicker(settlePoll)
		defer ticker.Stop()

		for {
			var n int
			if err := chromedp.Evaluate(jsResourceCount, &n).Do(ctx); err != nil {
				return err
			}

			now := time.Now()
			if n != last {
				last, stableSince = n, now
			} else if now.Sub(stableSince) >= window {
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})
}
