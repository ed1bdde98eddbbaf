package website

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed — пул закрыт (процесс завершается).
var ErrPoolClosed = errors.New("renderer pool closed")

const (
	defaultMaxPages = 5
	launchTimeout   = 30 * time.Second
)

// PoolConfig — параметры общего headless-браузера.
type PoolConfig struct {
	MaxPages    int
	IdleTimeout time.Duration
	// RemoteURL — DevTools endpoint уже запущенного браузера (ws://... или http://host:9222).
	// Если пусто, Chrome запускается локально.
	RemoteURL string
	ExecPath  string
	Headless  bool
	UserAgent string
}

// browser — то, что пулу нужно от движка рендеринга.
type browser interface {
	NewTab() (context.Context, context.CancelFunc, error)
	Close() error
}

type launcher func() (browser, error)

// Pool — процессный ресурс: один браузер и не более MaxPages открытых вкладок.
//
// Жизненный цикл:
//   - браузер запускается лениво при первом Acquire;
//   - гасится после IdleTimeout без открытых вкладок (и снова поднимается по требованию);
//   - Close гасит его окончательно, дальнейшие Acquire -> ErrPoolClosed.
//
// Отмена контекста одного вызывающего не трогает браузер.
type Pool struct {
	log    *slog.Logger
	launch launcher
	slots  *semaphore.Weighted
	idleTO time.Duration

	mu      sync.Mutex
	b       browser
	active  int
	idle    *time.Timer
	idleGen uint64
	closed  bool

	onTabs func(int)
}

// Tab — занятая вкладка. Release обязателен и идемпотентен.
type Tab struct {
	Ctx     context.Context
	release func()
}

// Release закрывает вкладку и возвращает слот в пул.
func (t *Tab) Release() {
	if t != nil && t.release != nil {
		t.release()
	}
}

// NewPool создаёт пул поверх chromedp. Браузер при этом не запускается.
func NewPool(cfg PoolConfig, log *slog.Logger) *Pool {
	return newPool(cfg, log, chromeLauncher(cfg))
}

func newPool(cfg PoolConfig, log *slog.Logger, launch launcher) *Pool {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if log == nil {
		log = slog.Default()
	}

	return &Pool{
		log:    log,
		launch: launch,
		slots:  semaphore.NewWeighted(int64(cfg.MaxPages)),
		idleTO: cfg.IdleTimeout,
	}
}

// OnTabsChanged регистрирует наблюдателя за числом открытых вкладок (метрики).
func (p *Pool) OnTabsChanged(fn func(int)) {
	p.mu.Lock()
	p.onTabs = fn
	p.mu.Unlock()
}

// Acquire ждёт свободный слот (FIFO) и открывает вкладку.
func (p *Pool) Acquire(ctx context.Context) (*Tab, error) {
	const op = "website/renderer/Acquire"

	if p.isClosed() {
		return nil, fmt.Errorf("%s: %w", op, ErrPoolClosed)
	}

	if err := p.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b, err := p.take()
	if err != nil {
		p.slots.Release(1)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tabCtx, cancel, err := b.NewTab()
	if err != nil {
		p.discard(b)
		p.put()
		p.slots.Release(1)
		return nil, fmt.Errorf("%s: new tab: %w", op, err)
	}

	var once sync.Once
	return &Tab{
		Ctx: tabCtx,
		release: func() {
			once.Do(func() {
				cancel()
				p.put()
				p.slots.Release(1)
			})
		},
	}, nil
}

// InUse — число открытых вкладок.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.active
}

// Running сообщает, запущен ли браузер сейчас.
func (p *Pool) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.b != nil
}

// Close окончательно гасит браузер. Повторный вызов — no-op.
func (p *Pool) Close() error {
	const op = "website/renderer/Close"

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.stopIdleLocked()

	if p.b == nil {
		return nil
	}

	err := p.b.Close()
	p.b = nil
	p.log.Info("renderer_closed", slog.String("op", op))

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// take поднимает браузер при необходимости и учитывает новую вкладку.
func (p *Pool) take() (browser, error) {
	const op = "website/renderer/take"

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}

	p.stopIdleLocked()

	if p.b == nil {
		b, err := p.launch()
		if err != nil {
			p.log.Error("renderer_launch_failed", slog.String("op", op), slog.String("error", err.Error()))
			return nil, fmt.Errorf("launch: %w", err)
		}
		p.b = b
		p.log.Info("renderer_launched", slog.String("op", op))
	}

	p.active++
	p.notifyLocked()

	return p.b, nil
}

// put снимает учёт вкладки и, если вкладок не осталось, взводит idle-таймер.
func (p *Pool) put() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.active--
	p.notifyLocked()

	if p.active > 0 || p.closed || p.b == nil || p.idleTO <= 0 {
		return
	}

	p.idleGen++
	gen := p.idleGen
	p.idle = time.AfterFunc(p.idleTO, func() { p.reapIdle(gen) })
}

func (p *Pool) reapIdle(gen uint64) {
	const op = "website/renderer/reapIdle"

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.idleGen || p.active > 0 || p.closed || p.b == nil {
		return
	}

	if err := p.b.Close(); err != nil {
		p.log.Warn("renderer_idle_close_failed", slog.String("op", op), slog.String("error", err.Error()))
	}
	p.b = nil
	p.idle = nil
	p.log.Info("renderer_idle_shutdown", slog.String("op", op))
}

// discard выбрасывает упавший браузер; следующий Acquire поднимет новый.
func (p *Pool) discard(b browser) {
	const op = "website/renderer/discard"

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.b != b {
		return
	}

	_ = p.b.Close()
	p.b = nil
	p.log.Warn("renderer_discarded", slog.String("op", op))
}

func (p *Pool) stopIdleLocked() {
	if p.idle != nil {
		p.idle.Stop()
		p.idle = nil
	}
	p.idleGen++
}

func (p *Pool) notifyLocked() {
	if p.onTabs != nil {
		p.onTabs(p.active)
	}
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

// chromeBrowser — браузер chromedp: allocator + корневой контекст браузера.
type chromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

func (b *chromeBrowser) NewTab() (context.Context, context.CancelFunc, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, nil, err
	}

	ctx, cancel := chromedp.NewContext(b.ctx)
	return ctx, cancel, nil
}

func (b *chromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func chromeLauncher(cfg PoolConfig) launcher {
	return func() (browser, error) {
		var (
			allocCtx    context.Context
			allocCancel context.CancelFunc
		)

		if cfg.RemoteURL != "" {
			allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		} else {
			ua := cfg.UserAgent
			if ua == "" {
				ua = DefaultUserAgent
			}

			opts := append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", cfg.Headless),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.UserAgent(ua),
			)
			if cfg.ExecPath != "" {
				opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
			}

			allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
		}

		ctx, cancel := chromedp.NewContext(allocCtx)

		// Первый Run стартует браузер; ограничиваем его отдельно,
		// не привязывая жизнь браузера к таймеру.
		started := make(chan error, 1)
		go func() { started <- chromedp.Run(ctx) }()

		select {
		case err := <-started:
			if err != nil {
				cancel()
				allocCancel()
				return nil, err
			}
		case <-time.After(launchTimeout):
			cancel()
			allocCancel()
			return nil, fmt.Errorf("browser did not start in %s", launchTimeout)
		}

		return &chromeBrowser{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
	}
}
