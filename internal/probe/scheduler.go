// probe — планировщик проб сайтов.
//
// Scheduler объединяет оба этапа пробы (reachability -> render -> classify)
// и оборачивает их в:
//   - single-flight по нормализованному ключу URL;
//   - TTL-кэш готовых результатов (только оптимизация);
//   - ограничение параллелизма FIFO-семафором для первого этапа
//     (второй этап ограничен слотами пула рендерера);
//   - изоляцию: паника внутри пробы превращается в статус error.
//
// Проба, упёршаяся в собственный таймаут (в том числе пока ждала слот),
// вердикта о сайте не даёт: Probe возвращает ErrAbandoned.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/pribylovaa/go-business-finder/internal/metrics"
	"github.com/pribylovaa/go-business-finder/internal/models"
	"github.com/pribylovaa/go-business-finder/internal/website"
	logctx "github.com/pribylovaa/go-business-finder/pkg/log"
)

const (
	defaultReachConcurrency = 20
	defaultCacheTTL         = 5 * time.Minute
	defaultCacheSize        = 1024
	defaultProbeTimeout     = 30 * time.Second
)

// ErrAbandoned — проба не уложилась в таймаут и статус сайта неизвестен.
var ErrAbandoned = errors.New("probe abandoned")

// Reacher — первый этап пробы.
type Reacher interface {
	Check(ctx context.Context, url string) website.CheckResult
}

// Renderer — второй этап пробы.
type Renderer interface {
	Extract(ctx context.Context, url string) (models.PageSignals, error)
}

// Config — параметры планировщика.
type Config struct {
	ReachConcurrency int
	CacheTTL         time.Duration
	CacheSize        int
	// Timeout ограничивает одну пробу целиком (оба этапа и ожидание слотов).
	Timeout time.Duration
}

// Scheduler — потокобезопасен, один на процесс.
type Scheduler struct {
	reach   Reacher
	render  Renderer
	slots   *semaphore.Weighted
	group   singleflight.Group
	cache   *expirable.LRU[string, models.WebsiteProbeResult]
	timeout time.Duration
	metrics *metrics.Probe
	now     func() time.Time
}

// New собирает планировщик. m может быть nil.
func New(reach Reacher, render Renderer, cfg Config, m *metrics.Probe) *Scheduler {
	if cfg.ReachConcurrency <= 0 {
		cfg.ReachConcurrency = defaultReachConcurrency
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultProbeTimeout
	}

	return &Scheduler{
		reach:   reach,
		render:  render,
		slots:   semaphore.NewWeighted(int64(cfg.ReachConcurrency)),
		cache:   expirable.NewLRU[string, models.WebsiteProbeResult](cfg.CacheSize, nil, cfg.CacheTTL),
		timeout: cfg.Timeout,
		metrics: m,
		now:     time.Now,
	}
}

// Probe возвращает результат пробы url.
//
// Одновременные вызовы с одним ключом ждут одну и ту же пробу.
// Проба выполняется на контексте, отвязанном от вызывающего: отмена ctx
// лишь прекращает ожидание (ошибка ctx.Err()), общая работа продолжается.
// Сбои самой пробы возвращаются статусом, а не ошибкой; исключение —
// ErrAbandoned, когда истёк таймаут пробы.
func (s *Scheduler) Probe(ctx context.Context, url string) (models.WebsiteProbeResult, error) {
	const op = "probe/scheduler/Probe"

	key := Key(url)

	if res, ok := s.cache.Get(key); ok {
		s.metrics.CacheHit()
		res.URL = url
		return res, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		return s.run(context.WithoutCancel(ctx), key, url)
	})

	select {
	case r := <-ch:
		if r.Shared {
			s.metrics.Shared()
		}
		if r.Err != nil {
			return models.WebsiteProbeResult{}, fmt.Errorf("%s: %w", op, r.Err)
		}
		res := r.Val.(models.WebsiteProbeResult)
		res.URL = url
		return res, nil
	case <-ctx.Done():
		return models.WebsiteProbeResult{}, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// Forget удаляет результат из кэша (следующий Probe выполнит пробу заново).
func (s *Scheduler) Forget(url string) {
	s.cache.Remove(Key(url))
}

// run — одна проба: reachability, затем (если доступен) render и classify.
// Неудача любого этапа после истечения таймаута -> ErrAbandoned.
func (s *Scheduler) run(parent context.Context, key, url string) (res models.WebsiteProbeResult, err error) {
	const op = "probe/scheduler/run"

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	log := logctx.From(ctx).With(slog.String("op", op), slog.String("key", key))
	ctx = logctx.Into(ctx, log)

	res = models.WebsiteProbeResult{URL: url, Status: models.StatusError}
	abandoned := false

	defer func() {
		if r := recover(); r != nil {
			log.Error("probe_panic", slog.Any("panic", r))
			res = models.WebsiteProbeResult{
				URL:       url,
				Status:    models.StatusError,
				Error:     fmt.Sprintf("panic: %v", r),
				CheckedAt: s.now(),
			}
			err, abandoned = nil, false
		}

		if abandoned {
			s.metrics.Result("abandoned")
			log.Warn("probe_abandoned", slog.String("stage_error", res.Error))
			res, err = models.WebsiteProbeResult{}, fmt.Errorf("%s: %w", op, ErrAbandoned)
			return
		}

		s.metrics.Result(string(res.Status))
		s.cache.Add(key, res)
	}()

	check, cerr := s.check(ctx, url)
	if cerr != nil {
		// Слот первого этапа не дождались: семафор падает только по ctx.
		res.Error = cerr.Error()
		abandoned = true
		return res, nil
	}

	res.Accessible = check.Accessible
	res.StatusCode = check.StatusCode
	res.CheckedAt = s.now()

	if !check.Accessible {
		res.Status = models.StatusInaccessible
		res.Error = check.Error
		abandoned = ctx.Err() != nil
		if !abandoned {
			log.Debug("probe_inaccessible", slog.Int("status", check.StatusCode))
		}
		return res, nil
	}

	start := time.Now()
	sig, rerr := s.render.Extract(ctx, url)
	s.metrics.Stage("render", time.Since(start))
	res.CheckedAt = s.now()

	if rerr != nil {
		res.Status = models.StatusError
		res.Accessible = false
		res.Error = rerr.Error()
		abandoned = ctx.Err() != nil
		if !abandoned {
			log.Warn("probe_render_failed", slog.String("error", rerr.Error()))
		}
		return res, nil
	}

	res.WithSignals(sig)
	res.Status = website.Classify(sig)
	log.Debug("probe_done", slog.String("status", string(res.Status)))

	return res, nil
}

// check — первый этап под слотом семафора; слот освобождается и при панике.
func (s *Scheduler) check(ctx context.Context, url string) (website.CheckResult, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return website.CheckResult{}, err
	}
	defer s.slots.Release(1)

	start := time.Now()
	defer func() { s.metrics.Stage("reach", time.Since(start)) }()

	return s.reach.Check(ctx, url), nil
}
