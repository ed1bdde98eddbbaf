package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pribylovaa/go-business-finder/internal/models"
	"github.com/pribylovaa/go-business-finder/internal/places"
	logctx "github.com/pribylovaa/go-business-finder/pkg/log"
)

// Search ищет компании ниши в регионе, пробует их сайты и применяет фильтр.
//
// Признаки фильтра не зависят от результатов проб, поэтому список
// обрезается до limit сразу после ответа провайдера. Сбой пробы одной
// компании отражается только в её статусе. Пробы, не успевшие к
// search.probe_deadline, бросаются: статус остаётся unknown.
func (s *Service) Search(ctx context.Context, f models.SearchFilter) ([]models.Business, error) {
	const op = "service/search/Search"

	start := time.Now()
	log := logctx.From(ctx).With(slog.String("op", op))

	region := strings.TrimSpace(f.Region)
	niche := strings.TrimSpace(f.Niche)
	if region == "" || niche == "" {
		s.metrics.Observe("search", "invalid", time.Since(start), 0)
		return nil, fmt.Errorf("%s: region and niche are required: %w", op, ErrInvalidArgument)
	}

	limit, err := s.limit(f.Limit)
	if err != nil {
		s.metrics.Observe("search", "invalid", time.Since(start), 0)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := niche + " " + region
	raw, err := s.places.Search(ctx, query, s.locale())
	if err != nil {
		s.metrics.Observe("search", "provider_error", time.Since(start), 0)
		log.Error("places_search_failed", slog.String("query", query), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, providerErr(err))
	}

	if len(raw) > limit {
		raw = raw[:limit]
	}

	list := make([]models.Business, 0, len(raw))
	for _, r := range raw {
		list = append(list, normalize(r))
	}

	list = applyFilter(list, f)

	probed := s.probeAll(ctx, list)

	if err := ctx.Err(); err != nil {
		s.metrics.Observe("search", "canceled", time.Since(start), 0)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.Observe("search", "ok", time.Since(start), len(list))
	log.Info("search_done",
		slog.String("query", query),
		slog.Int("provider", len(raw)),
		slog.Int("returned", len(list)),
		slog.Int("probed", probed),
		slog.Duration("dur", time.Since(start)),
	)

	return list, nil
}

// Details возвращает карточку компании с фото, отзывами и результатом пробы.
func (s *Service) Details(ctx context.Context, id string) (models.BusinessDetails, error) {
	const op = "service/search/Details"

	start := time.Now()
	log := logctx.From(ctx).With(slog.String("op", op))

	id = strings.TrimSpace(id)
	if id == "" {
		s.metrics.Observe("details", "invalid", time.Since(start), 0)
		return models.BusinessDetails{}, fmt.Errorf("%s: empty id: %w", op, ErrInvalidArgument)
	}

	raw, err := s.places.Details(ctx, id, s.locale())
	if err != nil {
		if errors.Is(err, places.ErrNotFound) {
			s.metrics.Observe("details", "not_found", time.Since(start), 0)
			return models.BusinessDetails{}, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		s.metrics.Observe("details", "provider_error", time.Since(start), 0)
		log.Error("places_details_failed", slog.String("id", id), slog.String("error", err.Error()))
		return models.BusinessDetails{}, fmt.Errorf("%s: %w", op, providerErr(err))
	}

	b := normalize(raw)
	b.ID = id

	if b.HasWebsite {
		pctx, cancel := context.WithTimeout(ctx, s.cfg.Search.ProbeDeadline)
		res, err := s.prober.Probe(pctx, b.Website)
		cancel()

		switch {
		case err == nil:
			b.ApplyProbe(res)
		case ctx.Err() != nil:
			s.metrics.Observe("details", "canceled", time.Since(start), 0)
			return models.BusinessDetails{}, fmt.Errorf("%s: %w", op, ctx.Err())
		default:
			log.Warn("probe_abandoned", slog.String("url", b.Website), slog.String("error", err.Error()))
		}
	}

	s.metrics.Observe("details", "ok", time.Since(start), 1)

	return models.BusinessDetails{
		Business: b,
		Photos:   nonNil(raw.Photos),
		Reviews:  decodeReviews(raw.ReviewItems),
	}, nil
}

// limit применяет правила: 0 — значение по умолчанию, <0 — ошибка,
// больше максимума — обрезается.
func (s *Service) limit(n int) (int, error) {
	switch {
	case n < 0:
		return 0, fmt.Errorf("limit must be >= 0: %w", ErrInvalidArgument)
	case n == 0:
		return s.cfg.Search.DefaultLimit, nil
	case n > s.cfg.Search.MaxLimit:
		return s.cfg.Search.MaxLimit, nil
	default:
		return n, nil
	}
}

type probeOutcome struct {
	idx int
	res models.WebsiteProbeResult
	err error
}

// probeAll пробует сайты всех компаний из list на месте и возвращает
// число применённых результатов. Результаты собираются по индексу,
// поэтому порядок выдачи равен порядку провайдера.
func (s *Service) probeAll(ctx context.Context, list []models.Business) int {
	const op = "service/search/probeAll"

	pctx, cancel := context.WithTimeout(ctx, s.cfg.Search.ProbeDeadline)
	defer cancel()

	log := logctx.From(ctx).With(slog.String("op", op))

	// Буфер на все пробы: опоздавшие горутины не блокируются после дедлайна.
	out := make(chan probeOutcome, len(list))
	pending := 0

	for i := range list {
		if !list[i].HasWebsite {
			continue
		}
		pending++

		go func(idx int, url string) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("probe_panic", slog.String("url", url), slog.Any("panic", r))
					out <- probeOutcome{idx: idx, res: models.WebsiteProbeResult{
						URL:       url,
						Status:    models.StatusError,
						Error:     fmt.Sprintf("panic: %v", r),
						CheckedAt: s.now(),
					}}
				}
			}()

			res, err := s.prober.Probe(pctx, url)
			out <- probeOutcome{idx: idx, res: res, err: err}
		}(i, list[i].Website)
	}

	applied := 0
	for pending > 0 {
		select {
		case o := <-out:
			pending--
			if o.err != nil {
				continue
			}
			list[o.idx].ApplyProbe(o.res)
			applied++
		case <-pctx.Done():
			log.Warn("probe_deadline_reached", slog.Int("abandoned", pending))
			return applied
		}
	}

	return applied
}

// providerErr сводит ошибки провайдера к ErrProvider; отмену и дедлайн
// вызывающего пропускает как есть.
func providerErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: %v", ErrProvider, err)
}

func decodeReviews(items []json.RawMessage) []any {
	out := make([]any, 0, len(items))
	for _, raw := range items {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}

	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
