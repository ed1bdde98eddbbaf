// serpapi — PlaceSource поверх SerpAPI (engine=google_maps).
//
// Поиск: q=<запрос>, type=search, local_results -> []RawPlace.
// Карточка: place_id или data_id, type=place, place_results (+ отзывы).
// Исходящие запросы ограничены token bucket (x/time/rate).
package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pribylovaa/go-business-finder/internal/models"
	"github.com/pribylovaa/go-business-finder/internal/places"
	logctx "github.com/pribylovaa/go-business-finder/pkg/log"
	"github.com/pribylovaa/go-business-finder/pkg/redact"
)

const (
	DefaultBaseURL = "https://serpapi.com/search.json"
	engine         = "google_maps"

	// Текст ошибки SerpAPI при пустой выдаче.
	noResultsMarker = "hasn't returned any results"
	maxBody         = 8 << 20
)

// ErrUpstream — SerpAPI недоступен или ответил ошибкой.
var ErrUpstream = errors.New("serpapi upstream error")

// Config — параметры клиента.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// Client — потокобезопасен.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

// New собирает клиента. RPS <= 0 — без ограничения частоты.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	lim := rate.NewLimiter(rate.Inf, cfg.Burst)
	if cfg.RPS > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: lim,
	}
}

// Search — выдача по текстовому запросу. Пустая выдача — не ошибка.
func (c *Client) Search(ctx context.Context, query string, loc models.Locale) ([]models.RawPlace, error) {
	const op = "places/serpapi/Search"

	q := c.params(loc)
	q.Set("q", query)
	q.Set("type", "search")

	var resp searchResponse
	if err := c.get(ctx, q, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.Error != "" {
		if isNoResults(resp.Error) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w: %s", op, ErrUpstream, resp.Error)
	}

	if len(resp.LocalResults) == 0 && resp.PlaceResults != nil {
		p := *resp.PlaceResults
		if p.Position == 0 {
			p.Position = 1
		}
		return []models.RawPlace{p.toRaw()}, nil
	}

	out := make([]models.RawPlace, 0, len(resp.LocalResults))
	for _, p := range resp.LocalResults {
		out = append(out, p.toRaw())
	}

	logctx.From(ctx).Debug("serpapi_search_done",
		slog.String("op", op),
		slog.Int("results", len(out)),
	)

	return out, nil
}

// Details — карточка места с фото и отзывами.
// id вида "0x...:0x..." уходит как data_id, иначе как place_id.
func (c *Client) Details(ctx context.Context, id string, loc models.Locale) (models.RawPlace, error) {
	const op = "places/serpapi/Details"

	q := c.params(loc)
	q.Set("type", "place")
	if isDataID(id) {
		q.Set("data_id", id)
	} else {
		q.Set("place_id", id)
	}

	var resp detailsResponse
	if err := c.get(ctx, q, &resp); err != nil {
		return models.RawPlace{}, fmt.Errorf("%s: %w", op, err)
	}

	if resp.Error != "" {
		if isNoResults(resp.Error) {
			return models.RawPlace{}, fmt.Errorf("%s: %w", op, places.ErrNotFound)
		}
		return models.RawPlace{}, fmt.Errorf("%s: %w: %s", op, ErrUpstream, resp.Error)
	}

	place := resp.PlaceResults
	if place == nil {
		place = resp.PlaceInfo
	}
	if place == nil {
		return models.RawPlace{}, fmt.Errorf("%s: %w", op, places.ErrNotFound)
	}

	raw := place.toRaw()
	raw.Photos = place.photoURLs()

	raw.ReviewItems = resp.Reviews
	if len(raw.ReviewItems) == 0 && place.UserReviews != nil {
		raw.ReviewItems = place.UserReviews.MostRelevant
	}

	return raw, nil
}

func (c *Client) params(loc models.Locale) url.Values {
	q := url.Values{}
	q.Set("engine", engine)
	if loc.Language != "" {
		q.Set("hl", loc.Language)
	}
	if loc.Country != "" {
		q.Set("gl", loc.Country)
	}
	q.Set("api_key", c.apiKey)

	return q
}

// get выполняет запрос с учётом лимитера и декодирует JSON в dst.
func (c *Client) get(ctx context.Context, q url.Values, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// *url.Error несёт полный URL вместе с api_key.
		return fmt.Errorf("%w: %v", ErrUpstream, redact.Error(err, []string{"api_key"}, c.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		// SerpAPI кладёт причину в {"error": "..."} и для 4xx.
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)

		if isNoResults(e.Error) {
			return json.Unmarshal(body, dst)
		}

		return fmt.Errorf("%w: status=%d %s", ErrUpstream, resp.StatusCode, e.Error)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}

	return nil
}

func isNoResults(msg string) bool {
	return msg != "" && strings.Contains(msg, noResultsMarker)
}

func isDataID(id string) bool {
	return strings.HasPrefix(id, "0x") && strings.Contains(id, ":")
}
