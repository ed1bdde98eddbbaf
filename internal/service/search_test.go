package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-business-finder/internal/config"
	"github.com/pribylovaa/go-business-finder/internal/models"
	"github.com/pribylovaa/go-business-finder/internal/places"
	"github.com/pribylovaa/go-business-finder/internal/probe"
	"github.com/pribylovaa/go-business-finder/internal/website"
	"github.com/pribylovaa/go-business-finder/mocks"
)

var ptBR = models.Locale{Language: "pt", Country: "br"}

func testConfig() config.Config {
	return config.Config{
		Places: config.PlacesConfig{Language: "pt", Country: "br"},
		Search: config.SearchConfig{DefaultLimit: 20, MaxLimit: 100, ProbeDeadline: time.Second},
	}
}

// proberFunc — Prober из функции для сценариев, неудобных для gomock.
type proberFunc func(ctx context.Context, url string) (models.WebsiteProbeResult, error)

func (f proberFunc) Probe(ctx context.Context, url string) (models.WebsiteProbeResult, error) {
	return f(ctx, url)
}

func updated(_ context.Context, url string) (models.WebsiteProbeResult, error) {
	return models.WebsiteProbeResult{
		Status:     models.StatusUpdated,
		Accessible: true,
		URL:        url,
		StatusCode: 200,
	}, nil
}

// padarias — 10 мест, сайт у 6 из них (индексы 0, 1, 3, 5, 6, 8).
func padarias() []models.RawPlace {
	withSite := map[int]bool{0: true, 1: true, 3: true, 5: true, 6: true, 8: true}

	out := make([]models.RawPlace, 0, 10)
	for i := 0; i < 10; i++ {
		p := models.RawPlace{
			PlaceID:  fmt.Sprintf("place-%d", i),
			Title:    fmt.Sprintf("Padaria %d", i),
			Address:  fmt.Sprintf("Rua %d, São Paulo", i),
			Position: i + 1,
		}
		if withSite[i] {
			p.Website = fmt.Sprintf("https://padaria%d.com.br", i)
		}
		out = append(out, p)
	}

	return out
}

func ids(list []models.Business) []string {
	out := make([]string, 0, len(list))
	for _, b := range list {
		out = append(out, b.ID)
	}

	return out
}

func TestSearch_Padarias_EndToEnd(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockPlaceSource(ctrl)
	prober := mocks.NewMockProber(ctrl)

	src.EXPECT().
		Search(gomock.Any(), "Padarias São Paulo, SP", ptBR).
		Return(padarias(), nil).
		Times(2)
	prober.EXPECT().
		Probe(gomock.Any(), gomock.Any()).
		DoAndReturn(updated).
		Times(12)

	svc := New(src, prober, testConfig(), nil)

	all, err := svc.Search(context.Background(), models.SearchFilter{
		Region: "São Paulo, SP", Niche: "Padarias", Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, all, 10)

	withSite, noSite := 0, 0
	for i, b := range all {
		require.Equal(t, fmt.Sprintf("place-%d", i), b.ID)
		if b.HasWebsite {
			withSite++
			require.Equal(t, models.StatusUpdated, b.WebsiteStatus)
			require.NotNil(t, b.WebsiteInfo)
			require.Equal(t, b.Website, b.WebsiteInfo.URL)
			continue
		}
		noSite++
		require.Equal(t, models.StatusUnknown, b.WebsiteStatus)
		require.Nil(t, b.WebsiteInfo)
	}
	require.Equal(t, 6, withSite)
	require.Equal(t, 4, noSite)

	only, err := svc.Search(context.Background(), models.SearchFilter{
		Region: "São Paulo, SP", Niche: "Padarias", Limit: 10, HasWebsite: models.Include,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"place-0", "place-1", "place-3", "place-5", "place-6", "place-8"}, ids(only))
}

func TestSearch_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		f    models.SearchFilter
	}{
		{"empty region", models.SearchFilter{Niche: "Padarias"}},
		{"blank niche", models.SearchFilter{Region: "SP", Niche: "  \t"}},
		{"negative limit", models.SearchFilter{Region: "SP", Niche: "Padarias", Limit: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			svc := New(mocks.NewMockPlaceSource(ctrl), mocks.NewMockProber(ctrl), testConfig(), nil)

			_, err := svc.Search(context.Background(), tt.f)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestSearch_Limit(t *testing.T) {
	t.Parallel()

	raws := make([]models.RawPlace, 0, 30)
	for i := 0; i < 30; i++ {
		raws = append(raws, models.RawPlace{PlaceID: fmt.Sprintf("p%d", i), Title: "x"})
	}

	cfg := testConfig()
	cfg.Search.DefaultLimit = 3
	cfg.Search.MaxLimit = 5

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero means default", 0, 3},
		{"within range", 4, 4},
		{"above max is clamped", 500, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			src := mocks.NewMockPlaceSource(ctrl)
			src.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(raws, nil)

			svc := New(src, mocks.NewMockProber(ctrl), cfg, nil)

			got, err := svc.Search(context.Background(), models.SearchFilter{Region: "SP", Niche: "Padarias", Limit: tt.limit})
			require.NoError(t, err)
			require.Len(t, got, tt.want)
		})
	}
}

func TestSearch_ProviderError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockPlaceSource(ctrl)
	src.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("serpapi: status=500"))

	svc := New(src, mocks.NewMockProber(ctrl), testConfig(), nil)

	_, err := svc.Search(context.Background(), models.SearchFilter{Region: "SP", Niche: "Padarias"})
	require.ErrorIs(t, err, ErrProvider)
	require.Contains(t, err.Error(), "status=500")
}

func TestSearch_ProviderCanceled_NotProviderError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockPlaceSource(ctrl)
	src.EXPECT().
		Search(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("serpapi: %w", context.Canceled))

	svc := New(src, mocks.NewMockProber(ctrl), testConfig(), nil)

	_, err := svc.Search(context.Background(), models.SearchFilter{Region: "SP", Niche: "Padarias"})
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, ErrProvider)
}

func TestSearch_DeadlineAbandonsSlowProbes(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockPlaceSource(ctrl)
	src.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return([]models.RawPlace{
		{PlaceID: "fast", Title: "Fast", Website: "https://fast.example"},
		{PlaceID: "slow", Title: "Slow", Website: "https://slow.example"},
	}, nil)

	prober := proberFunc(func(ctx context.Context, url string) (models.WebsiteProbeResult, error) {
		if strings.Contains(url, "slow") {
			<-ctx.Done()
			return models.WebsiteProbeResult{}, ctx.Err()
		}
		return updated(ctx, url)
	})

	cfg := testConfig()
	cfg.Search.ProbeDeadline = 50 * time.Millisecond
	svc := New(src, prober, cfg, nil)

	start := time.Now()
	got, err := svc.Search(context.Background(), models.SearchFilter{Region: "SP", Niche: "Padarias"})
	require.NoError(t, err)
	require.Less(t, time.Since(start), time.Second)
	require.Len(t, got, 2)

	require.Equal(t, models.StatusUpdated, got[0].WebsiteStatus)

	require.True(t, got[1].HasWebsite)
	require.Equal(t, models.StatusUnknown, got[1].WebsiteStatus)
	require.Nil(t, got[1].WebsiteInfo)
}

// reachAll — первый этап, всегда отвечающий 200.
type reachAll struct{}

func (reachAll) Check(context.Context, string) website.CheckResult {
	return website.CheckResult{Accessible: true, StatusCode: 200}
}

// oneTab — рендерер на одну вкладку с фиксированным временем рендера.
type oneTab struct {
	slot  chan struct{}
	delay time.Duration
}

func (o oneTab) Extract(ctx context.Context, _ string) (models.PageSignals, error) {
	select {
	case o.slot <- struct{}{}:
	case <-ctx.Done():
		return models.PageSignals{}, fmt.Errorf("website/renderer/Acquire: %w", ctx.Err())
	}
	defer func() { <-o.slot }()

	select {
	case <-time.After(o.delay):
		return models.PageSignals{Title: "Padaria", HasCurrentYear: true, HasPhone: true, BodyLength: 4000}, nil
	case <-ctx.Done():
		return models.PageSignals{}, ctx.Err()
	}
}

// Сайты, не дождавшиеся вкладки до таймаута пробы, остаются unknown.
func TestSearch_QueuedRendersStayUnknown(t *testing.T) {
	t.Parallel()

	raw := make([]models.RawPlace, 0, 6)
	for i := 0; i < 6; i++ {
		raw = append(raw, models.RawPlace{
			PlaceID: fmt.Sprintf("p%d", i),
			Title:   fmt.Sprintf("Padaria %d", i),
			Website: fmt.Sprintf("https://padaria%d.com.br", i),
		})
	}

	ctrl := gomock.NewController(t)
	src := mocks.NewMockPlaceSource(ctrl)
	src.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return(raw, nil)

	sched := probe.New(reachAll{}, oneTab{slot: make(chan struct{}, 1), delay: 60 * time.Millisecond},
		probe.Config{Timeout: 200 * time.Millisecond}, nil)
	svc := New(src, sched, testConfig(), nil)

	got, err := svc.Search(context.Background(), models.SearchFilter{Region: "SP", Niche: "Padarias"})
	require.NoError(t, err)
	require.Len(t, got, 6)

	updatedN, unknownN := 0, 0
	for _, b := range got {
		require.NotEqual(t, models.StatusError, b.WebsiteStatus, b.Website)
		switch b.WebsiteStatus {
		case models.StatusUpdated:
			updatedN++
		case models.StatusUnknown:
			unknownN++
			require.Nil(t, b.WebsiteInfo)
		}
	}
	require.Positive(t, updatedN)
	require.Positive(t, unknownN)
	require.Equal(t, 6, updatedN+unknownN)
}

func TestSearch_ProbePanicAffectsOnlyThatBusiness(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockPlaceSource(ctrl)
	src.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return([]models.RawPlace{
		{PlaceID: "a", Title: "A", Website: "https://a.example"},
		{PlaceID: "b", Title: "B", Website: "https://boom.example"},
		{PlaceID: "c", Title: "C", Website: "https://c.example"},
	}, nil)

	prober := proberFunc(func(ctx context.Context, url string) (models.WebsiteProbeResult, error) {
		if strings.Contains(url, "boom") {
			panic("renderer exploded")
		}
		return updated(ctx, url)
	})

	svc := New(src, prober, testConfig(), nil)

	got, err := svc.Search(context.Background(), models.SearchFilter{Region: "SP", Niche: "Padarias"})
	require.NoError(t, err)
	require.Equal(t, models.StatusUpdated, got[0].WebsiteStatus)
	require.Equal(t, models.StatusError, got[1].WebsiteStatus)
	require.Contains(t, got[1].WebsiteInfo.Error, "renderer exploded")
	require.Equal(t, models.StatusUpdated, got[2].WebsiteStatus)
}

func TestSearch_CallerCanceled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockPlaceSource(ctrl)
	src.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return([]models.RawPlace{
		{PlaceID: "a", Title: "A", Website: "https://a.example"},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prober := proberFunc(func(pctx context.Context, url string) (models.WebsiteProbeResult, error) {
		cancel()
		<-pctx.Done()
		return models.WebsiteProbeResult{}, pctx.Err()
	})

	svc := New(src, prober, testConfig(), nil)

	_, err := svc.Search(ctx, models.SearchFilter{Region: "SP", Niche: "Padarias"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSearch_SocialFilters(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockPlaceSource(ctrl)
	src.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Return([]models.RawPlace{
		{PlaceID: "fb", Title: "A", Links: map[string]string{"facebook": "https://facebook.com/a"}},
		{PlaceID: "fb-ifood", Title: "B", Links: map[string]string{
			"facebook":     "https://facebook.com/b",
			"order_online": "https://www.ifood.com.br/b",
		}},
		{PlaceID: "none", Title: "C"},
	}, nil)

	svc := New(src, mocks.NewMockProber(ctrl), testConfig(), nil)

	got, err := svc.Search(context.Background(), models.SearchFilter{
		Region: "SP", Niche: "Padarias",
		HasFacebook: models.Include,
		HasIfood:    models.Exclude,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"fb"}, ids(got))
}

func TestDetails(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockPlaceSource(ctrl)
	prober := mocks.NewMockProber(ctrl)

	src.EXPECT().Details(gomock.Any(), "0x94ce59:0x1a", ptBR).Return(models.RawPlace{
		PlaceID:     "ChIJ-real",
		DataID:      "0x94ce59:0x1a",
		Title:       "Padaria Real",
		Website:     "https://padariareal.com.br",
		Photos:      []string{"https://img/1.jpg"},
		ReviewItems: []json.RawMessage{json.RawMessage(`{"rating": 5}`), json.RawMessage(`{broken`)},
	}, nil)
	prober.EXPECT().
		Probe(gomock.Any(), "https://padariareal.com.br").
		Return(models.WebsiteProbeResult{Status: models.StatusOutdated, Accessible: true, StatusCode: 200}, nil)

	svc := New(src, prober, testConfig(), nil)

	got, err := svc.Details(context.Background(), " 0x94ce59:0x1a ")
	require.NoError(t, err)
	require.Equal(t, "0x94ce59:0x1a", got.ID)
	require.Equal(t, models.StatusOutdated, got.WebsiteStatus)
	require.Equal(t, []string{"https://img/1.jpg"}, got.Photos)
	require.Equal(t, []any{map[string]any{"rating": float64(5)}}, got.Reviews)
}

func TestDetails_NoWebsite_NotProbed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := mocks.NewMockPlaceSource(ctrl)
	src.EXPECT().Details(gomock.Any(), "p1", ptBR).Return(models.RawPlace{PlaceID: "p1", Title: "X"}, nil)

	svc := New(src, mocks.NewMockProber(ctrl), testConfig(), nil)

	got, err := svc.Details(context.Background(), "p1")
	require.NoError(t, err)
	require.False(t, got.HasWebsite)
	require.Equal(t, models.StatusUnknown, got.WebsiteStatus)
	require.NotNil(t, got.Photos)
	require.NotNil(t, got.Reviews)
}

func TestDetails_Errors(t *testing.T) {
	t.Parallel()

	t.Run("empty id", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		svc := New(mocks.NewMockPlaceSource(ctrl), mocks.NewMockProber(ctrl), testConfig(), nil)

		_, err := svc.Details(context.Background(), "  ")
		require.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		src := mocks.NewMockPlaceSource(ctrl)
		src.EXPECT().Details(gomock.Any(), "missing", ptBR).Return(models.RawPlace{}, fmt.Errorf("serpapi: %w", places.ErrNotFound))

		svc := New(src, mocks.NewMockProber(ctrl), testConfig(), nil)

		_, err := svc.Details(context.Background(), "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		src := mocks.NewMockPlaceSource(ctrl)
		src.EXPECT().Details(gomock.Any(), "p1", ptBR).Return(models.RawPlace{}, errors.New("boom"))

		svc := New(src, mocks.NewMockProber(ctrl), testConfig(), nil)

		_, err := svc.Details(context.Background(), "p1")
		require.ErrorIs(t, err, ErrProvider)
	})
}
