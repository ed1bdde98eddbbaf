// service содержит бизнес-логику business-finder:
// нормализацию выдачи провайдера, пробинг сайтов и фильтрацию.
package service

//go:generate mockgen -source=service.go -destination=../../mocks/mock_service.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/go-business-finder/internal/config"
	"github.com/pribylovaa/go-business-finder/internal/metrics"
	"github.com/pribylovaa/go-business-finder/internal/models"
)

var (
	// ErrInvalidArgument — некорректные входные аргументы (region/niche/limit/id).
	// Транспорт: codes.InvalidArgument.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound — провайдер не знает такого места.
	// Транспорт: codes.NotFound.
	ErrNotFound = errors.New("not found")
	// ErrProvider — провайдер мест недоступен или ответил мусором.
	// Транспорт: codes.Unavailable (HTTP 502).
	ErrProvider = errors.New("place provider failure")
)

// PlaceSource — внешний провайдер поиска мест.
type PlaceSource interface {
	Search(ctx context.Context, query string, loc models.Locale) ([]models.RawPlace, error)
	Details(ctx context.Context, id string, loc models.Locale) (models.RawPlace, error)
}

// Prober — пробинг одного сайта (планировщик проб).
// Сбои пробы возвращаются статусом; ошибка — только отмена ожидания.
type Prober interface {
	Probe(ctx context.Context, url string) (models.WebsiteProbeResult, error)
}

// Service — описывает бизнес-логику business-finder.
type Service struct {
	places  PlaceSource
	prober  Prober
	cfg     config.Config
	metrics *metrics.Search
	now     func() time.Time
}

// New создает новый экземпляр Service. m может быть nil.
func New(places PlaceSource, prober Prober, cfg config.Config, m *metrics.Search) *Service {
	return &Service{
		places:  places,
		prober:  prober,
		cfg:     cfg,
		metrics: m,
		now:     time.Now,
	}
}

func (s *Service) locale() models.Locale {
	return models.Locale{Language: s.cfg.Places.Language, Country: s.cfg.Places.Country}
}
