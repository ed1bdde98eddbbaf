package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pribylovaa/go-business-finder/internal/models"
	"github.com/pribylovaa/go-business-finder/internal/service"
)

// maxBodyBytes — потолок тела запроса поиска.
const maxBodyBytes = 64 << 10

// BusinessService — то, что хендлерам нужно от сервиса.
type BusinessService interface {
	Search(ctx context.Context, f models.SearchFilter) ([]models.Business, error)
	Details(ctx context.Context, id string) (models.BusinessDetails, error)
}

// Handlers агрегирует зависимости хендлеров.
type Handlers struct {
	Service BusinessService
}

func New(s BusinessService) *Handlers {
	return &Handlers{Service: s}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля
// и мусор после объекта.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(value); err != nil {
		return invalidArgument(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return invalidArgument(errors.New("trailing data after JSON body"))
	}

	return nil
}

// invalidArgument — локальная ошибка парсинга -> service.ErrInvalidArgument.
func invalidArgument(err error) error {
	return fmt.Errorf("%w: %v", service.ErrInvalidArgument, err)
}
