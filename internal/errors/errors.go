// errors стандартизирует ответы об ошибках HTTP-слоя business-finder.
//
// Ошибка сервиса сначала сводится к gRPC-коду (та же таблица, что у
// gRPC-транспорта), затем код переводится в HTTP-статус и короткий
// стабильный код для фронта. Детали ошибки наружу не утекают.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pribylovaa/go-business-finder/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrorResponse — единый формат ошибки для фронта.
// Error — короткий стабильный код; Message — безопасное описание;
// RequestID — из X-Request-Id (для трассировки).
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Code сводит ошибку к gRPC-коду:
//   - ErrInvalidArgument -> InvalidArgument;
//   - ErrNotFound -> NotFound;
//   - ErrProvider -> Unavailable;
//   - context.Canceled / DeadlineExceeded -> Canceled / DeadlineExceeded;
//   - gRPC-статус -> его код;
//   - прочее -> Internal.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, service.ErrInvalidArgument):
		return codes.InvalidArgument
	case errors.Is(err, service.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, service.ErrProvider):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}

	if st, ok := status.FromError(err); ok {
		return st.Code()
	}

	return codes.Internal
}

// ToHTTP конвертирует ошибку в HTTP-статус и тело ответа.
// err == nil — программная ошибка вызова: 500/internal.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, ErrorResponse{Error: "internal", Message: "internal error"}
	}

	httpStatus, code, msg := baseFromGRPC(Code(err))

	return httpStatus, ErrorResponse{Error: code, Message: msg}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromGRPC — маппинг gRPC -> HTTP/FE-код/сообщение:
//   - InvalidArgument -> 400
//   - NotFound -> 404
//   - Unavailable -> 502 (провайдер мест)
//   - Canceled -> 499
//   - DeadlineExceeded -> 504
//   - ResourceExhausted -> 429
//   - прочее -> 500
func baseFromGRPC(c codes.Code) (int, string, string) {
	switch c {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case codes.NotFound:
		return http.StatusNotFound, "not_found", "not found"
	case codes.Unavailable:
		return http.StatusBadGateway, "provider_unavailable", "place provider unavailable"
	case codes.Canceled:
		return StatusClientClosedRequest, "canceled", "canceled"
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests, "resource_exhausted", "resource exhausted"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
