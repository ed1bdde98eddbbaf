// interceptors — серверные unary-интерсепторы gRPC business-finder:
// восстановление после паник, логирование вызовов и дедлайн по умолчанию.
//
// Порядок в цепочке: Recover, UnaryLoggingInterceptor, WithTimeout.
package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// WithTimeout навешивает дедлайн d на вызов без дедлайна.
// d <= 0 и уже заданный клиентом дедлайн оставляют контекст как есть;
// по истечении d обработчик видит context.DeadlineExceeded, что рантайм
// переводит в codes.DeadlineExceeded.
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, has := ctx.Deadline(); d <= 0 || has {
			return handler(ctx, req)
		}

		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return handler(ctx, req)
	}
}
