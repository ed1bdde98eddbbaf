package interceptors

import (
	"context"
	"log/slog"
	"runtime/debug"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	logctx "github.com/pribylovaa/go-business-finder/pkg/log"
)

// Recover возвращает unary-интерсептор, который превращает панику обработчика
// в codes.Internal с нейтральным сообщением и пишет Error-запись
// (method, panic, stack). Логгер берётся из контекста, иначе base.
func Recover(base *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			l := logctx.From(ctx)
			if l == slog.Default() && base != nil {
				l = base
			}
			l.Error("panic_recovered",
				slog.String("method", info.FullMethod),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)

			resp, err = nil, status.Error(codes.Internal, "internal server error")
		}()

		return handler(ctx, req)
	}
}
