package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	logctx "github.com/pribylovaa/go-business-finder/pkg/log"
)

// UnaryLoggingInterceptor кладёт в контекст логгер с request_id, method и peer
// и после вызова пишет одну запись "grpc" с кодом и длительностью.
//
// request_id берётся из metadata x-request-id (его же ставит HTTP-слой),
// иначе генерируется UUID. Серверные коды (Internal, Unknown, DataLoss,
// Unavailable) пишутся уровнем Warn, остальные Info.
func UnaryLoggingInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		l := base.With(
			slog.String("request_id", requestID(ctx)),
			slog.String("method", info.FullMethod),
			slog.String("peer", peerAddr(ctx)),
		)

		resp, err := handler(logctx.Into(ctx, l), req)

		code := status.Code(err)
		l.LogAttrs(ctx, levelFor(code), "grpc",
			slog.String("code", code.String()),
			slog.Duration("dur", time.Since(start)),
		)

		return resp, err
	}
}

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("x-request-id"); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}

	return uuid.NewString()
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p != nil && p.Addr != nil {
		return p.Addr.String()
	}

	return "-"
}

func levelFor(c codes.Code) slog.Level {
	switch c {
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unavailable:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
