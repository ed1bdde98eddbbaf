package website

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"

	logctx "github.com/pribylovaa/go-business-finder/pkg/log"
)

const (
	// DefaultUserAgent — «браузерный» UA для первого этапа пробы.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	defaultReachTimeout = 5 * time.Second
	// drainLimit — сколько тела дочитываем, чтобы соединение вернулось в пул.
	drainLimit = 64 << 10
)

// ReachabilityConfig — параметры первого этапа пробы.
type ReachabilityConfig struct {
	Timeout   time.Duration
	UserAgent string
	// ChromeTLS включает TLS-отпечаток Chrome (utls) вместо стандартного crypto/tls.
	ChromeTLS bool
}

// CheckResult — итог одного GET.
// Accessible == (StatusCode == 200); StatusCode == 0, если ответа не было.
type CheckResult struct {
	Accessible bool
	StatusCode int
	Error      string
}

// Checker — первый этап пробы: один GET без ретраев.
type Checker struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewChecker собирает Checker с собственным транспортом.
func NewChecker(cfg ReachabilityConfig) *Checker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultReachTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &Checker{
		client:    &http.Client{Transport: newTransport(cfg.ChromeTLS)},
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
	}
}

// Check выполняет одиночный GET с жёстким таймаутом.
// Ошибки транспорта (DNS, TLS, таймаут, отказ соединения) не возвращаются
// наружу, а фиксируются в CheckResult.
func (c *Checker) Check(ctx context.Context, rawURL string) CheckResult {
	const op = "website/reachability/Check"

	log := logctx.From(ctx).With(slog.String("op", op))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return CheckResult{Error: err.Error()}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debug("reach_failed", slog.String("error", err.Error()))
		return CheckResult{Error: err.Error()}
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))

	if resp.StatusCode != http.StatusOK {
		log.Debug("reach_non_ok", slog.Int("status", resp.StatusCode))
		return CheckResult{
			StatusCode: resp.StatusCode,
			Error:      fmt.Sprintf("status=%d", resp.StatusCode),
		}
	}

	return CheckResult{Accessible: true, StatusCode: resp.StatusCode}
}

func newTransport(chromeTLS bool) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   defaultReachTimeout,
		KeepAlive: 30 * time.Second,
	}

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: defaultReachTimeout,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
	}

	if chromeTLS {
		tr.DialTLSContext = chromeDialer(dialer)
	}

	return tr
}

// chromeDialer — TLS с отпечатком Chrome; ALPN только http/1.1.
func chromeDialer(dialer *net.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
		if err != nil {
			conn.Close()
			return nil, err
		}
		for i, ext := range spec.Extensions {
			if alpn, ok := ext.(*utls.ALPNExtension); ok {
				alpn.AlpnProtocols = []string{"http/1.1"}
				spec.Extensions[i] = alpn
				break
			}
		}

		tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloCustom)
		if err := tlsConn.ApplyPreset(&spec); err != nil {
			conn.Close()
			return nil, err
		}
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}

		return tlsConn, nil
	}
}
