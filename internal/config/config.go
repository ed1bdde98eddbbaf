// config предоставляет структуру конфигурации business-finder
// и функции загрузки из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
//
// ENV всегда перекрывает значения из файла.
type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	CORS     CORSConfig     `yaml:"cors"`
	Places   PlacesConfig   `yaml:"places"`
	Probe    ProbeConfig    `yaml:"probe"`
	Renderer RendererConfig `yaml:"renderer"`
	Search   SearchConfig   `yaml:"search"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
}

// TimeoutConfig — таймаут обработки одного запроса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"60s"`
}

// HTTPConfig — публичный REST-сервер.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"3001"`
}

// GRPCConfig — gRPC-сервер (health-check).
type GRPCConfig struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50091"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// Addr возвращает адрес в формате host:port.
func (g GRPCConfig) Addr() string { return net.JoinHostPort(g.Host, g.Port) }

// CORSConfig — разрешённые источники для браузерного фронтенда.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
}

// PlacesConfig — провайдер поиска мест (SerpAPI).
type PlacesConfig struct {
	BaseURL  string        `yaml:"base_url" env:"PLACES_BASE_URL" env-default:"https://serpapi.com/search.json"`
	APIKey   string        `yaml:"api_key"  env:"SERPAPI_KEY"`
	Language string        `yaml:"language" env:"PLACES_LANGUAGE" env-default:"pt"`
	Country  string        `yaml:"country"  env:"PLACES_COUNTRY"  env-default:"br"`
	RPS      float64       `yaml:"rps"      env:"PLACES_RPS"      env-default:"5"`
	Burst    int           `yaml:"burst"    env:"PLACES_BURST"    env-default:"5"`
	Timeout  time.Duration `yaml:"timeout"  env:"PLACES_TIMEOUT"  env-default:"20s"`
}

// ProbeConfig — планировщик и первый этап пробы сайтов.
type ProbeConfig struct {
	ReachTimeout     time.Duration `yaml:"reach_timeout"     env:"PROBE_REACH_TIMEOUT"     env-default:"5s"`
	ReachConcurrency int           `yaml:"reach_concurrency" env:"PROBE_REACH_CONCURRENCY" env-default:"20"`
	UserAgent        string        `yaml:"user_agent"        env:"PROBE_USER_AGENT"`
	// ChromeTLS — TLS-отпечаток Chrome (utls) для первого этапа.
	ChromeTLS bool          `yaml:"chrome_tls" env:"PROBE_CHROME_TLS" env-default:"false"`
	CacheTTL  time.Duration `yaml:"cache_ttl"  env:"PROBE_CACHE_TTL"  env-default:"5m"`
	CacheSize int           `yaml:"cache_size" env:"PROBE_CACHE_SIZE" env-default:"1024"`
	// Timeout — потолок одной пробы целиком.
	Timeout time.Duration `yaml:"timeout" env:"PROBE_TIMEOUT" env-default:"30s"`
}

// RendererConfig — общий headless-браузер.
type RendererConfig struct {
	MaxPages    int           `yaml:"max_pages"    env:"RENDERER_MAX_PAGES"    env-default:"5"`
	NavTimeout  time.Duration `yaml:"nav_timeout"  env:"RENDERER_NAV_TIMEOUT"  env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"RENDERER_IDLE_TIMEOUT" env-default:"2m"`
	// RemoteURL — DevTools endpoint внешнего браузера; пусто — локальный запуск.
	RemoteURL string `yaml:"remote_url" env:"RENDERER_REMOTE_URL"`
	ExecPath  string `yaml:"exec_path"  env:"RENDERER_EXEC_PATH"`
	// Headful — запуск с окном (отладка); по умолчанию headless.
	Headful bool `yaml:"headful" env:"RENDERER_HEADFUL"`
}

// SearchConfig — лимиты выдачи и дедлайн фазы проб.
type SearchConfig struct {
	// Применяется при запросе с limit=0.
	DefaultLimit int `yaml:"default_limit" env:"SEARCH_DEFAULT_LIMIT" env-default:"20"`
	// Верхняя граница для limit.
	MaxLimit int `yaml:"max_limit" env:"SEARCH_MAX_LIMIT" env-default:"100"`
	// Незавершённые к дедлайну пробы бросаются, статус остаётся unknown.
	ProbeDeadline time.Duration `yaml:"probe_deadline" env:"SEARCH_PROBE_DEADLINE" env-default:"45s"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию согласно приоритету источников.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	var (
		c   *Config
		err error
	)

	switch envPath := os.Getenv("CONFIG_PATH"); {
	// 1) --config.
	case path != "":
		c, err = tryRead(path)
	// 2) CONFIG_PATH.
	case envPath != "":
		c, err = tryRead(envPath)
	default:
		// 3) ./local.yaml.
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			c, err = tryRead("local.yaml")
			break
		}

		// 4) Только ENV.
		if err = cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
		c = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	if c.Places.BaseURL == "" {
		return fmt.Errorf("places.base_url is required")
	}
	if c.Places.RPS < 0 {
		return fmt.Errorf("places.rps must be >= 0")
	}
	if c.Probe.ReachTimeout <= 0 {
		return fmt.Errorf("probe.reach_timeout must be > 0")
	}
	if c.Probe.ReachConcurrency <= 0 {
		return fmt.Errorf("probe.reach_concurrency must be > 0")
	}
	if c.Probe.CacheSize <= 0 {
		return fmt.Errorf("probe.cache_size must be > 0")
	}
	if c.Renderer.MaxPages <= 0 {
		return fmt.Errorf("renderer.max_pages must be > 0")
	}
	if c.Renderer.NavTimeout <= 0 {
		return fmt.Errorf("renderer.nav_timeout must be > 0")
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be > 0")
	}
	if c.Search.MaxLimit <= 0 {
		return fmt.Errorf("search.max_limit must be > 0")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit must be <= search.max_limit")
	}
	if c.Search.ProbeDeadline <= 0 {
		return fmt.Errorf("search.probe_deadline must be > 0")
	}
	if c.Timeouts.Service > 0 && c.Search.ProbeDeadline >= c.Timeouts.Service {
		return fmt.Errorf("search.probe_deadline must be < timeouts.service")
	}

	return nil
}
