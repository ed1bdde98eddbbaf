package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile — утилита записи временного файла конфигурации.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// chdir — смена текущего рабочего каталога с авто-возвратом.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// Полный корректный YAML под текущую структуру config.go.
const sampleYAML = `
env: "prod"
http:
  host: "0.0.0.0"
  port: "8080"
grpc:
  host: "127.0.0.1"
  port: "50091"
cors:
  allowed_origins: ["https://finder.example.com"]
places:
  base_url: "http://serpapi.local/search.json"
  api_key: "secret"
  language: "pt"
  country: "br"
  rps: 2
  burst: 4
  timeout: "7s"
probe:
  reach_timeout: "4s"
  reach_concurrency: 10
  chrome_tls: true
  cache_ttl: "1m"
  cache_size: 64
  timeout: "20s"
renderer:
  max_pages: 3
  nav_timeout: "12s"
  idle_timeout: "30s"
  remote_url: "ws://chrome:9222"
search:
  default_limit: 10
  max_limit: 50
  probe_deadline: "25s"
timeouts:
  service: "40s"
`

// Минимальный YAML (всё остальное — через дефолты/ENV).
const minimalYAML = `
env: "dev"
`

// Некорректный YAML для проверки сообщений об ошибке.
const brokenYAML = `
env: [unclosed
`

func TestAddr(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0.0.0.0:3001", HTTPConfig{Host: "0.0.0.0", Port: "3001"}.Addr())
	require.Equal(t, "127.0.0.1:50091", GRPCConfig{Host: "127.0.0.1", Port: "50091"}.Addr())
}

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "8080", cfg.HTTP.Port)
	require.Equal(t, "127.0.0.1:50091", cfg.GRPC.Addr())
	require.Equal(t, []string{"https://finder.example.com"}, cfg.CORS.AllowedOrigins)

	require.Equal(t, "http://serpapi.local/search.json", cfg.Places.BaseURL)
	require.Equal(t, "secret", cfg.Places.APIKey)
	require.Equal(t, 2.0, cfg.Places.RPS)
	require.Equal(t, 4, cfg.Places.Burst)
	require.Equal(t, 7*time.Second, cfg.Places.Timeout)

	require.Equal(t, 4*time.Second, cfg.Probe.ReachTimeout)
	require.Equal(t, 10, cfg.Probe.ReachConcurrency)
	require.True(t, cfg.Probe.ChromeTLS)
	require.Equal(t, time.Minute, cfg.Probe.CacheTTL)
	require.Equal(t, 64, cfg.Probe.CacheSize)

	require.Equal(t, 3, cfg.Renderer.MaxPages)
	require.Equal(t, 12*time.Second, cfg.Renderer.NavTimeout)
	require.Equal(t, "ws://chrome:9222", cfg.Renderer.RemoteURL)
	require.False(t, cfg.Renderer.Headful)

	require.Equal(t, 10, cfg.Search.DefaultLimit)
	require.Equal(t, 50, cfg.Search.MaxLimit)
	require.Equal(t, 25*time.Second, cfg.Search.ProbeDeadline)
	require.Equal(t, 40*time.Second, cfg.Timeouts.Service)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "min.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "3001", cfg.HTTP.Port)
	require.Equal(t, "pt", cfg.Places.Language)
	require.Equal(t, "br", cfg.Places.Country)
	require.Equal(t, 5*time.Second, cfg.Probe.ReachTimeout)
	require.Equal(t, 20, cfg.Probe.ReachConcurrency)
	require.Equal(t, 5*time.Minute, cfg.Probe.CacheTTL)
	require.Equal(t, 5, cfg.Renderer.MaxPages)
	require.Equal(t, 10*time.Second, cfg.Renderer.NavTimeout)
	require.Equal(t, 20, cfg.Search.DefaultLimit)
	require.Equal(t, 100, cfg.Search.MaxLimit)
	require.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "stat failed")
}

func TestLoad_WithCONFIG_PATH_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "from_env_path.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
}

func TestLoad_WithLocalYAML_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, ".", "local.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "8080", cfg.HTTP.Port)
}

// Явный путь важнее CONFIG_PATH и local.yaml.
func TestLoad_Priority_ExplicitWinsOverEnvAndLocal(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	explicit := writeFile(t, dir, "explicit.yaml", `
env: "prod"
http: { host: "0.0.0.0", port: "8080" }
`)
	badFromEnv := writeFile(t, dir, "bad.yaml", brokenYAML)
	t.Setenv("CONFIG_PATH", badFromEnv)
	writeFile(t, ".", "local.yaml", `
env: "local"
http: { host: "127.0.0.1", port: "9999" }
`)

	cfg, err := Load(explicit)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "8080", cfg.HTTP.Port)
}

func TestLoad_EnvOverlay_OverridesValuesFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("HTTP_PORT", "18080")
	t.Setenv("SERPAPI_KEY", "from-env")
	t.Setenv("PROBE_REACH_CONCURRENCY", "7")
	t.Setenv("RENDERER_HEADFUL", "true")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "18080", cfg.HTTP.Port)
	require.Equal(t, "from-env", cfg.Places.APIKey)
	require.Equal(t, 7, cfg.Probe.ReachConcurrency)
	require.True(t, cfg.Renderer.Headful)
}

// «Только ENV» без файлов.
func TestLoad_EnvOnly_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("CONFIG_PATH", "")

	t.Setenv("ENV", "prod")
	t.Setenv("HTTP_PORT", "8081")
	t.Setenv("SERPAPI_KEY", "k")
	t.Setenv("SEARCH_MAX_LIMIT", "60")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "8081", cfg.HTTP.Port)
	require.Equal(t, "k", cfg.Places.APIKey)
	require.Equal(t, 60, cfg.Search.MaxLimit)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			Places:   PlacesConfig{BaseURL: "http://x", RPS: 1},
			Probe:    ProbeConfig{ReachTimeout: time.Second, ReachConcurrency: 1, CacheSize: 1},
			Renderer: RendererConfig{MaxPages: 1, NavTimeout: time.Second},
			Search:   SearchConfig{DefaultLimit: 20, MaxLimit: 100, ProbeDeadline: time.Second},
			Timeouts: TimeoutConfig{Service: 5 * time.Second},
		}
	}

	c := valid()
	require.NoError(t, c.validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"default above max", func(c *Config) { c.Search.DefaultLimit = 101 }, "search.default_limit must be <= search.max_limit"},
		{"no pages", func(c *Config) { c.Renderer.MaxPages = 0 }, "renderer.max_pages"},
		{"negative rps", func(c *Config) { c.Places.RPS = -1 }, "places.rps"},
		{"deadline past service timeout", func(c *Config) { c.Search.ProbeDeadline = 5 * time.Second }, "probe_deadline must be < timeouts.service"},
		{"no reach slots", func(c *Config) { c.Probe.ReachConcurrency = 0 }, "probe.reach_concurrency"},
	}

	for _, tt := range tests {
		c := valid()
		tt.mutate(&c)
		err := c.validate()
		require.Error(t, err, tt.name)
		require.Contains(t, err.Error(), tt.want, tt.name)
	}
}
