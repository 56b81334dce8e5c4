package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliWithPath returns a CLI struct pointing at the given config file.
func cliWithPath(path string) *CLI {
	return &CLI{Config: path}
}

// clearBackendEnv blanks the backend URL settings so the host environment
// cannot leak into a test.
func clearBackendEnv(t *testing.T) {
	t.Helper()
	for _, key := range backendURLKeys {
		t.Setenv(key, "")
	}
}

// writeConfig writes data to a config.toml in a fresh temp dir and returns its path.
func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	clearBackendEnv(t)
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000
body_max_bytes = 5242880

[upstream]
base_url = "https://docs.internal:8443"
timeout_seconds = 60
idle_connections = 50
max_response_bytes = 2048
escape_document_id = true

[log]
level = "debug"
format = "text"
`)

	cfg, err := Load(cliWithPath(path))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, int64(5242880), cfg.Server.BodyMaxBytes)
	assert.Equal(t, "https://docs.internal:8443", cfg.Upstream.BaseURL)
	assert.Equal(t, 60, cfg.Upstream.TimeoutSeconds)
	assert.Equal(t, int64(2048), cfg.Upstream.MaxResponseBytes)
	assert.True(t, cfg.Upstream.EscapeDocumentID)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_Defaults(t *testing.T) {
	clearBackendEnv(t)
	path := writeConfig(t, "# empty\n")

	cfg, err := Load(cliWithPath(path))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, int64(1024*1024), cfg.Server.BodyMaxBytes)
	assert.Equal(t, DefaultBackendURL, cfg.Upstream.BaseURL)
	assert.Equal(t, 120, cfg.Upstream.TimeoutSeconds)
	assert.Equal(t, 100, cfg.Upstream.IdleConnections)
	assert.Equal(t, int64(10*1024*1024), cfg.Upstream.MaxResponseBytes)
	assert.False(t, cfg.Upstream.EscapeDocumentID)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	clearBackendEnv(t)
	orig := configSearchPaths
	configSearchPaths = []string{filepath.Join(t.TempDir(), "missing.toml")}
	t.Cleanup(func() { configSearchPaths = orig })

	cfg, err := Load(&CLI{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBackendURL, cfg.Upstream.BaseURL)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(cliWithPath("/nonexistent/config.toml"))
	require.Error(t, err)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeConfig(t, "[server\nport = ")
	_, err := Load(cliWithPath(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad_CLIOverrides(t *testing.T) {
	clearBackendEnv(t)
	path := writeConfig(t, `
[server]
host = "0.0.0.0"
port = 8000

[upstream]
base_url = "http://file-backend:8000"

[log]
level = "info"
`)

	cli := &CLI{
		Config:     path,
		Host:       "127.0.0.1",
		Port:       4000,
		BackendURL: "http://cli-backend:9000",
		LogLevel:   "debug",
	}

	cfg, err := Load(cli)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "http://cli-backend:9000", cfg.Upstream.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_BackendURLFromEnvironment(t *testing.T) {
	clearBackendEnv(t)
	t.Setenv("NEXT_PUBLIC_BACKEND_URL", "https://public.example.com")
	path := writeConfig(t, `
[upstream]
base_url = "http://file-backend:8000"
`)

	cfg, err := Load(cliWithPath(path))
	require.NoError(t, err)
	assert.Equal(t, "https://public.example.com", cfg.Upstream.BaseURL)
}

func TestLoad_BackendURLFromEnvFile(t *testing.T) {
	clearBackendEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("BACKEND_URL=http://dotenv-backend:7000\n"), 0o600))
	path := writeConfig(t, "# empty\n")

	cfg, err := Load(&CLI{Config: path, EnvFile: envPath})
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv-backend:7000", cfg.Upstream.BaseURL)
	assert.Empty(t, os.Getenv("BACKEND_URL"), ".env values must not leak into the process environment")
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	clearBackendEnv(t)
	path := writeConfig(t, "# empty\n")

	cfg, err := Load(&CLI{Config: path, EnvFile: filepath.Join(t.TempDir(), ".env")})
	require.NoError(t, err)
	assert.Equal(t, DefaultBackendURL, cfg.Upstream.BaseURL)
}

func TestLoad_InvalidBackendURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"unsupported scheme", "ftp://docs.example.com"},
		{"no scheme", "localhost:8000"},
		{"no host", "http://"},
		{"unparseable", "http://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearBackendEnv(t)
			path := writeConfig(t, "# empty\n")
			_, err := Load(&CLI{Config: path, BackendURL: tt.url})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "backend URL")
		})
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"negative port", "[server]\nport = -1\n", "server.port"},
		{"port too large", "[server]\nport = 70000\n", "server.port"},
		{"negative body_max_bytes", "[server]\nbody_max_bytes = -1\n", "server.body_max_bytes"},
		{"negative timeout", "[upstream]\ntimeout_seconds = -5\n", "upstream.timeout_seconds"},
		{"negative idle connections", "[upstream]\nidle_connections = -1\n", "upstream.idle_connections"},
		{"negative max response", "[upstream]\nmax_response_bytes = -1\n", "upstream.max_response_bytes"},
		{"rate limit without rps", "[server.rate_limit]\nenabled = true\nrequests_per_second = 0\n", "requests_per_second"},
		{"invalid log level", "[log]\nlevel = \"verbose\"\n", "log.level"},
		{"invalid log format", "[log]\nformat = \"xml\"\n", "log.format"},
		{"metrics path without slash", "[metrics]\nenabled = true\npath = \"metrics\"\n", "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearBackendEnv(t)
			_, err := Load(cliWithPath(writeConfig(t, tt.data)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_RateLimitConfig(t *testing.T) {
	clearBackendEnv(t)
	path := writeConfig(t, `
[server.rate_limit]
enabled = true
requests_per_second = 50.0
`)

	cfg, err := Load(cliWithPath(path))
	require.NoError(t, err)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.InDelta(t, 50.0, cfg.Server.RateLimit.RequestsPerSecond, 0)
}

func TestLoad_MetricsPathConflictsWithRoute(t *testing.T) {
	for _, p := range []string{"/api/documents", "/api/documents/metrics", "/healthz", "/proxy/status"} {
		t.Run(p, func(t *testing.T) {
			clearBackendEnv(t)
			path := writeConfig(t, "[metrics]\nenabled = true\npath = \""+p+"\"\n")
			_, err := Load(cliWithPath(path))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "conflicts")
		})
	}
}

func TestLoad_MetricsDisabledSkipsPathValidation(t *testing.T) {
	clearBackendEnv(t)
	path := writeConfig(t, "[metrics]\nenabled = false\npath = \"bad-no-slash\"\n")
	_, err := Load(cliWithPath(path))
	require.NoError(t, err)
}

func TestWarnPermissions_Loose(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on Windows")
	}
	path := writeConfig(t, "# test")
	require.NoError(t, os.Chmod(path, 0o644))

	cfg := &Config{filePath: path}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.WarnPermissions(logger)

	assert.Contains(t, buf.String(), "readable by group/others")
}

func TestWarnPermissions_Strict(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on Windows")
	}
	path := writeConfig(t, "# test")
	require.NoError(t, os.Chmod(path, 0o600))

	cfg := &Config{filePath: path}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	cfg.WarnPermissions(logger)

	assert.Zero(t, buf.Len())
}

func TestFindConfigInPaths(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	path1 := filepath.Join(dir1, "config.toml")
	path2 := filepath.Join(dir2, "config.toml")
	for _, p := range []string{path1, path2} {
		require.NoError(t, os.WriteFile(p, []byte("# test\n"), 0o644))
	}

	assert.Equal(t, path1, findConfigInPaths([]string{path1, path2}))
	assert.Equal(t, path2, findConfigInPaths([]string{"/nonexistent/a.toml", path2}))
	assert.Empty(t, findConfigInPaths([]string{"/nonexistent/a.toml", "/nonexistent/b.toml"}))
}

func TestServerConfig_Addr(t *testing.T) {
	sc := &ServerConfig{Host: "127.0.0.1", Port: 3000}
	assert.Equal(t, "127.0.0.1:3000", sc.Addr())
}
