package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/logger"
)

func TestMain(m *testing.M) {
	logger.SetGlobalLogger(logger.Nop())
	os.Exit(m.Run())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yml", `
name: barman
logging:
  level: debug
  format: json
command:
  path: /usr/lib/postgresql/16/bin:/usr/bin
  retry_times: 3
  retry_sleep: 30s
  env:
    LANG: C
  forward_signals: true
rsync:
  ssh: ssh
  ssh_options: ["-p", "2222"]
  network_compression: true
  bwlimit: 1024
  exclude_and_protect: ["/pg_tblspc"]
postgres:
  app_name: barman_streaming
  immediate_checkpoint: true
  compression:
    type: gzip
    level: 5
    location: server
gpg:
  recipient: BACKUPKEY
subprocess:
  config_path: /etc/barman.conf
`)

	cfg, err := Load("barman", WithConfigFile(configPath), WithEnvFile(filepath.Join(dir, "missing.env")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Name != "barman" || cfg.Logging.ServiceName != "barman" {
		t.Errorf("unexpected names %q / %q", cfg.Name, cfg.Logging.ServiceName)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
	if cfg.Command.RetryTimes != 3 || cfg.Command.RetrySleep != 30*time.Second {
		t.Errorf("unexpected retry policy %+v", cfg.Command)
	}
	if diff := cmp.Diff(map[string]string{"lang": "C"}, lowerKeys(cfg.Command.Env)); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}
	if !cfg.Command.ForwardSignals {
		t.Error("expected signal forwarding")
	}
	if diff := cmp.Diff([]string{"-p", "2222"}, cfg.Rsync.SSHOptions); diff != "" {
		t.Errorf("ssh options mismatch (-want +got):\n%s", diff)
	}
	if cfg.Rsync.BwLimit != 1024 || !cfg.Rsync.NetworkCompression {
		t.Errorf("unexpected rsync %+v", cfg.Rsync)
	}
	if c := cfg.Postgres.Compression; c == nil || c.Type != "gzip" || c.Level == nil || *c.Level != 5 || c.Location != "server" {
		t.Errorf("unexpected compression %+v", c)
	}
	if cfg.GPG.Recipient != "BACKUPKEY" {
		t.Errorf("unexpected gpg %+v", cfg.GPG)
	}
	if cfg.Subprocess.ConfigPath != "/etc/barman.conf" {
		t.Errorf("unexpected subprocess %+v", cfg.Subprocess)
	}
	if got := len(cfg.Command.Options()); got != 4 {
		t.Errorf("expected 4 command options, got %d", got)
	}
}

// lowerKeys normalizes map keys; viper folds keys to lower case.
func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", WithConfigFile("/nonexistent/path.yml"), WithEnvFile("/nonexistent/.env"))
	if err != nil {
		t.Fatalf("expected Load to succeed with missing files, got %v", err)
	}
	if cfg.Name != DefaultName {
		t.Errorf("expected default name, got %q", cfg.Name)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging defaults %+v", cfg.Logging)
	}
	if cfg.Telemetry.Tracing.Endpoint != "" {
		t.Error("telemetry defaults must only apply when enabled")
	}
}

func TestTelemetryDefaults(t *testing.T) {
	cfg := Config{Name: "barman", Telemetry: TelemetryConfig{Enabled: true}}
	cfg.ApplyDefaults()
	if cfg.Telemetry.Tracing.ServiceName != "barman" || cfg.Telemetry.Tracing.Endpoint == "" {
		t.Errorf("unexpected tracing defaults %+v", cfg.Telemetry.Tracing)
	}
	if cfg.Telemetry.Metrics.Interval != 15*time.Second {
		t.Errorf("unexpected metrics defaults %+v", cfg.Telemetry.Metrics)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yml", "rsync:\n  bwlimit: 10\n")
	envPath := writeFile(t, dir, "test.env", "GPG_RECIPIENT=FROMDOTENV\n")
	t.Setenv("RSYNC_BWLIMIT", "20")
	t.Cleanup(func() { os.Unsetenv("GPG_RECIPIENT") })

	cfg, err := Load("barman", WithConfigFile(configPath), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Rsync.BwLimit != 20 {
		t.Errorf("expected environment to override file, got %d", cfg.Rsync.BwLimit)
	}
	if cfg.GPG.Recipient != "FROMDOTENV" {
		t.Errorf("expected .env value, got %q", cfg.GPG.Recipient)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"negative retries", func(c *Config) { c.Command.RetryTimes = -1 }, "command.retry_times"},
		{"negative bwlimit", func(c *Config) { c.Rsync.BwLimit = -1 }, "rsync.bwlimit"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{}
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yml", "command:\n  retry_times: -2\n")
	_, err := Load("barman", WithConfigFile(configPath), WithEnvFile("/nonexistent/.env"))
	if !errors.HasCode(err, errors.ErrCodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

type mockFS struct {
	files     map[string]bool
	configDir string
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(string) error { return nil }
func (m *mockFS) UserConfigDir() (string, error) { return m.configDir, nil }

func TestResolverSearchOrder(t *testing.T) {
	tests := []struct {
		name       string
		files      []string
		wantConfig string
		wantEnv    string
	}{
		{"nothing", nil, "", ""},
		{"named file first", []string{"./barman.yml", "./config.yml"}, "./barman.yml", ""},
		{"user config dir", []string{"/home/u/.config/barman/config.yml", "/etc/barman/config.yml"}, "/home/u/.config/barman/config.yml", ""},
		{"system config", []string{"/etc/barman/config.yml"}, "/etc/barman/config.yml", ""},
		{"named env first", []string{"./.env", "./.env.barman"}, "", "./.env.barman"},
		{"env in config dir", []string{"./config/.env"}, "", "./config/.env"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := &mockFS{files: map[string]bool{}, configDir: "/home/u/.config"}
			for _, f := range tc.files {
				fs.files[f] = true
			}
			resolver := &Resolver{FileSystem: fs}
			got := resolver.ResolveFiles("barman", LoaderConfig{})
			want := ResolvedFiles{ConfigFile: tc.wantConfig, EnvFile: tc.wantEnv}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("resolved files mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolverExplicitFiles(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{files: map[string]bool{"./config.yml": true}}}
	got := resolver.ResolveFiles("barman", LoaderConfig{ConfigFile: "/opt/c.yml", EnvFile: "/opt/.env"})
	if got.ConfigFile != "/opt/c.yml" || got.EnvFile != "/opt/.env" {
		t.Errorf("explicit files ignored: %+v", got)
	}
}

func TestLoaderOptions(t *testing.T) {
	var lc LoaderConfig
	fs := &mockFS{}
	WithFileSystem(fs)(&lc)
	WithConfigFile("/path/to/config.yml")(&lc)
	WithEnvFile("/path/to/.env")(&lc)
	if lc.FileSystem != fs || lc.ConfigFile != "/path/to/config.yml" || lc.EnvFile != "/path/to/.env" {
		t.Errorf("unexpected loader config %+v", lc)
	}
}

func TestGenerateEnvKeyVariants(t *testing.T) {
	got := generateEnvKeyVariants("COMMAND_RETRY_SLEEP")
	for _, want := range []string{"command_retry_sleep", "command.retry.sleep", "command.retry_sleep"} {
		found := false
		for _, v := range got {
			if v == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected variant %q in %v", want, got)
		}
	}
	if diff := cmp.Diff([]string{"path"}, generateEnvKeyVariants("PATH")); diff != "" {
		t.Errorf("single-part key mismatch (-want +got):\n%s", diff)
	}
}
