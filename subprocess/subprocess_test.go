package subprocess_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/subprocess"
)

func TestMain(m *testing.M) {
	logger.SetGlobalLogger(logger.Nop())
	os.Exit(m.Run())
}

func TestArgvDefaultProgram(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Skip(err)
	}
	s, err := subprocess.New(subprocess.Config{ConfigPath: "fake_conf"}, "fake-cmd", nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{exe, "-c", "fake_conf", "-q", "fake-cmd"}
	if diff := cmp.Diff(want, s.Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
}

func TestArgvInterpreter(t *testing.T) {
	lookup := subprocess.WithLookup(func(name, _ string) (string, bool) {
		return "/usr/bin/" + name, true
	})
	cfg := subprocess.Config{Interpreter: "python3", Program: "path/to/barman", ConfigPath: "fake_conf"}
	s, err := subprocess.New(cfg, "test-cmd", []string{"a", "b"}, lookup)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/usr/bin/python3", "path/to/barman", "-c", "fake_conf", "-q", "test-cmd", "a", "b"}
	if diff := cmp.Diff(want, s.Argv()); diff != "" {
		t.Errorf("argv mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingConfig(t *testing.T) {
	_, err := subprocess.New(subprocess.Config{Program: "path/to/barman"}, "fake_cmd", nil)
	if !apperrors.HasCode(err, apperrors.ErrCodeUsage) || !errors.Is(err, process.ErrCommand) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestInterpreterNotFound(t *testing.T) {
	lookup := subprocess.WithLookup(func(string, string) (string, bool) { return "", false })
	cfg := subprocess.Config{Interpreter: "python9", Program: "barman", ConfigPath: "c"}
	_, err := subprocess.New(cfg, "cron", nil, lookup)
	if !errors.Is(err, process.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// waitForFile polls until path exists or the deadline passes.
func waitForFile(t *testing.T, path string) []byte {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil {
			return data
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s was not written", path)
	return nil
}

func TestExecuteDetached(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("requires /proc")
	}
	dir := t.TempDir()
	program := filepath.Join(dir, "host")
	script := `#!/bin/sh
d=$(dirname "$0")
printf '%s\n' "$@" > "$d/args.tmp"
mv "$d/args.tmp" "$d/args"
cut -d' ' -f6 /proc/$$/stat > "$d/sid.tmp"
mv "$d/sid.tmp" "$d/sid"
`
	if err := os.WriteFile(program, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	defer otel.SetTracerProvider(prev)

	s, err := subprocess.New(subprocess.Config{Program: program, ConfigPath: "/etc/barman.conf"}, "cron", []string{"--keep-descriptors"}, subprocess.WithLogger(log))
	if err != nil {
		t.Fatal(err)
	}
	pid, err := s.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if pid <= 0 {
		t.Fatalf("pid = %d", pid)
	}

	args := waitForFile(t, filepath.Join(dir, "args"))
	if got := string(args); got != "-c\n/etc/barman.conf\n-q\ncron\n--keep-descriptors\n" {
		t.Errorf("child args = %q", got)
	}
	sid := strings.TrimSpace(string(waitForFile(t, filepath.Join(dir, "sid"))))
	if sid != strconv.Itoa(pid) {
		t.Errorf("child session = %s, want own session %d", sid, pid)
	}

	var messages []string
	for _, raw := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		if err := json.Unmarshal(raw, &rec); err != nil {
			t.Fatalf("bad log line %q: %v", raw, err)
		}
		if rec[logger.FieldComponent] != subprocess.Component {
			t.Errorf("unexpected component in %v", rec)
		}
		messages = append(messages, rec["message"].(string))
		if rec[logger.FieldPID] != float64(pid) {
			t.Errorf("logged pid %v, want %d", rec[logger.FieldPID], pid)
		}
		if diff := cmp.Diff(toAny(s.Argv()), rec[logger.FieldArgs]); diff != "" {
			t.Errorf("logged args mismatch (-want +got):\n%s", diff)
		}
	}
	if diff := cmp.Diff([]string{"subprocess started"}, messages); diff != "" {
		t.Errorf("log messages mismatch (-want +got):\n%s", diff)
	}

	spans := recorder.Ended()
	if len(spans) != 1 || spans[0].Name() != observability.SpanProcessLaunch {
		t.Fatalf("expected one %s span, got %d", observability.SpanProcessLaunch, len(spans))
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// processState returns the state letter from /proc/<pid>/stat, or "" once
// the pid is gone.
func processState(pid int) string {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	if err != nil {
		return ""
	}
	// The command name is parenthesised and may contain spaces.
	rest := string(data[bytes.LastIndexByte(data, ')')+1:])
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func TestExecuteReapsChild(t *testing.T) {
	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("requires /proc")
	}
	program := filepath.Join(t.TempDir(), "host")
	if err := os.WriteFile(program, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	s, err := subprocess.New(subprocess.Config{Program: program, ConfigPath: "fake_conf"}, "fake-cmd", nil)
	if err != nil {
		t.Fatal(err)
	}
	pid, err := s.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	state := processState(pid)
	deadline := time.Now().Add(10 * time.Second)
	for state != "" && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
		state = processState(pid)
	}
	if state != "" {
		t.Fatalf("pid %d still present in state %s after exit", pid, state)
	}
}
