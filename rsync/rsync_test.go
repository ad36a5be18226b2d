package rsync_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/rsync"
)

func TestMain(m *testing.M) {
	logger.SetGlobalLogger(logger.Nop())
	os.Exit(m.Run())
}

// fakeLookup resolves bare names under /usr/bin and paths to themselves.
func fakeLookup(t *testing.T) process.Option {
	t.Helper()
	return process.WithLookup(func(name, _ string) (string, bool) {
		if filepath.IsAbs(name) {
			return name, true
		}
		return "/usr/bin/" + name, true
	})
}

func TestArgv(t *testing.T) {
	tests := []struct {
		name string
		cfg  rsync.Config
		want []string
	}{
		{
			name: "simple",
			want: []string{"/usr/bin/rsync", "src", "dst"},
		},
		{
			name: "args",
			cfg:  rsync.Config{Args: []string{"a", "b"}},
			want: []string{"/usr/bin/rsync", "a", "b", "src", "dst"},
		},
		{
			name: "custom ssh",
			cfg: rsync.Config{
				Command:    "/custom/rsync",
				SSH:        "/custom/ssh",
				SSHOptions: []string{"-c", "arcfour"},
			},
			want: []string{"/custom/rsync", "-e", "/custom/ssh '-c' 'arcfour'", "src", "dst"},
		},
		{
			name: "exclude and protect",
			cfg:  rsync.Config{ExcludeAndProtect: []string{"foo", "bar"}},
			want: []string{
				"/usr/bin/rsync",
				"--exclude=foo", "--filter=P_foo",
				"--exclude=bar", "--filter=P_bar",
				"src", "dst",
			},
		},
		{
			name: "bwlimit",
			cfg:  rsync.Config{BwLimit: 101},
			want: []string{"/usr/bin/rsync", "--bwlimit=101", "src", "dst"},
		},
		{
			name: "every option",
			cfg: rsync.Config{
				SSH:                "ssh",
				SSHOptions:         []string{"-p", "2222"},
				NetworkCompression: true,
				Include:            []string{"/pg_wal/"},
				Exclude:            []string{"/pg_wal/*"},
				ExcludeAndProtect:  []string{"/pg_tblspc"},
				Args:               []string{"--checksum"},
				BwLimit:            500,
			},
			want: []string{
				"/usr/bin/rsync",
				"-e", "ssh '-p' '2222'",
				"-z",
				"--include=/pg_wal/",
				"--exclude=/pg_wal/*",
				"--exclude=/pg_tblspc", "--filter=P_/pg_tblspc",
				"--checksum",
				"--bwlimit=500",
				"src", "dst",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := rsync.New(tc.cfg, fakeLookup(t))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if diff := cmp.Diff(tc.want, r.Argv("src", "dst")); diff != "" {
				t.Errorf("argv mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPolicy(t *testing.T) {
	r, err := rsync.New(rsync.Config{}, fakeLookup(t))
	if err != nil {
		t.Fatal(err)
	}
	if !r.Check() {
		t.Error("expected check enabled")
	}
	if diff := cmp.Diff([]int{0, 24}, r.AllowedExitCodes()); diff != "" {
		t.Errorf("allowed exit codes mismatch (-want +got):\n%s", diff)
	}
	if r.Component() != rsync.Component {
		t.Errorf("component = %q", r.Component())
	}
}

func TestPgDataArgv(t *testing.T) {
	tests := []struct {
		name string
		cfg  rsync.Config
		want []string
	}{
		{
			name: "simple",
			want: []string{"/usr/bin/rsync", "-rLKpts", "--delete-excluded", "--inplace", "src", "dst"},
		},
		{
			name: "args",
			cfg:  rsync.Config{Args: []string{"a", "b"}},
			want: []string{"/usr/bin/rsync", "-rLKpts", "--delete-excluded", "--inplace", "a", "b", "src", "dst"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := rsync.NewPgData(tc.cfg, fakeLookup(t))
			if err != nil {
				t.Fatalf("NewPgData: %v", err)
			}
			if diff := cmp.Diff(tc.want, r.Argv("src", "dst")); diff != "" {
				t.Errorf("argv mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	var gotName, gotPath string
	lookup := process.WithLookup(func(name, path string) (string, bool) {
		gotName, gotPath = name, path
		return "", false
	})
	_, err := rsync.New(rsync.Config{Command: "/invalid/path/rsync"}, lookup, process.WithPath("/opt/bin"))
	if !errors.Is(err, process.ErrNotFound) || !errors.Is(err, process.ErrCommand) {
		t.Fatalf("expected not found command error, got %v", err)
	}
	if gotName != "/invalid/path/rsync" || gotPath != "/opt/bin" {
		t.Errorf("lookup called with (%q, %q)", gotName, gotPath)
	}
}

func TestInvalidConfig(t *testing.T) {
	_, err := rsync.New(rsync.Config{BwLimit: -1}, fakeLookup(t))
	if !apperrors.HasCode(err, apperrors.ErrCodeInvalidArgument) {
		t.Fatalf("expected invalid argument error, got %v", err)
	}
}

// writeScript creates an executable stand-in for rsync.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rsync")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromFileList(t *testing.T) {
	script := writeScript(t, `cat
for a in "$@"; do echo "$a" >&2; done
`)
	r, err := rsync.New(rsync.Config{Args: []string{"-a"}}, process.WithLookup(func(string, string) (string, bool) {
		return script, true
	}))
	if err != nil {
		t.Fatal(err)
	}

	code, err := r.FromFileList(context.Background(), []string{"a", "b", "c"}, "src", "dst")
	if err != nil || code != 0 {
		t.Fatalf("FromFileList = %d, %v", code, err)
	}
	out, _ := r.Stdout()
	if out != "a\nb\nc\n" {
		t.Errorf("stdin payload = %q", out)
	}
	errOut, _ := r.Stderr()
	if errOut != "-a\n--files-from=-\nsrc\ndst\n" {
		t.Errorf("argv = %q", errOut)
	}
}

func TestExitCodePolicy(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"success", "0", false},
		{"vanished source files", "24", false},
		{"partial transfer", "23", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			script := writeScript(t, "exit "+tc.code+"\n")
			r, err := rsync.New(rsync.Config{Command: script})
			if err != nil {
				t.Fatal(err)
			}
			_, err = r.Call(context.Background(), "src", "dst")
			if (err != nil) != tc.wantErr {
				t.Fatalf("Call error = %v, wantErr %v", err, tc.wantErr)
			}
			var failed *process.FailedError
			if tc.wantErr && (!errors.As(err, &failed) || failed.ExitCode != 23) {
				t.Errorf("expected FailedError with exit code 23, got %v", err)
			}
		})
	}
}
