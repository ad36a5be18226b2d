package validation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/execkit/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"pg_basebackup", false},
		{"", true},
		{"   ", true},
	}
	for _, tc := range tests {
		v := New().Required("command", tc.value)
		if v.HasErrors() != tc.wantErr {
			t.Errorf("Required(%q) errors = %v, want %v", tc.value, v.HasErrors(), tc.wantErr)
		}
	}
}

func TestValidatorRange(t *testing.T) {
	tests := []struct {
		value   int
		wantErr bool
	}{
		{0, false},
		{9, false},
		{-1, true},
		{10, true},
	}
	for _, tc := range tests {
		v := New().Range("level", tc.value, 0, 9)
		if v.HasErrors() != tc.wantErr {
			t.Errorf("Range(%d) errors = %v, want %v", tc.value, v.Errors(), tc.wantErr)
		}
	}
	if got := New().Range("level", 10, 0, 9).Errors()[0].Message; got != "must be between 0 and 9" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(true, "field", "should pass")
	v.Custom(false, "field", "custom error")
	if diff := cmp.Diff([]FieldError{{Field: "field", Message: "custom error"}}, v.Errors()); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidatorValidate(t *testing.T) {
	if err := New().Required("name", "x").Validate(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	err := New().Required("recipient", "").Range("level", -1, 0, 9).Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidArgument {
		t.Errorf("expected INVALID_ARGUMENT, got %s", appErr.Code)
	}
	if appErr.Message != "recipient: is required; level: must be between 0 and 9" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("expected 2 field errors in details, got %v", appErr.Details["fields"])
	}
}

func TestValidatorChaining(t *testing.T) {
	v := New()
	if v.Required("name", "x").Range("n", 1, 0, 2).Custom(true, "a", "b") != v {
		t.Error("expected chaining to return same validator")
	}
}

func TestRequiredFunc(t *testing.T) {
	if err := Required("config", "/etc/barman.conf"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := Required("config", ""); err == nil {
		t.Error("expected error for empty required field")
	}
}

type compression struct {
	Type  string `mapstructure:"type" validate:"omitempty,oneof=gzip lz4 zstd none"`
	Level *int   `mapstructure:"level" validate:"omitempty,gte=0"`
}

type backupConfig struct {
	Destination string      `mapstructure:"destination" validate:"required"`
	MaxRate     int         `mapstructure:"max_rate" validate:"gte=0"`
	Compression compression `mapstructure:"compression"`
}

func TestStructValidateValid(t *testing.T) {
	level := 5
	cfg := backupConfig{Destination: "/backups", Compression: compression{Type: "gzip", Level: &level}}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	level := -1
	cfg := backupConfig{MaxRate: -5, Compression: compression{Type: "bzip2", Level: &level}}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"destination: is required",
		"max_rate: must be greater than or equal to 0",
		"compression.type: must be one of: gzip lz4 zstd none",
		"compression.level: must be greater than or equal to 0",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"RetrySleep": "retry_sleep",
		"path":       "path",
		"BwLimit":    "bw_limit",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
