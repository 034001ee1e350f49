/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testConfig = `
log:
  level: error
schemas:
  - name: user
    fields:
      - name: email
        format: email
      - name: age
querysets:
  users:
    schema: user
    backend: bolt
bolt:
  path: %s
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "querysets.yaml")
	data := strings.Replace(testConfig, "%s", filepath.Join(dir, "users.db"), 1)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

type line struct {
	Status  string `json:"status"`
	Payload any    `json:"payload"`
	Error   string `json:"error"`
}

func invoke(t *testing.T, stdin string, args ...string) (int, []line, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)

	var lines []line
	dec := json.NewDecoder(&stdout)
	for dec.More() {
		var l line
		if err := dec.Decode(&l); err != nil {
			t.Fatalf("failed to decode output line: %v", err)
		}
		lines = append(lines, l)
	}
	return code, lines, stderr.String()
}

func statuses(lines []line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Status
	}
	return out
}

func TestRun(t *testing.T) {
	cfg := writeConfig(t)

	t.Run("Create", func(t *testing.T) {
		input := `[{"id":"u1","email":"a@example.com","age":30},{"id":"u2","email":"b@example.com"}]`
		code, lines, stderr := invoke(t, input, "-config", cfg, "users", "create")
		if code != 0 {
			t.Fatalf("expected exit 0, got %d: %s", code, stderr)
		}
		if diff := cmp.Diff([]string{"Created", "Created"}, statuses(lines)); diff != "" {
			t.Fatalf("unexpected statuses (-want +got):\n%s", diff)
		}
	})

	t.Run("ReadPersists", func(t *testing.T) {
		code, lines, stderr := invoke(t, "", "-config", cfg, "users", "read", "u1", "u9")
		if code != 0 {
			t.Fatalf("expected exit 0, got %d: %s", code, stderr)
		}
		if diff := cmp.Diff([]string{"OK", "Failed"}, statuses(lines)); diff != "" {
			t.Fatalf("unexpected statuses (-want +got):\n%s", diff)
		}
		want := map[string]any{"id": "u1", "email": "a@example.com", "age": float64(30)}
		if diff := cmp.Diff(want, lines[0].Payload); diff != "" {
			t.Fatalf("unexpected payload (-want +got):\n%s", diff)
		}
		if lines[1].Payload != "u9" {
			t.Fatalf("expected the missing identifier as payload, got %v", lines[1].Payload)
		}
	})

	t.Run("ReadAll", func(t *testing.T) {
		_, lines, _ := invoke(t, "", "-config", cfg, "users", "read")
		if len(lines) != 2 {
			t.Fatalf("expected 2 entities, got %d", len(lines))
		}
	})

	t.Run("Update", func(t *testing.T) {
		code, lines, stderr := invoke(t, `{"id":"u1","email":"a@example.com","age":31}`, "-config", cfg, "users", "update")
		if code != 0 {
			t.Fatalf("expected exit 0, got %d: %s", code, stderr)
		}
		if diff := cmp.Diff([]string{"Updated"}, statuses(lines)); diff != "" {
			t.Fatalf("unexpected statuses (-want +got):\n%s", diff)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		input := `[{"id":"u3","email":"nope"},{"id":"u4","email":"d@example.com"}]`
		code, lines, stderr := invoke(t, input, "-config", cfg, "users", "create")
		if code == 0 {
			t.Fatalf("expected a non-zero exit for an invalid record, got 0: %s", stderr)
		}
		if len(lines) != 0 {
			t.Fatalf("expected nothing written for invalid input, got %v", lines)
		}
	})

	t.Run("Destroy", func(t *testing.T) {
		code, lines, stderr := invoke(t, "", "-config", cfg, "users", "destroy", "u1", "u1")
		if code != 0 {
			t.Fatalf("expected exit 0, got %d: %s", code, stderr)
		}
		if diff := cmp.Diff([]string{"Updated", "Failed"}, statuses(lines)); diff != "" {
			t.Fatalf("unexpected statuses (-want +got):\n%s", diff)
		}
	})
}

func TestRunErrors(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"NoArguments", nil, 2},
		{"BadFlag", []string{"-nope"}, 2},
		{"MissingConfig", []string{"-config", filepath.Join(t.TempDir(), "missing.yaml"), "users", "read"}, 1},
		{"UnknownQueryset", []string{"-config", cfg, "orders", "read"}, 1},
		{"UnknownOperation", []string{"-config", cfg, "users", "upsert"}, 1},
		{"DestroyWithoutIDs", []string{"-config", cfg, "users", "destroy"}, 1},
		{"CreateWithIDs", []string{"-config", cfg, "users", "create", "u1"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := invoke(t, "", tt.args...)
			if code != tt.code {
				t.Fatalf("expected exit %d, got %d", tt.code, code)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-version"}, strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "queryset version ") {
		t.Fatalf("unexpected version output: %q", stdout.String())
	}
}
