package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, base string) string {
	t.Helper()
	configPath := filepath.Join(base, "config.toml")
	if err := os.MkdirAll(filepath.Join(base, "library"), 0o755); err != nil {
		t.Fatalf("create library dir: %v", err)
	}
	content := fmt.Sprintf(`[paths]
cache_dir = %q
library_dir = %q
log_dir = %q

[google]
client_id = "test-client"
client_secret = "test-secret"
`, filepath.Join(base, "cache"), filepath.Join(base, "library"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesSample(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "config.toml")

	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output %q does not name the target", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[google]") {
		t.Fatalf("sample config missing google section:\n%s", data)
	}

	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init --overwrite: %v", err)
	}
}

func TestConfigShowRendersEffectiveConfig(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	out, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, configPath) {
		t.Fatalf("output should name the config file, got %q", out)
	}
	if !strings.Contains(out, "client_id = 'test-client'") && !strings.Contains(out, `client_id = "test-client"`) {
		t.Fatalf("output should include configured values, got %q", out)
	}
}

func TestAccountLifecycle(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	out, err := runCLI(t, configPath, "account", "list")
	if err != nil {
		t.Fatalf("account list: %v", err)
	}
	if !strings.Contains(out, "No accounts configured") {
		t.Fatalf("expected empty listing, got %q", out)
	}

	if _, err := runCLI(t, configPath, "account", "add", "alice", "--defer-auth"); err != nil {
		t.Fatalf("account add: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "cache", "users", "alice")); err != nil {
		t.Fatalf("account cache directory missing: %v", err)
	}

	out, err = runCLI(t, configPath, "account", "list")
	if err != nil {
		t.Fatalf("account list: %v", err)
	}
	if !strings.Contains(out, "alice") {
		t.Fatalf("listing should include alice, got %q", out)
	}

	if _, err := runCLI(t, configPath, "account", "remove", "alice"); err != nil {
		t.Fatalf("account remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "cache", "users", "alice")); !os.IsNotExist(err) {
		t.Fatal("account cache should be wiped on removal")
	}

	if _, err := runCLI(t, configPath, "account", "remove", "alice"); err == nil {
		t.Fatal("removing an unknown account should fail")
	}
}

func TestSyncWithNoAccountsSucceeds(t *testing.T) {
	base := t.TempDir()
	configPath := writeTestConfig(t, base)

	if _, err := runCLI(t, configPath, "sync", "--batch-mode"); err != nil {
		t.Fatalf("sync with no accounts: %v", err)
	}
}

func TestRejectsUnknownCommand(t *testing.T) {
	if _, err := runCLI(t, "", "frobnicate"); err == nil {
		t.Fatal("unknown command should fail")
	}
}
