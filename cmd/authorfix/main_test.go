package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"authorfix/internal/config"
	"authorfix/internal/identity"
	"authorfix/internal/store"
	"authorfix/internal/testsupport"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("[paths]\ndata_dir = %q\nlog_dir = %q\n",
		filepath.Join(dir, "data"), filepath.Join(dir, "logs"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func seedOrphanJaneProfile(t *testing.T, cfgPath string) {
	t.Helper()
	cfg, _, _, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	testsupport.SeedAccount(t, st, identity.Account{
		ID: 9, Login: "jane9f3", Nicename: "jane-doe", Email: "jane@example.com",
	})
	testsupport.SeedProfile(t, st, identity.AuthorProfile{ID: 501, Email: "jane@example.com"})
	testsupport.SeedGroup(t, st, identity.DisplayGroup{
		ID: 77, Slug: "cap-jane9f3", Description: "jane@example.com",
	})
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Error("second init without --overwrite should fail")
	}
	if out, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Errorf("init with --overwrite: %v\n%s", err, out)
	}
}

func TestValidateCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	seedOrphanJaneProfile(t, cfgPath)

	out, err := runCommand(t, "validate", "--config", cfgPath)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "completed") {
		t.Errorf("output missing completion status:\n%s", out)
	}

	out, err = runCommand(t, "report", "--config", cfgPath, "--yaml")
	if err != nil {
		t.Fatalf("report: %v\n%s", err, out)
	}
	if !strings.Contains(out, "job_id:") {
		t.Errorf("report output not YAML:\n%s", out)
	}
}

func TestRepairCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	seedOrphanJaneProfile(t, cfgPath)

	out, err := runCommand(t, "repair", "--config", cfgPath,
		"--profile-id", "501", "--group-id", "77", "--account-id", "9", "--show-diff")
	if err != nil {
		t.Fatalf("repair: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Repaired profile 501") {
		t.Errorf("output missing repair summary:\n%s", out)
	}
	if !strings.Contains(out, "cap-jane-doe") {
		t.Errorf("diff missing canonical slug:\n%s", out)
	}

	out, err = runCommand(t, "repair", "--config", cfgPath,
		"--profile-id", "501", "--group-id", "77", "--account-id", "9")
	if err != nil {
		t.Fatalf("second repair: %v\n%s", err, out)
	}
	if !strings.Contains(out, "already consistent") {
		t.Errorf("second repair should be a no-op:\n%s", out)
	}
}

func TestRepairCommandRequiresIDs(t *testing.T) {
	cfgPath := writeTestConfig(t)
	if _, err := runCommand(t, "repair", "--config", cfgPath); err == nil {
		t.Error("repair without ids should fail")
	}
}
