package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfigPathXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "opsgate")
	if err := os.MkdirAll(cfgDir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfgPath := filepath.Join(cfgDir, "opsgate.yaml")
	if err := os.WriteFile(cfgPath, []byte("api_key: x\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ResolveConfigPath()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != cfgPath {
		t.Fatalf("expected %s, got %s", cfgPath, got)
	}
}

func TestResolveConfigPathMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if _, err := ResolveConfigPath(); err == nil {
		t.Fatal("expected error when no config exists")
	}
}
