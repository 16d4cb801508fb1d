package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/letmevibethatforyou/postsearch/internal/config"
)

func TestWriteConfig(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	if err := os.WriteFile(base, []byte("backend = \"memory\"\n[widget]\nposts_per_page = 8\n"), 0600); err != nil {
		t.Fatalf("Failed to write base config: %v", err)
	}
	out := filepath.Join(dir, "effective.toml")

	err := newApp().Run([]string{"serve",
		"--config", base,
		"--listen", "127.0.0.1:9090",
		"--nonce-secret", "s3cret",
		"--write-config", out,
	})
	if err != nil {
		t.Fatalf("serve --write-config failed: %v", err)
	}

	cfg, err := config.Load(out)
	if err != nil {
		t.Fatalf("Failed to load written config: %v", err)
	}
	if cfg.Listen != "127.0.0.1:9090" {
		t.Errorf("Expected listen override, got %q", cfg.Listen)
	}
	if cfg.NonceSecret != "s3cret" {
		t.Errorf("Expected nonce secret override, got %q", cfg.NonceSecret)
	}
	if cfg.Widget.PostsPerPage != 8 {
		t.Errorf("Expected posts_per_page from file, got %d", cfg.Widget.PostsPerPage)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Written config does not validate: %v", err)
	}
}

func TestInvalidConfigIsRejected(t *testing.T) {
	err := newApp().Run([]string{"serve", "--config", filepath.Join(t.TempDir(), "missing.toml")})
	if err == nil {
		t.Fatal("Expected missing nonce secret to be rejected")
	}
}
