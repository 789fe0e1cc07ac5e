package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("default port: got %q", cfg.Port)
	}
	if cfg.MongoDB != "sample_paper_db" {
		t.Fatalf("default mongo db: got %q", cfg.MongoDB)
	}
	if cfg.GeminiModel != "gemini-1.5-flash" {
		t.Fatalf("default gemini model: got %q", cfg.GeminiModel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("MINIO_USE_SSL", "true")
	cfg := Load()
	if cfg.Port != "9999" {
		t.Fatalf("port override: got %q", cfg.Port)
	}
	if !cfg.MinioUseSSL {
		t.Fatalf("ssl override not applied")
	}
}
