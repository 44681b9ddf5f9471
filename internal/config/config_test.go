package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EVIDENCE_JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr %q", cfg.HTTPAddr)
	}
	if cfg.JWTTTL != 168*time.Hour {
		t.Fatalf("unexpected ttl %s", cfg.JWTTTL)
	}
	if cfg.PGDSN != "" {
		t.Fatalf("expected empty dsn by default, got %q", cfg.PGDSN)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.BootstrapAdminEmail != "" {
		t.Fatalf("expected no bootstrap admin by default, got %q", cfg.BootstrapAdminEmail)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("EVIDENCE_JWT_SECRET", "s3cret")
	t.Setenv("EVIDENCE_JWT_TTL", "2h")
	t.Setenv("EVIDENCE_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("EVIDENCE_PG_DSN", "postgres://localhost/evidence")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTTTL != 2*time.Hour {
		t.Fatalf("unexpected ttl %s", cfg.JWTTTL)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.PGDSN != "postgres://localhost/evidence" {
		t.Fatalf("unexpected dsn %q", cfg.PGDSN)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("EVIDENCE_JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestValidateRejectsNonPositiveTTL(t *testing.T) {
	cfg := Config{JWTSecret: "x", JWTTTL: 0, MaxBodyBytes: 1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected ttl validation error")
	}
}

func TestLoadBootstrapAdmin(t *testing.T) {
	t.Setenv("EVIDENCE_JWT_SECRET", "s3cret")
	t.Setenv("EVIDENCE_BOOTSTRAP_ADMIN_EMAIL", "root@example.org")
	t.Setenv("EVIDENCE_BOOTSTRAP_ADMIN_PASSWORD", "changeme")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BootstrapAdminEmail != "root@example.org" || cfg.BootstrapAdminPassword != "changeme" {
		t.Fatalf("unexpected bootstrap credentials %q/%q", cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
	}
	if cfg.BootstrapAdminName != "Administrator" {
		t.Fatalf("unexpected bootstrap name %q", cfg.BootstrapAdminName)
	}
}

func TestLoadBootstrapAdminRequiresPassword(t *testing.T) {
	t.Setenv("EVIDENCE_JWT_SECRET", "s3cret")
	t.Setenv("EVIDENCE_BOOTSTRAP_ADMIN_EMAIL", "root@example.org")
	t.Setenv("EVIDENCE_BOOTSTRAP_ADMIN_PASSWORD", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bootstrap email without password")
	}
}
