package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chdir mirrors t.Chdir, which is unavailable before Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("ENCRYPTION_KEY", "test-encryption-master-secret")
	t.Setenv("JWT_SECRET_KEY", "test-signing-secret")
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	setRequiredSecrets(t)
	chdir(t, t.TempDir())

	cfg, err := Load(LoaderOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Name != "authgate" {
		t.Errorf("expected default name authgate, got %q", cfg.Name)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Session.Method != "HS256" {
		t.Errorf("expected default signing method HS256, got %q", cfg.Session.Method)
	}
}

func TestValidate_MissingEncryptionKey(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "")
	t.Setenv("JWT_SECRET_KEY", "test-signing-secret")
	chdir(t, t.TempDir())

	cfg, err := Load(LoaderOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure when ENCRYPTION_KEY is absent")
	}
}

func TestValidate_MissingSigningSecret(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "test-encryption-master-secret")
	t.Setenv("JWT_SECRET_KEY", "")
	chdir(t, t.TempDir())

	cfg, err := Load(LoaderOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure when JWT_SECRET_KEY is absent")
	}
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("REDIS_ADDR", "override:6379")

	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	yaml := []byte("name: authgate\nserver:\n  port: 9000\nstore:\n  addr: file:6379\n")
	if err := os.WriteFile(file, yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(LoaderOptions{ConfigFile: file})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000 from file, got %d", cfg.Server.Port)
	}
	if cfg.Store.Addr != "override:6379" {
		t.Errorf("environment should override the file, got %q", cfg.Store.Addr)
	}
}

func TestLoad_JWTAlgorithmFromEnv(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("JWT_ALGORITHM", "hs512")
	chdir(t, t.TempDir())

	cfg, err := Load(LoaderOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Session.Method != "HS512" {
		t.Errorf("expected HS512 from env, got %q", cfg.Session.Method)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}
