package config

import "testing"

type testEnv struct {
	DBPath string `env:"CONFIG_TEST_DB_PATH" envDefault:"data/graph.db"`
	Limit  int    `env:"CONFIG_TEST_LIMIT" envDefault:"50"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg testEnv
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DBPath != "data/graph.db" {
		t.Fatalf("db path = %q, want data/graph.db", cfg.DBPath)
	}
	if cfg.Limit != 50 {
		t.Fatalf("limit = %d, want 50", cfg.Limit)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_TEST_DB_PATH", "/tmp/other.db")
	t.Setenv("CONFIG_TEST_LIMIT", "7")

	var cfg testEnv
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DBPath != "/tmp/other.db" {
		t.Fatalf("db path = %q, want /tmp/other.db", cfg.DBPath)
	}
	if cfg.Limit != 7 {
		t.Fatalf("limit = %d, want 7", cfg.Limit)
	}
}
