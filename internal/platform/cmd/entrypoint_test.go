package cmd

import (
	"context"
	"flag"
	"testing"
)

type testConfig struct {
	DBPath string `env:"ENTRYPOINT_TEST_DB_PATH" envDefault:"data/graph.db"`
	Limit  int    `env:"ENTRYPOINT_TEST_LIMIT" envDefault:"20"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("ENTRYPOINT_TEST_DB_PATH", "env/graph.db")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "db path")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "limit")

	if err := ParseArgs(fs, []string{"-db", "flag/graph.db"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.DBPath != "flag/graph.db" {
		t.Fatalf("expected flag value for db path, got %q", cfg.DBPath)
	}
	if cfg.Limit != 20 {
		t.Fatalf("expected env default limit, got %d", cfg.Limit)
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service name to be rejected")
	}
	if err := RunWithTelemetry(context.Background(), "timeweave", nil); err == nil {
		t.Fatal("expected missing run function to be rejected")
	}
}

func TestRunWithTelemetryExecutesRun(t *testing.T) {
	t.Setenv("TIMEWEAVE_OTEL_ENDPOINT", "")

	ran := false
	err := RunWithTelemetry(context.Background(), "timeweave", func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("run with telemetry: %v", err)
	}
	if !ran {
		t.Fatal("expected run function to execute")
	}
}
