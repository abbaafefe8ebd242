package control_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/momentics/hioload-pagebench/api"
	"github.com/momentics/hioload-pagebench/control"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	control.BindFlags(fs)
	// Point at a file that never exists unless the test writes one.
	if err := fs.Parse(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...)); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

func TestParseAddress(t *testing.T) {
	good := []string{"127.0.0.1:12345", "0.0.0.0:1", "[::1]:8080"}
	for _, s := range good {
		if _, err := control.ParseAddress(s); err != nil {
			t.Errorf("ParseAddress(%q): %v", s, err)
		}
	}
	bad := []string{"", "localhost:12345", "127.0.0.1", "127.0.0.1:http", "1.2.3.4:70000"}
	for _, s := range bad {
		if _, err := control.ParseAddress(s); !errors.Is(err, api.ErrInvalidAddress) {
			t.Errorf("ParseAddress(%q) err = %v, want ErrInvalidAddress", s, err)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := control.Load(viper.New(), newFlags(t), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address.String() != control.DefaultAddress {
		t.Errorf("Address = %s", cfg.Address)
	}
	if cfg.Backend != "auto" || cfg.LogLevel != "info" || cfg.RingEntries != control.DefaultRingEntries {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadPositionalWins(t *testing.T) {
	t.Setenv("PAGEBENCH_ADDRESS", "10.0.0.1:1")
	cfg, err := control.Load(viper.New(), newFlags(t), []string{"192.168.1.5:9000"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address.String() != "192.168.1.5:9000" {
		t.Errorf("Address = %s", cfg.Address)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("PAGEBENCH_ADDRESS", "10.0.0.1:4000")
	t.Setenv("PAGEBENCH_BACKEND", "net")
	t.Setenv("PAGEBENCH_RING_ENTRIES", "64")
	cfg, err := control.Load(viper.New(), newFlags(t), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address.String() != "10.0.0.1:4000" || cfg.Backend != "net" || cfg.RingEntries != 64 {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.env")
	if err := os.WriteFile(path, []byte("PAGEBENCH_LOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAGEBENCH_LOG_LEVEL", "")
	os.Unsetenv("PAGEBENCH_LOG_LEVEL")

	cfg, err := control.Load(viper.New(), newFlags(t, "--env-file", path), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from env file", cfg.LogLevel)
	}
	os.Unsetenv("PAGEBENCH_LOG_LEVEL")
}

func TestLoadRejectsBadAddress(t *testing.T) {
	_, err := control.Load(viper.New(), newFlags(t), []string{"example.com:80"})
	if !errors.Is(err, api.ErrInvalidAddress) {
		t.Fatalf("err = %v, want ErrInvalidAddress", err)
	}
}
