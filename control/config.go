// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Run configuration. Page size, run duration and concurrency width are
// compiled in; everything else comes from flags, PAGEBENCH_* environment
// variables or an optional .env file, in that order of precedence.

package control

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/momentics/hioload-pagebench/api"
)

const (
	// PageSize is the length of every transferred page.
	PageSize = 4096
	// Duration is the client measurement window.
	Duration = 10 * time.Second
	// Parallel is the number of concurrent streams per connection.
	Parallel = 16

	DefaultAddress     = "127.0.0.1:12345"
	DefaultRingEntries = 256
	EnvPrefix          = "PAGEBENCH"
)

// Config keys, shared by flags and environment.
const (
	KeyAddress     = "address"
	KeyLogLevel    = "log-level"
	KeyBackend     = "backend"
	KeyRingEntries = "ring-entries"
	KeyMetricsAddr = "metrics-addr"
	KeyEnvFile     = "env-file"
)

// Config is the resolved run configuration.
type Config struct {
	Address     netip.AddrPort
	LogLevel    string
	Backend     string
	RingEntries uint32
	MetricsAddr string
}

// BindFlags registers the runtime flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.String(KeyLogLevel, "info", "log level (error, warn, info, debug, trace)")
	fs.String(KeyBackend, "auto", "I/O backend (auto, uring, net)")
	fs.Uint32(KeyRingEntries, DefaultRingEntries, "io_uring submission queue depth per connection")
	fs.String(KeyMetricsAddr, "", "serve Prometheus metrics on this address (empty disables)")
	fs.String(KeyEnvFile, ".env", "optional dotenv file with PAGEBENCH_* settings")
}

// Load resolves the configuration. args holds the positional arguments;
// the first one, when present, is the host:port address.
func Load(v *viper.Viper, fs *pflag.FlagSet, args []string) (Config, error) {
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, err
	}
	if err := loadEnvFile(v.GetString(KeyEnvFile)); err != nil {
		return Config{}, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyAddress, DefaultAddress)

	raw := v.GetString(KeyAddress)
	if len(args) > 0 {
		raw = args[0]
	}
	addr, err := ParseAddress(raw)
	if err != nil {
		return Config{}, err
	}
	entries := v.GetUint32(KeyRingEntries)
	if entries == 0 {
		return Config{}, fmt.Errorf("%s must be positive: %w", KeyRingEntries, api.ErrInvalidArgument)
	}
	return Config{
		Address:     addr,
		LogLevel:    v.GetString(KeyLogLevel),
		Backend:     v.GetString(KeyBackend),
		RingEntries: entries,
		MetricsAddr: v.GetString(KeyMetricsAddr),
	}, nil
}

// ParseAddress accepts a literal ip:port, e.g. 127.0.0.1:12345 or [::1]:80.
func ParseAddress(s string) (netip.AddrPort, error) {
	ap, err := netip.ParseAddrPort(strings.TrimSpace(s))
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%q: %w", s, api.ErrInvalidAddress)
	}
	return ap, nil
}

// loadEnvFile imports path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}
