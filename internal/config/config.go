package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/edgehealth/internal/domain"
)

// Duration wraps time.Duration so "30s" / "30m" parse from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	SiteID         string   `yaml:"site_id"`
	HTTPAddr       string   `yaml:"http_addr"`
	LogDir         string   `yaml:"log_dir"`
	Debug          bool     `yaml:"debug"`
	Interval       Duration `yaml:"interval"`
	GlobalDeadline Duration `yaml:"global_deadline"`
	Concurrency    int      `yaml:"concurrency"`
	SlackWebhook   string   `yaml:"slack_webhook"`
	RunLogPath     string   `yaml:"runlog_path"`

	API         APIConfig         `yaml:"api"`
	Checks      ChecksConfig      `yaml:"checks"`
	Tunnel      TunnelConfig      `yaml:"tunnel"`
	Remediation RemediationConfig `yaml:"remediation"`
}

// APIConfig guards the local HTTP surface. With no admin keys configured
// the mutating endpoints are open, which is fine on a loopback bind.
type APIConfig struct {
	AdminKeys       []string `yaml:"admin_keys"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
}

type ChecksConfig struct {
	Disk    DiskCheck   `yaml:"disk"`
	GPU     GPUCheck    `yaml:"gpu"`
	Docker  DockerCheck `yaml:"docker"`
	NTP     NTPCheck    `yaml:"ntp"`
	Cameras CameraCheck `yaml:"cameras"`
}

type DiskCheck struct {
	Path        string   `yaml:"path"`
	WarnPercent int      `yaml:"warn_percent"`
	CritPercent int      `yaml:"crit_percent"`
	Timeout     Duration `yaml:"timeout"`
}

type GPUCheck struct {
	WarnTempC int      `yaml:"warn_temp_c"`
	CritTempC int      `yaml:"crit_temp_c"`
	Timeout   Duration `yaml:"timeout"`
	// Missing is the severity reported when the vendor tool is absent.
	// The fleet has GPU-less devices, so this stays configurable.
	Missing domain.Status `yaml:"missing"`
}

type DockerCheck struct {
	Containers []string `yaml:"containers"`
	Timeout    Duration `yaml:"timeout"`
}

type NTPCheck struct {
	Timeout Duration      `yaml:"timeout"`
	Missing domain.Status `yaml:"missing"`
}

type CameraCheck struct {
	Addresses []string `yaml:"addresses"`
	Timeout   Duration `yaml:"timeout"`
}

type TunnelConfig struct {
	Interface     string   `yaml:"interface"`
	MTU           int      `yaml:"mtu"`
	StaleAfter    Duration `yaml:"stale_after"`
	Timeout       Duration `yaml:"timeout"`
	FlapWindow    Duration `yaml:"flap_window"`
	FlapThreshold int      `yaml:"flap_threshold"`
}

type RemediationConfig struct {
	MaxAttempts    int      `yaml:"max_attempts"`
	AttemptTimeout Duration `yaml:"attempt_timeout"`
	Backoff        Duration `yaml:"backoff"`
}

// Load reads the YAML config at path (EDGEHEALTH_CONFIG when path is empty),
// hydrates defaults, and applies env overrides. A missing file yields the
// defaults, so a bare agent still produces reports.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv("EDGEHEALTH_CONFIG")
	}
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// fall through to defaults
		default:
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	hydrate(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		SiteID:         "edge-unknown",
		HTTPAddr:       "127.0.0.1:8080",
		LogDir:         "logs",
		Interval:       Duration(60 * time.Second),
		GlobalDeadline: Duration(45 * time.Second),
		Concurrency:    4,
		RunLogPath:     "edgehealth-runs.db",
		API:            APIConfig{RateLimitPerMin: 120, RateLimitBurst: 60},
		Checks: ChecksConfig{
			Disk:    DiskCheck{Path: "/", WarnPercent: 85, CritPercent: 95, Timeout: Duration(5 * time.Second)},
			GPU:     GPUCheck{WarnTempC: 80, CritTempC: 90, Timeout: Duration(5 * time.Second), Missing: domain.StatusCritical},
			Docker:  DockerCheck{Timeout: Duration(10 * time.Second)},
			NTP:     NTPCheck{Timeout: Duration(5 * time.Second), Missing: domain.StatusDegraded},
			Cameras: CameraCheck{Timeout: Duration(5 * time.Second)},
		},
		Tunnel: TunnelConfig{
			Interface:     "wg0",
			MTU:           1500,
			StaleAfter:    Duration(3 * time.Minute),
			Timeout:       Duration(5 * time.Second),
			FlapWindow:    Duration(30 * time.Minute),
			FlapThreshold: 3,
		},
		Remediation: RemediationConfig{
			MaxAttempts:    4,
			AttemptTimeout: Duration(10 * time.Second),
			Backoff:        Duration(5 * time.Second),
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SITE_ID"); v != "" {
		cfg.SiteID = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("SLACK_WEBHOOK"); v != "" {
		cfg.SlackWebhook = v
	}
	if v := os.Getenv("RUNLOG_PATH"); v != "" {
		cfg.RunLogPath = v
	}
	if v := os.Getenv("API_ADMIN_KEY"); v != "" {
		cfg.API.AdminKeys = append(cfg.API.AdminKeys, v)
	}
	if v := os.Getenv("CHECK_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Interval = Duration(time.Duration(ms) * time.Millisecond)
		}
	}
	if v := os.Getenv("GLOBAL_DEADLINE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.GlobalDeadline = Duration(time.Duration(ms) * time.Millisecond)
		}
	}
	if v := os.Getenv("MAX_CONCURRENT_CHECKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}
}

// hydrate clamps anything a hand-edited config file could break.
func hydrate(cfg *Config) {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.GlobalDeadline <= 0 {
		cfg.GlobalDeadline = Duration(45 * time.Second)
	}
	if cfg.Tunnel.FlapThreshold < 1 {
		cfg.Tunnel.FlapThreshold = 3
	}
	if cfg.Tunnel.FlapWindow <= 0 {
		cfg.Tunnel.FlapWindow = Duration(30 * time.Minute)
	}
	if cfg.Remediation.MaxAttempts < 1 {
		cfg.Remediation.MaxAttempts = 1
	}
	if cfg.API.RateLimitPerMin > 0 && cfg.API.RateLimitBurst < 1 {
		cfg.API.RateLimitBurst = 1
	}
	if !cfg.Checks.GPU.Missing.Valid() {
		cfg.Checks.GPU.Missing = domain.StatusCritical
	}
	if !cfg.Checks.NTP.Missing.Valid() {
		cfg.Checks.NTP.Missing = domain.StatusDegraded
	}
}
