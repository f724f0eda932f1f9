// Package app wires configuration, probes, the check runner, the tunnel
// monitor, remediation, and the HTTP surface into one agent.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hamed0406/edgehealth/internal/check"
	"github.com/hamed0406/edgehealth/internal/clock"
	"github.com/hamed0406/edgehealth/internal/config"
	"github.com/hamed0406/edgehealth/internal/domain"
	"github.com/hamed0406/edgehealth/internal/httpapi"
	"github.com/hamed0406/edgehealth/internal/metrics"
	"github.com/hamed0406/edgehealth/internal/notify"
	"github.com/hamed0406/edgehealth/internal/probe"
	"github.com/hamed0406/edgehealth/internal/providers"
	"github.com/hamed0406/edgehealth/internal/remediation"
	"github.com/hamed0406/edgehealth/internal/report"
	"github.com/hamed0406/edgehealth/internal/runlog"
	"github.com/hamed0406/edgehealth/internal/tunnel"
)

type App struct {
	Cfg      config.Config
	Logger   *zap.Logger
	Runner   *check.Runner
	Emitter  *report.Emitter
	Latest   *report.Latest
	Monitor  *tunnel.Monitor
	Control  *remediation.Controller
	Registry *prometheus.Registry

	tunnelProvider providers.TunnelStatusProvider
	met            *metrics.Metrics
	runLog         *runlog.Store
}

// New assembles the agent from config. The returned App owns the run log
// handle; call Close when done.
func New(cfg config.Config, logger *zap.Logger, clk clock.Clock) (*App, error) {
	if clk == nil {
		clk = clock.New()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	met := metrics.New(registry)

	var notifier notify.Notifier = notify.Nop{}
	if s := notify.NewSlack(cfg.SlackWebhook); s != nil {
		notifier = s
	}

	run := providers.ExecRunner()
	tunnelProvider := &providers.WireGuard{
		Run:        run,
		Interface:  cfg.Tunnel.Interface,
		StaleAfter: cfg.Tunnel.StaleAfter.Std(),
	}
	iface := &providers.IPRoute2{Run: run}

	mtuProbe := &probe.MTU{Provider: iface, Device: cfg.Tunnel.Interface, Expected: cfg.Tunnel.MTU}
	tunnelProbe := &probe.Tunnel{Provider: tunnelProvider}

	runner := check.NewRunner(logger, cfg.Concurrency, cfg.GlobalDeadline.Std(),
		check.Registration{
			Probe: &probe.Disk{
				Provider:    &providers.DFDiskUsage{Run: run},
				Path:        cfg.Checks.Disk.Path,
				WarnPercent: cfg.Checks.Disk.WarnPercent,
				CritPercent: cfg.Checks.Disk.CritPercent,
			},
			Timeout: cfg.Checks.Disk.Timeout.Std(),
		},
		check.Registration{
			Probe: &probe.GPU{
				Provider:  &providers.NvidiaSMI{Run: run},
				WarnTempC: cfg.Checks.GPU.WarnTempC,
				CritTempC: cfg.Checks.GPU.CritTempC,
				Missing:   cfg.Checks.GPU.Missing,
			},
			Timeout:   cfg.Checks.GPU.Timeout.Std(),
			OnFailure: cfg.Checks.GPU.Missing,
		},
		check.Registration{
			Probe: &probe.Docker{
				Provider:   &providers.DockerCLI{Run: run},
				Containers: cfg.Checks.Docker.Containers,
			},
			Timeout: cfg.Checks.Docker.Timeout.Std(),
		},
		check.Registration{
			Probe: &probe.NTP{
				Provider: &providers.Timedatectl{Run: run},
				Missing:  cfg.Checks.NTP.Missing,
			},
			Timeout:   cfg.Checks.NTP.Timeout.Std(),
			OnFailure: cfg.Checks.NTP.Missing,
		},
		check.Registration{
			Probe: &probe.Cameras{
				Dialer:    providers.TCPDialer{},
				Addresses: cfg.Checks.Cameras.Addresses,
			},
			Timeout: cfg.Checks.Cameras.Timeout.Std(),
		},
		check.Registration{Probe: tunnelProbe, Timeout: cfg.Tunnel.Timeout.Std()},
		check.Registration{Probe: mtuProbe, Timeout: cfg.Tunnel.Timeout.Std()},
	)

	monitor := tunnel.NewMonitor(cfg.SiteID, cfg.Tunnel.FlapWindow.Std(), cfg.Tunnel.FlapThreshold,
		clk, logger, notifier, met)

	runLog, err := runlog.Open(cfg.RunLogPath)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	control := remediation.NewController(logger, clk,
		remediation.WithNotifier(notifier),
		remediation.WithArchiver(runLog),
		remediation.WithMetrics(met),
	)
	if err := control.RegisterPlan(tunnelMTUPlan(cfg, iface, mtuProbe, tunnelProbe)); err != nil {
		runLog.Close()
		return nil, err
	}

	return &App{
		Cfg:            cfg,
		Logger:         logger,
		Runner:         runner,
		Emitter:        report.NewEmitter(cfg.SiteID, logger, clk),
		Latest:         &report.Latest{},
		Monitor:        monitor,
		Control:        control,
		Registry:       registry,
		tunnelProvider: tunnelProvider,
		met:            met,
		runLog:         runLog,
	}, nil
}

// tunnelMTUPlan fixes a tunnel interface carrying the wrong MTU, the
// signature fault behind most flap storms on cellular uplinks. The
// postcondition wants the MTU corrected and the tunnel back up.
func tunnelMTUPlan(cfg config.Config, iface providers.InterfaceConfigProvider, mtuProbe, tunnelProbe probe.Probe) remediation.Plan {
	return remediation.Plan{
		FaultID:      "tunnel-mtu",
		Summary:      fmt.Sprintf("reset %s MTU to %d", cfg.Tunnel.Interface, cfg.Tunnel.MTU),
		Precondition: mtuProbe,
		Action: remediation.ActionFunc{
			ActionName: "set-mtu",
			Fn: func(ctx context.Context) error {
				return iface.SetMTU(ctx, cfg.Tunnel.Interface, cfg.Tunnel.MTU)
			},
		},
		Postcondition: probe.Func{
			ProbeName: "mtu",
			Fn: func(ctx context.Context) domain.CheckResult {
				if res := mtuProbe.Check(ctx); res.Status != domain.StatusHealthy {
					return res
				}
				return tunnelProbe.Check(ctx)
			},
		},
		MaxAttempts:    cfg.Remediation.MaxAttempts,
		AttemptTimeout: cfg.Remediation.AttemptTimeout.Std(),
		Backoff:        cfg.Remediation.Backoff.Std(),
	}
}

// RunOnce executes one full check cycle: run all probes, build the report,
// publish it, and feed the tunnel monitor.
func (a *App) RunOnce(ctx context.Context) (domain.HealthReport, error) {
	start := time.Now()
	results := a.Runner.Run(ctx)
	rep, err := a.Emitter.Build(results)
	if err != nil {
		return domain.HealthReport{}, err
	}
	a.Latest.Set(rep)

	for _, res := range rep.Checks {
		a.met.ChecksTotal.WithLabelValues(res.Name, string(res.Status)).Inc()
	}
	a.met.CheckDuration.WithLabelValues(string(rep.Overall)).Observe(time.Since(start).Seconds())
	a.met.ReportCycles.Inc()
	a.met.OverallSeverity.Set(float64(rep.Overall.Severity()))

	a.observeTunnel(ctx)
	return rep, nil
}

// observeTunnel feeds one sample into the flap detector. A provider error
// reads as down: an unqueryable tunnel is not passing traffic.
func (a *App) observeTunnel(ctx context.Context) {
	state, err := a.tunnelProvider.State(ctx)
	if err != nil {
		a.Logger.Warn("tunnel_state_error", zap.Error(err))
		state = domain.TunnelDown
	}
	a.Monitor.Observe(ctx, state)
}

// HTTPHandler builds the local API router.
func (a *App) HTTPHandler() http.Handler {
	srv := &httpapi.Server{
		Logger:          a.Logger,
		Latest:          a.Latest,
		Tunnel:          a.Monitor,
		Runs:            a.runLog,
		Controller:      a.Control,
		Gatherer:        a.Registry,
		AdminKeys:       a.Cfg.API.AdminKeys,
		RateLimitPerMin: a.Cfg.API.RateLimitPerMin,
		RateLimitBurst:  a.Cfg.API.RateLimitBurst,
	}
	return srv.Router()
}

// Runs exposes the archive for the CLI.
func (a *App) Runs(limit int) ([]domain.RemediationRun, error) {
	return a.runLog.List(limit)
}

func (a *App) Close() error {
	return a.runLog.Close()
}
