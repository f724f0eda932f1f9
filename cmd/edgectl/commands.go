package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/edgehealth/internal/app"
	"github.com/hamed0406/edgehealth/internal/config"
	"github.com/hamed0406/edgehealth/internal/discovery"
	"github.com/hamed0406/edgehealth/internal/report"
)

// buildApp loads config and assembles the agent wiring for one-shot use.
// CLI invocations log to a no-op logger; stdout stays machine-readable.
func buildApp(cmd *cobra.Command) (*app.App, config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, config.Config{}, err
	}
	a, err := app.New(cfg, zap.NewNop(), nil)
	if err != nil {
		return nil, config.Config{}, err
	}
	return a, cfg, nil
}

// newCheckCommand runs one full check cycle and exits with the supervisor
// contract: 0 healthy, 1 degraded, 2 critical.
func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run all health checks once and print the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := buildApp(cmd)
			if err != nil {
				return err
			}

			rep, err := a.RunOnce(cmd.Context())
			if err != nil {
				a.Close()
				return err
			}
			a.Close()
			if err := report.WriteJSON(os.Stdout, rep); err != nil {
				return err
			}
			code, err := report.ExitCode(rep.Overall)
			if err != nil {
				return err
			}
			os.Exit(code)
			return nil
		},
	}
}

func newRemediateCommand() *cobra.Command {
	var device string
	cmd := &cobra.Command{
		Use:   "remediate <fault-id>",
		Short: "Run a remediation plan and print the attempt ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cfg, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if device == "" {
				device = cfg.SiteID
			}
			run, err := a.Control.Remediate(cmd.Context(), device, args[0])
			if err != nil {
				return err
			}
			printRun(os.Stdout, run.ID, string(run.FinalState), run.Reason)
			for _, at := range run.Attempts {
				fmt.Fprintf(os.Stdout, "  %-14s ok=%-5v %s\n", at.Stage, at.OK, at.Outcome)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&device, "device", "", "target device id (default: this site)")
	return cmd
}

func printRun(w io.Writer, id, state, reason string) {
	fmt.Fprintf(w, "run %s: %s (%s)\n", id, state, reason)
}

func newRunsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived remediation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := buildApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.Runs(limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tDEVICE\tFAULT\tSTATE\tREASON")
			for _, run := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					humanize.Time(run.FinishedAt), run.DeviceID, run.FaultID, run.FinalState, run.Reason)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list (0 = all)")
	return cmd
}

// newDiscoverCommand parses an ONVIF WS-Discovery response into the camera
// inventory JSON used for the cameras check.
func newDiscoverCommand() *cobra.Command {
	var (
		input  string
		pretty bool
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Parse an ONVIF WS-Discovery response into camera inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if input != "" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			cams, err := discovery.Parse(r)
			if err != nil {
				return err
			}
			if cams == nil {
				cams = []discovery.Camera{}
			}
			return writeCameras(os.Stdout, cams, pretty)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "XML response file (default: stdin)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "pretty-print JSON output")
	return cmd
}

func writeCameras(w io.Writer, cams []discovery.Camera, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(cams)
}
