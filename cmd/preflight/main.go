// cmd/preflight checks a device before the agent is installed: config
// parses, host tools are present, and the API surface is not left open on
// a non-loopback bind.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/hamed0406/edgehealth/internal/config"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (default: $EDGEHEALTH_CONFIG)")
	flag.Parse()

	failed := false
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fail("config: " + err.Error())
		os.Exit(1)
	}
	ok("config parsed")

	if cfg.SiteID == "" || cfg.SiteID == "edge-unknown" {
		warn("site_id not set; reports will carry the placeholder id")
	} else {
		ok("site_id=" + cfg.SiteID)
	}

	// Required host tools. nvidia-smi and timedatectl are optional: their
	// absence maps to a configured severity at runtime.
	for _, tool := range []string{"df", "ip", "wg", "docker"} {
		if _, err := exec.LookPath(tool); err != nil {
			fail(tool + " not found on PATH")
		} else {
			ok(tool + " present")
		}
	}
	for _, tool := range []string{"nvidia-smi", "timedatectl"} {
		if _, err := exec.LookPath(tool); err != nil {
			warn(tool + " not found on PATH (severity per config when missing)")
		} else {
			ok(tool + " present")
		}
	}

	loopback := strings.HasPrefix(cfg.HTTPAddr, "127.") || strings.HasPrefix(cfg.HTTPAddr, "localhost")
	if !loopback && len(cfg.API.AdminKeys) == 0 {
		fail("http_addr binds beyond loopback with no api.admin_keys configured")
	} else {
		ok("API guard: addr=" + cfg.HTTPAddr)
	}

	if cfg.SlackWebhook == "" {
		warn("slack_webhook empty; escalations will only reach the log")
	}

	if failed {
		os.Exit(1)
	}
}
