package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/config"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/executor"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/output"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/platform"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/proxmox"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system status and diagnose issues",
	Long: `Run diagnostic checks on the host and configuration.

Checks:
  - Which Proxmox product is installed
  - Administration CLI availability (pvesh, proxmox-backup-manager)
  - Certbot and its Cloudflare plugin
  - Credential environment variables
  - Configuration file validity
  - Management endpoint reachability

Examples:
  proxmox-ssl-setup doctor
  proxmox-ssl-setup doctor --json`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// CheckResult represents a single diagnostic check result
type CheckResult struct {
	Status  string `json:"status"` // "success", "warning", "error"
	Message string `json:"message"`
}

// DoctorReport contains all diagnostic results
type DoctorReport struct {
	Host          []CheckResult `json:"host"`
	Configuration []CheckResult `json:"configuration"`
	Endpoint      []CheckResult `json:"endpoint"`
}

// detectProduct is replaceable in tests.
var detectProduct = platform.Detect

func runDoctor(cmd *cobra.Command, args []string) error {
	exec := executor.NewSystemExecutor()

	report := &DoctorReport{}
	report.Host = checkHost(exec)
	cfg, cfgChecks := checkConfiguration()
	report.Configuration = cfgChecks
	report.Endpoint = checkEndpoint(cmd, cfg)

	if jsonOutput {
		return output.JSON(report)
	}

	displayDoctorResults(report)
	return nil
}

func checkHost(exec executor.CommandExecutor) []CheckResult {
	results := []CheckResult{}

	if kind, err := detectProduct(); err == nil {
		name := "Proxmox VE"
		if kind == proxmox.KindPBS {
			name = "Proxmox Backup Server"
		}
		results = append(results, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("%s installation detected", name),
		})
	} else {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: "No Proxmox installation detected (remote mode only)",
		})
	}

	adminCLIs := []struct {
		binary  string
		product string
	}{
		{"pvesh", "VE"},
		{"proxmox-backup-manager", "PBS"},
	}
	for _, cli := range adminCLIs {
		if _, err := exec.LookPath(cli.binary); err == nil {
			results = append(results, CheckResult{
				Status:  "success",
				Message: fmt.Sprintf("%s available (%s local mode)", cli.binary, cli.product),
			})
		} else {
			results = append(results, CheckResult{
				Status:  "warning",
				Message: fmt.Sprintf("%s not found (%s local mode unavailable)", cli.binary, cli.product),
			})
		}
	}

	if _, err := exec.LookPath("certbot"); err == nil {
		results = append(results, CheckResult{
			Status:  "success",
			Message: "certbot installed (direct mode available)",
		})
	} else {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: "certbot not installed (direct mode falls back to built-in client)",
		})
	}

	if os.Getenv(envCloudflareToken) != "" || os.Getenv(envCloudflareAlt) != "" {
		results = append(results, CheckResult{
			Status:  "success",
			Message: "Cloudflare API token present in environment",
		})
	} else {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: fmt.Sprintf("%s not set (pass --dns-token instead)", envCloudflareToken),
		})
	}

	if os.Geteuid() == 0 {
		results = append(results, CheckResult{
			Status:  "success",
			Message: "Running as root (local mode available)",
		})
	} else {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: "Not running as root (local mode requires sudo)",
		})
	}

	return results
}

func checkConfiguration() (*config.Config, []CheckResult) {
	results := []CheckResult{}

	cfg, err := deps.ConfigLoader.Load()
	if err != nil {
		results = append(results, CheckResult{
			Status:  "error",
			Message: fmt.Sprintf("Config file invalid: %v", err),
		})
		return nil, results
	}
	results = append(results, CheckResult{
		Status:  "success",
		Message: "Config file valid",
	})

	if _, err := proxmox.ParseKind(cfg.Target); err != nil {
		results = append(results, CheckResult{
			Status:  "error",
			Message: fmt.Sprintf("Config target invalid: %v", err),
		})
	} else {
		results = append(results, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("Default target: %s, node: %s", cfg.Target, cfg.Node),
		})
	}

	return cfg, results
}

func checkEndpoint(cmd *cobra.Command, cfg *config.Config) []CheckResult {
	results := []CheckResult{}
	if cfg == nil {
		return results
	}

	kind, err := proxmox.ParseKind(cfg.Target)
	if err != nil {
		return results
	}

	client, err := deps.ClientFactory.Create(kind, cfg.APIURL, resolveAPIToken(""))
	if err != nil {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: fmt.Sprintf("Management client unavailable: %v", err),
		})
		return results
	}

	version, err := client.Version(cmdContext(cmd))
	if err != nil {
		results = append(results, CheckResult{
			Status:  "error",
			Message: fmt.Sprintf("Endpoint probe failed: %v", err),
		})
		return results
	}
	results = append(results, CheckResult{
		Status:  "success",
		Message: fmt.Sprintf("Endpoint reachable, version %s", version),
	})

	certs, err := client.CertificateInfo(cmdContext(cmd), cfg.Node)
	if err != nil {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: fmt.Sprintf("Certificate listing failed: %v", err),
		})
		return results
	}
	for _, cert := range certs {
		if cert.NotAfter.IsZero() {
			continue
		}
		days := int(time.Until(cert.NotAfter.Time).Hours() / 24)
		switch {
		case days < 0:
			results = append(results, CheckResult{
				Status:  "error",
				Message: fmt.Sprintf("%s expired on %s", cert.Filename, cert.NotAfter.Format("2006-01-02")),
			})
		case days < 30:
			results = append(results, CheckResult{
				Status:  "warning",
				Message: fmt.Sprintf("%s expires in %d days", cert.Filename, days),
			})
		default:
			results = append(results, CheckResult{
				Status:  "success",
				Message: fmt.Sprintf("%s valid for %d more days", cert.Filename, days),
			})
		}
	}
	return results
}

func displayDoctorResults(report *DoctorReport) {
	sections := []struct {
		title  string
		checks []CheckResult
	}{
		{"Host", report.Host},
		{"Configuration", report.Configuration},
		{"Endpoint", report.Endpoint},
	}

	for _, section := range sections {
		if len(section.checks) == 0 {
			continue
		}
		output.Print("%s:", section.title)
		for _, check := range section.checks {
			switch check.Status {
			case "success":
				output.Success("  %s", check.Message)
			case "warning":
				output.Warn("  %s", check.Message)
			default:
				output.Error("  %s", check.Message)
			}
		}
		output.Print("")
	}
}
