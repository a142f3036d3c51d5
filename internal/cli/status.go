package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/output"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/proxmox"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/verify"
	"github.com/spf13/cobra"
)

var (
	statusTarget   string
	statusNode     string
	statusAPIURL   string
	statusAPIToken string
)

var statusCmd = &cobra.Command{
	Use:   "status [domain]",
	Short: "Show the certificates installed on a node",
	Long: `List the certificates the node currently serves.

With a domain argument, additionally report whether a certificate covering
that domain is present and when it expires.

Examples:
  proxmox-ssl-setup status
  proxmox-ssl-setup status pve1.example.com
  proxmox-ssl-setup status --target pbs --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusTarget, "target", "t", "", "Target product: ve or pbs (default from config)")
	statusCmd.Flags().StringVarP(&statusNode, "node", "n", "", "Node name (default from config)")
	statusCmd.Flags().StringVar(&statusAPIURL, "api-url", "", "Management API URL for remote mode (empty = local mode)")
	statusCmd.Flags().StringVar(&statusAPIToken, "api-token", "", "Proxmox API token for remote mode (or PROXMOX_API_TOKEN)")

	rootCmd.AddCommand(statusCmd)
}

// StatusReport is the JSON shape of the status command output.
type StatusReport struct {
	Node         string             `json:"node"`
	Certificates []proxmox.CertInfo `json:"certificates"`
	Domain       string             `json:"domain,omitempty"`
	Match        *verify.Result     `json:"match,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	var domain string
	if len(args) == 1 {
		domain = args[0]
		if err := validateDomain(domain); err != nil {
			return err
		}
	}

	cfg, err := deps.ConfigLoader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	kind, err := resolveKind(statusTarget, cfg)
	if err != nil {
		return err
	}

	node := statusNode
	if node == "" {
		node = cfg.Node
	}
	apiURL := statusAPIURL
	if apiURL == "" {
		apiURL = cfg.APIURL
	}

	client, err := deps.ClientFactory.Create(kind, apiURL, resolveAPIToken(statusAPIToken))
	if err != nil {
		return err
	}

	certs, err := client.CertificateInfo(cmdContext(cmd), node)
	if err != nil {
		return err
	}

	report := StatusReport{Node: node, Certificates: certs, Domain: domain}
	if domain != "" {
		match := verify.Find(certs, domain)
		report.Match = &match
	}

	if jsonOutput {
		return output.JSON(report)
	}

	if len(certs) == 0 {
		output.Warn("No certificates found on node %s", node)
		return nil
	}

	rows := make([][]string, 0, len(certs))
	for _, cert := range certs {
		notAfter := "-"
		if !cert.NotAfter.IsZero() {
			notAfter = cert.NotAfter.Format("2006-01-02")
		}
		rows = append(rows, []string{
			cert.Filename,
			cert.Subject,
			strings.Join(cert.SAN, ", "),
			notAfter,
		})
	}
	output.Table([]string{"FILE", "SUBJECT", "SAN", "EXPIRES"}, rows)

	if domain != "" {
		switch report.Match.Status {
		case proxmox.CertPresent:
			days := int(time.Until(report.Match.NotAfter).Hours() / 24)
			output.Success("Certificate covering %s present, expires %s (%d days)",
				domain, report.Match.NotAfter.Format("2006-01-02"), days)
		default:
			output.Warn("No certificate covering %s", domain)
		}
	}
	return nil
}
