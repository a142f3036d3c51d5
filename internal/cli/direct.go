package cli

import (
	"fmt"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/acme"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/certbot"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/install"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/output"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/proxmox"
	"github.com/spf13/cobra"
)

var (
	directTarget    string
	directMode      string
	directEmail     string
	directDNSToken  string
	directDirectory string
	directNoRestart bool
	directAssumeYes bool
)

// Issuance hooks, replaceable in tests.
var (
	certbotInstalled = certbot.IsInstalled
	certbotIssue     = certbot.Issue
	builtinIssue     = func(email, token, directory, domain string) (*acme.Bundle, error) {
		issuer, err := acme.NewIssuer(email, token, directory)
		if err != nil {
			return nil, err
		}
		return issuer.Obtain(domain)
	}
	newInstaller = func(kind proxmox.Kind, restart bool) *install.Installer {
		inst := install.New(kind)
		if !restart {
			inst.SkipRestart()
		}
		return inst
	}
)

var directCmd = &cobra.Command{
	Use:   "direct <domain>",
	Short: "Issue and install a certificate without the node ACME integration",
	Long: `Obtain a certificate via the DNS-01 challenge and install it into the
product's proxy paths directly, bypassing the node's ACME stack.

Issuance runs through certbot with the Cloudflare plugin when certbot is
installed, or through the built-in ACME client otherwise. The existing
certificate and key are backed up before being replaced, and the proxy
service is restarted so the new certificate is served.

Examples:
  proxmox-ssl-setup direct pve1.example.com --email admin@example.com
  proxmox-ssl-setup direct pbs1.example.com --target pbs --mode builtin \
      --email admin@example.com --dns-token "$CLOUDFLARE_API_TOKEN"`,
	Args: cobra.ExactArgs(1),
	RunE: runDirect,
}

func init() {
	directCmd.Flags().StringVarP(&directTarget, "target", "t", "", "Target product: ve or pbs (default from config)")
	directCmd.Flags().StringVarP(&directMode, "mode", "m", "auto", "Issuance mode: auto, certbot, or builtin")
	directCmd.Flags().StringVarP(&directEmail, "email", "e", "", "ACME contact email (default from config)")
	directCmd.Flags().StringVar(&directDNSToken, "dns-token", "", "Cloudflare API token (or CLOUDFLARE_API_TOKEN)")
	directCmd.Flags().StringVar(&directDirectory, "directory", "", "ACME directory URL (default Let's Encrypt production)")
	directCmd.Flags().BoolVar(&directNoRestart, "no-restart", false, "Don't restart the proxy service after installing")
	directCmd.Flags().BoolVarP(&directAssumeYes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(directCmd)
}

func resolveDirectMode(mode string) (string, error) {
	switch mode {
	case "certbot":
		if !certbotInstalled() {
			return "", fmt.Errorf("certbot is not installed (apt install certbot python3-certbot-dns-cloudflare)")
		}
		return "certbot", nil
	case "builtin":
		return "builtin", nil
	case "auto", "":
		if certbotInstalled() {
			return "certbot", nil
		}
		return "builtin", nil
	default:
		return "", fmt.Errorf("invalid mode: %s (must be auto, certbot, or builtin)", mode)
	}
}

func runDirect(cmd *cobra.Command, args []string) error {
	domain := args[0]

	if err := validateDomain(domain); err != nil {
		return err
	}

	cfg, err := deps.ConfigLoader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	kind, err := resolveKind(directTarget, cfg)
	if err != nil {
		return err
	}

	email := directEmail
	if email == "" {
		email = cfg.Email
	}
	if email == "" {
		return fmt.Errorf("contact email required (--email or config)")
	}
	directory := directDirectory
	if directory == "" {
		directory = cfg.Directory
	}

	dnsToken, err := resolveDNSToken(directDNSToken)
	if err != nil {
		return err
	}

	mode, err := resolveDirectMode(directMode)
	if err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Issue and install a certificate for %s (%s mode)", domain, mode), directAssumeYes) {
		output.Info("Aborted")
		return nil
	}

	// Installation writes under /etc and restarts a system service.
	if err := deps.RootChecker.RequireRoot(); err != nil {
		return err
	}

	installer := newInstaller(kind, !directNoRestart)
	ctx := cmdContext(cmd)

	if mode == "certbot" {
		output.Info("Issuing certificate via certbot...")
		cert, err := certbotIssue(ctx, domain, email, dnsToken)
		if err != nil {
			return err
		}
		if err := installer.InstallFiles(ctx, cert.CertPath, cert.KeyPath); err != nil {
			return err
		}
	} else {
		output.Info("Issuing certificate via built-in ACME client...")
		bundle, err := builtinIssue(email, dnsToken, directory, domain)
		if err != nil {
			return err
		}
		if err := installer.Install(ctx, bundle.Certificate, bundle.PrivateKey); err != nil {
			return err
		}
	}

	return outputResult(
		CommandResult{Success: true, Domain: domain, Action: "direct-" + mode},
		"Certificate for %s issued and installed", domain,
	)
}
