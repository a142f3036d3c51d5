package cli

import (
	"fmt"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/output"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	provTarget       string
	provNode         string
	provAPIURL       string
	provAPIToken     string
	provDNSToken     string
	provEmail        string
	provAccount      string
	provPlugin       string
	provDirectory    string
	provForce        bool
	provSkipSmoke    bool
	provWait         int
	provPollInterval int
	provPollAttempts int
	provAssumeYes    bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision <domain>",
	Short: "Provision a certificate through the node's ACME integration",
	Long: `Configure the node's ACME stack and order a certificate for the domain.

The command registers an ACME account, configures the Cloudflare DNS challenge
plugin, binds the domain to the node, triggers issuance, and polls until the
certificate is served. Existing accounts and plugins are reused.

Runs against the local node by default. Pass --api-url and an API token to
manage a remote node.

Examples:
  proxmox-ssl-setup provision pve1.example.com --email admin@example.com
  proxmox-ssl-setup provision pbs1.example.com --target pbs --email admin@example.com
  proxmox-ssl-setup provision pve1.example.com --api-url https://pve1.example.com:8006 \
      --api-token 'root@pam!setup=...' --email admin@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().StringVarP(&provTarget, "target", "t", "", "Target product: ve or pbs (default from config)")
	provisionCmd.Flags().StringVarP(&provNode, "node", "n", "", "Node name for node-scoped calls (default from config)")
	provisionCmd.Flags().StringVar(&provAPIURL, "api-url", "", "Management API URL for remote mode (empty = local mode)")
	provisionCmd.Flags().StringVar(&provAPIToken, "api-token", "", "Proxmox API token for remote mode (or PROXMOX_API_TOKEN)")
	provisionCmd.Flags().StringVar(&provDNSToken, "dns-token", "", "Cloudflare API token (or CLOUDFLARE_API_TOKEN)")
	provisionCmd.Flags().StringVarP(&provEmail, "email", "e", "", "ACME contact email (default from config)")
	provisionCmd.Flags().StringVar(&provAccount, "account", "", "ACME account name (default \"default\")")
	provisionCmd.Flags().StringVar(&provPlugin, "plugin", "", "Challenge plugin identifier (default \"cloudflare\")")
	provisionCmd.Flags().StringVar(&provDirectory, "directory", "", "ACME directory URL (default Let's Encrypt production)")
	provisionCmd.Flags().BoolVar(&provForce, "force", false, "Order even if a valid certificate exists")
	provisionCmd.Flags().BoolVar(&provSkipSmoke, "skip-smoke-test", false, "Skip the external TLS connection check")
	provisionCmd.Flags().IntVar(&provWait, "wait", -1, "Seconds to wait before the first verification poll")
	provisionCmd.Flags().IntVar(&provPollInterval, "poll-interval", 0, "Seconds between verification polls")
	provisionCmd.Flags().IntVar(&provPollAttempts, "poll-attempts", 0, "Maximum number of verification polls")
	provisionCmd.Flags().BoolVarP(&provAssumeYes, "yes", "y", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, args []string) error {
	domain := args[0]

	if err := validateDomain(domain); err != nil {
		return err
	}

	cfg, err := deps.ConfigLoader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	kind, err := resolveKind(provTarget, cfg)
	if err != nil {
		return err
	}

	node := provNode
	if node == "" {
		node = cfg.Node
	}
	apiURL := provAPIURL
	if apiURL == "" {
		apiURL = cfg.APIURL
	}
	email := provEmail
	if email == "" {
		email = cfg.Email
	}
	directory := provDirectory
	if directory == "" {
		directory = cfg.Directory
	}

	dnsToken, err := resolveDNSToken(provDNSToken)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Domain:        domain,
		Email:         email,
		DNSToken:      dnsToken,
		Kind:          kind,
		Node:          node,
		Account:       provAccount,
		PluginID:      provPlugin,
		Directory:     directory,
		Force:         provForce,
		Verify:        verifyOptions(cfg, provWait, provPollInterval, provPollAttempts),
		SkipSmokeTest: provSkipSmoke,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if !confirm(fmt.Sprintf("Provision a certificate for %s on node %s", domain, node), provAssumeYes) {
		output.Info("Aborted")
		return nil
	}

	// Local mode shells out to the node administration CLI and needs root.
	if apiURL == "" {
		if err := deps.RootChecker.RequireRoot(); err != nil {
			return err
		}
	}

	client, err := deps.ClientFactory.Create(kind, apiURL, resolveAPIToken(provAPIToken))
	if err != nil {
		return err
	}

	result, err := pipeline.New(client, req).Run(cmdContext(cmd))
	if err != nil {
		if jsonOutput {
			// Emit the partial result so scripts can see how far the run got.
			_ = output.JSON(result)
		}
		return err
	}

	return outputResult(result, "Certificate for %s provisioned and verified", domain)
}
