package cli

import (
	"os"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/logger"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	verbose    bool
	version    = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "proxmox-ssl-setup",
	Short: "TLS certificate provisioning for Proxmox VE and Backup Server",
	Long: `proxmox-ssl-setup provisions trusted TLS certificates for Proxmox VE and
Proxmox Backup Server using the DNS-01 challenge with Cloudflare.

It configures the node's own ACME integration (account, challenge plugin,
domain binding), triggers issuance, and verifies the certificate is served.
A direct mode issues certificates without the node integration, via certbot
or a built-in ACME client.`,
}

// Execute runs the root command
func Execute() {
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
}
