package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/config"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/input"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/output"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/proxmox"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/verify"
	"github.com/spf13/cobra"
)

// Environment variables consulted for credentials when flags are not given.
const (
	envProxmoxToken    = "PROXMOX_API_TOKEN"
	envCloudflareToken = "CLOUDFLARE_API_TOKEN"
	envCloudflareAlt   = "CF_API_TOKEN"
)

// cmdContext returns the command's context, falling back to Background when
// the command is invoked outside cobra (tests call run functions directly).
func cmdContext(cmd *cobra.Command) context.Context {
	if cmd != nil {
		if ctx := cmd.Context(); ctx != nil {
			return ctx
		}
	}
	return context.Background()
}

// resolveKind picks the target kind from flag, then config default.
func resolveKind(flagVal string, cfg *config.Config) (proxmox.Kind, error) {
	s := flagVal
	if s == "" {
		s = cfg.Target
	}
	return proxmox.ParseKind(s)
}

// resolveDNSToken returns the Cloudflare API token from the flag or the
// environment. The token is never echoed back or logged.
func resolveDNSToken(flagVal string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	if tok := os.Getenv(envCloudflareToken); tok != "" {
		return tok, nil
	}
	if tok := os.Getenv(envCloudflareAlt); tok != "" {
		return tok, nil
	}
	return "", fmt.Errorf("Cloudflare API token required (--dns-token or %s)", envCloudflareToken)
}

// resolveAPIToken returns the Proxmox API token for remote mode.
func resolveAPIToken(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return os.Getenv(envProxmoxToken)
}

// verifyOptions builds poll tuning from config defaults with flag overrides.
// A negative flag value means "not set".
func verifyOptions(cfg *config.Config, wait, interval, attempts int) verify.Options {
	opts := verify.Options{
		InitialWait: time.Duration(cfg.WaitSeconds) * time.Second,
		Interval:    time.Duration(cfg.PollIntervalSeconds) * time.Second,
		MaxAttempts: cfg.PollAttempts,
	}
	if wait >= 0 {
		opts.InitialWait = time.Duration(wait) * time.Second
	}
	if interval > 0 {
		opts.Interval = time.Duration(interval) * time.Second
	}
	if attempts > 0 {
		opts.MaxAttempts = attempts
	}
	return opts
}

// confirm prompts the user before a mutating action. Returns true when the
// user answers affirmatively or confirmation was pre-approved with --yes.
func confirm(prompt string, assumeYes bool) bool {
	if assumeYes {
		return true
	}
	output.Print("%s [y/N]: ", prompt)
	return input.Confirm(deps.StdinReader)
}

// outputResult handles JSON or human-readable output
func outputResult(data interface{}, successMsg string, args ...interface{}) error {
	if jsonOutput {
		return output.JSON(data)
	}
	output.Success(successMsg, args...)
	return nil
}

// validateDomain checks if domain is valid
func validateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	if strings.Contains(domain, " ") {
		return fmt.Errorf("domain cannot contain spaces")
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return fmt.Errorf("domain cannot start or end with hyphen")
	}
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("domain must be fully qualified: %s", domain)
	}
	return nil
}

// CommandResult represents a common result structure for CLI commands
type CommandResult struct {
	Success bool   `json:"success"`
	Domain  string `json:"domain"`
	Action  string `json:"action,omitempty"`
	Message string `json:"message,omitempty"`
}
