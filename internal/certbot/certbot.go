package certbot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/executor"
)

// Cert holds the on-disk paths of an issued certificate.
type Cert struct {
	Domain   string
	CertPath string
	KeyPath  string
}

// letsencryptDir is the base directory certbot stores live certificates under.
const letsencryptDir = "/etc/letsencrypt/live"

// cmdExecutor is the command executor (can be replaced for testing)
var cmdExecutor executor.CommandExecutor = executor.NewSystemExecutor()

// SetExecutor allows tests to inject a mock executor
func SetExecutor(exec executor.CommandExecutor) {
	cmdExecutor = exec
}

// ResetExecutor resets the executor to the default system executor
func ResetExecutor() {
	cmdExecutor = executor.NewSystemExecutor()
}

// IsInstalled checks if certbot and its Cloudflare DNS plugin are available.
// The plugin registers itself with certbot, so probing the binary is enough
// for the first check; the plugin is verified at issue time by certbot itself.
func IsInstalled() bool {
	_, err := cmdExecutor.LookPath("certbot")
	return err == nil
}

// Paths returns the live certificate paths certbot uses for a domain.
func Paths(domain string) *Cert {
	return &Cert{
		Domain:   domain,
		CertPath: filepath.Join(letsencryptDir, domain, "fullchain.pem"),
		KeyPath:  filepath.Join(letsencryptDir, domain, "privkey.pem"),
	}
}

// writeCredentials writes a certbot-cloudflare credentials file containing the
// API token. The file is mode 0600 and must be removed by the caller.
func writeCredentials(token string) (string, error) {
	f, err := os.CreateTemp("", "cloudflare-*.ini")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeConfig, "create credentials file", err)
	}
	path := f.Name()

	if err := f.Chmod(0600); err != nil {
		f.Close()
		os.Remove(path)
		return "", errors.Wrap(errors.ErrCodeConfig, "restrict credentials file", err)
	}
	if _, err := fmt.Fprintf(f, "dns_cloudflare_api_token = %s\n", token); err != nil {
		f.Close()
		os.Remove(path)
		return "", errors.Wrap(errors.ErrCodeConfig, "write credentials file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", errors.Wrap(errors.ErrCodeConfig, "write credentials file", err)
	}
	return path, nil
}

// Issue obtains a certificate for domain via the DNS-01 challenge using the
// Cloudflare plugin. The API token is written to a temporary credentials file
// that is removed before Issue returns, success or not.
func Issue(ctx context.Context, domain, email, token string) (*Cert, error) {
	if !IsInstalled() {
		return nil, errors.Wrap(errors.ErrCodeUnreachable,
			"certbot is not installed (apt install certbot python3-certbot-dns-cloudflare)", nil)
	}

	credPath, err := writeCredentials(token)
	if err != nil {
		return nil, err
	}
	defer os.Remove(credPath)

	args := []string{
		"certonly",
		"--dns-cloudflare",
		"--dns-cloudflare-credentials", credPath,
		"-d", domain,
		"--email", email,
		"--agree-tos",
		"--non-interactive",
	}

	output, err := cmdExecutor.ExecuteContext(ctx, "certbot", args...)
	if err != nil {
		return nil, errors.Stage(errors.ErrCodeIssuance, "certbot",
			"certbot failed", strings.TrimSpace(string(output)), err)
	}
	return Paths(domain), nil
}

// Renew renews the certificate for a domain. Credentials are not needed:
// certbot remembers the plugin configuration from the original issuance.
func Renew(ctx context.Context, domain string) error {
	if !IsInstalled() {
		return errors.Wrap(errors.ErrCodeUnreachable, "certbot is not installed", nil)
	}

	args := []string{
		"renew",
		"--cert-name", domain,
		"--non-interactive",
	}
	output, err := cmdExecutor.ExecuteContext(ctx, "certbot", args...)
	if err != nil {
		return errors.Stage(errors.ErrCodeIssuance, "certbot",
			"certbot renew failed", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// List returns the domains of all certbot-managed certificates.
func List(ctx context.Context) ([]string, error) {
	if !IsInstalled() {
		return nil, errors.Wrap(errors.ErrCodeUnreachable, "certbot is not installed", nil)
	}

	output, err := cmdExecutor.ExecuteContext(ctx, "certbot", "certificates")
	if err != nil {
		return nil, errors.Stage(errors.ErrCodeIssuance, "certbot",
			"certbot certificates failed", strings.TrimSpace(string(output)), err)
	}

	var domains []string
	for _, line := range strings.Split(string(output), "\n") {
		if strings.Contains(line, "Certificate Name:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				domains = append(domains, strings.TrimSpace(parts[1]))
			}
		}
	}
	return domains, nil
}
