package proxmox

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/executor"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/logger"
)

// LocalClient implements Client by shelling out to the host's administration
// CLI: pvesh on Proxmox VE, proxmox-backup-manager on Proxmox Backup Server.
// It relies on ambient root privileges instead of an API token.
type LocalClient struct {
	kind Kind
	exec executor.CommandExecutor
}

// NewLocalClient creates a local client for the given target kind.
func NewLocalClient(kind Kind) *LocalClient {
	return NewLocalClientWithExecutor(kind, executor.NewSystemExecutor())
}

// NewLocalClientWithExecutor creates a local client with a custom executor
// (for testing).
func NewLocalClientWithExecutor(kind Kind, exec executor.CommandExecutor) *LocalClient {
	return &LocalClient{kind: kind, exec: exec}
}

// Available reports whether the administration CLI is installed.
func (c *LocalClient) Available() bool {
	_, err := c.exec.LookPath(c.kind.AdminCommand())
	return err == nil
}

// run executes the administration CLI and classifies failures.
func (c *LocalClient) run(ctx context.Context, args ...string) (string, error) {
	cmd := c.kind.AdminCommand()
	if _, err := c.exec.LookPath(cmd); err != nil {
		return "", errors.Unreachable(fmt.Errorf("%s not found in PATH", cmd))
	}

	logger.Debug("exec %s %s", cmd, strings.Join(args, " "))

	out, err := c.exec.ExecuteContext(ctx, cmd, args...)
	output := strings.TrimSpace(string(out))
	if err != nil {
		lower := strings.ToLower(output)
		switch {
		case isExistsMarker(output):
			return output, errors.AlreadyExists("resource")
		case strings.Contains(lower, "permission denied") || strings.Contains(lower, "authentication"):
			return output, errors.Unauthorized(output)
		default:
			return output, errors.Wrap(errors.ErrCodeInternal, "command failed",
				fmt.Errorf("%s: %w (output: %s)", cmd, err, output))
		}
	}
	return output, nil
}

// Version probes the local administration CLI and returns the version string.
func (c *LocalClient) Version(ctx context.Context) (string, error) {
	var args []string
	if c.kind == KindPBS {
		args = []string{"version", "--output-format", "json"}
	} else {
		args = []string{"get", "/version", "--output-format", "json"}
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		return "", err
	}

	var payload struct {
		Version string `json:"version"`
		Release string `json:"release"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "decode version output", err)
	}
	version := payload.Version
	if payload.Release != "" {
		version = fmt.Sprintf("%s-%s", version, payload.Release)
	}
	return version, nil
}

// RegisterAccount creates an ACME account through the administration CLI.
func (c *LocalClient) RegisterAccount(ctx context.Context, params AccountParams) error {
	var args []string
	if c.kind == KindPBS {
		args = []string{"acme", "account", "register", params.Name, params.Contact,
			"--directory", params.Directory}
	} else {
		args = []string{"create", "/cluster/acme/account",
			"--name", params.Name,
			"--contact", params.Contact,
			"--directory", params.Directory}
		if params.TOSURL != "" {
			args = append(args, "--tos_url", params.TOSURL)
		}
	}

	_, err := c.run(ctx, args...)
	return err
}

// UpsertPlugin registers the DNS challenge plugin, updating the credential
// if the plugin already exists.
func (c *LocalClient) UpsertPlugin(ctx context.Context, params PluginParams) error {
	var create []string
	if c.kind == KindPBS {
		create = []string{"acme", "plugin", "add", params.Type, params.ID,
			"--api", params.API, "--data", params.Data}
	} else {
		create = []string{"create", "/cluster/acme/plugins",
			"--id", params.ID,
			"--type", params.Type,
			"--api", params.API,
			"--data", params.Data}
	}

	_, err := c.run(ctx, create...)
	if !errors.Is(err, errors.ErrAlreadyExists) {
		return err
	}

	// Existing plugin: push the (possibly changed) credential.
	var update []string
	if c.kind == KindPBS {
		update = []string{"acme", "plugin", "update", params.ID, "--data", params.Data}
	} else {
		update = []string{"set", "/cluster/acme/plugins/" + params.ID, "--data", params.Data}
	}
	if _, uerr := c.run(ctx, update...); uerr != nil && !errors.Is(uerr, errors.ErrAlreadyExists) {
		return uerr
	}
	return errors.AlreadyExists("challenge plugin")
}

// BindDomain associates the domain with the account and plugin in the node
// configuration.
func (c *LocalClient) BindDomain(ctx context.Context, node string, binding DomainBinding) error {
	acmedomain := fmt.Sprintf("domain=%s,plugin=%s", binding.Domain, binding.Plugin)

	var args []string
	if c.kind == KindPBS {
		args = []string{"node", "update",
			"--acme", "account=" + binding.Account,
			"--acmedomain0", acmedomain}
	} else {
		args = []string{"set", "/nodes/" + node + "/config",
			"--acme", "account=" + binding.Account,
			"--acmedomain0", acmedomain}
	}

	_, err := c.run(ctx, args...)
	return err
}

// OrderCertificate triggers ACME issuance.
func (c *LocalClient) OrderCertificate(ctx context.Context, node string, force bool) error {
	var args []string
	if c.kind == KindPBS {
		args = []string{"acme", "cert", "order"}
		if force {
			args = append(args, "--force")
		}
	} else {
		args = []string{"create", "/nodes/" + node + "/certificates/acme/certificate"}
		if force {
			args = append(args, "--force", "1")
		}
	}

	out, err := c.run(ctx, args...)
	if err != nil && !errors.Is(err, errors.ErrAlreadyExists) {
		return errors.Stage(errors.ErrCodeIssuance, "order", "issuance trigger rejected", out, err)
	}
	return nil
}

// CertificateInfo lists the certificates installed on the node.
func (c *LocalClient) CertificateInfo(ctx context.Context, node string) ([]CertInfo, error) {
	var args []string
	if c.kind == KindPBS {
		args = []string{"cert", "info", "--output-format", "json"}
	} else {
		args = []string{"get", "/nodes/" + node + "/certificates/info", "--output-format", "json"}
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var certs []CertInfo
	if err := json.Unmarshal([]byte(out), &certs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "decode certificate listing", err)
	}
	return certs, nil
}
