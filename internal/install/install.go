// Package install places issued certificates into the Proxmox proxy
// locations and restarts the proxy service so the new certificate is served.
package install

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/executor"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/logger"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/platform"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/proxmox"
)

// backupTimestamp is the layout used for backup file suffixes.
const backupTimestamp = "20060102-150405"

// Installer writes certificate material to a product's proxy paths.
type Installer struct {
	Paths   platform.Paths
	Exec    executor.CommandExecutor
	Restart bool

	// now is overridable for deterministic backup names in tests.
	now func() time.Time
}

// New creates an installer for the given product kind. The proxy service is
// restarted after installation unless disabled with SkipRestart.
func New(kind proxmox.Kind) *Installer {
	return &Installer{
		Paths:   platform.PathsFor(kind),
		Exec:    executor.NewSystemExecutor(),
		Restart: true,
		now:     time.Now,
	}
}

// SkipRestart disables the service restart after installation.
func (i *Installer) SkipRestart() *Installer {
	i.Restart = false
	return i
}

// backup moves an existing file aside with a timestamped suffix. Missing
// files are not an error: first installation has nothing to preserve.
func (i *Installer) backup(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	now := i.now
	if now == nil {
		now = time.Now
	}
	ts := now().Format(backupTimestamp)
	backupPath := fmt.Sprintf("%s.%s.bak", path, ts)
	if err := os.Rename(path, backupPath); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("backup %s", path), err)
	}
	logger.Info("backed up %s to %s", path, backupPath)
	return nil
}

func writeFile(path string, data []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("write %s", path), err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("write %s", path), err)
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("write %s", path), err)
	}
	return nil
}

// Install backs up any existing certificate and key, writes the new pair,
// and restarts the proxy service. The certificate is mode 0640, the key 0600.
func (i *Installer) Install(ctx context.Context, certPEM, keyPEM []byte) error {
	if len(certPEM) == 0 || len(keyPEM) == 0 {
		return errors.Validation("certificate and key must not be empty")
	}

	if err := i.backup(i.Paths.CertPath); err != nil {
		return err
	}
	if err := i.backup(i.Paths.KeyPath); err != nil {
		return err
	}

	if err := writeFile(i.Paths.CertPath, certPEM, 0640); err != nil {
		return err
	}
	if err := writeFile(i.Paths.KeyPath, keyPEM, 0600); err != nil {
		return err
	}
	logger.Info("installed certificate to %s", i.Paths.CertPath)

	if !i.Restart {
		return nil
	}
	return i.restartService(ctx)
}

// InstallFiles installs from existing PEM files, e.g. certbot's live directory.
func (i *Installer) InstallFiles(ctx context.Context, certPath, keyPath string) error {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("read %s", certPath), err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("read %s", keyPath), err)
	}
	return i.Install(ctx, certPEM, keyPEM)
}

func (i *Installer) restartService(ctx context.Context) error {
	output, err := i.Exec.ExecuteContext(ctx, "systemctl", "restart", i.Paths.Service)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("restart %s: %s", i.Paths.Service, strings.TrimSpace(string(output))), err)
	}
	logger.Info("restarted %s", i.Paths.Service)
	return nil
}
