// Package platform provides platform-specific path detection for Proxmox
// installations.
package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/proxmox"
)

// Paths contains the certificate destinations and the proxy service of a
// Proxmox product.
type Paths struct {
	CertPath string
	KeyPath  string
	Service  string
}

// PathsFor returns the certificate paths and proxy service for a product kind.
func PathsFor(kind proxmox.Kind) Paths {
	switch kind {
	case proxmox.KindPBS:
		return Paths{
			CertPath: "/etc/proxmox-backup/proxy.pem",
			KeyPath:  "/etc/proxmox-backup/proxy.key",
			Service:  "proxmox-backup-proxy",
		}
	default:
		return Paths{
			CertPath: "/etc/pve/local/pveproxy-ssl.pem",
			KeyPath:  "/etc/pve/local/pveproxy-ssl.key",
			Service:  "pveproxy",
		}
	}
}

// Detect determines which Proxmox product is installed on this host by
// checking for its configuration directory. VE wins if both are present.
func Detect() (proxmox.Kind, error) {
	return detect("/")
}

func detect(root string) (proxmox.Kind, error) {
	if pathExists(filepath.Join(root, "etc/pve")) {
		return proxmox.KindVE, nil
	}
	if pathExists(filepath.Join(root, "etc/proxmox-backup")) {
		return proxmox.KindPBS, nil
	}
	return "", fmt.Errorf("no Proxmox installation found (checked /etc/pve and /etc/proxmox-backup)")
}

// pathExists checks if a path exists.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
