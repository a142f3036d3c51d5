package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/proxmox"
)

func TestPathsFor(t *testing.T) {
	ve := PathsFor(proxmox.KindVE)
	if ve.CertPath != "/etc/pve/local/pveproxy-ssl.pem" {
		t.Errorf("VE CertPath = %s", ve.CertPath)
	}
	if ve.KeyPath != "/etc/pve/local/pveproxy-ssl.key" {
		t.Errorf("VE KeyPath = %s", ve.KeyPath)
	}
	if ve.Service != "pveproxy" {
		t.Errorf("VE Service = %s", ve.Service)
	}

	pbs := PathsFor(proxmox.KindPBS)
	if pbs.CertPath != "/etc/proxmox-backup/proxy.pem" {
		t.Errorf("PBS CertPath = %s", pbs.CertPath)
	}
	if pbs.KeyPath != "/etc/proxmox-backup/proxy.key" {
		t.Errorf("PBS KeyPath = %s", pbs.KeyPath)
	}
	if pbs.Service != "proxmox-backup-proxy" {
		t.Errorf("PBS Service = %s", pbs.Service)
	}
}

func TestDetect(t *testing.T) {
	root := t.TempDir()

	if _, err := detect(root); err == nil {
		t.Error("expected error when no installation is present")
	}

	if err := os.MkdirAll(filepath.Join(root, "etc/proxmox-backup"), 0755); err != nil {
		t.Fatal(err)
	}
	kind, err := detect(root)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if kind != proxmox.KindPBS {
		t.Errorf("kind = %s, want pbs", kind)
	}

	// VE takes precedence when both directories exist
	if err := os.MkdirAll(filepath.Join(root, "etc/pve"), 0755); err != nil {
		t.Fatal(err)
	}
	kind, err = detect(root)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if kind != proxmox.KindVE {
		t.Errorf("kind = %s, want ve", kind)
	}
}
