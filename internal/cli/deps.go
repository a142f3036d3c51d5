package cli

import (
	"os"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/config"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/input"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/proxmox"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	ConfigLoader  ConfigLoader
	ClientFactory ClientFactory
	RootChecker   RootChecker
	StdinReader   input.Reader
}

// ConfigLoader handles configuration loading and saving
type ConfigLoader interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
}

// ClientFactory creates management clients. An empty apiURL selects local
// mode, which shells out to the node's own administration CLI.
type ClientFactory interface {
	Create(kind proxmox.Kind, apiURL, token string) (proxmox.Client, error)
}

// RootChecker checks root privileges
type RootChecker interface {
	RequireRoot() error
}

// Package-level dependencies (can be overridden for testing)
var deps = &Dependencies{
	ConfigLoader:  &realConfigLoader{},
	ClientFactory: &realClientFactory{},
	RootChecker:   &realRootChecker{},
	StdinReader:   input.NewStdinReader(),
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

// Real implementations that delegate to existing functions

type realConfigLoader struct{}

func (r *realConfigLoader) Load() (*config.Config, error) {
	return config.Load()
}

func (r *realConfigLoader) Save(cfg *config.Config) error {
	return cfg.Save()
}

type realClientFactory struct{}

func (r *realClientFactory) Create(kind proxmox.Kind, apiURL, token string) (proxmox.Client, error) {
	if apiURL == "" {
		client := proxmox.NewLocalClient(kind)
		if !client.Available() {
			return nil, errors.Unreachable(nil)
		}
		return client, nil
	}
	if token == "" {
		return nil, errors.Validation("an API token is required for remote mode (--api-token or PROXMOX_API_TOKEN)")
	}
	return proxmox.NewHTTPClient(apiURL, token, kind), nil
}

type realRootChecker struct{}

func (r *realRootChecker) RequireRoot() error {
	if os.Geteuid() != 0 {
		return errors.ErrRootRequired
	}
	return nil
}
