package cli

import (
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/config"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/input"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/proxmox"
)

// MockConfigLoader is a test double for ConfigLoader
type MockConfigLoader struct {
	Cfg       *config.Config
	LoadErr   error
	SaveErr   error
	SaveCalls int
}

func (m *MockConfigLoader) Load() (*config.Config, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Cfg == nil {
		m.Cfg = config.New()
	}
	return m.Cfg, nil
}

func (m *MockConfigLoader) Save(cfg *config.Config) error {
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Cfg = cfg
	return nil
}

// MockClientFactory is a test double for ClientFactory
type MockClientFactory struct {
	Client proxmox.Client
	Err    error
	Calls  []FactoryCall
}

// FactoryCall records the arguments of a Create call
type FactoryCall struct {
	Kind   proxmox.Kind
	APIURL string
	Token  string
}

func (m *MockClientFactory) Create(kind proxmox.Kind, apiURL, token string) (proxmox.Client, error) {
	m.Calls = append(m.Calls, FactoryCall{Kind: kind, APIURL: apiURL, Token: token})
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Client != nil {
		return m.Client, nil
	}
	return &proxmox.MockClient{}, nil
}

// MockRootChecker is a test double for RootChecker
type MockRootChecker struct {
	IsRoot bool
	Calls  int
}

func (m *MockRootChecker) RequireRoot() error {
	m.Calls++
	if !m.IsRoot {
		return errors.ErrRootRequired
	}
	return nil
}

// MockDependenciesBuilder helps create mock dependencies for tests
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a new MockDependenciesBuilder with sensible defaults
func NewMockDeps() *MockDependenciesBuilder {
	return &MockDependenciesBuilder{
		deps: &Dependencies{
			ConfigLoader:  &MockConfigLoader{Cfg: config.New()},
			ClientFactory: &MockClientFactory{},
			RootChecker:   &MockRootChecker{IsRoot: true},
			StdinReader:   input.NewStringReader("y\n"),
		},
	}
}

// WithConfig sets the config for the mock
func (b *MockDependenciesBuilder) WithConfig(cfg *config.Config) *MockDependenciesBuilder {
	b.deps.ConfigLoader = &MockConfigLoader{Cfg: cfg}
	return b
}

// WithClient sets the management client returned by the factory
func (b *MockDependenciesBuilder) WithClient(client proxmox.Client) *MockDependenciesBuilder {
	b.deps.ClientFactory = &MockClientFactory{Client: client}
	return b
}

// WithClientFactory sets a custom client factory
func (b *MockDependenciesBuilder) WithClientFactory(factory ClientFactory) *MockDependenciesBuilder {
	b.deps.ClientFactory = factory
	return b
}

// WithRootAccess sets whether root access is available
func (b *MockDependenciesBuilder) WithRootAccess(isRoot bool) *MockDependenciesBuilder {
	b.deps.RootChecker = &MockRootChecker{IsRoot: isRoot}
	return b
}

// WithStdinInput sets the stdin input for the mock
func (b *MockDependenciesBuilder) WithStdinInput(inputs ...string) *MockDependenciesBuilder {
	b.deps.StdinReader = input.NewStringReader(inputs...)
	return b
}

// Build returns the configured Dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}

// setTestDeps installs mock deps and restores the originals on cleanup
func setTestDeps(t interface {
	Helper()
	Cleanup(func())
}, d *Dependencies) {
	t.Helper()
	old := deps
	deps = d
	t.Cleanup(func() {
		deps = old
	})
}
