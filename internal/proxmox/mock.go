package proxmox

import "context"

// MockClient is a test double for Client
type MockClient struct {
	// Function mocks - set these to customize behavior
	VersionFunc         func(ctx context.Context) (string, error)
	RegisterAccountFunc func(ctx context.Context, params AccountParams) error
	UpsertPluginFunc    func(ctx context.Context, params PluginParams) error
	BindDomainFunc      func(ctx context.Context, node string, binding DomainBinding) error
	OrderFunc           func(ctx context.Context, node string, force bool) error
	CertInfoFunc        func(ctx context.Context, node string) ([]CertInfo, error)

	// Call tracking - check these to verify interactions
	VersionCalls  int
	AccountCalls  []AccountParams
	PluginCalls   []PluginParams
	BindCalls     []DomainBinding
	OrderCalls    []OrderCall
	CertInfoCalls int
}

// OrderCall records arguments passed to OrderCertificate
type OrderCall struct {
	Node  string
	Force bool
}

// MutatingCalls returns the total number of mutating calls issued, for
// asserting that validation failures never reach the endpoint.
func (m *MockClient) MutatingCalls() int {
	return len(m.AccountCalls) + len(m.PluginCalls) + len(m.BindCalls) + len(m.OrderCalls)
}

// Version records the call and invokes the mock function if set
func (m *MockClient) Version(ctx context.Context) (string, error) {
	m.VersionCalls++
	if m.VersionFunc != nil {
		return m.VersionFunc(ctx)
	}
	return "8.2.4", nil
}

// RegisterAccount records the call and invokes the mock function if set
func (m *MockClient) RegisterAccount(ctx context.Context, params AccountParams) error {
	m.AccountCalls = append(m.AccountCalls, params)
	if m.RegisterAccountFunc != nil {
		return m.RegisterAccountFunc(ctx, params)
	}
	return nil
}

// UpsertPlugin records the call and invokes the mock function if set
func (m *MockClient) UpsertPlugin(ctx context.Context, params PluginParams) error {
	m.PluginCalls = append(m.PluginCalls, params)
	if m.UpsertPluginFunc != nil {
		return m.UpsertPluginFunc(ctx, params)
	}
	return nil
}

// BindDomain records the call and invokes the mock function if set
func (m *MockClient) BindDomain(ctx context.Context, node string, binding DomainBinding) error {
	m.BindCalls = append(m.BindCalls, binding)
	if m.BindDomainFunc != nil {
		return m.BindDomainFunc(ctx, node, binding)
	}
	return nil
}

// OrderCertificate records the call and invokes the mock function if set
func (m *MockClient) OrderCertificate(ctx context.Context, node string, force bool) error {
	m.OrderCalls = append(m.OrderCalls, OrderCall{Node: node, Force: force})
	if m.OrderFunc != nil {
		return m.OrderFunc(ctx, node, force)
	}
	return nil
}

// CertificateInfo records the call and invokes the mock function if set
func (m *MockClient) CertificateInfo(ctx context.Context, node string) ([]CertInfo, error) {
	m.CertInfoCalls++
	if m.CertInfoFunc != nil {
		return m.CertInfoFunc(ctx, node)
	}
	return nil, nil
}
