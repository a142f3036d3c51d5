// Package proxmox provides management clients for Proxmox VE and Proxmox
// Backup Server ACME configuration.
//
// The Client interface abstracts the two access modes: HTTPClient talks to
// the REST API with an API token (remote mode), LocalClient shells out to the
// host's administration CLI (local privileged mode). Pipeline stages depend
// only on the interface.
//
// All mutating operations are idempotent from the caller's perspective:
// registering an existing account or plugin returns errors.ErrAlreadyExists,
// which callers treat as success.
package proxmox

import "context"

// Client is the management interface consumed by the provisioning pipeline.
type Client interface {
	// Version probes the endpoint and returns the reported version string.
	// Errors are classified as Unreachable, Unauthorized, or unexpected.
	Version(ctx context.Context) (string, error)

	// RegisterAccount creates an ACME account. Returns
	// errors.ErrAlreadyExists if an account of that name is already
	// registered, which is not a failure.
	RegisterAccount(ctx context.Context, params AccountParams) error

	// UpsertPlugin registers a DNS challenge plugin, overwriting the stored
	// credential if the plugin already exists.
	UpsertPlugin(ctx context.Context, params PluginParams) error

	// BindDomain associates a domain with an account and plugin on the node.
	BindDomain(ctx context.Context, node string, binding DomainBinding) error

	// OrderCertificate triggers ACME certificate issuance on the node.
	// When force is true, re-issuance happens even if a valid certificate
	// is already installed.
	OrderCertificate(ctx context.Context, node string, force bool) error

	// CertificateInfo lists the certificates currently installed on the node.
	CertificateInfo(ctx context.Context, node string) ([]CertInfo, error)
}
