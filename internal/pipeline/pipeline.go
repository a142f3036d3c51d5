// Package pipeline runs the five-stage certificate provisioning workflow
// against a Proxmox management endpoint: connectivity probe, ACME account
// registration, DNS challenge plugin configuration, certificate ordering,
// and verification.
//
// Every mutating stage is idempotent, so a failed run can simply be
// re-invoked: re-registering an existing account or plugin is a no-op and
// re-ordering a certificate is forced explicitly. There is no rollback.
package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/logger"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/output"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/proxmox"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/verify"
)

// Defaults applied when the request leaves them empty.
const (
	DefaultAccountName = "default"
	DefaultPluginID    = "cloudflare"
	DefaultTOSURL      = "https://letsencrypt.org/documents/LE-SA.pdf"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Request carries everything one provisioning run needs. It is immutable
// once validated; stages receive it by value.
type Request struct {
	Domain    string       // certificate domain
	Email     string       // ACME contact email
	DNSToken  string       // Cloudflare API token (secret, never logged)
	Kind      proxmox.Kind // target product
	Node      string       // node name for node-scoped calls
	Account   string       // ACME account name
	PluginID  string       // challenge plugin identifier
	Directory string       // ACME directory URL
	TOSURL    string       // terms-of-service URL
	Force     bool         // re-order even if a valid certificate exists

	Verify        verify.Options // poll tuning
	SkipSmokeTest bool           // skip the external TLS check
}

// Validate checks the request before any network call is made.
func (r *Request) Validate() error {
	switch {
	case r.Domain == "":
		return errors.Validation("domain cannot be empty")
	case strings.Contains(r.Domain, " "):
		return errors.Validation("domain cannot contain spaces")
	case r.Email == "":
		return errors.Validation("contact email cannot be empty")
	case !emailPattern.MatchString(r.Email):
		return errors.Validation(fmt.Sprintf("contact email %q is not well-formed", r.Email))
	case r.DNSToken == "":
		return errors.Validation("DNS provider token cannot be empty")
	case r.Node == "":
		return errors.Validation("node name cannot be empty")
	}
	if _, err := proxmox.ParseKind(string(r.Kind)); err != nil {
		return errors.Validation(err.Error())
	}
	return nil
}

// withDefaults fills in optional fields.
func (r Request) withDefaults() Request {
	if r.Account == "" {
		r.Account = DefaultAccountName
	}
	if r.PluginID == "" {
		r.PluginID = DefaultPluginID
	}
	if r.TOSURL == "" {
		r.TOSURL = DefaultTOSURL
	}
	if r.Verify.MaxAttempts <= 0 {
		r.Verify = verify.DefaultOptions()
	}
	return r
}

// Result summarizes a pipeline run for reporting.
type Result struct {
	State       State         `json:"state"`
	Version     string        `json:"version,omitempty"`
	Certificate verify.Result `json:"certificate"`
}

// Pipeline drives the stages against a management client.
type Pipeline struct {
	client proxmox.Client
	req    Request
}

// New creates a pipeline for the given client and request. The request must
// already be validated.
func New(client proxmox.Client, req Request) *Pipeline {
	return &Pipeline{client: client, req: req.withDefaults()}
}

// Run executes the stages strictly forward. The returned state is the last
// one reached; any fatal stage failure returns StateAborted together with the
// error. AlreadyExists outcomes at the account and plugin stages are logged
// and treated as success.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	result := Result{State: StateStart}
	req := p.req

	// Stage 1: connectivity probe. Fails fast before any mutating call.
	version, err := p.client.Version(ctx)
	if err != nil {
		result.State = StateAborted
		return result, errors.Wrap(provisionCode(err), "connectivity probe failed", err)
	}
	result.State = StateProbed
	result.Version = version
	output.Info("Connected, endpoint reports version %s", version)

	// Stage 2: ACME account.
	account := proxmox.AccountParams{
		Name:      req.Account,
		Contact:   req.Email,
		Directory: req.Directory,
		TOSURL:    req.TOSURL,
	}
	if err := p.client.RegisterAccount(ctx, account); err != nil {
		if !errors.Is(err, errors.ErrAlreadyExists) {
			result.State = StateAborted
			return result, errors.Wrap(provisionCode(err), "account registration failed", err)
		}
		output.Info("ACME account %s already registered", req.Account)
	} else {
		output.Success("ACME account %s registered", req.Account)
	}
	result.State = StateAccountReady

	// Stage 3: DNS challenge plugin.
	plugin := proxmox.NewCloudflarePlugin(req.PluginID, req.DNSToken)
	if err := p.client.UpsertPlugin(ctx, plugin); err != nil {
		if !errors.Is(err, errors.ErrAlreadyExists) {
			result.State = StateAborted
			return result, errors.Wrap(provisionCode(err), "plugin configuration failed", err)
		}
		output.Info("Challenge plugin %s already configured, credential updated", req.PluginID)
	} else {
		output.Success("Challenge plugin %s configured", req.PluginID)
	}
	result.State = StatePluginReady

	// Stage 4: bind the domain and trigger issuance. A binding failure may
	// just mean the node is already configured, so it only warns; a failed
	// issuance trigger is fatal.
	binding := proxmox.DomainBinding{
		Domain:  req.Domain,
		Plugin:  req.PluginID,
		Account: req.Account,
	}
	if err := p.client.BindDomain(ctx, req.Node, binding); err != nil {
		output.Warn("Domain binding failed (may already be configured): %v", err)
	}

	output.Info("Ordering certificate for %s...", req.Domain)
	if err := p.client.OrderCertificate(ctx, req.Node, req.Force); err != nil {
		result.State = StateAborted
		return result, err
	}
	result.State = StateOrderPlaced
	output.Success("Certificate order placed")

	// Stage 5: verify.
	cert, err := verify.WaitForCertificate(ctx, p.client, req.Node, req.Domain, req.Verify)
	result.Certificate = cert
	if err != nil {
		result.State = StateVerificationFailed
		return result, err
	}
	output.Success("Certificate for %s present, expires %s",
		req.Domain, cert.NotAfter.Format("2006-01-02"))

	if !req.SkipSmokeTest {
		addr := fmt.Sprintf("%s:%d", req.Domain, req.Kind.Port())
		if err := verify.SmokeTest(ctx, req.Domain, addr); err != nil {
			// Best effort: DNS may not point here yet.
			output.Warn("TLS smoke test against %s failed: %v", addr, err)
			logger.Warn("smoke test failed: %v", err)
		} else {
			output.Success("Service at %s is serving the new certificate", addr)
		}
	}

	result.State = StateVerified
	return result, nil
}

// provisionCode extracts the error code from a classified error, defaulting
// to INTERNAL for plain errors.
func provisionCode(err error) errors.ErrorCode {
	var perr *errors.ProvisionError
	if errors.As(err, &perr) {
		return perr.Code
	}
	return errors.ErrCodeInternal
}
