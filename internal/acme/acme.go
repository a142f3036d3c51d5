// Package acme obtains certificates directly from an ACME directory using
// the DNS-01 challenge against Cloudflare, without going through a Proxmox
// node's own ACME integration.
package acme

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/providers/dns/cloudflare"
	"github.com/go-acme/lego/v4/registration"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
)

// account implements registration.User with an ephemeral key. Each run
// registers a fresh throwaway account; the directory treats repeated
// registrations for the same key as idempotent.
type account struct {
	email        string
	key          crypto.PrivateKey
	registration *registration.Resource
}

func (a *account) GetEmail() string                        { return a.email }
func (a *account) GetRegistration() *registration.Resource { return a.registration }
func (a *account) GetPrivateKey() crypto.PrivateKey        { return a.key }

// Bundle is an issued certificate with its chain and private key, PEM encoded.
type Bundle struct {
	Domain            string
	Certificate       []byte
	PrivateKey        []byte
	IssuerCertificate []byte
}

// Issuer obtains certificates from an ACME directory via Cloudflare DNS-01.
type Issuer struct {
	Email     string
	Token     string
	Directory string

	// PropagationTimeout bounds how long DNS record propagation is awaited
	// before the challenge is submitted. Zero means the provider default.
	PropagationTimeout time.Duration
}

// NewIssuer creates an issuer for the given contact email and Cloudflare API
// token. An empty directory selects the Let's Encrypt production directory.
func NewIssuer(email, token, directory string) (*Issuer, error) {
	if email == "" {
		return nil, errors.Validation("contact email is required")
	}
	if token == "" {
		return nil, errors.Validation("Cloudflare API token is required")
	}
	if directory == "" {
		directory = lego.LEDirectoryProduction
	}
	return &Issuer{Email: email, Token: token, Directory: directory}, nil
}

func newAccountKey() (crypto.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "generate account key", err)
	}
	return key, nil
}

// Obtain registers an account, solves the DNS-01 challenge for the domain
// through Cloudflare, and returns the issued bundle.
func (i *Issuer) Obtain(domain string) (*Bundle, error) {
	key, err := newAccountKey()
	if err != nil {
		return nil, err
	}
	user := &account{email: i.Email, key: key}

	cfg := lego.NewConfig(user)
	cfg.CADirURL = i.Directory
	cfg.Certificate = lego.CertificateConfig{
		KeyType: certcrypto.RSA2048,
		Timeout: 30 * time.Second,
	}

	client, err := lego.NewClient(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIssuance, "create ACME client", err)
	}

	provCfg := cloudflare.NewDefaultConfig()
	provCfg.AuthToken = i.Token
	if i.PropagationTimeout > 0 {
		provCfg.PropagationTimeout = i.PropagationTimeout
	}
	provider, err := cloudflare.NewDNSProviderConfig(provCfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, "configure Cloudflare DNS provider", err)
	}
	if err := client.Challenge.SetDNS01Provider(provider); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIssuance, "set DNS-01 provider", err)
	}

	reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIssuance, "register ACME account", err)
	}
	user.registration = reg

	res, err := client.Certificate.Obtain(certificate.ObtainRequest{
		Domains: []string{domain},
		Bundle:  true,
	})
	if err != nil {
		return nil, errors.Stage(errors.ErrCodeIssuance, "obtain",
			"certificate order failed", "", err)
	}

	return &Bundle{
		Domain:            domain,
		Certificate:       res.Certificate,
		PrivateKey:        res.PrivateKey,
		IssuerCertificate: res.IssuerCertificate,
	}, nil
}
