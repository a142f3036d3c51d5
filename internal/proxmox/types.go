package proxmox

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the target product, Proxmox VE or Proxmox Backup Server.
type Kind string

// Supported target kinds.
const (
	KindVE  Kind = "ve"
	KindPBS Kind = "pbs"
)

// ParseKind validates and normalizes a target kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindVE:
		return KindVE, nil
	case KindPBS:
		return KindPBS, nil
	default:
		return "", fmt.Errorf("invalid target kind %q (must be ve or pbs)", s)
	}
}

// Port returns the management HTTPS port for the kind.
func (k Kind) Port() int {
	if k == KindPBS {
		return 8007
	}
	return 8006
}

// TokenPrefix returns the Authorization header scheme for API tokens.
// VE and PBS use different prefixes for the same token format.
func (k Kind) TokenPrefix() string {
	if k == KindPBS {
		return "PBSAPIToken"
	}
	return "PVEAPIToken"
}

// AdminCommand returns the local administration CLI binary for the kind.
func (k Kind) AdminCommand() string {
	if k == KindPBS {
		return "proxmox-backup-manager"
	}
	return "pvesh"
}

// AccountParams describes an ACME account registration.
type AccountParams struct {
	Name      string // account name, e.g. "default"
	Contact   string // contact email address
	Directory string // ACME directory URL
	TOSURL    string // terms-of-service URL agreed to
}

// PluginParams describes a DNS challenge plugin registration. Data carries
// the provider credential and is write-only: it is sent to the endpoint and
// never read back or logged.
type PluginParams struct {
	ID   string // plugin identifier, e.g. "cloudflare"
	Type string // always "dns"
	API  string // provider API identifier, e.g. "cf"
	Data string // base64-encoded credential payload
}

// NewCloudflarePlugin builds the plugin parameters for a Cloudflare DNS-01
// challenge plugin from an API token.
func NewCloudflarePlugin(id, token string) PluginParams {
	payload := "CF_Token=" + token + "\n"
	return PluginParams{
		ID:   id,
		Type: "dns",
		API:  "cf",
		Data: base64.StdEncoding.EncodeToString([]byte(payload)),
	}
}

// DomainBinding associates a domain with an ACME account and plugin on a node.
type DomainBinding struct {
	Domain  string
	Plugin  string
	Account string
}

// CertStatus is the observed state of an ordered certificate.
type CertStatus int

// Certificate observation results.
const (
	CertAbsent CertStatus = iota
	CertPending
	CertPresent
)

// String returns the string representation of the status.
func (s CertStatus) String() string {
	switch s {
	case CertAbsent:
		return "absent"
	case CertPending:
		return "pending"
	case CertPresent:
		return "present"
	default:
		return "unknown"
	}
}

// CertInfo describes one installed certificate as reported by the
// certificates/info listing.
type CertInfo struct {
	Filename    string   `json:"filename"`
	Fingerprint string   `json:"fingerprint"`
	Issuer      string   `json:"issuer"`
	Subject     string   `json:"subject"`
	SAN         []string `json:"san"`
	NotAfter    FlexTime `json:"notafter"`
	NotBefore   FlexTime `json:"notbefore"`
}

// Covers reports whether the certificate's subject alternative names include
// the given domain.
func (c CertInfo) Covers(domain string) bool {
	for _, san := range c.SAN {
		if strings.EqualFold(san, domain) {
			return true
		}
	}
	return false
}

// FlexTime decodes the notafter/notbefore fields, which the API has served
// both as unix seconds and as date strings across versions.
type FlexTime struct {
	time.Time
}

// UnmarshalJSON accepts a unix-seconds number, an RFC 3339 timestamp, or a
// bare YYYY-MM-DD date. A null or empty value leaves the zero time.
func (t *FlexTime) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` || s == "" {
		t.Time = time.Time{}
		return nil
	}

	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.Unix(unix, 0).UTC()
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("invalid time value %s", s)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, str); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized time format %q", str)
}

// MarshalJSON renders the time as an RFC 3339 string, or null if zero.
func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
