package proxmox

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/logger"
)

const apiBase = "/api2/json"

// HTTPClient implements Client against the Proxmox REST API using an API
// token. TLS certificate verification is disabled: the certificate being
// replaced is typically self-signed, so the endpoint cannot be trusted yet.
type HTTPClient struct {
	baseURL string
	token   string
	kind    Kind
	client  *http.Client
}

// NewHTTPClient creates a token-authenticated client for the given endpoint.
// baseURL is the scheme://host:port root, e.g. https://pve1.example.com:8006.
func NewHTTPClient(baseURL, token string, kind Kind) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		kind:    kind,
		client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// acmePath returns the cluster-or-config scoped ACME path for the kind.
// VE keeps ACME configuration under /cluster, PBS under /config.
func (c *HTTPClient) acmePath(suffix string) string {
	if c.kind == KindPBS {
		return "/config/acme/" + suffix
	}
	return "/cluster/acme/" + suffix
}

// do issues a request with the token header and returns status and body.
// Transport-level failures are classified as Unreachable.
func (c *HTTPClient) do(ctx context.Context, method, path string, form url.Values) (int, string, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiBase+path, body)
	if err != nil {
		return 0, "", errors.Wrap(errors.ErrCodeInternal, "build request", err)
	}
	req.Header.Set("Authorization", c.kind.TokenPrefix()+"="+c.token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	logger.DebugFields("api request", map[string]interface{}{
		"method": method,
		"path":   path,
	})

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", errors.Unreachable(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, "", errors.Wrap(errors.ErrCodeInternal, "read response", err)
	}

	logger.DebugFields("api response", map[string]interface{}{
		"path":   path,
		"status": resp.StatusCode,
	})

	return resp.StatusCode, string(data), nil
}

// Version probes the endpoint and returns the reported version string.
func (c *HTTPClient) Version(ctx context.Context) (string, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/version", nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", classifyStatus(status, body)
	}

	var payload struct {
		Data struct {
			Version string `json:"version"`
			Release string `json:"release"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "decode version response", err)
	}
	version := payload.Data.Version
	if payload.Data.Release != "" {
		version = fmt.Sprintf("%s-%s", version, payload.Data.Release)
	}
	return version, nil
}

// RegisterAccount creates an ACME account, treating "already exists" as
// idempotent success.
func (c *HTTPClient) RegisterAccount(ctx context.Context, params AccountParams) error {
	form := url.Values{}
	form.Set("name", params.Name)
	form.Set("contact", params.Contact)
	form.Set("directory", params.Directory)
	if params.TOSURL != "" {
		form.Set("tos_url", params.TOSURL)
	}

	status, body, err := c.do(ctx, http.MethodPost, c.acmePath("account"), form)
	if err != nil {
		return err
	}
	return classifyCreate("ACME account", status, body)
}

// UpsertPlugin registers the DNS challenge plugin. If the plugin already
// exists, the stored credential is overwritten with an update call.
func (c *HTTPClient) UpsertPlugin(ctx context.Context, params PluginParams) error {
	form := url.Values{}
	form.Set("id", params.ID)
	form.Set("type", params.Type)
	form.Set("api", params.API)
	form.Set("data", params.Data)

	status, body, err := c.do(ctx, http.MethodPost, c.acmePath("plugins"), form)
	if err != nil {
		return err
	}

	result := classifyCreate("challenge plugin", status, body)
	if !errors.Is(result, errors.ErrAlreadyExists) {
		return result
	}

	// Existing plugin: push the (possibly changed) credential.
	update := url.Values{}
	update.Set("data", params.Data)
	status, body, err = c.do(ctx, http.MethodPut, c.acmePath("plugins/"+params.ID), update)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return classifyStatus(status, body)
	}
	return errors.AlreadyExists("challenge plugin")
}

// BindDomain associates the domain with the account and plugin in the node
// configuration.
func (c *HTTPClient) BindDomain(ctx context.Context, node string, binding DomainBinding) error {
	form := url.Values{}
	form.Set("acme", "account="+binding.Account)
	form.Set("acmedomain0", fmt.Sprintf("domain=%s,plugin=%s", binding.Domain, binding.Plugin))

	status, body, err := c.do(ctx, http.MethodPut, "/nodes/"+node+"/config", form)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return classifyStatus(status, body)
	}
	return nil
}

// OrderCertificate triggers ACME issuance on the node.
func (c *HTTPClient) OrderCertificate(ctx context.Context, node string, force bool) error {
	form := url.Values{}
	if force {
		form.Set("force", "1")
	}

	status, body, err := c.do(ctx, http.MethodPost, "/nodes/"+node+"/certificates/acme/certificate", form)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return classifyStatus(status, body)
		}
		return errors.Stage(errors.ErrCodeIssuance, "order", "issuance trigger rejected", strings.TrimSpace(body), nil)
	}
	return nil
}

// CertificateInfo lists the certificates installed on the node.
func (c *HTTPClient) CertificateInfo(ctx context.Context, node string) ([]CertInfo, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/nodes/"+node+"/certificates/info", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, classifyStatus(status, body)
	}

	var payload struct {
		Data []CertInfo `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "decode certificate listing", err)
	}
	return payload.Data, nil
}
