package proxmox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
)

// newTestClient starts a TLS test server and returns a client pointed at it.
func newTestClient(t *testing.T, kind Kind, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL, "root@pam!setup=secret", kind)
}

func TestHTTPClient_Version(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotAuth, gotPath string
		client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPath = r.URL.Path
			w.Write([]byte(`{"data":{"version":"8.2","release":"4"}}`))
		})

		version, err := client.Version(context.Background())
		if err != nil {
			t.Fatalf("Version failed: %v", err)
		}
		if version != "8.2-4" {
			t.Errorf("version = %s, want 8.2-4", version)
		}
		if gotAuth != "PVEAPIToken=root@pam!setup=secret" {
			t.Errorf("auth header = %s", gotAuth)
		}
		if gotPath != "/api2/json/version" {
			t.Errorf("path = %s", gotPath)
		}
	})

	t.Run("pbs token prefix", func(t *testing.T) {
		var gotAuth string
		client := newTestClient(t, KindPBS, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`{"data":{"version":"3.2","release":"1"}}`))
		})

		if _, err := client.Version(context.Background()); err != nil {
			t.Fatalf("Version failed: %v", err)
		}
		if gotAuth != "PBSAPIToken=root@pam!setup=secret" {
			t.Errorf("auth header = %s", gotAuth)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "authentication failure", http.StatusUnauthorized)
		})

		_, err := client.Version(context.Background())
		if !errors.Is(err, errors.ErrUnauthorized) {
			t.Errorf("expected Unauthorized, got %v", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close() // now refuses connections

		client := NewHTTPClient(url, "token", KindVE)
		_, err := client.Version(context.Background())
		if !errors.Is(err, errors.ErrUnreachable) {
			t.Errorf("expected Unreachable, got %v", err)
		}
	})

	t.Run("unreachable and unauthorized are distinct", func(t *testing.T) {
		client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "authentication failure", http.StatusUnauthorized)
		})

		_, err := client.Version(context.Background())
		if errors.Is(err, errors.ErrUnreachable) {
			t.Error("401 must not classify as Unreachable")
		}
	})
}

func TestHTTPClient_RegisterAccount(t *testing.T) {
	params := AccountParams{
		Name:      "default",
		Contact:   "admin@example.com",
		Directory: "https://acme-v02.api.letsencrypt.org/directory",
		TOSURL:    "https://letsencrypt.org/documents/LE-SA.pdf",
	}

	t.Run("created", func(t *testing.T) {
		var gotForm map[string]string
		client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api2/json/cluster/acme/account" {
				t.Errorf("path = %s", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("method = %s", r.Method)
			}
			r.ParseForm()
			gotForm = map[string]string{
				"name":      r.PostForm.Get("name"),
				"contact":   r.PostForm.Get("contact"),
				"directory": r.PostForm.Get("directory"),
			}
			w.Write([]byte(`{"data":"UPID:..."}`))
		})

		if err := client.RegisterAccount(context.Background(), params); err != nil {
			t.Fatalf("RegisterAccount failed: %v", err)
		}
		if gotForm["name"] != "default" || gotForm["contact"] != "admin@example.com" {
			t.Errorf("unexpected form: %v", gotForm)
		}
	})

	t.Run("already exists is not an error code mismatch", func(t *testing.T) {
		client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "ACME account config file 'default' already exists", http.StatusInternalServerError)
		})

		err := client.RegisterAccount(context.Background(), params)
		if !errors.Is(err, errors.ErrAlreadyExists) {
			t.Errorf("expected AlreadyExists, got %v", err)
		}
	})

	t.Run("pbs path", func(t *testing.T) {
		var gotPath string
		client := newTestClient(t, KindPBS, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			w.Write([]byte(`{"data":null}`))
		})

		if err := client.RegisterAccount(context.Background(), params); err != nil {
			t.Fatalf("RegisterAccount failed: %v", err)
		}
		if gotPath != "/api2/json/config/acme/account" {
			t.Errorf("path = %s", gotPath)
		}
	})
}

func TestHTTPClient_UpsertPlugin(t *testing.T) {
	params := NewCloudflarePlugin("cloudflare", "cftok")

	t.Run("created", func(t *testing.T) {
		client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api2/json/cluster/acme/plugins" {
				t.Errorf("path = %s", r.URL.Path)
			}
			r.ParseForm()
			if r.PostForm.Get("api") != "cf" {
				t.Errorf("api = %s, want cf", r.PostForm.Get("api"))
			}
			if r.PostForm.Get("type") != "dns" {
				t.Errorf("type = %s, want dns", r.PostForm.Get("type"))
			}
			w.Write([]byte(`{"data":null}`))
		})

		if err := client.UpsertPlugin(context.Background(), params); err != nil {
			t.Fatalf("UpsertPlugin failed: %v", err)
		}
	})

	t.Run("existing plugin credential is overwritten", func(t *testing.T) {
		var updatePath, updateData string
		client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				http.Error(w, "plugin 'cloudflare' already exists", http.StatusBadRequest)
			case http.MethodPut:
				updatePath = r.URL.Path
				r.ParseForm()
				updateData = r.PostForm.Get("data")
				w.Write([]byte(`{"data":null}`))
			}
		})

		err := client.UpsertPlugin(context.Background(), params)
		if !errors.Is(err, errors.ErrAlreadyExists) {
			t.Fatalf("expected AlreadyExists marker, got %v", err)
		}
		if updatePath != "/api2/json/cluster/acme/plugins/cloudflare" {
			t.Errorf("update path = %s", updatePath)
		}
		if updateData != params.Data {
			t.Error("update call should carry the new credential data")
		}
	})

	t.Run("update failure is fatal", func(t *testing.T) {
		client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				http.Error(w, "plugin 'cloudflare' already exists", http.StatusBadRequest)
			case http.MethodPut:
				http.Error(w, "permission check failed", http.StatusForbidden)
			}
		})

		err := client.UpsertPlugin(context.Background(), params)
		if !errors.Is(err, errors.ErrUnauthorized) {
			t.Errorf("expected Unauthorized, got %v", err)
		}
	})
}

func TestHTTPClient_BindDomain(t *testing.T) {
	client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api2/json/nodes/pve1/config" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Method != http.MethodPut {
			t.Errorf("method = %s", r.Method)
		}
		r.ParseForm()
		if r.PostForm.Get("acme") != "account=default" {
			t.Errorf("acme = %s", r.PostForm.Get("acme"))
		}
		if r.PostForm.Get("acmedomain0") != "domain=pve1.example.com,plugin=cloudflare" {
			t.Errorf("acmedomain0 = %s", r.PostForm.Get("acmedomain0"))
		}
		w.Write([]byte(`{"data":null}`))
	})

	binding := DomainBinding{Domain: "pve1.example.com", Plugin: "cloudflare", Account: "default"}
	if err := client.BindDomain(context.Background(), "pve1", binding); err != nil {
		t.Fatalf("BindDomain failed: %v", err)
	}
}

func TestHTTPClient_OrderCertificate(t *testing.T) {
	t.Run("force flag", func(t *testing.T) {
		var gotForce string
		client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api2/json/nodes/pve1/certificates/acme/certificate" {
				t.Errorf("path = %s", r.URL.Path)
			}
			r.ParseForm()
			gotForce = r.PostForm.Get("force")
			w.Write([]byte(`{"data":"UPID:..."}`))
		})

		if err := client.OrderCertificate(context.Background(), "pve1", true); err != nil {
			t.Fatalf("OrderCertificate failed: %v", err)
		}
		if gotForce != "1" {
			t.Errorf("force = %q, want 1", gotForce)
		}
	})

	t.Run("failure carries server response", func(t *testing.T) {
		client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "validation failed: DNS problem", http.StatusInternalServerError)
		})

		err := client.OrderCertificate(context.Background(), "pve1", false)
		if !errors.Is(err, errors.ErrIssuanceFailed) {
			t.Fatalf("expected IssuanceFailed, got %v", err)
		}
		var perr *errors.ProvisionError
		if !errors.As(err, &perr) {
			t.Fatal("expected ProvisionError")
		}
		if perr.Response == "" {
			t.Error("issuance error should carry the server response body")
		}
	})
}

func TestHTTPClient_CertificateInfo(t *testing.T) {
	client := newTestClient(t, KindVE, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api2/json/nodes/pve1/certificates/info" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[
			{"filename":"pveproxy-ssl.pem","fingerprint":"AA:BB","san":["proxmox.example.com"],"notafter":1740787200}
		]}`))
	})

	certs, err := client.CertificateInfo(context.Background(), "pve1")
	if err != nil {
		t.Fatalf("CertificateInfo failed: %v", err)
	}
	if len(certs) != 1 {
		t.Fatalf("expected 1 cert, got %d", len(certs))
	}
	if !certs[0].Covers("proxmox.example.com") {
		t.Error("cert should cover proxmox.example.com")
	}
}
