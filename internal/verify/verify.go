// Package verify confirms that an ordered certificate actually arrived.
//
// Issuance is asynchronous on the server side and there is no push
// notification, so the verifier waits, then polls the certificate listing
// until an entry covering the requested domain appears or the attempt budget
// runs out. On success it additionally performs a best-effort TLS smoke test
// against the service port.
package verify

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/matthew-on-git/proxmox-ssl-setup/internal/errors"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/logger"
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/proxmox"
)

// Options tunes the poll loop.
type Options struct {
	// InitialWait is the delay before the first poll, giving the server
	// time to complete DNS validation.
	InitialWait time.Duration

	// Interval is the delay between polls.
	Interval time.Duration

	// MaxAttempts bounds the number of polls.
	MaxAttempts int
}

// DefaultOptions returns the poll tuning used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		InitialWait: 30 * time.Second,
		Interval:    10 * time.Second,
		MaxAttempts: 12,
	}
}

// Result describes the outcome of a certificate observation.
type Result struct {
	Status      proxmox.CertStatus `json:"status"`
	Fingerprint string             `json:"fingerprint,omitempty"`
	NotAfter    time.Time          `json:"not_after,omitempty"`
}

// Find searches a certificate listing for an entry whose subject alternative
// names include the domain.
func Find(certs []proxmox.CertInfo, domain string) Result {
	for _, cert := range certs {
		if cert.Covers(domain) {
			return Result{
				Status:      proxmox.CertPresent,
				Fingerprint: cert.Fingerprint,
				NotAfter:    cert.NotAfter.Time,
			}
		}
	}
	return Result{Status: proxmox.CertAbsent}
}

// WaitForCertificate polls the node's certificate listing until one covering
// the domain appears. Listing errors during polling are treated as transient;
// only the attempt budget and ctx cancellation end the loop.
func WaitForCertificate(ctx context.Context, client proxmox.Client, node, domain string, opts Options) (Result, error) {
	if opts.MaxAttempts <= 0 {
		opts = DefaultOptions()
	}

	if opts.InitialWait > 0 {
		logger.Info("waiting %s before polling for the certificate", opts.InitialWait)
		if err := sleep(ctx, opts.InitialWait); err != nil {
			return Result{Status: proxmox.CertPending}, err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		certs, err := client.CertificateInfo(ctx, node)
		if err != nil {
			lastErr = err
			logger.WarnFields("certificate listing failed", map[string]interface{}{
				"attempt": attempt,
				"error":   err,
			})
		} else if result := Find(certs, domain); result.Status == proxmox.CertPresent {
			return result, nil
		}

		if attempt < opts.MaxAttempts {
			if err := sleep(ctx, opts.Interval); err != nil {
				return Result{Status: proxmox.CertPending}, err
			}
		}
	}

	return Result{Status: proxmox.CertPending},
		errors.Wrap(errors.ErrCodeVerification,
			fmt.Sprintf("certificate for %s did not appear after %d attempts", domain, opts.MaxAttempts),
			lastErr)
}

// sleep blocks for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SmokeTest opens a TLS connection to addr (host:port), confirms an HTTP
// response comes back, and reports whether the served certificate covers the
// domain. Certificate chain verification is skipped; the point is to observe
// what the service actually serves.
func SmokeTest(ctx context.Context, domain string, addr string) error {
	dialer := &tls.Dialer{
		Config: &tls.Config{InsecureSkipVerify: true},
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Unreachable(err)
	}
	defer conn.Close()

	tlsConn := conn.(*tls.Conn)
	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return errors.Wrap(errors.ErrCodeVerification, "no peer certificate presented", nil)
	}
	leaf := state.PeerCertificates[0]
	if err := leaf.VerifyHostname(domain); err != nil {
		return errors.Wrap(errors.ErrCodeVerification,
			fmt.Sprintf("served certificate does not cover %s", domain), err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	}

	request := fmt.Sprintf("GET / HTTP/1.0\r\nHost: %s\r\nConnection: close\r\n\r\n", domain)
	if _, err := conn.Write([]byte(request)); err != nil {
		return errors.Wrap(errors.ErrCodeVerification, "write request", err)
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return errors.Wrap(errors.ErrCodeVerification, "read response", err)
	}
	if !strings.HasPrefix(line, "HTTP/") {
		return errors.Wrap(errors.ErrCodeVerification,
			fmt.Sprintf("unexpected response line %q", strings.TrimSpace(line)), nil)
	}

	logger.DebugFields("smoke test passed", map[string]interface{}{
		"addr":   addr,
		"status": strings.TrimSpace(line),
	})
	return nil
}
