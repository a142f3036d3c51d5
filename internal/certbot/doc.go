// Package certbot drives the system certbot binary with the Cloudflare DNS
// plugin as an alternative issuance path for hosts where the Proxmox ACME
// integration is unavailable.
//
// Certificates land in certbot's standard layout under
// /etc/letsencrypt/live/<domain>/ and can then be installed with the install
// package. The Cloudflare API token is handed to certbot through a temporary
// credentials file that never outlives the invocation.
package certbot
